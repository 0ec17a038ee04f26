package model

type Question struct {
	ID   uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Text string `gorm:"column:text;type:text;not null"`
}

func (Question) TableName() string {
	return "questions"
}
