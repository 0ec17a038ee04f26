package model

type Option struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	QuestionID uint64    `gorm:"column:question_id;not null;index"`
	Question   *Question `gorm:"foreignKey:QuestionID;references:ID;constraint:OnDelete:CASCADE"`
	Text       string    `gorm:"column:text;type:text;not null"`
	Points     int       `gorm:"column:points;not null;default:0"`
}

func (Option) TableName() string {
	return "options"
}
