package model

import "time"

type Respondent struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;type:varchar(255);not null;index"`
	Email      string    `gorm:"column:email;type:varchar(255);not null"`
	Age        int       `gorm:"column:age;not null;default:0"`
	Gender     string    `gorm:"column:gender;type:varchar(50);not null"`
	TotalScore int       `gorm:"column:total_score;not null;default:0"`
	Severity   string    `gorm:"column:severity;type:varchar(32);not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (Respondent) TableName() string {
	return "respondents"
}
