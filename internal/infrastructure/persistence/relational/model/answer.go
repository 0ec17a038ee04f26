package model

import "time"

// Answer keeps the option's points as they were at submission time.
type Answer struct {
	ID           uint64      `gorm:"column:id;primaryKey;autoIncrement"`
	RespondentID uint64      `gorm:"column:respondent_id;not null;index"`
	Respondent   *Respondent `gorm:"foreignKey:RespondentID;references:ID;constraint:OnDelete:CASCADE"`
	QuestionID   uint64      `gorm:"column:question_id;not null;index"`
	Question     *Question   `gorm:"foreignKey:QuestionID;references:ID;constraint:OnDelete:CASCADE"`
	OptionID     uint64      `gorm:"column:option_id;not null;index"`
	Option       *Option     `gorm:"foreignKey:OptionID;references:ID;constraint:OnDelete:CASCADE"`
	Points       int         `gorm:"column:points;not null;default:0"`
	CreatedAt    time.Time   `gorm:"column:created_at;not null"`
}

func (Answer) TableName() string {
	return "answers"
}
