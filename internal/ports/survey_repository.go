package ports

import (
	"context"
	"time"
)

type CatalogOption struct {
	OptionID   uint64
	QuestionID uint64
	Text       string
	Points     int
}

type CatalogQuestion struct {
	QuestionID uint64
	Text       string
	Options    []CatalogOption
}

type Respondent struct {
	RespondentID uint64
	Name         string
	Email        string
	Age          int
	Gender       string
	TotalScore   int
	Severity     string
	CreatedAt    time.Time
}

type RespondentCreate struct {
	Name       string
	Email      string
	Age        int
	Gender     string
	TotalScore int
	Severity   string
	CreatedAt  time.Time
}

type Answer struct {
	AnswerID     uint64
	RespondentID uint64
	QuestionID   uint64
	OptionID     uint64
	Points       int
	CreatedAt    time.Time
}

type AnswerCreate struct {
	RespondentID uint64
	QuestionID   uint64
	OptionID     uint64
	Points       int
	CreatedAt    time.Time
}

type GroupCount struct {
	Label string
	Count int64
}

type OptionCount struct {
	OptionID uint64
	Count    int64
}

// SurveyAggregateRepository exposes the grouped reads the dashboard is built from.
type SurveyAggregateRepository interface {
	CountRespondents(ctx context.Context) (int64, error)
	CountRespondentsByName(ctx context.Context, name string) (int64, error)
	CountRespondentsByGender(ctx context.Context) ([]GroupCount, error)
	CountRespondentsBySeverity(ctx context.Context) ([]GroupCount, error)
	CountAnswersByOption(ctx context.Context) ([]OptionCount, error)
}

type SurveyRepository interface {
	SurveyAggregateRepository
	CountQuestions(ctx context.Context) (int64, error)
	SeedCatalog(ctx context.Context, questions []CatalogQuestion) error
	ListCatalog(ctx context.Context) ([]CatalogQuestion, error)
	InsertRespondent(ctx context.Context, input RespondentCreate) (Respondent, error)
	InsertAnswer(ctx context.Context, input AnswerCreate) (Answer, error)
}
