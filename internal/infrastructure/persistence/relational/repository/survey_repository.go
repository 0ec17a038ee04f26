package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"encuesta/internal/errs"
	"encuesta/internal/infrastructure/persistence/relational/model"
	"encuesta/internal/ports"
)

// SurveyRepository is the gorm implementation of ports.SurveyRepository. It
// only uses portable SQL, so the same code serves every configured dialect.
type SurveyRepository struct {
	db *gorm.DB
}

var _ ports.SurveyRepository = (*SurveyRepository)(nil)

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *SurveyRepository) CountQuestions(ctx context.Context) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&model.Question{}).Count(&n).Error; err != nil {
		return 0, errs.Wrap(err, "count questions")
	}
	return n, nil
}

// SeedCatalog inserts questions and options with their explicit ids. Rows that
// already exist are left untouched.
func (r *SurveyRepository) SeedCatalog(ctx context.Context, questions []ports.CatalogQuestion) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return nil
	}

	qRows := make([]model.Question, 0, len(questions))
	oRows := make([]model.Option, 0, len(questions)*4)
	for _, q := range questions {
		qRows = append(qRows, model.Question{ID: q.QuestionID, Text: q.Text})
		for _, o := range q.Options {
			oRows = append(oRows, model.Option{
				ID:         o.OptionID,
				QuestionID: q.QuestionID,
				Text:       o.Text,
				Points:     o.Points,
			})
		}
	}

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&qRows).Error; err != nil {
		return errs.Wrap(err, "insert questions")
	}
	if len(oRows) == 0 {
		return nil
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&oRows).Error; err != nil {
		return errs.Wrap(err, "insert options")
	}
	return nil
}

func (r *SurveyRepository) ListCatalog(ctx context.Context) ([]ports.CatalogQuestion, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var qRows []model.Question
	if err := db.Order("id asc").Find(&qRows).Error; err != nil {
		return nil, errs.Wrap(err, "query questions")
	}

	var oRows []model.Option
	if err := db.Order("question_id asc").Order("id asc").Find(&oRows).Error; err != nil {
		return nil, errs.Wrap(err, "query options")
	}

	optionsByQuestion := make(map[uint64][]ports.CatalogOption, len(qRows))
	for _, row := range oRows {
		optionsByQuestion[row.QuestionID] = append(optionsByQuestion[row.QuestionID], ports.CatalogOption{
			OptionID:   row.ID,
			QuestionID: row.QuestionID,
			Text:       row.Text,
			Points:     row.Points,
		})
	}

	items := make([]ports.CatalogQuestion, 0, len(qRows))
	for _, row := range qRows {
		items = append(items, ports.CatalogQuestion{
			QuestionID: row.ID,
			Text:       row.Text,
			Options:    optionsByQuestion[row.ID],
		})
	}
	return items, nil
}

func (r *SurveyRepository) InsertRespondent(ctx context.Context, input ports.RespondentCreate) (ports.Respondent, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Respondent{}, err
	}

	row := model.Respondent{
		Name:       input.Name,
		Email:      input.Email,
		Age:        input.Age,
		Gender:     input.Gender,
		TotalScore: input.TotalScore,
		Severity:   input.Severity,
		CreatedAt:  input.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.Respondent{}, errs.Wrap(err, "insert respondent")
	}
	return mapRespondent(row), nil
}

func (r *SurveyRepository) InsertAnswer(ctx context.Context, input ports.AnswerCreate) (ports.Answer, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Answer{}, err
	}

	row := model.Answer{
		RespondentID: input.RespondentID,
		QuestionID:   input.QuestionID,
		OptionID:     input.OptionID,
		Points:       input.Points,
		CreatedAt:    input.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return ports.Answer{}, errs.Wrapf(err, "insert answer for question %d", input.QuestionID)
	}
	return ports.Answer{
		AnswerID:     row.ID,
		RespondentID: row.RespondentID,
		QuestionID:   row.QuestionID,
		OptionID:     row.OptionID,
		Points:       row.Points,
		CreatedAt:    row.CreatedAt,
	}, nil
}

func (r *SurveyRepository) CountRespondents(ctx context.Context) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&model.Respondent{}).Count(&n).Error; err != nil {
		return 0, errs.Wrap(err, "count respondents")
	}
	return n, nil
}

func (r *SurveyRepository) CountRespondentsByName(ctx context.Context, name string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&model.Respondent{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return 0, errs.Wrap(err, "count respondents by name")
	}
	return n, nil
}

func (r *SurveyRepository) CountRespondentsByGender(ctx context.Context) ([]ports.GroupCount, error) {
	return r.groupRespondents(ctx, "gender")
}

func (r *SurveyRepository) CountRespondentsBySeverity(ctx context.Context) ([]ports.GroupCount, error) {
	return r.groupRespondents(ctx, "severity")
}

func (r *SurveyRepository) groupRespondents(ctx context.Context, column string) ([]ports.GroupCount, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Label string
		Total int64
	}
	if err := db.Model(&model.Respondent{}).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order(column + " asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrapf(err, "count respondents by %s", column)
	}

	items := make([]ports.GroupCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.GroupCount{Label: row.Label, Count: row.Total})
	}
	return items, nil
}

func (r *SurveyRepository) CountAnswersByOption(ctx context.Context) ([]ports.OptionCount, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		OptionID uint64
		Total    int64
	}
	if err := db.Model(&model.Answer{}).
		Select("option_id, COUNT(*) AS total").
		Group("option_id").
		Order("option_id asc").
		Scan(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "count answers by option")
	}

	items := make([]ports.OptionCount, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OptionCount{OptionID: row.OptionID, Count: row.Total})
	}
	return items, nil
}

func mapRespondent(row model.Respondent) ports.Respondent {
	return ports.Respondent{
		RespondentID: row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Age:          row.Age,
		Gender:       row.Gender,
		TotalScore:   row.TotalScore,
		Severity:     row.Severity,
		CreatedAt:    row.CreatedAt,
	}
}
