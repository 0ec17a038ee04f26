package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"encuesta/internal/infrastructure/persistence/relational/model"
	"encuesta/internal/ports"
)

func setupSurveyRepository(t *testing.T) (*SurveyRepository, *gorm.DB) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "survey.sqlite") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSurveyRepository(db), db
}

func testCatalog() []ports.CatalogQuestion {
	return []ports.CatalogQuestion{
		{QuestionID: 1, Text: "q1", Options: []ports.CatalogOption{
			{OptionID: 1, Text: "a", Points: 0},
			{OptionID: 2, Text: "b", Points: 3},
		}},
		{QuestionID: 2, Text: "q2", Options: []ports.CatalogOption{
			{OptionID: 3, Text: "c", Points: 0},
			{OptionID: 4, Text: "d", Points: 2},
		}},
	}
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	repo, db := setupSurveyRepository(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := repo.SeedCatalog(ctx, testCatalog()); err != nil {
			t.Fatalf("SeedCatalog() run %d error = %v", i, err)
		}
	}

	n, err := repo.CountQuestions(ctx)
	if err != nil {
		t.Fatalf("CountQuestions() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CountQuestions() = %d, want 2", n)
	}

	var options int64
	if err := db.Model(&model.Option{}).Count(&options).Error; err != nil {
		t.Fatalf("count options: %v", err)
	}
	if options != 4 {
		t.Fatalf("options = %d, want 4", options)
	}
}

func TestListCatalogOrdersByID(t *testing.T) {
	repo, _ := setupSurveyRepository(t)
	ctx := context.Background()

	if err := repo.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("SeedCatalog() error = %v", err)
	}

	items, err := repo.ListCatalog(ctx)
	if err != nil {
		t.Fatalf("ListCatalog() error = %v", err)
	}
	if len(items) != 2 || items[0].QuestionID != 1 || items[1].QuestionID != 2 {
		t.Fatalf("ListCatalog() = %+v", items)
	}
	if len(items[1].Options) != 2 || items[1].Options[0].OptionID != 3 || items[1].Options[1].Points != 2 {
		t.Fatalf("ListCatalog() q2 options = %+v", items[1].Options)
	}
}

func TestInsertRespondentAndAggregateReads(t *testing.T) {
	repo, _ := setupSurveyRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("SeedCatalog() error = %v", err)
	}

	respondents := []ports.RespondentCreate{
		{Name: "Ana", Email: "ana@example.com", Age: 31, Gender: "Femenino", TotalScore: 5, Severity: "Leve", CreatedAt: now},
		{Name: "Anónimo", Email: "anonimo@encuesta.local", Gender: "Prefiero no decir", TotalScore: 3, Severity: "Leve", CreatedAt: now},
		{Name: "Luis", Email: "luis@example.com", Age: 40, Gender: "Masculino", TotalScore: 0, Severity: "Leve", CreatedAt: now},
		{Name: "Eva", Email: "eva@example.com", Age: 22, Gender: "Femenino", TotalScore: 12, Severity: "Grave", CreatedAt: now},
	}
	for _, input := range respondents {
		created, err := repo.InsertRespondent(ctx, input)
		if err != nil {
			t.Fatalf("InsertRespondent(%s) error = %v", input.Name, err)
		}
		if created.RespondentID == 0 {
			t.Fatalf("InsertRespondent(%s) id = 0", input.Name)
		}
		if _, err := repo.InsertAnswer(ctx, ports.AnswerCreate{
			RespondentID: created.RespondentID,
			QuestionID:   1,
			OptionID:     2,
			Points:       3,
			CreatedAt:    now,
		}); err != nil {
			t.Fatalf("InsertAnswer() error = %v", err)
		}
	}

	total, err := repo.CountRespondents(ctx)
	if err != nil || total != 4 {
		t.Fatalf("CountRespondents() = %d, %v", total, err)
	}

	anonymous, err := repo.CountRespondentsByName(ctx, "Anónimo")
	if err != nil || anonymous != 1 {
		t.Fatalf("CountRespondentsByName() = %d, %v", anonymous, err)
	}

	genders, err := repo.CountRespondentsByGender(ctx)
	if err != nil {
		t.Fatalf("CountRespondentsByGender() error = %v", err)
	}
	byGender := map[string]int64{}
	for _, g := range genders {
		byGender[g.Label] = g.Count
	}
	if len(byGender) != 3 || byGender["Femenino"] != 2 || byGender["Masculino"] != 1 || byGender["Prefiero no decir"] != 1 {
		t.Fatalf("CountRespondentsByGender() = %#v", byGender)
	}

	severities, err := repo.CountRespondentsBySeverity(ctx)
	if err != nil {
		t.Fatalf("CountRespondentsBySeverity() error = %v", err)
	}
	bySeverity := map[string]int64{}
	for _, s := range severities {
		bySeverity[s.Label] = s.Count
	}
	if bySeverity["Leve"] != 3 || bySeverity["Grave"] != 1 {
		t.Fatalf("CountRespondentsBySeverity() = %#v", bySeverity)
	}

	options, err := repo.CountAnswersByOption(ctx)
	if err != nil {
		t.Fatalf("CountAnswersByOption() error = %v", err)
	}
	if len(options) != 1 || options[0].OptionID != 2 || options[0].Count != 4 {
		t.Fatalf("CountAnswersByOption() = %+v", options)
	}
}

func TestInsertAnswerRejectsUnknownOption(t *testing.T) {
	repo, _ := setupSurveyRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.SeedCatalog(ctx, testCatalog()); err != nil {
		t.Fatalf("SeedCatalog() error = %v", err)
	}
	created, err := repo.InsertRespondent(ctx, ports.RespondentCreate{Name: "x", Severity: "Leve", CreatedAt: now})
	if err != nil {
		t.Fatalf("InsertRespondent() error = %v", err)
	}

	if _, err := repo.InsertAnswer(ctx, ports.AnswerCreate{
		RespondentID: created.RespondentID,
		QuestionID:   1,
		OptionID:     999,
		CreatedAt:    now,
	}); err == nil {
		t.Fatalf("InsertAnswer() expected foreign key error")
	}
}

func TestAggregateReadsOnEmptyStore(t *testing.T) {
	repo, _ := setupSurveyRepository(t)
	ctx := context.Background()

	total, err := repo.CountRespondents(ctx)
	if err != nil || total != 0 {
		t.Fatalf("CountRespondents() = %d, %v", total, err)
	}
	genders, err := repo.CountRespondentsByGender(ctx)
	if err != nil || len(genders) != 0 {
		t.Fatalf("CountRespondentsByGender() = %+v, %v", genders, err)
	}
	options, err := repo.CountAnswersByOption(ctx)
	if err != nil || len(options) != 0 {
		t.Fatalf("CountAnswersByOption() = %+v, %v", options, err)
	}
}
