package survey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "encuesta/internal/domain/survey"
	"encuesta/internal/infrastructure/persistence/relational/model"
	"encuesta/internal/infrastructure/persistence/relational/repository"
	"encuesta/internal/infrastructure/persistence/relational/uow"
	"encuesta/internal/ports"
)

type testEnv struct {
	db    *gorm.DB
	sqlDB *sql.DB
	repo  *repository.SurveyRepository
	svc   *Service
}

func setupService(t *testing.T) testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "survey.sqlite") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	seed, err := domain.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}

	repo := repository.NewSurveyRepository(db)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(repo, uow.NewUnitOfWork(db), seed, WithClock(func() time.Time { return fixed }))
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	return testEnv{db: db, sqlDB: sqlDB, repo: repo, svc: svc}
}

func responses(pairs ...string) map[string]string {
	out := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i]] = pairs[i+1]
	}
	return out
}

func countRows(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(m).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func TestSubmitAllMildAnswers(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	res, err := env.svc.Submit(ctx, SubmitInput{
		Name:      "Ana",
		Email:     "ana@example.com",
		Age:       29,
		Gender:    "Femenino",
		Responses: responses("1", "1", "2", "5", "3", "9", "4", "13", "5", "17", "6", "21"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TotalScore != 0 || res.Severity != domain.SeverityMild {
		t.Fatalf("Submit() = %d/%s, want 0/Leve", res.TotalScore, res.Severity)
	}
	if res.AnswersStored != 6 || res.Unresolved != 0 {
		t.Fatalf("stored/unresolved = %d/%d, want 6/0", res.AnswersStored, res.Unresolved)
	}

	if n := countRows(t, env.db, &model.Respondent{}); n != 1 {
		t.Fatalf("respondents = %d, want 1", n)
	}
	if n := countRows(t, env.db, &model.Answer{}); n != 6 {
		t.Fatalf("answers = %d, want 6", n)
	}

	var stored model.Respondent
	if err := env.db.First(&stored, res.RespondentID).Error; err != nil {
		t.Fatalf("load respondent: %v", err)
	}
	if stored.Name != "Ana" || stored.Severity != string(domain.SeverityMild) || stored.TotalScore != 0 {
		t.Fatalf("stored respondent = %+v", stored)
	}
}

func TestSubmitMixedAnswersIsModerate(t *testing.T) {
	env := setupService(t)

	// points 0,1,2,3,1,2
	res, err := env.svc.Submit(context.Background(), SubmitInput{
		Name:      "Luis",
		Gender:    "Masculino",
		Age:       41,
		Responses: responses("1", "1", "2", "6", "3", "11", "4", "16", "5", "18", "6", "23"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TotalScore != 9 || res.Severity != domain.SeverityModerate {
		t.Fatalf("Submit() = %d/%s, want 9/Moderado", res.TotalScore, res.Severity)
	}
}

func TestSubmitAnonymousStoresSentinels(t *testing.T) {
	env := setupService(t)

	res, err := env.svc.Submit(context.Background(), SubmitInput{
		Anonymous: true,
		Name:      "ignored",
		Email:     "ignored@example.com",
		Age:       33,
		Gender:    "Femenino",
		Responses: responses("1", "4", "2", "8"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TotalScore != 6 || res.Severity != domain.SeverityModerate {
		t.Fatalf("Submit() = %d/%s, want 6/Moderado", res.TotalScore, res.Severity)
	}

	var stored model.Respondent
	if err := env.db.First(&stored, res.RespondentID).Error; err != nil {
		t.Fatalf("load respondent: %v", err)
	}
	if stored.Name != domain.AnonymousName || stored.Email != domain.AnonymousEmail ||
		stored.Age != 0 || stored.Gender != domain.GenderUndisclosed {
		t.Fatalf("stored respondent = %+v, want anonymous sentinels", stored)
	}
}

func TestSubmitUnresolvedSelectionScoresZeroAndIsNotStored(t *testing.T) {
	env := setupService(t)

	// option 8 belongs to question 2, question 99 does not exist
	res, err := env.svc.Submit(context.Background(), SubmitInput{
		Name:      "Eva",
		Gender:    "Femenino",
		Responses: responses("1", "8", "2", "8", "99", "1"),
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TotalScore != 3 || res.AnswersStored != 1 || res.Unresolved != 2 {
		t.Fatalf("Submit() = %+v", res)
	}
	if n := countRows(t, env.db, &model.Answer{}); n != 1 {
		t.Fatalf("answers = %d, want 1", n)
	}
}

func TestSubmitEmptyResponsesStoresRespondentOnly(t *testing.T) {
	env := setupService(t)

	res, err := env.svc.Submit(context.Background(), SubmitInput{Anonymous: true, Responses: map[string]string{}})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.TotalScore != 0 || res.Severity != domain.SeverityMild || res.AnswersStored != 0 {
		t.Fatalf("Submit() = %+v", res)
	}
	if n := countRows(t, env.db, &model.Respondent{}); n != 1 {
		t.Fatalf("respondents = %d, want 1", n)
	}
}

func TestSubmitRejectsMalformedInput(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	testCases := []struct {
		name      string
		responses map[string]string
	}{
		{name: "missing responses", responses: nil},
		{name: "non numeric question", responses: responses("uno", "1")},
		{name: "non numeric option", responses: responses("1", "x")},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := env.svc.Submit(ctx, SubmitInput{Name: "x", Responses: testCase.responses})
			if !errors.Is(err, domain.ErrMalformedSubmission) {
				t.Fatalf("Submit() error = %v, want ErrMalformedSubmission", err)
			}
		})
	}

	if n := countRows(t, env.db, &model.Respondent{}); n != 0 {
		t.Fatalf("respondents = %d, want 0", n)
	}
}

type failingAnswerRepo struct {
	*repository.SurveyRepository
}

func (r failingAnswerRepo) InsertAnswer(context.Context, ports.AnswerCreate) (ports.Answer, error) {
	return ports.Answer{}, errors.New("disk full")
}

func TestSubmitRollsBackWhenAnswerInsertFails(t *testing.T) {
	env := setupService(t)

	seed, err := domain.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}
	svc := NewService(failingAnswerRepo{env.repo}, uow.NewUnitOfWork(env.db), seed)
	if err := svc.LoadCatalog(context.Background()); err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}

	if _, err := svc.Submit(context.Background(), SubmitInput{Name: "x", Responses: responses("1", "2")}); err == nil {
		t.Fatalf("Submit() expected error")
	}
	if n := countRows(t, env.db, &model.Respondent{}); n != 0 {
		t.Fatalf("respondents = %d, want 0 after rollback", n)
	}
}

func TestSubmitRequiresLoadedCatalog(t *testing.T) {
	env := setupService(t)
	svc := NewService(env.repo, uow.NewUnitOfWork(env.db), nil)

	_, err := svc.Submit(context.Background(), SubmitInput{Responses: responses("1", "1")})
	if !errors.Is(err, domain.ErrCatalogNotLoaded) {
		t.Fatalf("Submit() error = %v, want ErrCatalogNotLoaded", err)
	}
}

func TestSeedCatalogRunsOnce(t *testing.T) {
	env := setupService(t)

	seeded, err := env.svc.SeedCatalog(context.Background())
	if err != nil {
		t.Fatalf("SeedCatalog() error = %v", err)
	}
	if seeded {
		t.Fatalf("SeedCatalog() seeded twice")
	}
	if n := countRows(t, env.db, &model.Question{}); n != 6 {
		t.Fatalf("questions = %d, want 6", n)
	}
	if n := countRows(t, env.db, &model.Option{}); n != 24 {
		t.Fatalf("options = %d, want 24", n)
	}
}

func TestLoadCatalogReadsStoredCatalog(t *testing.T) {
	env := setupService(t)

	c, err := env.svc.Catalog()
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}
	if c.Len() != 6 || c.MaxScore() != 18 {
		t.Fatalf("catalog len/max = %d/%d, want 6/18", c.Len(), c.MaxScore())
	}
	opt, ok := c.Option(3, 12)
	if !ok || opt.Points != 3 {
		t.Fatalf("Option(3,12) = %+v, %v", opt, ok)
	}
}

func TestDashboardAggregatesSubmissions(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	submissions := []SubmitInput{
		{Name: "Ana", Gender: "Femenino", Age: 20, Responses: responses("1", "1", "2", "5")},
		{Name: "Bea", Gender: "Femenino", Age: 22, Responses: responses("1", "4", "2", "8", "3", "12", "4", "16")},
		{Anonymous: true, Responses: responses("1", "1")},
	}
	for _, sub := range submissions {
		if _, err := env.svc.Submit(ctx, sub); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}

	d, err := env.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Degraded {
		t.Fatalf("Dashboard() degraded")
	}
	if d.TotalRespondents != 3 {
		t.Fatalf("total = %d, want 3", d.TotalRespondents)
	}
	if d.Anonymous.Count != 1 || d.Anonymous.Percentage != 33.3 {
		t.Fatalf("anonymous = %+v, want 1/33.3", d.Anonymous)
	}

	gender := map[string]domain.Share{}
	for _, s := range d.Gender {
		gender[s.Label] = s
	}
	if gender["Femenino"].Count != 2 || gender["Femenino"].Percentage != 66.7 {
		t.Fatalf("gender Femenino = %+v", gender["Femenino"])
	}
	if gender[domain.GenderUndisclosed].Count != 1 {
		t.Fatalf("gender undisclosed = %+v", gender[domain.GenderUndisclosed])
	}

	severity := map[string]int{}
	for _, s := range d.Severity {
		severity[s.Label] = s.Count
	}
	if severity["Leve"] != 2 || severity["Grave"] != 1 {
		t.Fatalf("severity = %+v", severity)
	}

	if len(d.Questions) != 6 {
		t.Fatalf("questions = %d, want 6", len(d.Questions))
	}
	q1 := d.Questions[0]
	if q1.QuestionID != 1 || q1.TotalAnswers != 3 || len(q1.Options) != 4 {
		t.Fatalf("question 1 = %+v", q1)
	}
	if q1.Options[0].Count != 2 || q1.Options[0].Percentage != 66.7 {
		t.Fatalf("question 1 option 1 = %+v", q1.Options[0])
	}
	if d.Questions[5].TotalAnswers != 0 || d.Questions[5].Options[0].Percentage != 0 {
		t.Fatalf("question 6 = %+v", d.Questions[5])
	}
}

func TestDashboardOnEmptyStore(t *testing.T) {
	env := setupService(t)

	d, err := env.svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if d.Degraded || d.TotalRespondents != 0 || d.Anonymous.Percentage != 0 {
		t.Fatalf("Dashboard() = %+v", d)
	}
	if len(d.Gender) != 0 || len(d.Severity) != 0 || len(d.Questions) != 6 {
		t.Fatalf("Dashboard() groups = %d/%d/%d", len(d.Gender), len(d.Severity), len(d.Questions))
	}
}

func TestDashboardDegradesWhenStoreUnavailable(t *testing.T) {
	env := setupService(t)
	if err := env.sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	d, err := env.svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v, want degraded result", err)
	}
	if !d.Degraded || d.TotalRespondents != 0 {
		t.Fatalf("Dashboard() = %+v, want degraded zeros", d)
	}
	if len(d.Questions) != 6 {
		t.Fatalf("questions = %d, want 6", len(d.Questions))
	}
}

func TestAggregateReadsMatchDashboard(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if _, err := env.svc.Submit(ctx, SubmitInput{Name: "Ana", Gender: "Femenino", Responses: responses("1", "2")}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	total, err := env.svc.TotalRespondents(ctx)
	if err != nil || total != 1 {
		t.Fatalf("TotalRespondents() = %d, %v", total, err)
	}
	anon, err := env.svc.AnonymousShare(ctx)
	if err != nil || anon.Count != 0 || anon.Percentage != 0 {
		t.Fatalf("AnonymousShare() = %+v, %v", anon, err)
	}
	gender, err := env.svc.GenderDistribution(ctx)
	if err != nil || len(gender) != 1 || gender[0].Percentage != 100 {
		t.Fatalf("GenderDistribution() = %+v, %v", gender, err)
	}
	severity, err := env.svc.SeverityDistribution(ctx)
	if err != nil || len(severity) != 1 || severity[0].Label != "Leve" {
		t.Fatalf("SeverityDistribution() = %+v, %v", severity, err)
	}
	breakdown, err := env.svc.PerQuestionBreakdown(ctx)
	if err != nil || breakdown[0].Options[1].Count != 1 || breakdown[0].Options[1].Percentage != 100 {
		t.Fatalf("PerQuestionBreakdown() = %+v, %v", breakdown, err)
	}
}

func TestReportDashboardOnUnmigratedStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "fresh.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	seed, err := domain.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}
	svc := NewService(repository.NewSurveyRepository(db), uow.NewUnitOfWork(db), seed)

	d, err := svc.ReportDashboard(context.Background())
	if err != nil {
		t.Fatalf("ReportDashboard() error = %v, want degraded result", err)
	}
	if !d.Degraded || d.TotalRespondents != 0 || len(d.Questions) != 6 {
		t.Fatalf("ReportDashboard() = %+v", d)
	}
}

func TestReportDashboardReloadsStoredCatalog(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	if _, err := env.svc.Submit(ctx, SubmitInput{Anonymous: true, Responses: responses("1", "4")}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	d, err := env.svc.ReportDashboard(ctx)
	if err != nil {
		t.Fatalf("ReportDashboard() error = %v", err)
	}
	if d.Degraded || d.TotalRespondents != 1 || d.Anonymous.Count != 1 {
		t.Fatalf("ReportDashboard() = %+v", d)
	}
}

func TestSubmitConcurrentSubmissionsAllStored(t *testing.T) {
	env := setupService(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.Submit(ctx, SubmitInput{
				Name:      fmt.Sprintf("persona-%d", i),
				Gender:    "Femenino",
				Responses: responses("1", "2", "2", "6", "3", "11", "4", "16", "5", "18", "6", "23"),
			})
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("concurrent Submit() error = %v", err)
		}
	}
	if got := countRows(t, env.db, &model.Respondent{}); got != workers {
		t.Fatalf("respondents = %d, want %d", got, workers)
	}
	if got := countRows(t, env.db, &model.Answer{}); got != workers*6 {
		t.Fatalf("answers = %d, want %d", got, workers*6)
	}
}
