package survey

import (
	"context"
	"log/slog"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	"encuesta/internal/ports"
)

type SubmitInput struct {
	Anonymous bool
	Name      string
	Email     string
	Age       int
	Gender    string
	// Responses maps question id to option id in wire form. nil means the
	// submission carried no responses at all.
	Responses map[string]string
}

type SubmitResult struct {
	RespondentID  uint64
	TotalScore    int
	Severity      domain.Severity
	AnswersStored int
	Unresolved    int
}

// Submit scores one survey and stores the respondent with its answers in a
// single transaction. Selections that do not resolve against the catalog score
// zero and are not stored.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if err := s.checkReady(ctx); err != nil {
		return SubmitResult{}, err
	}
	catalog, err := s.Catalog()
	if err != nil {
		return SubmitResult{}, err
	}

	ctx = logCtx(ctx, "submit")

	selection, err := domain.ParseSelection(input.Responses)
	if err != nil {
		return SubmitResult{}, err
	}

	score := catalog.Score(selection)
	profile := domain.MaterializeRespondent(domain.Submission{
		Anonymous: input.Anonymous,
		Name:      input.Name,
		Email:     input.Email,
		Age:       input.Age,
		Gender:    input.Gender,
		Selection: selection,
	})
	now := s.now()

	var result SubmitResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		respondent, err := s.repo.InsertRespondent(txCtx, ports.RespondentCreate{
			Name:       profile.Name,
			Email:      profile.Email,
			Age:        profile.Age,
			Gender:     profile.Gender,
			TotalScore: score.Total,
			Severity:   string(score.Severity),
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		for _, answer := range score.Answers {
			if _, err := s.repo.InsertAnswer(txCtx, ports.AnswerCreate{
				RespondentID: respondent.RespondentID,
				QuestionID:   answer.QuestionID,
				OptionID:     answer.OptionID,
				Points:       answer.Points,
				CreatedAt:    now,
			}); err != nil {
				return err
			}
		}

		result = SubmitResult{
			RespondentID:  respondent.RespondentID,
			TotalScore:    score.Total,
			Severity:      score.Severity,
			AnswersStored: len(score.Answers),
			Unresolved:    len(score.Unresolved),
		}
		return nil
	}); err != nil {
		logging.Error(ctx, "store survey submission failed", slog.Any("err", errs.Loggable(err)))
		return SubmitResult{}, errs.Wrap(err, "store submission")
	}

	for _, u := range score.Unresolved {
		logging.Warn(ctx, "selection does not resolve against catalog, scored as zero",
			slog.Uint64("respondent_id", result.RespondentID),
			slog.Uint64("question_id", u.QuestionID),
			slog.Uint64("option_id", u.OptionID),
		)
	}
	logging.Info(ctx, "survey stored",
		slog.Uint64("respondent_id", result.RespondentID),
		slog.Bool("anonymous", input.Anonymous),
		slog.Int("total_score", result.TotalScore),
		slog.String("severity", string(result.Severity)),
		slog.Int("answers", result.AnswersStored),
	)
	return result, nil
}
