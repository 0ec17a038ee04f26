package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	"encuesta/internal/errs"
	surveyuc "encuesta/internal/usecase/survey"
)

const maxSubmitBodyBytes = 64 << 10

func (h *handler) home(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, homeResponse{
		App: h.appName,
		Links: map[string]string{
			"survey":    "/survey",
			"submit":    "/api/submit-survey",
			"dashboard": "/dashboard",
			"health":    "/health",
		},
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *handler) survey(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.svc.Catalog()
	if err != nil {
		logging.Error(r.Context(), "catalog unavailable", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, errs.RootCause(err).Error())
		return
	}

	questions := catalog.Questions()
	out := make([]surveyQuestionDTO, 0, len(questions))
	for _, q := range questions {
		item := surveyQuestionDTO{
			ID:       q.ID,
			Pregunta: q.Text,
			Opciones: make([]surveyOptionDTO, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			item.Opciones = append(item.Opciones, surveyOptionDTO{ID: o.ID, Texto: o.Text})
		}
		out = append(out, item)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) submitSurvey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submitSurveyRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSubmitBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.metrics.observeFailure("malformed")
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.metrics.observeFailure("malformed")
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	input := surveyuc.SubmitInput{
		Anonymous: req.IsAnonymous,
		Name:      req.Nombre,
		Email:     req.Email,
		Gender:    req.Sexo,
		Responses: req.responses(),
	}
	if req.Edad != nil {
		input.Age = *req.Edad
	}

	res, err := h.svc.Submit(ctx, input)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedSubmission) {
			h.metrics.observeFailure("malformed")
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.metrics.observeFailure("store")
		writeError(w, http.StatusInternalServerError, errs.RootCause(err).Error())
		return
	}

	h.metrics.observeSubmission(string(res.Severity))
	writeJSON(w, http.StatusOK, submitSurveyResponse{
		Success:       true,
		Puntaje:       res.TotalScore,
		Clasificacion: string(res.Severity),
	})
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		logging.Error(r.Context(), "dashboard unavailable", slog.Any("err", errs.Loggable(err)))
		writeError(w, http.StatusInternalServerError, errs.RootCause(err).Error())
		return
	}
	writeJSON(w, http.StatusOK, NewDashboardResponse(d))
}

// NewDashboardResponse is the wire form of a dashboard, also printed by the
// report command.
func NewDashboardResponse(d domain.Dashboard) DashboardResponse {
	out := DashboardResponse{
		TotalSurveys:        d.TotalRespondents,
		GenderStats:         make([]genderStatDTO, 0, len(d.Gender)),
		AnonymousCount:      d.Anonymous.Count,
		AnonymousPercentage: d.Anonymous.Percentage,
		ClassificationStats: make([]classificationStatDTO, 0, len(d.Severity)),
		QuestionsData:       make([]questionStatDTO, 0, len(d.Questions)),
		Degraded:            d.Degraded,
	}
	for _, s := range d.Gender {
		out.GenderStats = append(out.GenderStats, genderStatDTO{Sexo: s.Label, Count: s.Count, Percentage: s.Percentage})
	}
	for _, s := range d.Severity {
		out.ClassificationStats = append(out.ClassificationStats, classificationStatDTO{
			Clasificacion: s.Label,
			Count:         s.Count,
			Percentage:    s.Percentage,
		})
	}
	for _, q := range d.Questions {
		item := questionStatDTO{
			ID:             q.QuestionID,
			Pregunta:       q.Text,
			TotalResponses: q.TotalAnswers,
			Opciones:       make([]optionStatDTO, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			item.Opciones = append(item.Opciones, optionStatDTO{
				ID:         o.OptionID,
				Opcion:     o.Text,
				Puntaje:    o.Points,
				Count:      o.Count,
				Percentage: o.Percentage,
			})
		}
		out.QuestionsData = append(out.QuestionsData, item)
	}
	return out
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gte":
		return fe.Field() + " must be >= " + fe.Param()
	case "max":
		return fe.Field() + " exceeds " + fe.Param() + " characters"
	default:
		return fe.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
