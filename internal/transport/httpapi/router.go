package httpapi

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	domain "encuesta/internal/domain/survey"
	surveyuc "encuesta/internal/usecase/survey"
)

// SurveyService is the part of the survey usecase the HTTP surface needs.
type SurveyService interface {
	Catalog() (*domain.Catalog, error)
	Submit(ctx context.Context, input surveyuc.SubmitInput) (surveyuc.SubmitResult, error)
	Dashboard(ctx context.Context) (domain.Dashboard, error)
}

type handler struct {
	appName  string
	svc      SurveyService
	metrics  *Metrics
	validate *validator.Validate
}

type Option func(*handler)

func WithAppName(name string) Option {
	return func(h *handler) {
		if name != "" {
			h.appName = name
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(h *handler) {
		if m != nil {
			h.metrics = m
		}
	}
}

func NewRouter(svc SurveyService, opts ...Option) http.Handler {
	h := &handler{
		appName:  "encuesta",
		svc:      svc,
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(h.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/", h.home)
	r.Get("/survey", h.survey)
	r.Post("/api/submit-survey", h.submitSurvey)
	r.Get("/dashboard", h.dashboard)
	r.Get("/health", h.health)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	return r
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
