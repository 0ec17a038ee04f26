package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// flexID accepts an id written either as a JSON number or a numeric string.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("id is required")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or numeric string")
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return fmt.Errorf("id %s is not a positive integer", n.String())
	}
	*f = flexID(n.String())
	return nil
}

type submitSurveyRequest struct {
	IsAnonymous bool              `json:"is_anonymous"`
	Nombre      string            `json:"nombre" validate:"max=255"`
	Email       string            `json:"email" validate:"max=255"`
	Edad        *int              `json:"edad" validate:"omitempty,gte=0"`
	Sexo        string            `json:"sexo" validate:"max=50"`
	Responses   map[string]flexID `json:"responses" validate:"required"`
}

func (r submitSurveyRequest) responses() map[string]string {
	if r.Responses == nil {
		return nil
	}
	out := make(map[string]string, len(r.Responses))
	for qid, oid := range r.Responses {
		out[qid] = string(oid)
	}
	return out
}

type submitSurveyResponse struct {
	Success       bool   `json:"success"`
	Puntaje       int    `json:"puntaje"`
	Clasificacion string `json:"clasificacion"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type surveyOptionDTO struct {
	ID    uint64 `json:"id"`
	Texto string `json:"texto"`
}

type surveyQuestionDTO struct {
	ID       uint64            `json:"id"`
	Pregunta string            `json:"pregunta"`
	Opciones []surveyOptionDTO `json:"opciones"`
}

type genderStatDTO struct {
	Sexo       string  `json:"sexo"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type classificationStatDTO struct {
	Clasificacion string  `json:"clasificacion"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

type optionStatDTO struct {
	ID         uint64  `json:"id"`
	Opcion     string  `json:"opcion"`
	Puntaje    int     `json:"puntaje"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type questionStatDTO struct {
	ID             uint64          `json:"id"`
	Pregunta       string          `json:"pregunta"`
	TotalResponses int             `json:"total_responses"`
	Opciones       []optionStatDTO `json:"opciones"`
}

type DashboardResponse struct {
	TotalSurveys        int                     `json:"total_surveys"`
	GenderStats         []genderStatDTO         `json:"gender_stats"`
	AnonymousCount      int                     `json:"anonymous_count"`
	AnonymousPercentage float64                 `json:"anonymous_percentage"`
	ClassificationStats []classificationStatDTO `json:"classification_stats"`
	QuestionsData       []questionStatDTO       `json:"questions_data"`
	Degraded            bool                    `json:"degraded"`
}

type homeResponse struct {
	App   string            `json:"app"`
	Links map[string]string `json:"links"`
}
