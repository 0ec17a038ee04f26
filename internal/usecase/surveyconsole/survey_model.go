package surveyconsole

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"encuesta/internal/bootstrap/logging"
	domain "encuesta/internal/domain/survey"
	surveyuc "encuesta/internal/usecase/survey"
)

// Submitter is the part of the survey service the console drives.
type Submitter interface {
	Catalog() (*domain.Catalog, error)
	Submit(ctx context.Context, input surveyuc.SubmitInput) (surveyuc.SubmitResult, error)
}

type SurveyOptions struct {
	Anonymous bool
	Name      string
	Email     string
	Age       int
	Gender    string
}

type phase int

const (
	phaseAnswering phase = iota
	phaseSubmitting
	phaseDone
)

type surveyModel struct {
	ctx     context.Context
	service Submitter
	options SurveyOptions

	questions []domain.Question
	index     int
	cursor    int
	answers   map[uint64]uint64

	phase  phase
	result surveyuc.SubmitResult
	status string
}

type submittedMsg struct {
	result surveyuc.SubmitResult
	err    error
}

func NewSurveyModel(ctx context.Context, service Submitter, options SurveyOptions) tea.Model {
	m := &surveyModel{
		ctx:     ctx,
		service: service,
		options: options,
		answers: make(map[uint64]uint64),
		status:  "responde cada pregunta",
	}

	catalog, err := service.Catalog()
	if err != nil {
		m.status = "catálogo no disponible: " + err.Error()
		return m
	}
	m.questions = catalog.Questions()
	if len(m.questions) == 0 {
		m.status = "el catálogo no tiene preguntas"
	}
	return m
}

// Outcome returns the stored result once the console has submitted.
func Outcome(model tea.Model) (surveyuc.SubmitResult, bool) {
	m, ok := model.(*surveyModel)
	if !ok || m.phase != phaseDone {
		return surveyuc.SubmitResult{}, false
	}
	return m.result, true
}

func (m *surveyModel) Init() tea.Cmd {
	return nil
}

func (m *surveyModel) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case submittedMsg:
		if msg.err != nil {
			m.phase = phaseAnswering
			m.status = "envío fallido: " + msg.err.Error()
			return m, nil
		}
		m.phase = phaseDone
		m.result = msg.result
		m.status = "encuesta registrada"
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" || key == "q" {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseDone:
			if key == "enter" || key == "esc" {
				return m, tea.Quit
			}
			return m, nil
		case phaseSubmitting:
			return m, nil
		}
		if len(m.questions) == 0 {
			return m, nil
		}

		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.current().Options)-1 {
				m.cursor++
			}
		case "enter":
			return m, m.confirm()
		case "backspace":
			if m.index > 0 {
				m.index--
				m.cursor = m.selectedCursor()
				m.status = "pregunta anterior"
			}
		}
	}
	return m, nil
}

func (m *surveyModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("62"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Encuesta de violencia intrafamiliar"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(m.respondentLine()))
	builder.WriteString("\n\n")

	switch {
	case m.phase == phaseDone:
		builder.WriteString(sectionStyle.Render("Resultado"))
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Puntaje: %d\n", m.result.TotalScore))
		builder.WriteString("Clasificación: ")
		builder.WriteString(severityStyle(m.result.Severity).Render(string(m.result.Severity)))
		builder.WriteString("\n\n")
	case len(m.questions) > 0:
		q := m.current()
		builder.WriteString(sectionStyle.Render(fmt.Sprintf("Pregunta %d de %d", m.index+1, len(m.questions))))
		builder.WriteString("\n")
		builder.WriteString(q.Text)
		builder.WriteString("\n\n")
		chosen, hasChoice := m.answers[q.ID]
		for i, opt := range q.Options {
			mark := " "
			if hasChoice && chosen == opt.ID {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s", mark, opt.Text)
			if i == m.cursor {
				builder.WriteString(selectedStyle.Render("> " + line))
			} else {
				builder.WriteString("  " + line)
			}
			builder.WriteString("\n")
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Estado"))
	builder.WriteString("\n")
	builder.WriteString("- " + m.status)
	builder.WriteString("\n\n")

	if m.phase == phaseDone {
		builder.WriteString(dimStyle.Render("Teclas: enter/q salir"))
	} else {
		builder.WriteString(dimStyle.Render("Teclas: ↑/k ↓/j mover  enter confirmar  backspace anterior  q salir"))
	}
	return builder.String()
}

func (m *surveyModel) current() domain.Question {
	return m.questions[m.index]
}

func (m *surveyModel) selectedCursor() int {
	q := m.current()
	chosen, ok := m.answers[q.ID]
	if !ok {
		return 0
	}
	for i, opt := range q.Options {
		if opt.ID == chosen {
			return i
		}
	}
	return 0
}

func (m *surveyModel) confirm() tea.Cmd {
	q := m.current()
	if m.cursor < 0 || m.cursor >= len(q.Options) {
		return nil
	}
	m.answers[q.ID] = q.Options[m.cursor].ID

	if m.index < len(m.questions)-1 {
		m.index++
		m.cursor = m.selectedCursor()
		m.status = fmt.Sprintf("%d de %d respondidas", len(m.answers), len(m.questions))
		return nil
	}

	m.phase = phaseSubmitting
	m.status = "enviando..."
	return m.submitCmd()
}

func (m *surveyModel) submitCmd() tea.Cmd {
	input := surveyuc.SubmitInput{
		Anonymous: m.options.Anonymous,
		Name:      m.options.Name,
		Email:     m.options.Email,
		Age:       m.options.Age,
		Gender:    m.options.Gender,
		Responses: make(map[string]string, len(m.answers)),
	}
	for qid, oid := range m.answers {
		input.Responses[strconv.FormatUint(qid, 10)] = strconv.FormatUint(oid, 10)
	}

	return func() tea.Msg {
		result, err := m.service.Submit(m.ctx, input)
		if err != nil {
			return submittedMsg{err: err}
		}
		logging.Info(m.ctx, "survey console submission",
			slog.Uint64("respondent_id", result.RespondentID),
			slog.Bool("anonymous", input.Anonymous),
			slog.String("severity", string(result.Severity)),
		)
		return submittedMsg{result: result}
	}
}

func (m *surveyModel) respondentLine() string {
	if m.options.Anonymous {
		return "respuesta anónima"
	}
	parts := []string{"nombre=" + firstNonEmpty(m.options.Name, "-")}
	if m.options.Email != "" {
		parts = append(parts, "email="+m.options.Email)
	}
	if m.options.Age > 0 {
		parts = append(parts, "edad="+strconv.Itoa(m.options.Age))
	}
	parts = append(parts, "sexo="+firstNonEmpty(m.options.Gender, "-"))
	return strings.Join(parts, " ")
}

func severityStyle(s domain.Severity) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case domain.SeverityMild:
		return style.Foreground(lipgloss.Color("42"))
	case domain.SeverityModerate:
		return style.Foreground(lipgloss.Color("214"))
	case domain.SeveritySevere:
		return style.Foreground(lipgloss.Color("196"))
	default:
		return style
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if normalized != "" {
			return normalized
		}
	}
	return ""
}
