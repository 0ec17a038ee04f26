package survey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Severity string

const (
	SeverityMild     Severity = "Leve"
	SeverityModerate Severity = "Moderado"
	SeveritySevere   Severity = "Grave"
)

// Upper bounds of the mild and moderate bands. Tied to the 6x(0..3) instrument.
const (
	mildMaxScore     = 5
	moderateMaxScore = 11
)

func Classify(total int) Severity {
	switch {
	case total <= mildMaxScore:
		return SeverityMild
	case total <= moderateMaxScore:
		return SeverityModerate
	default:
		return SeveritySevere
	}
}

// Selection maps question id to the selected option id.
type Selection map[uint64]uint64

type ScoredAnswer struct {
	QuestionID uint64
	OptionID   uint64
	Points     int
}

type Score struct {
	Total      int
	Severity   Severity
	Answers    []ScoredAnswer
	Unresolved []ScoredAnswer
}

// Score sums the points of every resolvable selection. Selections whose option
// does not belong to the submitted question count as zero and are listed in
// Unresolved instead of failing the computation.
func (c *Catalog) Score(sel Selection) Score {
	questionIDs := make([]uint64, 0, len(sel))
	for qid := range sel {
		questionIDs = append(questionIDs, qid)
	}
	sort.Slice(questionIDs, func(i, j int) bool { return questionIDs[i] < questionIDs[j] })

	out := Score{Answers: make([]ScoredAnswer, 0, len(sel))}
	for _, qid := range questionIDs {
		oid := sel[qid]
		opt, ok := c.Option(qid, oid)
		if !ok {
			out.Unresolved = append(out.Unresolved, ScoredAnswer{QuestionID: qid, OptionID: oid})
			continue
		}
		out.Total += opt.Points
		out.Answers = append(out.Answers, ScoredAnswer{QuestionID: qid, OptionID: oid, Points: opt.Points})
	}
	out.Severity = Classify(out.Total)
	return out
}

// ParseSelection converts the wire form {"<question id>": "<option id>"} into a Selection.
func ParseSelection(raw map[string]string) (Selection, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: responses is required", ErrMalformedSubmission)
	}

	sel := make(Selection, len(raw))
	for rawQuestion, rawOption := range raw {
		qid, err := parseID(rawQuestion)
		if err != nil {
			return nil, fmt.Errorf("%w: question id %q: %v", ErrMalformedSubmission, rawQuestion, err)
		}
		oid, err := parseID(rawOption)
		if err != nil {
			return nil, fmt.Errorf("%w: option id %q for question %d: %v", ErrMalformedSubmission, rawOption, qid, err)
		}
		// "1" and "01" name the same question; keeping either would depend on map order.
		if _, dup := sel[qid]; dup {
			return nil, fmt.Errorf("%w: question %d answered more than once", ErrMalformedSubmission, qid)
		}
		sel[qid] = oid
	}
	return sel, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return id, nil
}
