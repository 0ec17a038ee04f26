package survey

import (
	_ "embed"
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

type Option struct {
	ID         uint64
	QuestionID uint64
	Text       string
	Points     int
}

type Question struct {
	ID      uint64
	Text    string
	Options []Option
}

// Catalog is the immutable question/option/points set used for scoring and
// for laying out the dashboard.
type Catalog struct {
	questions []Question
	byID      map[uint64]int
	options   map[uint64]Option
}

func NewCatalog(questions []Question) (*Catalog, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidCatalog)
	}

	c := &Catalog{
		questions: make([]Question, 0, len(questions)),
		byID:      make(map[uint64]int, len(questions)),
		options:   make(map[uint64]Option),
	}

	for _, q := range questions {
		if q.ID == 0 {
			return nil, fmt.Errorf("%w: question id must be positive", ErrInvalidCatalog)
		}
		if _, dup := c.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrInvalidCatalog, q.ID)
		}

		opts := make([]Option, 0, len(q.Options))
		for _, o := range q.Options {
			if o.ID == 0 {
				return nil, fmt.Errorf("%w: option id must be positive (question %d)", ErrInvalidCatalog, q.ID)
			}
			if o.QuestionID != 0 && o.QuestionID != q.ID {
				return nil, fmt.Errorf("%w: option %d belongs to question %d, listed under %d", ErrInvalidCatalog, o.ID, o.QuestionID, q.ID)
			}
			if o.Points < 0 {
				return nil, fmt.Errorf("%w: option %d has negative points", ErrInvalidCatalog, o.ID)
			}
			if _, dup := c.options[o.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate option id %d", ErrInvalidCatalog, o.ID)
			}
			o.QuestionID = q.ID
			c.options[o.ID] = o
			opts = append(opts, o)
		}
		sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })

		c.byID[q.ID] = len(c.questions)
		c.questions = append(c.questions, Question{ID: q.ID, Text: q.Text, Options: opts})
	}

	sort.Slice(c.questions, func(i, j int) bool { return c.questions[i].ID < c.questions[j].ID })
	for i, q := range c.questions {
		c.byID[q.ID] = i
	}

	return c, nil
}

// Questions returns a copy of the catalog in question id order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, 0, len(c.questions))
	for _, q := range c.questions {
		opts := make([]Option, len(q.Options))
		copy(opts, q.Options)
		out = append(out, Question{ID: q.ID, Text: q.Text, Options: opts})
	}
	return out
}

func (c *Catalog) Question(id uint64) (Question, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Question{}, false
	}
	q := c.questions[idx]
	opts := make([]Option, len(q.Options))
	copy(opts, q.Options)
	return Question{ID: q.ID, Text: q.Text, Options: opts}, true
}

// Option resolves optionID only when it belongs to questionID.
func (c *Catalog) Option(questionID, optionID uint64) (Option, bool) {
	o, ok := c.options[optionID]
	if !ok || o.QuestionID != questionID {
		return Option{}, false
	}
	return o, true
}

func (c *Catalog) Len() int {
	return len(c.questions)
}

func (c *Catalog) MaxScore() int {
	total := 0
	for _, q := range c.questions {
		best := 0
		for _, o := range q.Options {
			if o.Points > best {
				best = o.Points
			}
		}
		total += best
	}
	return total
}

type catalogFile struct {
	Questions []struct {
		ID      uint64 `toml:"id"`
		Text    string `toml:"text"`
		Options []struct {
			ID     uint64 `toml:"id"`
			Text   string `toml:"text"`
			Points int    `toml:"points"`
		} `toml:"options"`
	} `toml:"questions"`
}

func ParseCatalogTOML(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: decode toml: %v", ErrInvalidCatalog, err)
	}

	questions := make([]Question, 0, len(file.Questions))
	for _, fq := range file.Questions {
		q := Question{ID: fq.ID, Text: fq.Text, Options: make([]Option, 0, len(fq.Options))}
		for _, fo := range fq.Options {
			q.Options = append(q.Options, Option{ID: fo.ID, QuestionID: fq.ID, Text: fo.Text, Points: fo.Points})
		}
		questions = append(questions, q)
	}
	return NewCatalog(questions)
}

// DefaultCatalog returns the embedded six-question screening instrument.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalogTOML(defaultCatalogTOML)
}
