package survey

import "math"

// GroupCount is one row of a grouped read (gender or severity label).
type GroupCount struct {
	Label string
	Count int
}

type Share struct {
	Label      string
	Count      int
	Percentage float64
}

type OptionBreakdown struct {
	OptionID   uint64
	Text       string
	Points     int
	Count      int
	Percentage float64
}

type QuestionBreakdown struct {
	QuestionID   uint64
	Text         string
	TotalAnswers int
	Options      []OptionBreakdown
}

type AnonymousStats struct {
	Count      int
	Percentage float64
}

type Dashboard struct {
	TotalRespondents int
	Gender           []Share
	Anonymous        AnonymousStats
	Severity         []Share
	Questions        []QuestionBreakdown
	// Degraded is set when the store could not be read and zeros were substituted.
	Degraded bool
}

// Snapshot holds the raw counts read from the store for one dashboard render.
type Snapshot struct {
	TotalRespondents     int
	AnonymousRespondents int
	Gender               []GroupCount
	Severity             []GroupCount
	AnswersByOption      map[uint64]int
}

// Percentage returns count/total*100 rounded to one decimal, or 0 when total is 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}

func GenderDistribution(counts []GroupCount, totalRespondents int) []Share {
	return shares(counts, totalRespondents)
}

func AnonymousShare(anonymous, totalRespondents int) AnonymousStats {
	return AnonymousStats{
		Count:      anonymous,
		Percentage: Percentage(anonymous, totalRespondents),
	}
}

// SeverityDistribution computes shares over the classified respondents, i.e.
// the sum of all grouped counts, including labels outside the known classes.
func SeverityDistribution(counts []GroupCount) []Share {
	classified := 0
	for _, c := range counts {
		classified += c.Count
	}
	return shares(counts, classified)
}

// PerQuestionBreakdown lists every catalog option, including those never selected.
func PerQuestionBreakdown(c *Catalog, answersByOption map[uint64]int) []QuestionBreakdown {
	out := make([]QuestionBreakdown, 0, c.Len())
	for _, q := range c.questions {
		qb := QuestionBreakdown{
			QuestionID: q.ID,
			Text:       q.Text,
			Options:    make([]OptionBreakdown, 0, len(q.Options)),
		}
		for _, o := range q.Options {
			n := answersByOption[o.ID]
			qb.TotalAnswers += n
			qb.Options = append(qb.Options, OptionBreakdown{
				OptionID: o.ID,
				Text:     o.Text,
				Points:   o.Points,
				Count:    n,
			})
		}
		for i := range qb.Options {
			qb.Options[i].Percentage = Percentage(qb.Options[i].Count, qb.TotalAnswers)
		}
		out = append(out, qb)
	}
	return out
}

func BuildDashboard(c *Catalog, snap Snapshot) Dashboard {
	return Dashboard{
		TotalRespondents: snap.TotalRespondents,
		Gender:           GenderDistribution(snap.Gender, snap.TotalRespondents),
		Anonymous:        AnonymousShare(snap.AnonymousRespondents, snap.TotalRespondents),
		Severity:         SeverityDistribution(snap.Severity),
		Questions:        PerQuestionBreakdown(c, snap.AnswersByOption),
	}
}

// EmptyDashboard is the zero-valued dashboard served when the store is unreadable.
func EmptyDashboard(c *Catalog) Dashboard {
	d := BuildDashboard(c, Snapshot{})
	d.Gender = []Share{}
	d.Severity = []Share{}
	d.Degraded = true
	return d
}

func shares(counts []GroupCount, total int) []Share {
	out := make([]Share, 0, len(counts))
	for _, c := range counts {
		out = append(out, Share{
			Label:      c.Label,
			Count:      c.Count,
			Percentage: Percentage(c.Count, total),
		})
	}
	return out
}
