// Package report renders a human-readable summary of one fusion run.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"riskfusion/app"
	"riskfusion/domain/core"
	"riskfusion/domain/frame"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"
)

// TopRows is how many rows the ranking table lists
const TopRows = 10

// ScoreProfile summarises one score column over the batch
type ScoreProfile struct {
	Column string
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// RankedRow is one line of the TOPSIS ranking
type RankedRow struct {
	Row         int
	TOPSISScore float64
	GreyGrade   float64
	RiskLevel   string
	Probability float64
}

// Summary is the data behind a run report
type Summary struct {
	RunID       core.RunID
	Source      string
	GeneratedAt time.Time
	Rows        int
	HighRisk    int
	Fingerprint core.FrameHash

	ModelPresent bool
	Placeholder  bool
	Training     *app.TrainingReport

	Profiles []ScoreProfile
	Top      []RankedRow
}

// Build collects the summary of a fusion result
func Build(runID core.RunID, source string, result *app.FusionResult) (*Summary, error) {
	f := result.Frame
	s := &Summary{
		RunID:        runID,
		Source:       source,
		GeneratedAt:  time.Now().UTC(),
		Rows:         f.Len(),
		Fingerprint:  result.Fingerprint,
		ModelPresent: result.ModelPresent,
		Placeholder:  result.Placeholder,
		Training:     result.Training,
	}
	if f.Len() == 0 {
		return s, nil
	}

	for _, r := range f.Records {
		if r.Rule != nil && r.Rule.HighRiskFlag == 1 {
			s.HighRisk++
		}
	}

	for _, col := range []string{frame.ColMLProbability, frame.ColAHPPriorityScore, frame.ColTOPSISScore, frame.ColGreyRelationGrade} {
		values, err := f.Column(col)
		if err != nil {
			return nil, err
		}
		profile, err := profileOf(col, values)
		if err != nil {
			return nil, err
		}
		s.Profiles = append(s.Profiles, profile)
	}

	ranked := make([]RankedRow, f.Len())
	for i, r := range f.Records {
		ranked[i] = RankedRow{
			Row:         i,
			TOPSISScore: r.TOPSIS.Score,
			GreyGrade:   r.Grey.Grade,
			RiskLevel:   r.Rule.RiskLevel,
			Probability: r.ML.Probability,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TOPSISScore > ranked[j].TOPSISScore
	})
	if len(ranked) > TopRows {
		ranked = ranked[:TopRows]
	}
	s.Top = ranked
	return s, nil
}

func profileOf(column string, values []float64) (ScoreProfile, error) {
	data := stats.Float64Data(values)
	mean, err := data.Mean()
	if err != nil {
		return ScoreProfile{}, err
	}
	median, err := data.Median()
	if err != nil {
		return ScoreProfile{}, err
	}
	lo, err := data.Min()
	if err != nil {
		return ScoreProfile{}, err
	}
	hi, err := data.Max()
	if err != nil {
		return ScoreProfile{}, err
	}
	return ScoreProfile{Column: column, Mean: mean, Median: median, Min: lo, Max: hi}, nil
}

// Markdown renders the summary
func (s *Summary) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Risk fusion run %s\n\n", s.RunID)
	fmt.Fprintf(&b, "- Source: `%s`\n", s.Source)
	fmt.Fprintf(&b, "- Generated: %s\n", s.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Rows: %d (rule engine flagged %d as High)\n", s.Rows, s.HighRisk)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n\n", s.Fingerprint)

	b.WriteString("TOPSIS and grey scores are relative to this batch of ")
	fmt.Fprintf(&b, "%d rows and are not comparable across batches.\n\n", s.Rows)

	b.WriteString("## Classifier\n\n")
	switch {
	case s.Placeholder:
		b.WriteString("**No model was supplied.** `ml_probability` and `ml_predicted_class` are random placeholders and carry no information.\n\n")
	case s.ModelPresent:
		b.WriteString("Predictions come from the supplied model.\n\n")
	}

	if t := s.Training; t != nil {
		b.WriteString("## Training\n\n")
		b.WriteString("| Model | Family | Labeled rows | Accuracy | Precision | Recall | F1 |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		fmt.Fprintf(&b, "| `%s` | %s | %d | %.3f | %.3f | %.3f | %.3f |\n\n",
			t.ModelID, t.Family, t.LabeledRows,
			t.Metrics.Accuracy, t.Metrics.Precision, t.Metrics.Recall, t.Metrics.F1)
		b.WriteString("Metrics are in-sample.\n\n")
	}

	if len(s.Profiles) > 0 {
		b.WriteString("## Score profile\n\n")
		b.WriteString("| Column | Mean | Median | Min | Max |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, p := range s.Profiles {
			fmt.Fprintf(&b, "| %s | %.4f | %.4f | %.4f | %.4f |\n", p.Column, p.Mean, p.Median, p.Min, p.Max)
		}
		b.WriteString("\n")
	}

	if len(s.Top) > 0 {
		b.WriteString("## Highest TOPSIS scores\n\n")
		b.WriteString("| Row | TOPSIS | Grey | Rule | ml_probability |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, r := range s.Top {
			fmt.Fprintf(&b, "| %d | %.4f | %.4f | %s | %.4f |\n", r.Row, r.TOPSISScore, r.GreyGrade, r.RiskLevel, r.Probability)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the markdown summary as a standalone HTML page
func (s *Summary) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Risk fusion run %s", s.RunID),
	})
	return markdown.ToHTML([]byte(s.Markdown()), p, renderer)
}
