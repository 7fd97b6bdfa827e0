package testkit

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// WhiskerRule decides where simulated whiskers end.
type WhiskerRule string

const (
	// WhiskerMinMax draws whiskers at the sample extremes.
	WhiskerMinMax WhiskerRule = "minmax"
	// WhiskerTukey draws whiskers at the last point inside 1.5 IQR and
	// reports the most extreme points beyond as outliers.
	WhiskerTukey WhiskerRule = "tukey"
)

// BoxplotGeneratorConfig configures the synthetic box plot generator
type BoxplotGeneratorConfig struct {
	Mean        float64     `json:"mean"`
	SD          float64     `json:"sd"`
	SampleSize  int         `json:"sample_size"`
	WhiskerRule WhiskerRule `json:"whisker_rule"`
	Seed        uint64      `json:"seed"`
}

// DefaultBoxplotConfig returns a standard normal-ish population of 200.
func DefaultBoxplotConfig() BoxplotGeneratorConfig {
	return BoxplotGeneratorConfig{
		Mean:        50,
		SD:          10,
		SampleSize:  200,
		WhiskerRule: WhiskerMinMax,
		Seed:        42,
	}
}

// FiveNumber is the summary read off a simulated box plot.
type FiveNumber struct {
	Q1, Q2, Q3                 float64
	LowerWhisker, UpperWhisker float64
	LowerOutlier, UpperOutlier *float64
	N                          int
}

// BoxplotGenerator draws normal samples and summarizes them as box plots.
type BoxplotGenerator struct {
	config BoxplotGeneratorConfig
	dist   distuv.Normal
}

// NewBoxplotGenerator creates a generator with a deterministic source.
func NewBoxplotGenerator(config BoxplotGeneratorConfig) *BoxplotGenerator {
	if config.WhiskerRule == "" {
		config.WhiskerRule = WhiskerMinMax
	}
	return &BoxplotGenerator{
		config: config,
		dist: distuv.Normal{
			Mu:    config.Mean,
			Sigma: config.SD,
			Src:   rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15),
		},
	}
}

// Sample draws one sample of the configured size.
func (g *BoxplotGenerator) Sample() []float64 {
	data := make([]float64, g.config.SampleSize)
	for i := range data {
		data[i] = g.dist.Rand()
	}
	return data
}

// Summarize computes the five-number summary of data under the configured
// whisker rule.
func (g *BoxplotGenerator) Summarize(data []float64) (FiveNumber, error) {
	q, err := stats.Quartile(stats.Float64Data(data))
	if err != nil {
		return FiveNumber{}, fmt.Errorf("quartiles: %w", err)
	}
	lowest, err := stats.Min(data)
	if err != nil {
		return FiveNumber{}, fmt.Errorf("min: %w", err)
	}
	highest, err := stats.Max(data)
	if err != nil {
		return FiveNumber{}, fmt.Errorf("max: %w", err)
	}

	summary := FiveNumber{
		Q1:           q.Q1,
		Q2:           q.Q2,
		Q3:           q.Q3,
		LowerWhisker: lowest,
		UpperWhisker: highest,
		N:            len(data),
	}
	if g.config.WhiskerRule != WhiskerTukey {
		return summary, nil
	}

	iqr := q.Q3 - q.Q1
	lowFence, highFence := q.Q1-1.5*iqr, q.Q3+1.5*iqr
	summary.LowerWhisker, summary.UpperWhisker = q.Q1, q.Q3
	for _, v := range data {
		if v >= lowFence && v < summary.LowerWhisker {
			summary.LowerWhisker = v
		}
		if v <= highFence && v > summary.UpperWhisker {
			summary.UpperWhisker = v
		}
	}
	if lowest < lowFence {
		summary.LowerOutlier = &lowest
	}
	if highest > highFence {
		summary.UpperOutlier = &highest
	}
	return summary, nil
}

// Next draws a sample and returns its summary.
func (g *BoxplotGenerator) Next() (FiveNumber, error) {
	return g.Summarize(g.Sample())
}

// Record renders the summary as a raw record keeping only the fields a
// case of the given grade would report.
func (s FiveNumber) Record(grade boxplot.Grade) boxplot.RawRecord {
	record := boxplot.RawRecord{
		boxplot.FieldQ1:         formatFloat(s.Q1),
		boxplot.FieldQ2:         formatFloat(s.Q2),
		boxplot.FieldQ3:         formatFloat(s.Q3),
		boxplot.FieldSampleSize: strconv.Itoa(s.N),
	}
	if grade >= boxplot.Grade1 {
		record[boxplot.FieldLowerWhisker] = formatFloat(s.LowerWhisker)
		record[boxplot.FieldUpperWhisker] = formatFloat(s.UpperWhisker)
	}
	if grade >= boxplot.Grade2 {
		if s.LowerOutlier != nil {
			record[boxplot.FieldLowerOutlier] = formatFloat(*s.LowerOutlier)
		}
		if s.UpperOutlier != nil {
			record[boxplot.FieldUpperOutlier] = formatFloat(*s.UpperOutlier)
		}
	}
	return record
}

// GenerateGroup draws one case per grade in grades, labelled Case1..CaseN.
func (g *BoxplotGenerator) GenerateGroup(label core.GroupLabel, role boxplot.GroupRole, grades ...boxplot.Grade) (boxplot.RawGroup, error) {
	group := boxplot.RawGroup{Label: label, Role: role}
	for i, grade := range grades {
		summary, err := g.Next()
		if err != nil {
			return boxplot.RawGroup{}, err
		}
		group.Cases = append(group.Cases, boxplot.RawCase{
			Label:  core.CaseLabel(fmt.Sprintf("Case%d", i+1)),
			Record: summary.Record(grade),
		})
	}
	return group, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
