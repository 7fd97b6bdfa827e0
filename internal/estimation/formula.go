package estimation

import (
	"fmt"
	"math"
	"strings"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
)

// iqrToSD is the IQR of a unit normal (2 * 0.6745), rounded as in Wan 2014.
const iqrToSD = 1.35

// Sample size bands of the banded five-number weights.
const (
	smallSampleMax  = 15
	mediumSampleMax = 70
)

// FiveNumberVariant selects the grade-1 formula.
type FiveNumberVariant string

const (
	// FiveNumberBanded weights quartiles and whiskers by sample size band.
	FiveNumberBanded FiveNumberVariant = "banded"
	// FiveNumberClosed is the single closed-form weighting.
	FiveNumberClosed FiveNumberVariant = "closed"
)

// ParseFiveNumberVariant parses a variant name, empty meaning banded.
func ParseFiveNumberVariant(s string) (FiveNumberVariant, error) {
	switch FiveNumberVariant(strings.ToLower(strings.TrimSpace(s))) {
	case "", FiveNumberBanded:
		return FiveNumberBanded, nil
	case FiveNumberClosed:
		return FiveNumberClosed, nil
	}
	return "", fmt.Errorf("unknown five-number variant %q (want banded or closed)", s)
}

// SkewCorrection parametrizes the grade-2 outlier tail correction:
//
//	du = upper_outlier - upper_whisker   (0 when absent)
//	dl = lower_whisker - lower_outlier   (0 when absent)
//	mean += MeanCoefficient * (du - dl)
//	sd   += SDCoefficient * (du + dl) / 2
type SkewCorrection struct {
	MeanCoefficient float64 `json:"mean_coefficient"`
	SDCoefficient   float64 `json:"sd_coefficient"`
}

// DefaultSkewCorrection uses 5% of the tail excess for the mean and 10% for
// the spread.
func DefaultSkewCorrection() SkewCorrection {
	return SkewCorrection{MeanCoefficient: 0.05, SDCoefficient: 0.10}
}

// FormulaOptions configures the formula engine.
type FormulaOptions struct {
	FiveNumber FiveNumberVariant `json:"five_number"`
	Skew       SkewCorrection    `json:"skew_correction"`
}

// DefaultFormulaOptions returns the banded five-number variant with the
// default skew correction.
func DefaultFormulaOptions() FormulaOptions {
	return FormulaOptions{
		FiveNumber: FiveNumberBanded,
		Skew:       DefaultSkewCorrection(),
	}
}

// Estimate is the raw output of one formula.
type Estimate struct {
	Mean     float64
	SD       float64
	Method   string
	Outliers *boxplot.OutlierAnalysis
}

type formula func(c boxplot.CaseSummary, opts FormulaOptions) Estimate

// FormulaEngine evaluates a case at a given grade through a dispatch table.
type FormulaEngine struct {
	opts  FormulaOptions
	table map[boxplot.Grade]formula
}

// NewFormulaEngine builds the engine. A zero-valued variant falls back to banded.
func NewFormulaEngine(opts FormulaOptions) *FormulaEngine {
	if opts.FiveNumber == "" {
		opts.FiveNumber = FiveNumberBanded
	}
	return &FormulaEngine{
		opts: opts,
		table: map[boxplot.Grade]formula{
			boxplot.Grade0: threeNumber,
			boxplot.Grade1: fiveNumber,
			boxplot.Grade2: outlierCorrected,
		},
	}
}

// Options returns the engine configuration.
func (e *FormulaEngine) Options() FormulaOptions {
	return e.opts
}

// Estimate computes mean and SD of c at grade, reading only the fields that
// grade requires.
func (e *FormulaEngine) Estimate(c boxplot.CaseSummary, grade boxplot.Grade) (Estimate, error) {
	f, ok := e.table[grade]
	if !ok {
		return Estimate{}, core.NewFailure(core.ReasonIncompleteData, "", "no formula for %s", grade)
	}
	if achievable := Classify(c); grade > achievable {
		return Estimate{}, core.NewFailure(core.ReasonIncompleteData, "", "%s requested but case only supports %s", grade, achievable)
	}

	est := f(c, e.opts)
	if math.IsNaN(est.Mean) || math.IsInf(est.Mean, 0) {
		return Estimate{}, core.NewFailure(core.ReasonDegenerateSpread, "", "mean is not finite")
	}
	if math.IsNaN(est.SD) || math.IsInf(est.SD, 0) || est.SD < 0 {
		return Estimate{}, core.NewFailure(core.ReasonDegenerateSpread, "", "sd=%g", est.SD)
	}
	return est, nil
}

// threeNumber: Wan et al. 2014, scenario with median and quartiles.
func threeNumber(c boxplot.CaseSummary, _ FormulaOptions) Estimate {
	return Estimate{
		Mean:   (c.Q1() + c.Q2() + c.Q3()) / 3,
		SD:     (c.Q3() - c.Q1()) / iqrToSD,
		Method: "three-number",
	}
}

func fiveNumber(c boxplot.CaseSummary, opts FormulaOptions) Estimate {
	if opts.FiveNumber == FiveNumberClosed {
		return fiveNumberClosed(c)
	}
	return fiveNumberBanded(c)
}

func fiveNumberBanded(c boxplot.CaseSummary) Estimate {
	q1, q2, q3 := c.Q1(), c.Q2(), c.Q3()
	a, _ := c.LowerWhisker()
	b, _ := c.UpperWhisker()

	switch n := c.SampleSize(); {
	case n <= smallSampleMax:
		return Estimate{
			Mean:   (a + 2*q1 + 2*q2 + 2*q3 + b) / 8,
			SD:     (b - a) / 4,
			Method: "five-number/banded(n<=15)",
		}
	case n <= mediumSampleMax:
		return Estimate{
			Mean:   (a + q1 + 2*q2 + q3 + b) / 6,
			SD:     (b - a) / (2 * (iqrToSD + 0.5)),
			Method: "five-number/banded(15<n<=70)",
		}
	default:
		return Estimate{
			Mean:   (q1 + 2*q2 + q3) / 4,
			SD:     (q3 - q1) / iqrToSD,
			Method: "five-number/banded(n>70)",
		}
	}
}

func fiveNumberClosed(c boxplot.CaseSummary) Estimate {
	q1, q2, q3 := c.Q1(), c.Q2(), c.Q3()
	a, _ := c.LowerWhisker()
	b, _ := c.UpperWhisker()

	spread := (q1-q2)*(q1-q2) + (q2-q3)*(q2-q3) + 0.25*(b-a)*(b-a)
	return Estimate{
		Mean:   (q1 + q2 + q3 + 0.25*(a+b)) / 3.5,
		SD:     math.Sqrt(spread / iqrToSD),
		Method: "five-number/closed",
	}
}

func outlierCorrected(c boxplot.CaseSummary, opts FormulaOptions) Estimate {
	est := fiveNumber(c, opts)
	analysis := analyzeOutliers(c)

	analysis.MeanShift = opts.Skew.MeanCoefficient * (analysis.UpperExcess - analysis.LowerExcess)
	analysis.SDInflation = opts.Skew.SDCoefficient * (analysis.UpperExcess + analysis.LowerExcess) / 2

	est.Mean += analysis.MeanShift
	est.SD += analysis.SDInflation
	est.Method += "+outlier-tail"
	est.Outliers = &analysis
	return est
}

// analyzeOutliers measures how far each outlier sits beyond its whisker and
// classifies it against Tukey's inner (1.5 IQR) and outer (3 IQR) fences.
func analyzeOutliers(c boxplot.CaseSummary) boxplot.OutlierAnalysis {
	iqr := c.IQR()
	a, _ := c.LowerWhisker()
	b, _ := c.UpperWhisker()

	analysis := boxplot.OutlierAnalysis{
		LowerInnerFence: c.Q1() - 1.5*iqr,
		UpperInnerFence: c.Q3() + 1.5*iqr,
		LowerOuterFence: c.Q1() - 3*iqr,
		UpperOuterFence: c.Q3() + 3*iqr,
		UpperSeverity:   boxplot.SeverityNone,
		LowerSeverity:   boxplot.SeverityNone,
	}

	if uo, ok := c.UpperOutlier(); ok {
		analysis.UpperExcess = uo - b
		switch {
		case uo > analysis.UpperOuterFence:
			analysis.UpperSeverity = boxplot.SeverityExtreme
		case uo > analysis.UpperInnerFence:
			analysis.UpperSeverity = boxplot.SeverityMild
		default:
			analysis.UpperSeverity = boxplot.SeverityInside
		}
	}
	if lo, ok := c.LowerOutlier(); ok {
		analysis.LowerExcess = a - lo
		switch {
		case lo < analysis.LowerOuterFence:
			analysis.LowerSeverity = boxplot.SeverityExtreme
		case lo < analysis.LowerInnerFence:
			analysis.LowerSeverity = boxplot.SeverityMild
		default:
			analysis.LowerSeverity = boxplot.SeverityInside
		}
	}
	return analysis
}
