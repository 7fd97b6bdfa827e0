package comparison

import (
	"math"

	domain "boxmeta/domain/comparison"
	"boxmeta/domain/core"
)

// DefaultConfidenceLevel is used when a caller does not set one.
const DefaultConfidenceLevel = 0.95

// Options configures a comparison.
type Options struct {
	ConfidenceLevel float64 `json:"confidence_level"`
	// Correlation between the two samples. Zero treats them as independent,
	// which is the conservative choice when the pairing is unknown.
	Correlation float64 `json:"correlation"`
}

// DefaultOptions returns 95% confidence with independent samples.
func DefaultOptions() Options {
	return Options{ConfidenceLevel: DefaultConfidenceLevel}
}

// Compare computes difference statistics for a - b.
//
// The p-value comes from a two-sided z-test on delta/sd_diff. It is a normal
// approximation, not a t-test, and is optimistic for small samples.
func Compare(a, b domain.Sample, opts Options) (domain.Result, error) {
	cl := opts.ConfidenceLevel
	if !(cl > 0 && cl < 1) {
		return domain.Result{}, core.NewFailure(core.ReasonInvalidConfidenceLevel, "confidence_level", "%g is outside (0, 1)", cl)
	}
	if a.N < 2 {
		return domain.Result{}, core.NewFailure(core.ReasonInsufficientSampleSize, "n1", "n1=%d, standard error needs n >= 2", a.N)
	}
	if b.N < 2 {
		return domain.Result{}, core.NewFailure(core.ReasonInsufficientSampleSize, "n2", "n2=%d, standard error needs n >= 2", b.N)
	}

	n1, n2 := float64(a.N), float64(b.N)
	r := opts.Correlation

	delta := a.Mean - b.Mean
	variance := a.SD*a.SD/n1 + b.SD*b.SD/n2 - 2*r*a.SD*b.SD/math.Sqrt(n1*n2)
	sdDiff := math.Sqrt(variance)
	if !(sdDiff > 0) || math.IsInf(sdDiff, 0) {
		return domain.Result{}, core.NewFailure(core.ReasonDegenerateSpread, "sd_diff", "standard error of the difference is %g", sdDiff)
	}

	zCrit := CriticalZ(cl)
	pooled := PooledSD(a.SD, a.N, b.SD, b.N)
	cohenD := delta / pooled
	z := delta / sdDiff
	p := TwoSidedPValue(z)
	alpha := 1 - cl

	return domain.Result{
		DeltaMean:       delta,
		SDDiff:          sdDiff,
		CILower:         delta - zCrit*sdDiff,
		CIUpper:         delta + zCrit*sdDiff,
		ConfidenceLevel: cl,
		ZCritical:       zCrit,
		PooledSD:        pooled,
		CohenD:          cohenD,
		HedgesG:         cohenD * HedgesCorrection(a.N+b.N),
		Z:               z,
		PValue:          p,
		Verdict: domain.Verdict{
			Significant: p < alpha,
			Direction:   direction(delta),
			Alpha:       alpha,
		},
		ChangeSD:    changeSD(a.SD, b.SD, r),
		Correlation: r,
	}, nil
}

// ComparePair runs Compare on two endpoints and folds any failure into the
// outcome instead of returning it.
func ComparePair(kind domain.Kind, first, second domain.Endpoint, opts Options) domain.PairOutcome {
	outcome := domain.PairOutcome{Kind: kind, First: first, Second: second}
	result, err := Compare(first.Sample, second.Sample, opts)
	if err != nil {
		outcome.Failure = core.AsFailure(err)
		return outcome
	}
	outcome.Result = &result
	return outcome
}

// changeSD is the SD of the paired difference, the input meta-analyses use
// for change-from-baseline outcomes.
func changeSD(sd1, sd2, r float64) float64 {
	return math.Sqrt(math.Max(0, sd1*sd1+sd2*sd2-2*r*sd1*sd2))
}

func direction(delta float64) domain.Direction {
	switch {
	case delta > 0:
		return domain.DirectionHigher
	case delta < 0:
		return domain.DirectionLower
	default:
		return domain.DirectionNone
	}
}
