package comparison

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalQuantile computes quantile function for standard normal (inverse CDF)
func NormalQuantile(p float64) float64 {
	return distuv.UnitNormal.Quantile(p)
}

// CriticalZ is the two-sided critical value for a confidence level, e.g.
// 1.959964 for 0.95.
func CriticalZ(confidenceLevel float64) float64 {
	alpha := 1.0 - confidenceLevel
	return NormalQuantile(1.0 - alpha/2.0)
}

// TwoSidedPValue is the two-sided tail probability of a standard normal
// statistic. Survival keeps precision for large |z| where 1-CDF underflows.
func TwoSidedPValue(z float64) float64 {
	p := 2 * distuv.UnitNormal.Survival(math.Abs(z))
	if p > 1 {
		return 1
	}
	return p
}

// PooledSD is the unbiased pooled standard deviation of two samples.
func PooledSD(sd1 float64, n1 int, sd2 float64, n2 int) float64 {
	df := float64(n1 + n2 - 2)
	if df <= 0 {
		return 0
	}
	return math.Sqrt((float64(n1-1)*sd1*sd1 + float64(n2-1)*sd2*sd2) / df)
}

// HedgesCorrection is the small-sample bias correction factor J applied to
// Cohen's d.
func HedgesCorrection(totalN int) float64 {
	if totalN < 3 {
		return 1
	}
	return 1.0 - (3.0 / (4.0*float64(totalN) - 9.0))
}
