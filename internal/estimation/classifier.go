package estimation

import (
	"math"

	"boxmeta/domain/boxplot"
)

// symmetryThreshold is the quartile asymmetry ratio below which a box is
// treated as symmetric.
const symmetryThreshold = 0.1

// Classify returns the achievable grade of a validated case.
func Classify(c boxplot.CaseSummary) boxplot.Grade {
	switch {
	case c.HasWhiskers() && c.HasOutlier():
		return boxplot.Grade2
	case c.HasWhiskers():
		return boxplot.Grade1
	default:
		return boxplot.Grade0
	}
}

// AssessShape computes symmetry diagnostics from the quartiles and, when
// available, the whiskers.
func AssessShape(c boxplot.CaseSummary) boxplot.Shape {
	iqr := c.IQR()
	shape := boxplot.Shape{IQR: iqr, Symmetric: true}
	if iqr <= 0 {
		return shape
	}

	shape.SymmetryRatio = math.Abs(c.Q2()-(c.Q1()+c.Q3())/2) / iqr
	shape.Symmetric = shape.SymmetryRatio < symmetryThreshold

	lw, lok := c.LowerWhisker()
	uw, uok := c.UpperWhisker()
	if lok && uok {
		skew := math.Abs((uw-c.Q3())-(c.Q1()-lw)) / iqr
		shape.WhiskerSkew = &skew
	}
	return shape
}
