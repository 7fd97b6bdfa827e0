package boxplot

import (
	"boxmeta/domain/core"
)

// Shape holds distribution diagnostics derived from the box plot geometry.
type Shape struct {
	IQR           float64  `json:"iqr"`
	SymmetryRatio float64  `json:"symmetry_ratio"`             // |q2 - (q1+q3)/2| / IQR
	Symmetric     bool     `json:"symmetric"`                  // SymmetryRatio below threshold
	WhiskerSkew   *float64 `json:"whisker_symmetry,omitempty"` // |upper tail - lower tail| / IQR
}

// OutlierSeverity classifies an outlier against Tukey fences.
type OutlierSeverity string

const (
	SeverityNone    OutlierSeverity = "none"
	SeverityInside  OutlierSeverity = "inside_fence"
	SeverityMild    OutlierSeverity = "mild"
	SeverityExtreme OutlierSeverity = "extreme"
)

// OutlierAnalysis explains the grade-2 tail correction.
type OutlierAnalysis struct {
	UpperExcess     float64         `json:"upper_excess"` // upper_outlier - upper_whisker
	LowerExcess     float64         `json:"lower_excess"` // lower_whisker - lower_outlier
	UpperSeverity   OutlierSeverity `json:"upper_severity"`
	LowerSeverity   OutlierSeverity `json:"lower_severity"`
	LowerInnerFence float64         `json:"lower_inner_fence"`
	UpperInnerFence float64         `json:"upper_inner_fence"`
	LowerOuterFence float64         `json:"lower_outer_fence"`
	UpperOuterFence float64         `json:"upper_outer_fence"`
	MeanShift       float64         `json:"mean_shift"`
	SDInflation     float64         `json:"sd_inflation"`
}

// EstimationResult is the estimate for one case.
type EstimationResult struct {
	Case            core.CaseLabel   `json:"case"`
	Mean            float64          `json:"mean"`
	SD              float64          `json:"sd"`
	SampleSize      int              `json:"sample_size"`
	UsedGrade       Grade            `json:"used_grade"`
	AchievableGrade Grade            `json:"achievable_grade"`
	PrecisionLabel  string           `json:"precision_label"`
	IsConservative  bool             `json:"is_conservative"`
	Method          string           `json:"method"`
	Note            string           `json:"note,omitempty"`
	Shape           Shape            `json:"shape"`
	Outliers        *OutlierAnalysis `json:"outlier_analysis,omitempty"`
}

// CaseOutcome is either a result or the failure that prevented one.
type CaseOutcome struct {
	Label           core.CaseLabel    `json:"label"`
	AchievableGrade Grade             `json:"achievable_grade"`
	Present         []Field           `json:"present_fields"`
	Result          *EstimationResult `json:"result,omitempty"`
	Failure         *core.Failure     `json:"failure,omitempty"`
}

// OK reports whether the case produced an estimate.
func (o CaseOutcome) OK() bool {
	return o.Result != nil
}

// GroupResult is the aggregated output for one group.
type GroupResult struct {
	Label         core.GroupLabel  `json:"label"`
	Role          GroupRole        `json:"role"`
	WorkingGrade  Grade            `json:"working_grade"`
	Conservative  bool             `json:"conservative"`
	LimitingCases []core.CaseLabel `json:"limiting_cases,omitempty"`
	Cases         []CaseOutcome    `json:"cases"`
}

// Results returns the successful estimates in case order.
func (g GroupResult) Results() []EstimationResult {
	results := make([]EstimationResult, 0, len(g.Cases))
	for _, c := range g.Cases {
		if c.Result != nil {
			results = append(results, *c.Result)
		}
	}
	return results
}

// Failures returns the failed cases in case order.
func (g GroupResult) Failures() []CaseOutcome {
	var failed []CaseOutcome
	for _, c := range g.Cases {
		if c.Failure != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Find looks a case up by label.
func (g GroupResult) Find(label core.CaseLabel) (CaseOutcome, bool) {
	for _, c := range g.Cases {
		if c.Label == label {
			return c, true
		}
	}
	return CaseOutcome{}, false
}
