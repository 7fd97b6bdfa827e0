package testkit

import (
	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
)

// Fixture cases with hand-checked estimates.

// WorkedExampleRecord is the documented grade-1 case: with n=30 the banded
// five-number formula gives mean -8.489 and SD 22.126.
func WorkedExampleRecord() boxplot.RawRecord {
	return boxplot.RawRecord{
		boxplot.FieldUpperWhisker: "30.933",
		boxplot.FieldQ3:           "10.4",
		boxplot.FieldQ2:           "-6.133",
		boxplot.FieldQ1:           "-29.067",
		boxplot.FieldLowerWhisker: "-50.933",
		boxplot.FieldSampleSize:   "30",
	}
}

// QuartileOnlyRecord is a grade-0 case.
func QuartileOnlyRecord(q1, q2, q3, n string) boxplot.RawRecord {
	return boxplot.RawRecord{
		boxplot.FieldQ1:         q1,
		boxplot.FieldQ2:         q2,
		boxplot.FieldQ3:         q3,
		boxplot.FieldSampleSize: n,
	}
}

// WithWhiskers returns a copy of r with both whiskers set.
func WithWhiskers(r boxplot.RawRecord, lower, upper string) boxplot.RawRecord {
	out := clone(r)
	out[boxplot.FieldLowerWhisker] = lower
	out[boxplot.FieldUpperWhisker] = upper
	return out
}

// WithOutliers returns a copy of r with the given outliers; empty strings
// leave a side unset.
func WithOutliers(r boxplot.RawRecord, lower, upper string) boxplot.RawRecord {
	out := clone(r)
	if lower != "" {
		out[boxplot.FieldLowerOutlier] = lower
	}
	if upper != "" {
		out[boxplot.FieldUpperOutlier] = upper
	}
	return out
}

// MixedGradeGroup returns a group whose cases achieve grades 2, 1 and 2, so
// its working grade is 1.
func MixedGradeGroup(label core.GroupLabel, role boxplot.GroupRole) boxplot.RawGroup {
	base := QuartileOnlyRecord("10", "15", "20", "30")
	return boxplot.RawGroup{
		Label: label,
		Role:  role,
		Cases: []boxplot.RawCase{
			{Label: "Case1", Record: WithOutliers(WithWhiskers(base, "5", "25"), "", "31")},
			{Label: "Case2", Record: WithWhiskers(base, "4", "26")},
			{Label: "Case3", Record: WithOutliers(WithWhiskers(base, "6", "24"), "1", "")},
		},
	}
}

// BaselineInterventionGroups returns a two-group batch with matching case
// labels: one case fails validation in the intervention group.
func BaselineInterventionGroups() []boxplot.RawGroup {
	return []boxplot.RawGroup{
		{
			Label: "Baseline",
			Role:  boxplot.RoleBaseline,
			Cases: []boxplot.RawCase{
				{Label: "Case1", Record: WithWhiskers(QuartileOnlyRecord("-8", "0", "6", "30"), "-20", "18")},
				{Label: "Case2", Record: QuartileOnlyRecord("-5", "1", "7", "28")},
			},
		},
		{
			Label: "Intervention",
			Role:  boxplot.RoleIntervention,
			Cases: []boxplot.RawCase{
				{Label: "Case1", Record: WithWhiskers(QuartileOnlyRecord("2", "12", "20", "30"), "-10", "34")},
				{Label: "Case2", Record: QuartileOnlyRecord("10", "5", "20", "28")},
			},
		},
	}
}

func clone(r boxplot.RawRecord) boxplot.RawRecord {
	out := make(boxplot.RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
