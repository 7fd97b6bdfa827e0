package estimation

import (
	"fmt"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
)

// Aggregator applies conservative grade selection to a group. Every case in
// a group is estimated at the lowest grade any of its valid cases supports,
// so estimates within the group come from the same formula.
type Aggregator struct {
	engine *FormulaEngine
}

// NewAggregator wraps a formula engine.
func NewAggregator(engine *FormulaEngine) *Aggregator {
	return &Aggregator{engine: engine}
}

// Aggregate validates, classifies and estimates every case of a raw group.
// Invalid cases are reported with their failure and excluded from the
// working grade.
func (a *Aggregator) Aggregate(group boxplot.RawGroup) boxplot.GroupResult {
	outcomes := make([]boxplot.CaseOutcome, len(group.Cases))
	valid := make([]boxplot.CaseSummary, 0, len(group.Cases))
	validIdx := make([]int, 0, len(group.Cases))

	for i, rc := range group.Cases {
		outcomes[i] = boxplot.CaseOutcome{
			Label:           rc.Label,
			AchievableGrade: boxplot.GradeNone,
			Present:         rc.Record.Present(),
		}
		summary, err := Validate(rc.Label, rc.Record)
		if err != nil {
			outcomes[i].Failure = core.AsFailure(err)
			continue
		}
		valid = append(valid, summary)
		validIdx = append(validIdx, i)
	}

	working, estimated := a.EstimateCases(valid)
	for j, out := range estimated {
		idx := validIdx[j]
		out.Present = outcomes[idx].Present
		outcomes[idx] = out
	}

	result := boxplot.GroupResult{
		Label:        group.Label,
		Role:         group.Role,
		WorkingGrade: working,
		Cases:        outcomes,
	}
	result.LimitingCases = limitingCases(estimated, working)
	result.Conservative = len(result.LimitingCases) > 0
	return result
}

// EstimateCases runs the conservative selection over validated cases: all
// grades are classified first, the minimum becomes the working grade, and
// only then is each case evaluated at that grade.
func (a *Aggregator) EstimateCases(cases []boxplot.CaseSummary) (boxplot.Grade, []boxplot.CaseOutcome) {
	achievable := make([]boxplot.Grade, len(cases))
	for i, c := range cases {
		achievable[i] = Classify(c)
	}
	working := boxplot.MinGrade(achievable...)

	outcomes := make([]boxplot.CaseOutcome, len(cases))
	for i, c := range cases {
		outcomes[i] = boxplot.CaseOutcome{
			Label:           c.Label(),
			AchievableGrade: achievable[i],
		}

		est, err := a.engine.Estimate(c, working)
		if err != nil {
			outcomes[i].Failure = core.AsFailure(err)
			continue
		}

		result := &boxplot.EstimationResult{
			Case:            c.Label(),
			Mean:            est.Mean,
			SD:              est.SD,
			SampleSize:      c.SampleSize(),
			UsedGrade:       working,
			AchievableGrade: achievable[i],
			PrecisionLabel:  working.PrecisionLabel(),
			IsConservative:  working < achievable[i],
			Method:          est.Method,
			Shape:           AssessShape(c),
			Outliers:        est.Outliers,
		}
		if result.IsConservative {
			result.Note = fmt.Sprintf("estimated at %s (achievable %s) to match the group working grade", working, achievable[i])
		}
		outcomes[i].Result = result
	}
	return working, outcomes
}

// limitingCases lists the cases holding the working grade down. It is empty
// when every case already sits at the working grade.
func limitingCases(outcomes []boxplot.CaseOutcome, working boxplot.Grade) []core.CaseLabel {
	highest := boxplot.GradeNone
	for _, o := range outcomes {
		if o.AchievableGrade > highest {
			highest = o.AchievableGrade
		}
	}
	if highest <= working {
		return nil
	}

	var limiting []core.CaseLabel
	for _, o := range outcomes {
		if o.AchievableGrade == working {
			limiting = append(limiting, o.Label)
		}
	}
	return limiting
}
