package app

import (
	"boxmeta/domain/boxplot"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/core"
	"boxmeta/domain/run"

	"github.com/montanaflynn/stats"
)

// Summarize builds the run summary from group results and comparisons
func Summarize(groups []boxplot.GroupResult, comparisons []domaincmp.PairOutcome) run.Summary {
	summary := run.Summary{
		TotalGroups:   len(groups),
		FailureCounts: make(map[core.Reason]int),
	}

	var working []boxplot.Grade
	for _, g := range groups {
		summary.TotalCases += len(g.Cases)
		for _, c := range g.Cases {
			if c.OK() {
				summary.SuccessfulCases++
			} else if c.Failure != nil {
				summary.FailedCases++
				summary.FailureCounts[c.Failure.Reason]++
			}
		}
		if g.WorkingGrade.Valid() {
			working = append(working, g.WorkingGrade)
		}
		if g.Conservative {
			summary.ConservativeGroups = append(summary.ConservativeGroups, g.Label)
		}
		if gs, ok := groupStats(g); ok {
			summary.GroupStats = append(summary.GroupStats, gs)
		}
		summary.Recommendations = append(summary.Recommendations, recommend(g)...)
	}
	if len(summary.FailureCounts) == 0 {
		summary.FailureCounts = nil
	}

	summary.OverallGrade = boxplot.MinGrade(working...)
	summary.OverallPrecision = summary.OverallGrade.PrecisionLabel()

	for _, p := range comparisons {
		switch {
		case p.Failure != nil:
			summary.FailedPairs++
		case p.Result != nil && p.Result.Verdict.Significant:
			summary.SignificantPairs++
		}
	}
	return summary
}

// groupStats describes the spread of a group's estimates
func groupStats(g boxplot.GroupResult) (run.GroupStats, bool) {
	results := g.Results()
	if len(results) == 0 {
		return run.GroupStats{}, false
	}

	means := make(stats.Float64Data, len(results))
	sds := make(stats.Float64Data, len(results))
	total := 0
	for i, r := range results {
		means[i] = r.Mean
		sds[i] = r.SD
		total += r.SampleSize
	}

	// inputs are non-empty, so these cannot fail
	mean, _ := stats.Mean(means)
	lo, _ := stats.Min(means)
	hi, _ := stats.Max(means)
	medianSD, _ := stats.Median(sds)

	return run.GroupStats{
		Group:           g.Label,
		Estimated:       len(results),
		MeanOfMeans:     mean,
		MinMean:         lo,
		MaxMean:         hi,
		MedianSD:        medianSD,
		TotalSampleSize: total,
	}, true
}

// recommend names the data that would raise a group's working grade
func recommend(g boxplot.GroupResult) []run.Recommendation {
	if !g.WorkingGrade.Valid() {
		return []run.Recommendation{{Group: g.Label, Kind: run.RecommendNoValid, From: boxplot.GradeNone, To: boxplot.GradeNone}}
	}
	if !g.Conservative || len(g.LimitingCases) == 0 {
		return nil
	}

	kind := run.RecommendOutliers
	if g.WorkingGrade == boxplot.Grade0 {
		kind = run.RecommendWhiskers
	}
	return []run.Recommendation{{
		Group: g.Label,
		Kind:  kind,
		Cases: g.LimitingCases,
		From:  g.WorkingGrade,
		To:    g.WorkingGrade + 1,
	}}
}
