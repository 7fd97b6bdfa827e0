package run

import (
	"boxmeta/domain/boxplot"
	"boxmeta/domain/comparison"
	"boxmeta/domain/core"
)

// Settings are the engine parameters a run was executed with
type Settings struct {
	ConfidenceLevel float64         `json:"confidence_level"`
	Mode            comparison.Mode `json:"mode"`
	Correlation     float64         `json:"correlation"`
	FiveNumber      string          `json:"five_number"`
	MeanCoefficient float64         `json:"skew_mean_coefficient"`
	SDCoefficient   float64         `json:"skew_sd_coefficient"`
}

// Report is the complete output of one conversion run
type Report struct {
	RunID       core.RunID               `json:"run_id"`
	Fingerprint RunFingerprint           `json:"fingerprint"`
	Settings    Settings                 `json:"settings"`
	StartedAt   core.Timestamp           `json:"started_at"`
	CompletedAt core.Timestamp           `json:"completed_at"`
	Groups      []boxplot.GroupResult    `json:"groups"`
	Comparisons []comparison.PairOutcome `json:"comparisons,omitempty"`
	Summary     Summary                  `json:"summary"`
	Warnings    []string                 `json:"warnings,omitempty"`
}

// Group looks a group result up by label
func (r *Report) Group(label core.GroupLabel) (boxplot.GroupResult, bool) {
	for _, g := range r.Groups {
		if g.Label == label {
			return g, true
		}
	}
	return boxplot.GroupResult{}, false
}

// Summary aggregates a run for the report header
type Summary struct {
	TotalGroups        int                 `json:"total_groups"`
	TotalCases         int                 `json:"total_cases"`
	SuccessfulCases    int                 `json:"successful_cases"`
	FailedCases        int                 `json:"failed_cases"`
	ConservativeGroups []core.GroupLabel   `json:"conservative_groups,omitempty"`
	OverallGrade       boxplot.Grade       `json:"overall_grade"`
	OverallPrecision   string              `json:"overall_precision"`
	FailureCounts      map[core.Reason]int `json:"failure_counts,omitempty"`
	GroupStats         []GroupStats        `json:"group_stats,omitempty"`
	Recommendations    []Recommendation    `json:"recommendations,omitempty"`
	SignificantPairs   int                 `json:"significant_pairs"`
	FailedPairs        int                 `json:"failed_pairs"`
}

// GroupStats describes the spread of estimates within one group
type GroupStats struct {
	Group           core.GroupLabel `json:"group"`
	Estimated       int             `json:"estimated_cases"`
	MeanOfMeans     float64         `json:"mean_of_means"`
	MinMean         float64         `json:"min_mean"`
	MaxMean         float64         `json:"max_mean"`
	MedianSD        float64         `json:"median_sd"`
	TotalSampleSize int             `json:"total_sample_size"`
}

// RecommendationKind says what data would improve a group
type RecommendationKind string

const (
	RecommendWhiskers RecommendationKind = "supply_whiskers"
	RecommendOutliers RecommendationKind = "supply_outliers"
	RecommendNoValid  RecommendationKind = "no_valid_cases"
)

// Recommendation names the cases holding a group's working grade down
type Recommendation struct {
	Group core.GroupLabel    `json:"group"`
	Kind  RecommendationKind `json:"kind"`
	Cases []core.CaseLabel   `json:"cases,omitempty"`
	From  boxplot.Grade      `json:"from_grade"`
	To    boxplot.Grade      `json:"to_grade"`
}
