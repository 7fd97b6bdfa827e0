package comparison

import (
	"fmt"
	"strings"

	"boxmeta/domain/core"
)

// Mode selects which pairs a run submits to the comparison engine.
type Mode string

const (
	ModeInterventionBaseline Mode = "intervention-baseline"
	ModePairwise             Mode = "pairwise"
	ModeAll                  Mode = "all"
	ModeNone                 Mode = "none"
)

// ParseMode parses a mode selector. An empty string means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeInterventionBaseline:
		return ModeInterventionBaseline, nil
	case ModePairwise:
		return ModePairwise, nil
	case ModeNone:
		return ModeNone, nil
	}
	return "", fmt.Errorf("unknown comparison mode %q (want intervention-baseline, pairwise, all or none)", s)
}

// IncludesInterventionBaseline reports whether the mode pairs across groups.
func (m Mode) IncludesInterventionBaseline() bool {
	return m == ModeInterventionBaseline || m == ModeAll
}

// IncludesPairwise reports whether the mode pairs cases within a group.
func (m Mode) IncludesPairwise() bool {
	return m == ModePairwise || m == ModeAll
}

// Sample is the (mean, sd, n) triple the engine compares.
type Sample struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	N    int     `json:"n"`
}

// Direction reports the sign of delta_mean.
type Direction string

const (
	DirectionHigher Direction = "higher"
	DirectionLower  Direction = "lower"
	DirectionNone   Direction = "none"
)

// Verdict is the significance decision at the requested confidence level.
type Verdict struct {
	Significant bool      `json:"significant"`
	Direction   Direction `json:"direction"`
	Alpha       float64   `json:"alpha"`
}

// Result holds the difference statistics for one pair.
type Result struct {
	DeltaMean       float64 `json:"delta_mean"`
	SDDiff          float64 `json:"sd_diff"`
	CILower         float64 `json:"ci_lower"`
	CIUpper         float64 `json:"ci_upper"`
	ConfidenceLevel float64 `json:"confidence_level"`
	ZCritical       float64 `json:"z_critical"`
	PooledSD        float64 `json:"pooled_sd"`
	CohenD          float64 `json:"cohen_d"`
	HedgesG         float64 `json:"hedges_g"`
	Z               float64 `json:"z"`
	PValue          float64 `json:"p_value"`
	Verdict         Verdict `json:"verdict"`
	ChangeSD        float64 `json:"change_sd"`
	Correlation     float64 `json:"correlation"`
}

// Endpoint names one side of a comparison.
type Endpoint struct {
	Group core.GroupLabel `json:"group"`
	Case  core.CaseLabel  `json:"case"`
	Sample
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s/%s", e.Group, e.Case)
}

// Kind records why a pair was submitted.
type Kind string

const (
	KindInterventionBaseline Kind = "intervention-baseline"
	KindPairwise             Kind = "pairwise"
)

// PairOutcome is one requested comparison: a result or a failure.
type PairOutcome struct {
	Kind    Kind          `json:"kind"`
	First   Endpoint      `json:"first"`
	Second  Endpoint      `json:"second"`
	Result  *Result       `json:"result,omitempty"`
	Failure *core.Failure `json:"failure,omitempty"`
}
