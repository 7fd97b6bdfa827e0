package boxplot

import (
	"fmt"
	"strings"

	"boxmeta/domain/core"
)

// Field names one value read off a box plot.
type Field string

const (
	FieldUpperOutlier Field = "upper_outlier"
	FieldUpperWhisker Field = "upper_whisker"
	FieldQ3           Field = "q3"
	FieldQ2           Field = "q2"
	FieldQ1           Field = "q1"
	FieldLowerWhisker Field = "lower_whisker"
	FieldLowerOutlier Field = "lower_outlier"
	FieldSampleSize   Field = "sample_size"
)

// Fields lists every field top of the plot first, sample size last. Templates
// and readers use this order.
var Fields = []Field{
	FieldUpperOutlier,
	FieldUpperWhisker,
	FieldQ3,
	FieldQ2,
	FieldQ1,
	FieldLowerWhisker,
	FieldLowerOutlier,
	FieldSampleSize,
}

// ParseField accepts the canonical snake_case name, case-insensitively.
func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// RawRecord is one case as it arrives from an adapter: field -> raw text.
// An empty or missing entry means the value was not reported.
type RawRecord map[Field]string

// Get returns the trimmed value and whether it is present.
func (r RawRecord) Get(f Field) (string, bool) {
	v, ok := r[f]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Present lists the fields carrying a non-empty value, in Fields order.
func (r RawRecord) Present() []Field {
	var present []Field
	for _, f := range Fields {
		if _, ok := r.Get(f); ok {
			present = append(present, f)
		}
	}
	return present
}

// RawCase is one labelled column of a group.
type RawCase struct {
	Label  core.CaseLabel `json:"label"`
	Record RawRecord      `json:"record"`
}

// GroupRole tells the comparison layer how a group pairs with others.
type GroupRole string

const (
	RoleBaseline     GroupRole = "baseline"
	RoleIntervention GroupRole = "intervention"
	RoleOther        GroupRole = "other"
)

// RawGroup is a named collection of raw cases.
type RawGroup struct {
	Label core.GroupLabel `json:"label"`
	Role  GroupRole       `json:"role"`
	Cases []RawCase       `json:"cases"`
}

// Grade is the data completeness tier of a case.
type Grade int

const (
	// GradeNone marks a group without a single valid case.
	GradeNone Grade = -1
	// Grade0 is quartiles plus sample size.
	Grade0 Grade = 0
	// Grade1 adds both whiskers.
	Grade1 Grade = 1
	// Grade2 adds at least one outlier on top of grade 1.
	Grade2 Grade = 2
)

var precisionLabels = map[Grade]string{
	Grade0: "medium (~15–25%)",
	Grade1: "high (~8–15%)",
	Grade2: "highest (~5–10%)",
}

// Valid reports whether g is one of the three computable grades.
func (g Grade) Valid() bool {
	return g >= Grade0 && g <= Grade2
}

func (g Grade) String() string {
	if !g.Valid() {
		return "none"
	}
	return fmt.Sprintf("grade %d", int(g))
}

// PrecisionLabel is the expected relative error band for estimates at g.
func (g Grade) PrecisionLabel() string {
	if label, ok := precisionLabels[g]; ok {
		return label
	}
	return "unknown"
}

// MinGrade returns the most conservative grade of grades, GradeNone if empty.
func MinGrade(grades ...Grade) Grade {
	lowest := GradeNone
	for _, g := range grades {
		if lowest == GradeNone || g < lowest {
			lowest = g
		}
	}
	return lowest
}

type optional struct {
	value float64
	ok    bool
}

// CaseValues carries the parsed numbers of one case. Nil pointers are
// fields that were not reported.
type CaseValues struct {
	Q1           float64
	Q2           float64
	Q3           float64
	SampleSize   int
	LowerWhisker *float64
	UpperWhisker *float64
	LowerOutlier *float64
	UpperOutlier *float64
}

// CaseSummary is a validated case. It is immutable; construct it through
// the record validator.
type CaseSummary struct {
	label        core.CaseLabel
	q1, q2, q3   float64
	n            int
	lowerWhisker optional
	upperWhisker optional
	lowerOutlier optional
	upperOutlier optional
}

// NewCaseSummary assembles a summary without checking it. Callers outside
// the validator should not need this.
func NewCaseSummary(label core.CaseLabel, v CaseValues) CaseSummary {
	return CaseSummary{
		label:        label,
		q1:           v.Q1,
		q2:           v.Q2,
		q3:           v.Q3,
		n:            v.SampleSize,
		lowerWhisker: fromPtr(v.LowerWhisker),
		upperWhisker: fromPtr(v.UpperWhisker),
		lowerOutlier: fromPtr(v.LowerOutlier),
		upperOutlier: fromPtr(v.UpperOutlier),
	}
}

func fromPtr(p *float64) optional {
	if p == nil {
		return optional{}
	}
	return optional{value: *p, ok: true}
}

func (c CaseSummary) Label() core.CaseLabel { return c.label }
func (c CaseSummary) Q1() float64           { return c.q1 }
func (c CaseSummary) Q2() float64           { return c.q2 }
func (c CaseSummary) Q3() float64           { return c.q3 }
func (c CaseSummary) SampleSize() int       { return c.n }

// IQR is the interquartile range q3-q1.
func (c CaseSummary) IQR() float64 { return c.q3 - c.q1 }

func (c CaseSummary) LowerWhisker() (float64, bool) { return c.lowerWhisker.value, c.lowerWhisker.ok }
func (c CaseSummary) UpperWhisker() (float64, bool) { return c.upperWhisker.value, c.upperWhisker.ok }
func (c CaseSummary) LowerOutlier() (float64, bool) { return c.lowerOutlier.value, c.lowerOutlier.ok }
func (c CaseSummary) UpperOutlier() (float64, bool) { return c.upperOutlier.value, c.upperOutlier.ok }

// HasWhiskers reports whether both whiskers are present.
func (c CaseSummary) HasWhiskers() bool {
	return c.lowerWhisker.ok && c.upperWhisker.ok
}

// HasOutlier reports whether at least one outlier is present.
func (c CaseSummary) HasOutlier() bool {
	return c.lowerOutlier.ok || c.upperOutlier.ok
}

// Value returns any field by name.
func (c CaseSummary) Value(f Field) (float64, bool) {
	switch f {
	case FieldQ1:
		return c.q1, true
	case FieldQ2:
		return c.q2, true
	case FieldQ3:
		return c.q3, true
	case FieldSampleSize:
		return float64(c.n), true
	case FieldLowerWhisker:
		return c.LowerWhisker()
	case FieldUpperWhisker:
		return c.UpperWhisker()
	case FieldLowerOutlier:
		return c.LowerOutlier()
	case FieldUpperOutlier:
		return c.UpperOutlier()
	}
	return 0, false
}
