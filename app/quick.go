package app

import (
	"fmt"
	"strconv"
	"strings"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
	"boxmeta/internal/errors"
)

// QuickInput holds inline comma-separated values. Index i of every list
// belongs to case i; optional lists may be shorter than the quartile lists.
type QuickInput struct {
	Q1           string
	Q2           string
	Q3           string
	Lower        string
	Upper        string
	LowerOutlier string
	UpperOutlier string
	N1           int
	N2           int // > 0 switches to a two-group baseline/intervention comparison
}

// QuickGroups turns inline values into raw groups.
//
// With N2 unset every entry becomes a case of one baseline group with sample
// size N1. With N2 set exactly two entries are required: the first is the
// baseline (n=N1), the second the intervention (n=N2), both labelled Case1 so
// the intervention-baseline mode pairs them.
func QuickGroups(in QuickInput) ([]boxplot.RawGroup, error) {
	lists := make(map[boxplot.Field][]string)
	for field, raw := range map[boxplot.Field]string{
		boxplot.FieldQ1:           in.Q1,
		boxplot.FieldQ2:           in.Q2,
		boxplot.FieldQ3:           in.Q3,
		boxplot.FieldLowerWhisker: in.Lower,
		boxplot.FieldUpperWhisker: in.Upper,
		boxplot.FieldLowerOutlier: in.LowerOutlier,
		boxplot.FieldUpperOutlier: in.UpperOutlier,
	} {
		values, err := splitList(field, raw)
		if err != nil {
			return nil, err
		}
		lists[field] = values
	}

	count := len(lists[boxplot.FieldQ1])
	if count == 0 {
		return nil, errors.InvalidInput("at least one q1/q2/q3 entry is required")
	}
	if len(lists[boxplot.FieldQ2]) != count || len(lists[boxplot.FieldQ3]) != count {
		return nil, errors.InvalidInput("q1, q2 and q3 need the same number of entries")
	}
	for field, values := range lists {
		if len(values) > count {
			return nil, errors.InvalidInput(fmt.Sprintf("%s has %d entries for %d cases", field, len(values), count))
		}
	}
	if in.N1 <= 0 {
		return nil, errors.InvalidInput("n1 must be a positive integer")
	}

	record := func(i, n int) boxplot.RawRecord {
		r := boxplot.RawRecord{boxplot.FieldSampleSize: strconv.Itoa(n)}
		for field, values := range lists {
			if i < len(values) {
				r[field] = values[i]
			}
		}
		return r
	}

	if in.N2 <= 0 {
		group := boxplot.RawGroup{Label: "Baseline", Role: boxplot.RoleBaseline}
		for i := 0; i < count; i++ {
			group.Cases = append(group.Cases, boxplot.RawCase{
				Label:  core.CaseLabel(fmt.Sprintf("Case%d", i+1)),
				Record: record(i, in.N1),
			})
		}
		return []boxplot.RawGroup{group}, nil
	}

	if count != 2 {
		return nil, errors.InvalidInput(fmt.Sprintf("two-group mode needs exactly 2 entries, got %d", count))
	}
	return []boxplot.RawGroup{
		{Label: "Baseline", Role: boxplot.RoleBaseline, Cases: []boxplot.RawCase{{Label: "Case1", Record: record(0, in.N1)}}},
		{Label: "Intervention", Role: boxplot.RoleIntervention, Cases: []boxplot.RawCase{{Label: "Case1", Record: record(1, in.N2)}}},
	}, nil
}

func splitList(field boxplot.Field, raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimSuffix(raw, ","), ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			// keeps the position: "25,,26" leaves case 2 without this field
			values = append(values, "")
			continue
		}
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			return nil, errors.InvalidInput(fmt.Sprintf("cannot parse %s value %q", field, p))
		}
		values = append(values, p)
	}
	return values, nil
}
