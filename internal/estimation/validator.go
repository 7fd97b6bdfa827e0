package estimation

import (
	"math"
	"strconv"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
)

// maxSampleSize bounds n so the int conversion is exact on every platform.
const maxSampleSize = 1 << 31

var requiredFields = []boxplot.Field{
	boxplot.FieldQ1,
	boxplot.FieldQ2,
	boxplot.FieldQ3,
	boxplot.FieldSampleSize,
}

var optionalFields = []boxplot.Field{
	boxplot.FieldLowerWhisker,
	boxplot.FieldUpperWhisker,
	boxplot.FieldLowerOutlier,
	boxplot.FieldUpperOutlier,
}

// Validate checks one raw case and returns the immutable summary. Checks run
// in a fixed order (presence, sample size, quartiles, whiskers, outliers)
// and the first violation is returned as a *core.Failure.
func Validate(label core.CaseLabel, record boxplot.RawRecord) (boxplot.CaseSummary, error) {
	values := make(map[boxplot.Field]float64, len(boxplot.Fields))

	for _, f := range requiredFields {
		raw, ok := record.Get(f)
		if !ok {
			return boxplot.CaseSummary{}, core.NewFailure(core.ReasonIncompleteData, string(f), "required field is empty")
		}
		v, err := parseNumber(raw)
		if err != nil {
			return boxplot.CaseSummary{}, core.NewFailure(core.ReasonIncompleteData, string(f), "%q is not a finite number", raw)
		}
		values[f] = v
	}

	optionals := make(map[boxplot.Field]*float64, len(optionalFields))
	for _, f := range optionalFields {
		raw, ok := record.Get(f)
		if !ok {
			continue
		}
		v, err := parseNumber(raw)
		if err != nil {
			return boxplot.CaseSummary{}, core.NewFailure(core.ReasonIncompleteData, string(f), "%q is not a finite number", raw)
		}
		optionals[f] = &v
	}

	n := values[boxplot.FieldSampleSize]
	if n < 1 || n != math.Trunc(n) || n >= maxSampleSize {
		return boxplot.CaseSummary{}, core.NewFailure(core.ReasonInvalidSampleSize, string(boxplot.FieldSampleSize), "%g is not a positive integer", n)
	}

	q1, q2, q3 := values[boxplot.FieldQ1], values[boxplot.FieldQ2], values[boxplot.FieldQ3]
	if q1 > q2 {
		return boxplot.CaseSummary{}, core.NewFailure(core.ReasonQuartileOrderViolation, string(boxplot.FieldQ1), "q1=%g > q2=%g", q1, q2)
	}
	if q2 > q3 {
		return boxplot.CaseSummary{}, core.NewFailure(core.ReasonQuartileOrderViolation, string(boxplot.FieldQ3), "q2=%g > q3=%g", q2, q3)
	}

	lowerBound := q1
	if lw := optionals[boxplot.FieldLowerWhisker]; lw != nil {
		if *lw > q1 {
			return boxplot.CaseSummary{}, core.NewFailure(core.ReasonWhiskerOrderViolation, string(boxplot.FieldLowerWhisker), "lower_whisker=%g > q1=%g", *lw, q1)
		}
		lowerBound = *lw
	}
	upperBound := q3
	if uw := optionals[boxplot.FieldUpperWhisker]; uw != nil {
		if *uw < q3 {
			return boxplot.CaseSummary{}, core.NewFailure(core.ReasonWhiskerOrderViolation, string(boxplot.FieldUpperWhisker), "upper_whisker=%g < q3=%g", *uw, q3)
		}
		upperBound = *uw
	}

	if lo := optionals[boxplot.FieldLowerOutlier]; lo != nil && *lo > lowerBound {
		return boxplot.CaseSummary{}, core.NewFailure(core.ReasonOutlierPositionViolation, string(boxplot.FieldLowerOutlier), "lower_outlier=%g above %g", *lo, lowerBound)
	}
	if uo := optionals[boxplot.FieldUpperOutlier]; uo != nil && *uo < upperBound {
		return boxplot.CaseSummary{}, core.NewFailure(core.ReasonOutlierPositionViolation, string(boxplot.FieldUpperOutlier), "upper_outlier=%g below %g", *uo, upperBound)
	}

	return boxplot.NewCaseSummary(label, boxplot.CaseValues{
		Q1:           q1,
		Q2:           q2,
		Q3:           q3,
		SampleSize:   int(n),
		LowerWhisker: optionals[boxplot.FieldLowerWhisker],
		UpperWhisker: optionals[boxplot.FieldUpperWhisker],
		LowerOutlier: optionals[boxplot.FieldLowerOutlier],
		UpperOutlier: optionals[boxplot.FieldUpperOutlier],
	}), nil
}

// parseNumber rejects NaN and infinities, which strconv accepts.
func parseNumber(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
