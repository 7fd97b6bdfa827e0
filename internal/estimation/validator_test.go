package estimation

import (
	"errors"
	"testing"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
	"boxmeta/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Failures(t *testing.T) {
	base := testkit.QuartileOnlyRecord("10", "15", "20", "30")

	tests := []struct {
		name   string
		record boxplot.RawRecord
		reason core.Reason
		field  string
	}{
		{"missing median", boxplot.RawRecord{boxplot.FieldQ1: "10", boxplot.FieldQ3: "20", boxplot.FieldSampleSize: "30"}, core.ReasonIncompleteData, "q2"},
		{"blank sample size", testkit.QuartileOnlyRecord("10", "15", "20", "  "), core.ReasonIncompleteData, "sample_size"},
		{"non numeric quartile", testkit.QuartileOnlyRecord("ten", "15", "20", "30"), core.ReasonIncompleteData, "q1"},
		{"NaN whisker", testkit.WithWhiskers(base, "NaN", "25"), core.ReasonIncompleteData, "lower_whisker"},
		{"zero sample size", testkit.QuartileOnlyRecord("10", "15", "20", "0"), core.ReasonInvalidSampleSize, "sample_size"},
		{"fractional sample size", testkit.QuartileOnlyRecord("10", "15", "20", "30.5"), core.ReasonInvalidSampleSize, "sample_size"},
		{"negative sample size", testkit.QuartileOnlyRecord("10", "15", "20", "-4"), core.ReasonInvalidSampleSize, "sample_size"},
		{"q1 above median", testkit.QuartileOnlyRecord("10", "5", "20", "30"), core.ReasonQuartileOrderViolation, "q1"},
		{"median above q3", testkit.QuartileOnlyRecord("10", "25", "20", "30"), core.ReasonQuartileOrderViolation, "q3"},
		{"lower whisker inside box", testkit.WithWhiskers(base, "12", "25"), core.ReasonWhiskerOrderViolation, "lower_whisker"},
		{"upper whisker inside box", testkit.WithWhiskers(base, "5", "18"), core.ReasonWhiskerOrderViolation, "upper_whisker"},
		{"lower outlier above whisker", testkit.WithOutliers(testkit.WithWhiskers(base, "5", "25"), "7", ""), core.ReasonOutlierPositionViolation, "lower_outlier"},
		{"lower outlier above q1 without whisker", testkit.WithOutliers(base, "11", ""), core.ReasonOutlierPositionViolation, "lower_outlier"},
		{"upper outlier below q3 without whisker", testkit.WithOutliers(base, "", "19"), core.ReasonOutlierPositionViolation, "upper_outlier"},
		{"upper outlier below whisker", testkit.WithOutliers(testkit.WithWhiskers(base, "5", "25"), "", "24"), core.ReasonOutlierPositionViolation, "upper_outlier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate("Case1", tt.record)
			require.Error(t, err)

			var failure *core.Failure
			require.True(t, errors.As(err, &failure), "expected *core.Failure, got %T", err)
			assert.Equal(t, tt.reason, failure.Reason)
			assert.Equal(t, tt.field, failure.Field)
		})
	}
}

func TestValidate_RejectsReversedQuartiles(t *testing.T) {
	_, err := Validate("Case1", testkit.QuartileOnlyRecord("10", "5", "20", "30"))
	assert.ErrorIs(t, err, core.ErrQuartileOrderViolation)
}

func TestValidate_AcceptsBoundaryEquality(t *testing.T) {
	record := testkit.WithOutliers(testkit.WithWhiskers(testkit.QuartileOnlyRecord("5", "5", "5", "1"), "5", "5"), "5", "5")

	summary, err := Validate("flat", record)
	require.NoError(t, err)
	assert.Equal(t, core.CaseLabel("flat"), summary.Label())
	assert.Equal(t, 1, summary.SampleSize())
	assert.True(t, summary.HasWhiskers())
	assert.True(t, summary.HasOutlier())
}

func TestValidate_KeepsOptionalFields(t *testing.T) {
	summary, err := Validate("Case1", testkit.WorkedExampleRecord())
	require.NoError(t, err)

	assert.Equal(t, -29.067, summary.Q1())
	assert.Equal(t, -6.133, summary.Q2())
	assert.Equal(t, 10.4, summary.Q3())
	assert.Equal(t, 30, summary.SampleSize())

	lw, ok := summary.LowerWhisker()
	assert.True(t, ok)
	assert.Equal(t, -50.933, lw)

	_, ok = summary.UpperOutlier()
	assert.False(t, ok)

	v, ok := summary.Value(boxplot.FieldUpperWhisker)
	assert.True(t, ok)
	assert.Equal(t, 30.933, v)
}

func TestValidate_SampleSizeWrittenAsFloat(t *testing.T) {
	summary, err := Validate("Case1", testkit.QuartileOnlyRecord("1", "2", "3", "30.0"))
	require.NoError(t, err)
	assert.Equal(t, 30, summary.SampleSize())
}
