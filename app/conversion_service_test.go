package app

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"boxmeta/domain/boxplot"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/core"
	"boxmeta/internal"
	"boxmeta/internal/config"
	"boxmeta/internal/errors"
	"boxmeta/internal/estimation"
	"boxmeta/internal/testkit"
	"boxmeta/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(mutate func(*ConversionOptions)) *ConversionService {
	opts := DefaultConversionOptions()
	if mutate != nil {
		mutate(&opts)
	}
	return NewConversionService(opts).WithLogger(internal.NewNopLogger())
}

func TestConvert_BaselineIntervention(t *testing.T) {
	svc := newTestService(nil)

	report, err := svc.Convert(context.Background(), testkit.BaselineInterventionGroups())
	require.NoError(t, err)
	require.NoError(t, report.Validate())
	require.Len(t, report.Groups, 2)

	baseline, ok := report.Group("Baseline")
	require.True(t, ok)
	assert.Equal(t, boxplot.Grade0, baseline.WorkingGrade)
	assert.True(t, baseline.Conservative)

	intervention, ok := report.Group("Intervention")
	require.True(t, ok)
	assert.Equal(t, boxplot.Grade1, intervention.WorkingGrade)
	assert.False(t, intervention.Conservative)

	// intervention-baseline pairs first, then pairwise pairs
	require.Len(t, report.Comparisons, 4)

	ib := report.Comparisons[0]
	assert.Equal(t, domaincmp.KindInterventionBaseline, ib.Kind)
	assert.Equal(t, core.GroupLabel("Intervention"), ib.First.Group)
	assert.Equal(t, core.GroupLabel("Baseline"), ib.Second.Group)
	require.NotNil(t, ib.Result)
	assert.InDelta(t, 12.3333, ib.Result.DeltaMean, 1e-4)
	assert.InDelta(t, 2.8808, ib.Result.SDDiff, 1e-4)
	assert.InDelta(t, 4.2813, ib.Result.Z, 1e-4)
	assert.True(t, ib.Result.Verdict.Significant)
	assert.Equal(t, domaincmp.DirectionHigher, ib.Result.Verdict.Direction)

	failed := report.Comparisons[1]
	assert.Nil(t, failed.Result)
	require.NotNil(t, failed.Failure)
	assert.Equal(t, core.ReasonQuartileOrderViolation, failed.Failure.Reason)
	assert.Contains(t, failed.Failure.Detail, "Intervention/Case2")

	within := report.Comparisons[2]
	assert.Equal(t, domaincmp.KindPairwise, within.Kind)
	require.NotNil(t, within.Result)
	assert.InDelta(t, -1.6667, within.Result.DeltaMean, 1e-4)
	assert.InDelta(t, 2.5311, within.Result.SDDiff, 1e-4)
	assert.False(t, within.Result.Verdict.Significant)

	assert.NotNil(t, report.Comparisons[3].Failure)

	s := report.Summary
	assert.Equal(t, 2, s.TotalGroups)
	assert.Equal(t, 4, s.TotalCases)
	assert.Equal(t, 3, s.SuccessfulCases)
	assert.Equal(t, 1, s.FailedCases)
	assert.Equal(t, map[core.Reason]int{core.ReasonQuartileOrderViolation: 1}, s.FailureCounts)
	assert.Equal(t, []core.GroupLabel{"Baseline"}, s.ConservativeGroups)
	assert.Equal(t, boxplot.Grade0, s.OverallGrade)
	assert.Equal(t, boxplot.Grade0.PrecisionLabel(), s.OverallPrecision)
	assert.Equal(t, 1, s.SignificantPairs)
	assert.Equal(t, 2, s.FailedPairs)
	assert.Empty(t, report.Warnings)
}

func TestConvert_GroupStatsAndRecommendations(t *testing.T) {
	report, err := newTestService(nil).Convert(context.Background(), testkit.BaselineInterventionGroups())
	require.NoError(t, err)

	require.Len(t, report.Summary.GroupStats, 2)
	base := report.Summary.GroupStats[0]
	assert.Equal(t, core.GroupLabel("Baseline"), base.Group)
	assert.Equal(t, 2, base.Estimated)
	assert.InDelta(t, 1.0/6, base.MeanOfMeans, 1e-9)
	assert.InDelta(t, -2.0/3, base.MinMean, 1e-9)
	assert.InDelta(t, 1, base.MaxMean, 1e-9)
	assert.InDelta(t, (14/1.35+12/1.35)/2, base.MedianSD, 1e-9)
	assert.Equal(t, 58, base.TotalSampleSize)

	iv := report.Summary.GroupStats[1]
	assert.Equal(t, 1, iv.Estimated)
	assert.InDelta(t, 70.0/6, iv.MeanOfMeans, 1e-9)
	assert.InDelta(t, 44/3.7, iv.MedianSD, 1e-9)

	require.Len(t, report.Summary.Recommendations, 1)
	rec := report.Summary.Recommendations[0]
	assert.Equal(t, core.GroupLabel("Baseline"), rec.Group)
	assert.Equal(t, []core.CaseLabel{"Case2"}, rec.Cases)
	assert.Equal(t, boxplot.Grade0, rec.From)
	assert.Equal(t, boxplot.Grade1, rec.To)
}

func TestConvert_ModeSelection(t *testing.T) {
	tests := []struct {
		mode  domaincmp.Mode
		pairs int
	}{
		{domaincmp.ModeNone, 0},
		{domaincmp.ModeInterventionBaseline, 2},
		{domaincmp.ModePairwise, 2},
		{domaincmp.ModeAll, 4},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			svc := newTestService(func(o *ConversionOptions) { o.Mode = tt.mode })
			report, err := svc.Convert(context.Background(), testkit.BaselineInterventionGroups())
			require.NoError(t, err)
			assert.Len(t, report.Comparisons, tt.pairs)
			assert.Equal(t, tt.mode, report.Settings.Mode)
		})
	}
}

func TestConvert_PairingWarnings(t *testing.T) {
	groups := testkit.BaselineInterventionGroups()
	groups[1].Cases = append(groups[1].Cases, boxplot.RawCase{
		Label:  "Case3",
		Record: testkit.QuartileOnlyRecord("1", "2", "3", "20"),
	})
	groups = append(groups, boxplot.RawGroup{
		Label: "Baseline B",
		Role:  boxplot.RoleBaseline,
		Cases: []boxplot.RawCase{{Label: "Case1", Record: testkit.QuartileOnlyRecord("1", "2", "3", "20")}},
	})

	svc := newTestService(func(o *ConversionOptions) { o.Mode = domaincmp.ModeInterventionBaseline })
	report, err := svc.Convert(context.Background(), groups)
	require.NoError(t, err)
	assert.Len(t, report.Comparisons, 2)
	require.Len(t, report.Warnings, 2)
	assert.Contains(t, report.Warnings[0], "only the first baseline group")
	assert.Contains(t, report.Warnings[1], "Intervention/Case3 has no counterpart in Baseline")
}

func TestConvert_NoBaseline(t *testing.T) {
	groups := testkit.BaselineInterventionGroups()[1:]
	svc := newTestService(func(o *ConversionOptions) { o.Mode = domaincmp.ModeInterventionBaseline })

	report, err := svc.Convert(context.Background(), groups)
	require.NoError(t, err)
	assert.Empty(t, report.Comparisons)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "no baseline group")
}

func TestConvert_InvalidBatches(t *testing.T) {
	mixed := testkit.MixedGradeGroup("A", boxplot.RoleOther)
	tests := []struct {
		name   string
		groups []boxplot.RawGroup
	}{
		{"empty", nil},
		{"duplicate label", []boxplot.RawGroup{mixed, mixed}},
		{"empty label", []boxplot.RawGroup{{Role: boxplot.RoleOther}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(nil).Convert(context.Background(), tt.groups)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
		})
	}
}

func TestConvert_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(nil).Convert(ctx, testkit.BaselineInterventionGroups())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_ParallelKeepsGroupOrder(t *testing.T) {
	gen := testkit.NewBoxplotGenerator(testkit.DefaultBoxplotConfig())
	var groups []boxplot.RawGroup
	for i := 0; i < 25; i++ {
		g, err := gen.GenerateGroup(core.GroupLabel(fmt.Sprintf("Arm %02d", i)), boxplot.RoleOther,
			boxplot.Grade2, boxplot.Grade1, boxplot.Grade2)
		require.NoError(t, err)
		groups = append(groups, g)
	}

	svc := newTestService(func(o *ConversionOptions) {
		o.Workers = 3
		o.Mode = domaincmp.ModeNone
	})
	report, err := svc.Convert(context.Background(), groups)
	require.NoError(t, err)
	require.Len(t, report.Groups, len(groups))
	for i, g := range report.Groups {
		assert.Equal(t, groups[i].Label, g.Label)
		assert.Equal(t, boxplot.Grade1, g.WorkingGrade)
		assert.Len(t, g.Results(), 3)
	}
}

func TestConvert_FingerprintIsDeterministic(t *testing.T) {
	svc := newTestService(nil)
	first, err := svc.Convert(context.Background(), testkit.BaselineInterventionGroups())
	require.NoError(t, err)
	second, err := svc.Convert(context.Background(), testkit.BaselineInterventionGroups())
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint.Fingerprint, second.Fingerprint.Fingerprint)
	assert.NotEqual(t, first.RunID, second.RunID)

	closed := newTestService(func(o *ConversionOptions) { o.Formula.FiveNumber = estimation.FiveNumberClosed })
	third, err := closed.Convert(context.Background(), testkit.BaselineInterventionGroups())
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint.Fingerprint, third.Fingerprint.Fingerprint)
}

func TestConvertSource_CarriesWarnings(t *testing.T) {
	src := ports.StaticSource{
		Groups:   testkit.BaselineInterventionGroups(),
		Warnings: []string{"row 12: unknown field label \"Weight\""},
	}
	report, err := newTestService(nil).ConvertSource(context.Background(), src)
	require.NoError(t, err)
	require.NotEmpty(t, report.Warnings)
	assert.Equal(t, src.Warnings[0], report.Warnings[0])
}

func TestCompare_UsesConfiguredConfidence(t *testing.T) {
	svc := newTestService(func(o *ConversionOptions) { o.Comparison.ConfidenceLevel = 0.99 })
	out := svc.Compare(
		domaincmp.Endpoint{Group: "T", Case: "1", Sample: domaincmp.Sample{Mean: 12, SD: 21.84, N: 30}},
		domaincmp.Endpoint{Group: "C", Case: "1", Sample: domaincmp.Sample{Mean: -0.6222, SD: 21.84, N: 30}},
	)
	require.NotNil(t, out.Result)
	assert.Equal(t, 0.99, out.Result.ConfidenceLevel)
	assert.False(t, out.Result.Verdict.Significant)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.FiveNumber = "closed"
	cfg.Engine.Mode = "pairwise"
	cfg.Engine.Correlation = 0.4
	cfg.Run.Workers = 2

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, estimation.FiveNumberClosed, opts.Formula.FiveNumber)
	assert.Equal(t, domaincmp.ModePairwise, opts.Mode)
	assert.Equal(t, 0.4, opts.Comparison.Correlation)
	assert.Equal(t, 0.95, opts.Comparison.ConfidenceLevel)
	assert.Equal(t, 0.05, opts.Formula.Skew.MeanCoefficient)
	assert.Equal(t, 2, opts.Workers)

	cfg.Engine.FiveNumber = "luo"
	_, err = OptionsFromConfig(cfg)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	assert.Equal(t, 1, strings.Count(err.Error(), `"luo"`))
}

func TestSummarize_GroupWithoutValidCases(t *testing.T) {
	svc := newTestService(nil)
	report, err := svc.Convert(context.Background(), []boxplot.RawGroup{{
		Label: "Broken",
		Role:  boxplot.RoleOther,
		Cases: []boxplot.RawCase{{Label: "Case1", Record: testkit.QuartileOnlyRecord("3", "2", "1", "10")}},
	}})
	require.NoError(t, err)

	s := report.Summary
	assert.Equal(t, boxplot.GradeNone, s.OverallGrade)
	assert.Empty(t, s.GroupStats)
	require.Len(t, s.Recommendations, 1)
	assert.Equal(t, core.GroupLabel("Broken"), s.Recommendations[0].Group)
	assert.Equal(t, "no_valid_cases", string(s.Recommendations[0].Kind))
}
