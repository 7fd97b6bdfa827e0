package estimation

import (
	"testing"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
	"boxmeta/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregator() *Aggregator {
	return NewAggregator(NewFormulaEngine(DefaultFormulaOptions()))
}

func TestAggregate_MixedGradesUseMinimum(t *testing.T) {
	result := newTestAggregator().Aggregate(testkit.MixedGradeGroup("Baseline", boxplot.RoleBaseline))

	assert.Equal(t, core.GroupLabel("Baseline"), result.Label)
	assert.Equal(t, boxplot.Grade1, result.WorkingGrade)
	assert.True(t, result.Conservative)
	assert.Equal(t, []core.CaseLabel{"Case2"}, result.LimitingCases)
	require.Len(t, result.Cases, 3)

	wantAchievable := []boxplot.Grade{boxplot.Grade2, boxplot.Grade1, boxplot.Grade2}
	wantSD := []float64{20 / 3.7, 22 / 3.7, 18 / 3.7}
	for i, outcome := range result.Cases {
		require.True(t, outcome.OK(), "case %s", outcome.Label)
		r := outcome.Result
		assert.Equal(t, boxplot.Grade1, r.UsedGrade)
		assert.Equal(t, wantAchievable[i], r.AchievableGrade)
		assert.Equal(t, wantAchievable[i] > boxplot.Grade1, r.IsConservative)
		assert.Equal(t, boxplot.Grade1.PrecisionLabel(), r.PrecisionLabel)
		assert.InDelta(t, 15.0, r.Mean, 1e-12)
		assert.InDelta(t, wantSD[i], r.SD, 1e-12)
		assert.Nil(t, r.Outliers, "grade-1 estimates carry no outlier analysis")
	}

	assert.Contains(t, result.Cases[0].Result.Note, "achievable grade 2")
	assert.Empty(t, result.Cases[1].Result.Note)
}

func TestAggregate_UniformGradesAreNotConservative(t *testing.T) {
	base := testkit.QuartileOnlyRecord("10", "15", "20", "30")
	group := boxplot.RawGroup{
		Label: "Other",
		Role:  boxplot.RoleOther,
		Cases: []boxplot.RawCase{
			{Label: "A", Record: testkit.WithWhiskers(base, "5", "25")},
			{Label: "B", Record: testkit.WithWhiskers(base, "4", "27")},
		},
	}

	result := newTestAggregator().Aggregate(group)
	assert.Equal(t, boxplot.Grade1, result.WorkingGrade)
	assert.False(t, result.Conservative)
	assert.Empty(t, result.LimitingCases)
	for _, r := range result.Results() {
		assert.False(t, r.IsConservative)
	}
}

func TestAggregate_InvalidCaseExcludedFromWorkingGrade(t *testing.T) {
	groups := testkit.BaselineInterventionGroups()
	agg := newTestAggregator()

	baseline := agg.Aggregate(groups[0])
	assert.Equal(t, boxplot.Grade0, baseline.WorkingGrade)
	assert.Equal(t, []core.CaseLabel{"Case2"}, baseline.LimitingCases)
	assert.Len(t, baseline.Results(), 2)

	intervention := agg.Aggregate(groups[1])
	assert.Equal(t, boxplot.Grade1, intervention.WorkingGrade)
	assert.False(t, intervention.Conservative)
	require.Len(t, intervention.Results(), 1)
	require.Len(t, intervention.Failures(), 1)

	failed, ok := intervention.Find("Case2")
	require.True(t, ok)
	assert.Equal(t, boxplot.GradeNone, failed.AchievableGrade)
	assert.Equal(t, core.ReasonQuartileOrderViolation, failed.Failure.Reason)
	assert.ElementsMatch(t, []boxplot.Field{boxplot.FieldQ1, boxplot.FieldQ2, boxplot.FieldQ3, boxplot.FieldSampleSize}, failed.Present)
}

func TestAggregate_AllInvalid(t *testing.T) {
	group := boxplot.RawGroup{
		Label: "Broken",
		Cases: []boxplot.RawCase{
			{Label: "A", Record: testkit.QuartileOnlyRecord("3", "2", "1", "10")},
			{Label: "B", Record: testkit.QuartileOnlyRecord("1", "2", "3", "0")},
		},
	}

	result := newTestAggregator().Aggregate(group)
	assert.Equal(t, boxplot.GradeNone, result.WorkingGrade)
	assert.False(t, result.Conservative)
	assert.Empty(t, result.Results())
	require.Len(t, result.Failures(), 2)
	assert.Equal(t, core.ReasonInvalidSampleSize, result.Cases[1].Failure.Reason)
}

func TestAggregate_GradeTwoGroupKeepsOutlierAnalysis(t *testing.T) {
	base := testkit.WithWhiskers(testkit.QuartileOnlyRecord("10", "15", "20", "60"), "5", "25")
	group := boxplot.RawGroup{
		Label: "Intervention",
		Role:  boxplot.RoleIntervention,
		Cases: []boxplot.RawCase{
			{Label: "Case1", Record: testkit.WithOutliers(base, "", "40")},
			{Label: "Case2", Record: testkit.WithOutliers(base, "-2", "")},
		},
	}

	result := newTestAggregator().Aggregate(group)
	assert.Equal(t, boxplot.Grade2, result.WorkingGrade)
	for _, r := range result.Results() {
		require.NotNil(t, r.Outliers)
		assert.Contains(t, r.Method, "+outlier-tail")
	}
}

func TestEstimateCases_ClassifiesBeforeEstimating(t *testing.T) {
	agg := newTestAggregator()
	rich := mustValidate(t, testkit.WithWhiskers(testkit.QuartileOnlyRecord("10", "15", "20", "30"), "0", "40"))
	plain := mustValidate(t, testkit.QuartileOnlyRecord("10", "15", "20", "30"))

	working, outcomes := agg.EstimateCases([]boxplot.CaseSummary{rich, plain})
	assert.Equal(t, boxplot.Grade0, working)
	require.Len(t, outcomes, 2)

	// the whiskers of the first case must not leak into its grade-0 estimate
	assert.Equal(t, outcomes[1].Result.Mean, outcomes[0].Result.Mean)
	assert.Equal(t, outcomes[1].Result.SD, outcomes[0].Result.SD)
	assert.True(t, outcomes[0].Result.IsConservative)
	assert.Equal(t, boxplot.Grade1, outcomes[0].AchievableGrade)
}

func TestEstimateCases_Empty(t *testing.T) {
	working, outcomes := newTestAggregator().EstimateCases(nil)
	assert.Equal(t, boxplot.GradeNone, working)
	assert.Empty(t, outcomes)
}
