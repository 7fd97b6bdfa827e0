package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"boxmeta/domain/boxplot"
	domaincmp "boxmeta/domain/comparison"
	"boxmeta/domain/core"
	"boxmeta/domain/run"
	"boxmeta/internal/i18n"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// table is one rendered grid. Text and Markdown output share it.
type table struct {
	Title  string
	Note   string
	Header []string
	Rows   [][]string
}

// view is a localized, preformatted rendering of a run report
type view struct {
	Title           string
	Meta            [][2]string
	Summary         [][2]string
	Groups          []table
	Stats           *table
	Comparisons     *table
	Recommendations []string
	Warnings        []string

	p *message.Printer
}

func buildView(r *run.Report, tag language.Tag) *view {
	p := i18n.Printer(tag)
	v := &view{
		Title: p.Sprintf("Box plot conversion report"),
		p:     p,
	}

	v.Meta = [][2]string{
		{p.Sprintf("Run"), string(r.RunID)},
		{p.Sprintf("Input hash"), r.Fingerprint.InputHash.Short()},
		{p.Sprintf("Confidence level"), formatFloat(r.Settings.ConfidenceLevel, 2)},
		{p.Sprintf("Comparison mode"), string(r.Settings.Mode)},
		{p.Sprintf("Five-number formula"), r.Settings.FiveNumber},
		{p.Sprintf("Correlation"), formatFloat(r.Settings.Correlation, 2)},
	}

	s := r.Summary
	v.Summary = [][2]string{
		{p.Sprintf("Groups"), strconv.Itoa(s.TotalGroups)},
		{p.Sprintf("Cases"), strconv.Itoa(s.TotalCases)},
		{p.Sprintf("Successful cases"), strconv.Itoa(s.SuccessfulCases)},
		{p.Sprintf("Failed cases"), strconv.Itoa(s.FailedCases)},
		{p.Sprintf("Conservative groups"), joinLabels(s.ConservativeGroups)},
		{p.Sprintf("Overall grade"), i18n.GradeLabel(tag, s.OverallGrade)},
		{p.Sprintf("Overall precision"), i18n.PrecisionLabel(tag, s.OverallGrade)},
	}
	if len(r.Comparisons) > 0 {
		v.Summary = append(v.Summary,
			[2]string{p.Sprintf("Significant pairs"), strconv.Itoa(s.SignificantPairs)},
			[2]string{p.Sprintf("Failed pairs"), strconv.Itoa(s.FailedPairs)},
		)
	}

	for _, g := range r.Groups {
		v.Groups = append(v.Groups, groupTable(p, tag, g))
	}
	if len(s.GroupStats) > 0 {
		v.Stats = statsTable(p, s.GroupStats)
	}
	if len(r.Comparisons) > 0 {
		v.Comparisons = comparisonTable(p, tag, r.Comparisons)
	}
	for _, rec := range s.Recommendations {
		v.Recommendations = append(v.Recommendations, recommendationText(p, tag, rec))
	}
	v.Warnings = r.Warnings
	return v
}

func groupTable(p *message.Printer, tag language.Tag, g boxplot.GroupResult) table {
	t := table{
		Title: fmt.Sprintf("%s: %s (%s)", p.Sprintf("Group"), g.Label, g.Role),
		Note:  fmt.Sprintf("%s: %s", p.Sprintf("Working grade"), i18n.GradeLabel(tag, g.WorkingGrade)),
		Header: []string{
			p.Sprintf("Case"), p.Sprintf("Grade used"), p.Sprintf("Achievable"),
			p.Sprintf("Mean"), p.Sprintf("SD"), "n", p.Sprintf("Precision"),
			p.Sprintf("Method"), p.Sprintf("Note"),
		},
	}
	if g.Conservative {
		t.Note += fmt.Sprintf(", %s: %s", p.Sprintf("Limiting cases"), joinCases(g.LimitingCases))
	}

	for _, c := range g.Cases {
		if c.Result == nil {
			t.Rows = append(t.Rows, []string{
				string(c.Label), "-", i18n.GradeLabel(tag, c.AchievableGrade), "-", "-", "-", "-", "-",
				p.Sprintf("Failure") + ": " + failureText(tag, c.Failure),
			})
			continue
		}
		res := c.Result
		note := ""
		if res.IsConservative {
			note = p.Sprintf("conservative")
		}
		t.Rows = append(t.Rows, []string{
			string(c.Label),
			i18n.GradeLabel(tag, res.UsedGrade),
			i18n.GradeLabel(tag, res.AchievableGrade),
			formatFloat(res.Mean, 4),
			formatFloat(res.SD, 4),
			strconv.Itoa(res.SampleSize),
			i18n.PrecisionLabel(tag, res.UsedGrade),
			res.Method,
			note,
		})
	}
	return t
}

func statsTable(p *message.Printer, stats []run.GroupStats) *table {
	t := &table{
		Title: p.Sprintf("Group statistics"),
		Header: []string{
			p.Sprintf("Group"), p.Sprintf("Estimated"), p.Sprintf("Mean of estimated means"),
			p.Sprintf("Min mean"), p.Sprintf("Max mean"), p.Sprintf("Median of estimated SDs"), p.Sprintf("Total n"),
		},
	}
	for _, gs := range stats {
		t.Rows = append(t.Rows, []string{
			string(gs.Group),
			strconv.Itoa(gs.Estimated),
			formatFloat(gs.MeanOfMeans, 4),
			formatFloat(gs.MinMean, 4),
			formatFloat(gs.MaxMean, 4),
			formatFloat(gs.MedianSD, 4),
			strconv.Itoa(gs.TotalSampleSize),
		})
	}
	return t
}

func comparisonTable(p *message.Printer, tag language.Tag, pairs []domaincmp.PairOutcome) *table {
	t := &table{
		Title: p.Sprintf("Comparisons"),
		Header: []string{
			p.Sprintf("Pair"), p.Sprintf("Kind"), p.Sprintf("Delta"), p.Sprintf("SD"),
			p.Sprintf("Confidence interval"), "p", "d", "g", p.Sprintf("Change SD"), p.Sprintf("Significant"),
		},
	}
	for _, pair := range pairs {
		name := fmt.Sprintf("%s − %s", pair.First, pair.Second)
		if pair.Result == nil {
			t.Rows = append(t.Rows, []string{
				name, string(pair.Kind), "-", "-", "-", "-", "-", "-", "-",
				p.Sprintf("Failure") + ": " + failureText(tag, pair.Failure),
			})
			continue
		}
		res := pair.Result
		significant := p.Sprintf("no")
		if res.Verdict.Significant {
			significant = p.Sprintf("yes") + " (" + directionLabel(p, res.Verdict.Direction) + ")"
		}
		t.Rows = append(t.Rows, []string{
			name,
			string(pair.Kind),
			formatFloat(res.DeltaMean, 4),
			formatFloat(res.SDDiff, 4),
			fmt.Sprintf("%s%% [%s, %s]", formatFloat(res.ConfidenceLevel*100, 0), formatFloat(res.CILower, 4), formatFloat(res.CIUpper, 4)),
			formatPValue(res.PValue),
			formatFloat(res.CohenD, 3),
			formatFloat(res.HedgesG, 3),
			formatFloat(res.ChangeSD, 4),
			significant,
		})
	}
	return t
}

func recommendationText(p *message.Printer, tag language.Tag, rec run.Recommendation) string {
	from := i18n.GradeLabel(tag, rec.From)
	to := i18n.GradeLabel(tag, rec.To)
	switch rec.Kind {
	case run.RecommendWhiskers:
		return p.Sprintf("%s: supply whiskers for %s to raise the group from %s to %s", rec.Group, joinCases(rec.Cases), from, to)
	case run.RecommendOutliers:
		return p.Sprintf("%s: supply outliers for %s to raise the group from %s to %s", rec.Group, joinCases(rec.Cases), from, to)
	default:
		return p.Sprintf("%s: no valid cases", rec.Group)
	}
}

func directionLabel(p *message.Printer, d domaincmp.Direction) string {
	switch d {
	case domaincmp.DirectionHigher:
		return p.Sprintf("higher")
	case domaincmp.DirectionLower:
		return p.Sprintf("lower")
	}
	return p.Sprintf("none")
}

func failureText(tag language.Tag, f *core.Failure) string {
	if f == nil {
		return i18n.ReasonMessage(tag, core.ReasonIncompleteData)
	}
	msg := i18n.ReasonMessage(tag, f.Reason)
	if f.Field != "" {
		msg += " (" + f.Field + ")"
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	return msg
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatPValue(p float64) string {
	if p < 0.0001 {
		return "<0.0001"
	}
	return formatFloat(p, 4)
}

func joinLabels(labels []core.GroupLabel) string {
	if len(labels) == 0 {
		return "-"
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}

func joinCases(labels []core.CaseLabel) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = string(l)
	}
	return strings.Join(parts, ", ")
}
