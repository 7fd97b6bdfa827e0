// Package i18n holds the English and Chinese vocabulary of templates, input
// files and reports.
package i18n

import (
	"fmt"
	"strings"
	"unicode"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	supported = []language.Tag{language.English, language.Chinese}
	matcher   = language.NewMatcher(supported)
	messages  = newCatalog()
)

// Match picks the closest supported language for a tag or Accept-Language
// value. Anything unrecognized resolves to English.
func Match(s string) language.Tag {
	s = strings.TrimSpace(s)
	if s == "" {
		return language.English
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// IsChinese reports whether tag resolves to the Chinese vocabulary.
func IsChinese(tag language.Tag) bool {
	base, _ := tag.Base()
	zh, _ := language.Chinese.Base()
	return base == zh
}

// Printer returns a message printer over the report catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}

var fieldLabels = map[boxplot.Field][2]string{
	boxplot.FieldUpperOutlier: {"Upper_Outlier", "上异常值"},
	boxplot.FieldUpperWhisker: {"Upper_Whisker", "上须"},
	boxplot.FieldQ3:           {"Q3", "Q3"},
	boxplot.FieldQ2:           {"Q2", "Q2"},
	boxplot.FieldQ1:           {"Q1", "Q1"},
	boxplot.FieldLowerWhisker: {"Lower_Whisker", "下须"},
	boxplot.FieldLowerOutlier: {"Lower_Outlier", "下异常值"},
	boxplot.FieldSampleSize:   {"Sample_Size", "样本量"},
}

// extra spellings seen in hand-filled sheets
var fieldAliases = map[string]boxplot.Field{
	"median":  boxplot.FieldQ2,
	"中位数":     boxplot.FieldQ2,
	"n":       boxplot.FieldSampleSize,
	"max":     boxplot.FieldUpperWhisker,
	"min":     boxplot.FieldLowerWhisker,
	"最大值":     boxplot.FieldUpperWhisker,
	"最小值":     boxplot.FieldLowerWhisker,
	"例数":      boxplot.FieldSampleSize,
	"upper":   boxplot.FieldUpperWhisker,
	"lower":   boxplot.FieldLowerWhisker,
	"samples": boxplot.FieldSampleSize,
}

var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]boxplot.Field {
	index := make(map[string]boxplot.Field)
	for f, labels := range fieldLabels {
		index[Normalize(string(f))] = f
		index[Normalize(labels[0])] = f
		index[Normalize(labels[1])] = f
	}
	for alias, f := range fieldAliases {
		index[Normalize(alias)] = f
	}
	return index
}

// FieldLabel is the row label of f in the given language.
func FieldLabel(tag language.Tag, f boxplot.Field) string {
	labels, ok := fieldLabels[f]
	if !ok {
		return string(f)
	}
	if IsChinese(tag) {
		return labels[1]
	}
	return labels[0]
}

// ParseFieldLabel recognizes a row label in either language, ignoring case,
// width, spaces, underscores and hyphens.
func ParseFieldLabel(s string) (boxplot.Field, bool) {
	f, ok := fieldIndex[Normalize(s)]
	return f, ok
}

// GroupHeader is the block header of a group role.
func GroupHeader(tag language.Tag, role boxplot.GroupRole) string {
	zh := IsChinese(tag)
	switch role {
	case boxplot.RoleBaseline:
		if zh {
			return "基线组"
		}
		return "Baseline"
	case boxplot.RoleIntervention:
		if zh {
			return "干预组"
		}
		return "Intervention"
	}
	if zh {
		return "其他组"
	}
	return "Other Group"
}

// ParseGroupHeader recognizes a block header row's first cell. Any label
// ending in 组 or "group" opens a group of role other.
func ParseGroupHeader(s string) (boxplot.GroupRole, bool) {
	key := Normalize(s)
	switch key {
	case "", "group":
		return "", false
	case Normalize("Baseline"), Normalize("基线组"), Normalize("Control"):
		return boxplot.RoleBaseline, true
	case Normalize("Intervention"), Normalize("干预组"), Normalize("Treatment"):
		return boxplot.RoleIntervention, true
	}
	if strings.HasSuffix(key, "组") || strings.HasSuffix(key, "group") {
		return boxplot.RoleOther, true
	}
	return "", false
}

// CaseHeader is the default column header of the i-th case, 1-based.
func CaseHeader(tag language.Tag, i int) string {
	if IsChinese(tag) {
		return fmt.Sprintf("情况%d", i)
	}
	return fmt.Sprintf("Case%d", i)
}

var separators = runes.Predicate(func(r rune) bool {
	return unicode.IsSpace(r) || r == '_' || r == '-'
})

// Normalize folds a label for comparison: NFKC (full-width to ASCII), case
// folding and removal of separators.
func Normalize(s string) string {
	// transformers carry state, so the chain is built per call
	t := transform.Chain(norm.NFKC, cases.Fold(), runes.Remove(separators))
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

var reasonMessages = map[core.Reason][2]string{
	core.ReasonIncompleteData:           {"required data is missing or not numeric", "必需数据缺失或不是数字"},
	core.ReasonInvalidSampleSize:        {"sample size must be a positive integer", "样本量必须是正整数"},
	core.ReasonQuartileOrderViolation:   {"quartiles must satisfy Q1 <= Q2 <= Q3", "四分位数必须满足 Q1 <= Q2 <= Q3"},
	core.ReasonWhiskerOrderViolation:    {"whiskers must lie outside the box", "须必须位于箱体之外"},
	core.ReasonOutlierPositionViolation: {"outliers must lie beyond the whiskers", "异常值必须位于须之外"},
	core.ReasonDegenerateSpread:         {"spread is zero or not finite", "离散度为零或无效"},
	core.ReasonInsufficientSampleSize:   {"comparison needs n >= 2 in both samples", "比较要求两组样本量均不少于 2"},
	core.ReasonInvalidConfidenceLevel:   {"confidence level must be between 0 and 1", "置信水平必须在 0 与 1 之间"},
}

// ReasonMessage is a human readable explanation of a failure reason.
func ReasonMessage(tag language.Tag, reason core.Reason) string {
	msgs, ok := reasonMessages[reason]
	if !ok {
		return string(reason)
	}
	if IsChinese(tag) {
		return msgs[1]
	}
	return msgs[0]
}

// Report phrases as English text with its Chinese rendering.
var reportPhrases = []struct{ en, zh string }{
	{"Box plot conversion report", "箱线图转换报告"},
	{"Run", "运行"},
	{"Input hash", "输入摘要"},
	{"Confidence level", "置信水平"},
	{"Summary", "概要"},
	{"Groups", "组数"},
	{"Cases", "情况数"},
	{"Successful cases", "成功情况数"},
	{"Failed cases", "失败情况数"},
	{"Conservative groups", "保守处理的组"},
	{"Overall grade", "整体等级"},
	{"Overall precision", "整体精度"},
	{"Group", "组"},
	{"Working grade", "工作等级"},
	{"Case", "情况"},
	{"Grade used", "使用等级"},
	{"Achievable", "可达等级"},
	{"Mean", "均值"},
	{"SD", "标准差"},
	{"Precision", "精度"},
	{"Method", "方法"},
	{"Failure", "失败"},
	{"Comparisons", "比较"},
	{"Pair", "配对"},
	{"Kind", "类型"},
	{"Significant", "显著"},
	{"yes", "是"},
	{"no", "否"},
	{"Recommendations", "建议"},
	{"Limiting cases", "限制情况"},
	{"Mean of estimated means", "估计均值的平均"},
	{"Median of estimated SDs", "估计标准差的中位数"},
	{"conservative", "保守"},
	{"%s: supply whiskers for %s to raise the group from %s to %s", "%s：补充 %s 的须数据可将该组从 %s 提升到 %s"},
	{"%s: supply outliers for %s to raise the group from %s to %s", "%s：补充 %s 的异常值数据可将该组从 %s 提升到 %s"},
	{"%s: no valid cases", "%s：没有有效情况"},
	{"%s has no counterpart in %s", "%s 在 %s 中没有对应情况"},
	{"Settings", "参数"},
	{"Comparison mode", "比较模式"},
	{"Five-number formula", "五数公式"},
	{"Correlation", "相关系数"},
	{"Warnings", "警告"},
	{"Note", "备注"},
	{"Group statistics", "组统计"},
	{"Estimated", "已估计"},
	{"Min mean", "最小均值"},
	{"Max mean", "最大均值"},
	{"Total n", "总样本量"},
	{"Delta", "差值"},
	{"Confidence interval", "置信区间"},
	{"Effect size", "效应量"},
	{"Change SD", "变化标准差"},
	{"Significant pairs", "显著配对数"},
	{"Failed pairs", "失败配对数"},
	{"higher", "更高"},
	{"lower", "更低"},
	{"none", "无差异"},
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, p := range reportPhrases {
		// SetString only fails on malformed messages; the table is static.
		_ = b.SetString(language.English, p.en, p.en)
		_ = b.SetString(language.Chinese, p.en, p.zh)
	}
	return b
}

var precisionLabelsZh = map[boxplot.Grade]string{
	boxplot.Grade0: "中等 (~15–25%)",
	boxplot.Grade1: "高 (~8–15%)",
	boxplot.Grade2: "最高 (~5–10%)",
}

// GradeLabel renders a grade for reports
func GradeLabel(tag language.Tag, g boxplot.Grade) string {
	if !IsChinese(tag) {
		return g.String()
	}
	if !g.Valid() {
		return "无"
	}
	return fmt.Sprintf("%d级", int(g))
}

// PrecisionLabel is the localized expected error band of a grade
func PrecisionLabel(tag language.Tag, g boxplot.Grade) string {
	if IsChinese(tag) {
		if label, ok := precisionLabelsZh[g]; ok {
			return label
		}
		return "未知"
	}
	return g.PrecisionLabel()
}
