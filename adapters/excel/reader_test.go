package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
	"boxmeta/internal"
	"boxmeta/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bilingualCSV = `Baseline,Case1,Case2
Upper_Whisker,18,
Q3,6,7
Q2,0,1
Q1,-8,-5
Lower_Whisker,-20,
Sample_Size,30,28
,,
干预组,情况1,情况2
上须,34,
Q3,20,20
中位数,12,5
Ｑ１,2,10
下须,-10,
样本量,30,28
`

func TestReadCSV_BilingualBlocks(t *testing.T) {
	data, err := ReadCSV(strings.NewReader(bilingualCSV), internal.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, data.Groups, 2)
	assert.Empty(t, data.Warnings)
	assert.Equal(t, 4, data.CaseCount())

	baseline := data.Groups[0]
	assert.Equal(t, core.GroupLabel("Baseline"), baseline.Label)
	assert.Equal(t, boxplot.RoleBaseline, baseline.Role)
	require.Len(t, baseline.Cases, 2)
	assert.Equal(t, core.CaseLabel("Case1"), baseline.Cases[0].Label)
	assert.Equal(t, boxplot.RawRecord{
		boxplot.FieldUpperWhisker: "18",
		boxplot.FieldQ3:           "6",
		boxplot.FieldQ2:           "0",
		boxplot.FieldQ1:           "-8",
		boxplot.FieldLowerWhisker: "-20",
		boxplot.FieldSampleSize:   "30",
	}, baseline.Cases[0].Record)
	_, hasWhisker := baseline.Cases[1].Record.Get(boxplot.FieldUpperWhisker)
	assert.False(t, hasWhisker)

	intervention := data.Groups[1]
	assert.Equal(t, core.GroupLabel("干预组"), intervention.Label)
	assert.Equal(t, boxplot.RoleIntervention, intervention.Role)
	assert.Equal(t, core.CaseLabel("情况2"), intervention.Cases[1].Label)
	assert.Equal(t, "10", intervention.Cases[1].Record[boxplot.FieldQ1])
	assert.Equal(t, "12", intervention.Cases[0].Record[boxplot.FieldQ2])
}

func TestParseRows_WarningsAndOtherGroups(t *testing.T) {
	rows := [][]string{
		{"Study notes", "ignored"},
		{"\ufeffBaseline", "A", "", "B"},
		{"Q1", "1", "9", "2"},
		{"Weight", "70"},
		{"Q1", "5"},
		{},
		{"对照组", "A"},
		{"Q2", "3"},
	}

	data, err := ParseRows(rows, internal.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, data.Groups, 2)
	assert.Len(t, data.Warnings, 4)

	assert.Equal(t, "1", data.Groups[0].Cases[0].Record[boxplot.FieldQ1])
	assert.Equal(t, "2", data.Groups[0].Cases[1].Record[boxplot.FieldQ1])
	assert.Equal(t, boxplot.RoleOther, data.Groups[1].Role)
	assert.Equal(t, core.GroupLabel("对照组"), data.Groups[1].Label)
}

func TestParseRows_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{"no groups", [][]string{{"Q1", "1"}}, "no group blocks"},
		{"duplicate group", [][]string{{"Baseline", "A"}, {}, {"Baseline", "B"}}, "appears twice"},
		{"duplicate case", [][]string{{"Baseline", "A", "A"}}, "appears twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRows(tt.rows, internal.NewNopLogger())
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseRows_GroupWithoutCasesIsSkipped(t *testing.T) {
	data, err := ParseRows([][]string{{"Baseline"}, {}, {"Intervention", "A"}, {"Q1", "1"}}, internal.NewNopLogger())
	require.NoError(t, err)
	require.Len(t, data.Groups, 1)
	assert.Equal(t, core.GroupLabel("Intervention"), data.Groups[0].Label)
	assert.Len(t, data.Warnings, 1)
}

func TestDataReader_ReadData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(bilingualCSV), 0o600))

	data, err := NewDataReader(path).WithLogger(internal.NewNopLogger()).ReadData(context.Background())
	require.NoError(t, err)
	assert.Len(t, data.Groups, 2)

	_, err = NewDataReader(filepath.Join(dir, "missing.csv")).ReadData(context.Background())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	odsPath := filepath.Join(dir, "input.ods")
	require.NoError(t, os.WriteFile(odsPath, []byte("x"), 0o600))
	_, err = NewDataReader(odsPath).ReadData(context.Background())
	assert.Equal(t, errors.CodeUnsupported, errors.GetCode(err))
}

func TestDataReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDataReader("input.csv").ReadData(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "csv", FileType("a/b/DATA.CSV"))
	assert.Equal(t, "xlsx", FileType("book.xlsx"))
	assert.Equal(t, "", FileType("notes.txt"))
}
