package excel

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"boxmeta/domain/boxplot"
	"boxmeta/internal"
	"boxmeta/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
)

func TestTemplateRows_English(t *testing.T) {
	config := DefaultTemplateConfig()
	config.Cases = 3

	rows, err := TemplateRows(config)
	require.NoError(t, err)
	require.Len(t, rows, 19)

	assert.Equal(t, []string{"Baseline", "Case1", "Case2", "Case3"}, rows[0])
	assert.Equal(t, "Upper_Outlier", rows[1][0])
	assert.Equal(t, "Sample_Size", rows[8][0])
	assert.Equal(t, []string{"", "", "", ""}, rows[9])
	assert.Equal(t, "Intervention", rows[10][0])
	for _, row := range rows {
		assert.Len(t, row, 4)
	}
}

func TestTemplateRows_Chinese(t *testing.T) {
	rows, err := TemplateRows(DefaultTemplateConfig().WithLanguage("zh-CN"))
	require.NoError(t, err)

	assert.Equal(t, []string{"基线组", "情况1", "情况2", "情况3", "情况4"}, rows[0])
	assert.Equal(t, "上异常值", rows[1][0])
	assert.Equal(t, "样本量", rows[8][0])
	assert.Equal(t, "干预组", rows[10][0])
}

func TestTemplateRows_RejectsZeroCases(t *testing.T) {
	_, err := TemplateRows(TemplateConfig{Cases: 0, Language: language.English})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestTemplateRows_CaseLimit(t *testing.T) {
	rows, err := TemplateRows(TemplateConfig{Cases: MaxTemplateCases, Language: language.English})
	require.NoError(t, err)
	assert.Len(t, rows[0], excelize.MaxColumns)

	_, err = TemplateRows(TemplateConfig{Cases: MaxTemplateCases + 1, Language: language.English})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	var buf bytes.Buffer
	err = WriteTemplateTo(&buf, "csv", TemplateConfig{Cases: 2000000, Language: language.English})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.Zero(t, buf.Len())
}

func TestWriteTemplate_RoundTrip(t *testing.T) {
	for _, name := range []string{"template.csv", "template.xlsx"} {
		for _, lang := range []string{"en", "zh"} {
			t.Run(name+"/"+lang, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), name)
				require.NoError(t, WriteTemplate(path, DefaultTemplateConfig().WithLanguage(lang)))

				data, err := NewDataReader(path).WithLogger(internal.NewNopLogger()).ReadData(context.Background())
				require.NoError(t, err)
				require.Len(t, data.Groups, 2)
				assert.Equal(t, boxplot.RoleBaseline, data.Groups[0].Role)
				assert.Equal(t, boxplot.RoleIntervention, data.Groups[1].Role)
				assert.Len(t, data.Groups[0].Cases, 4)
				assert.Empty(t, data.Warnings)
				for _, c := range data.Groups[1].Cases {
					assert.Empty(t, c.Record.Present(), "template cells are blank")
				}
			})
		}
	}
}

func TestWriteTemplateTo_XLSXStylesHeaders(t *testing.T) {
	var buf bytes.Buffer
	config := DefaultTemplateConfig()
	config.Sheet = "Data"
	require.NoError(t, WriteTemplateTo(&buf, "xlsx", config))
	raw := buf.Bytes()

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Data"}, f.GetSheetList())
	value, err := f.GetCellValue("Data", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Baseline", value)

	headerStyle, err := f.GetCellStyle("Data", "B1")
	require.NoError(t, err)
	plainStyle, err := f.GetCellStyle("Data", "A2")
	require.NoError(t, err)
	assert.NotEqual(t, plainStyle, headerStyle)

	data, err := ReadXLSX(bytes.NewReader(raw), internal.NewNopLogger())
	require.NoError(t, err)
	assert.Len(t, data.Groups, 2)
}

func TestWriteTemplate_UnsupportedExtension(t *testing.T) {
	err := WriteTemplate(filepath.Join(t.TempDir(), "template.txt"), DefaultTemplateConfig())
	assert.Equal(t, errors.CodeUnsupported, errors.GetCode(err))
}
