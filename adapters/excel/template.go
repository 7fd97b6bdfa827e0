package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"boxmeta/domain/boxplot"
	"boxmeta/internal/errors"
	"boxmeta/internal/i18n"

	"github.com/xuri/excelize/v2"
)

// templateFields is the row order of a template block, top of the box first.
var templateFields = []boxplot.Field{
	boxplot.FieldUpperOutlier,
	boxplot.FieldUpperWhisker,
	boxplot.FieldQ3,
	boxplot.FieldQ2,
	boxplot.FieldQ1,
	boxplot.FieldLowerWhisker,
	boxplot.FieldLowerOutlier,
	boxplot.FieldSampleSize,
}

// MaxTemplateCases keeps the label column plus every case within one
// worksheet row.
const MaxTemplateCases = excelize.MaxColumns - 1

// TemplateRows builds an empty Baseline and Intervention block separated by
// a blank row.
func TemplateRows(config TemplateConfig) ([][]string, error) {
	if config.Cases < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("template needs at least one case, got %d", config.Cases))
	}
	if config.Cases > MaxTemplateCases {
		return nil, errors.InvalidInput(fmt.Sprintf("template supports at most %d cases, got %d", MaxTemplateCases, config.Cases))
	}

	width := config.Cases + 1
	var rows [][]string
	for i, role := range []boxplot.GroupRole{boxplot.RoleBaseline, boxplot.RoleIntervention} {
		if i > 0 {
			rows = append(rows, make([]string, width))
		}
		header := make([]string, width)
		header[0] = i18n.GroupHeader(config.Language, role)
		for c := 1; c <= config.Cases; c++ {
			header[c] = i18n.CaseHeader(config.Language, c)
		}
		rows = append(rows, header)

		for _, f := range templateFields {
			row := make([]string, width)
			row[0] = i18n.FieldLabel(config.Language, f)
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// WriteTemplate writes a template to path, as CSV or XLSX by extension
func WriteTemplate(path string, config TemplateConfig) error {
	fileType := FileType(path)
	if fileType == "" {
		return errors.Unsupported(filepath.Ext(path))
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.IOError("failed to create template", err)
	}
	if err := WriteTemplateTo(file, fileType, config); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return errors.IOError("failed to close template", err)
	}
	return nil
}

// WriteTemplateTo streams a template in the given format ("csv" or "xlsx")
func WriteTemplateTo(w io.Writer, fileType string, config TemplateConfig) error {
	rows, err := TemplateRows(config)
	if err != nil {
		return err
	}

	switch fileType {
	case "csv":
		return writeCSV(w, rows)
	case "xlsx":
		return writeXLSX(w, rows, config)
	default:
		return errors.Unsupported(fileType)
	}
}

func writeCSV(w io.Writer, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		return errors.IOError("failed to write CSV template", err)
	}
	return nil
}

func writeXLSX(w io.Writer, rows [][]string, config TemplateConfig) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := config.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return errors.IOError("failed to name template sheet", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return errors.IOError("failed to create header style", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.IOError("failed to address template row", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.IOError("failed to write template row", err)
		}

		if _, isHeader := i18n.ParseGroupHeader(row[0]); isHeader {
			last, err := excelize.CoordinatesToCellName(len(row), i+1)
			if err != nil {
				return errors.IOError("failed to address template row", err)
			}
			if err := f.SetCellStyle(sheet, cell, last, headerStyle); err != nil {
				return errors.IOError("failed to style template header", err)
			}
		}
	}

	lastCol, err := excelize.ColumnNumberToName(config.Cases + 1)
	if err != nil {
		return errors.IOError("failed to size template columns", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return errors.IOError("failed to size template columns", err)
	}

	if err := f.Write(w); err != nil {
		return errors.IOError("failed to write Excel template", err)
	}
	return nil
}
