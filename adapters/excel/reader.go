package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
	"boxmeta/internal"
	"boxmeta/internal/errors"
	"boxmeta/internal/i18n"

	"github.com/xuri/excelize/v2"
)

// DataReader reads block-structured box plot sheets from Excel and CSV files.
//
// A sheet holds one block per group: a header row whose first cell names the
// group (Baseline, Intervention, 基线组, 干预组, any label ending in 组) and
// whose remaining cells name the cases, followed by one row per field
// (Q1, Upper_Whisker, 样本量, ...). Blank rows separate blocks.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader, picking the format from the extension
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: FileType(filePath),
		logger:   internal.DefaultLogger,
	}
}

// FileType maps a path to "csv" or "xlsx" by extension, "" when unsupported
func FileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	return ""
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(logger *internal.Logger) *DataReader {
	r.logger = logger
	return r
}

// ReadData reads the file into groups
func (r *DataReader) ReadData(ctx context.Context) (*BlockData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.NotFound(fmt.Sprintf("input file %s", r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, errors.Unsupported(filepath.Ext(r.filePath))
	}
}

func (r *DataReader) readExcelData() (*BlockData, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open Excel file", err)
	}
	defer f.Close()
	return readWorkbook(f, r.logger)
}

func (r *DataReader) readCSVData() (*BlockData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()
	return ReadCSV(file, r.logger)
}

// ReadCSV parses CSV content
func ReadCSV(src io.Reader, logger *internal.Logger) (*BlockData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV", err)
	}
	logger.Debug("[DataReader] CSV read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return ParseRows(rows, logger)
}

// ReadXLSX parses workbook content from the first sheet
func ReadXLSX(src io.Reader, logger *internal.Logger) (*BlockData, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.IOError("failed to open Excel workbook", err)
	}
	defer f.Close()
	return readWorkbook(f, logger)
}

func readWorkbook(f *excelize.File, logger *internal.Logger) (*BlockData, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.InvalidInput("workbook has no sheets")
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	logger.Debug("[DataReader] %s read in %.2fms (%d rows)", sheets[0], float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))
	return ParseRows(rows, logger)
}

type block struct {
	group   boxplot.RawGroup
	columns []int // sheet column of each case
	fields  map[boxplot.Field]int
}

// ParseRows turns raw sheet rows into groups. Unknown rows are skipped with a
// warning; a sheet without any group block is an error.
func ParseRows(rows [][]string, logger *internal.Logger) (*BlockData, error) {
	data := &BlockData{}
	seen := make(map[core.GroupLabel]bool)
	var current *block

	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		data.Warnings = append(data.Warnings, msg)
		logger.Warn("[DataReader] %s", msg)
	}
	flush := func() {
		if current == nil {
			return
		}
		if len(current.group.Cases) == 0 {
			warn("group %s has no case columns and was skipped", current.group.Label)
		} else {
			data.Groups = append(data.Groups, current.group)
		}
		current = nil
	}

	for i, raw := range rows {
		line := i + 1
		cells := trimRow(raw)
		if isBlank(cells) {
			flush()
			continue
		}

		if role, ok := i18n.ParseGroupHeader(cells[0]); ok {
			flush()
			label, err := core.ParseGroupLabel(cells[0])
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d: %v", line, err))
			}
			if seen[label] {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d: group %s appears twice", line, label))
			}
			seen[label] = true

			b, err := newBlock(label, role, cells)
			if err != nil {
				return nil, errors.InvalidInput(fmt.Sprintf("row %d: %v", line, err))
			}
			current = b
			continue
		}

		if current == nil {
			warn("row %d: %q is outside any group block", line, cells[0])
			continue
		}

		field, ok := i18n.ParseFieldLabel(cells[0])
		if !ok {
			warn("row %d: unknown field label %q in group %s", line, cells[0], current.group.Label)
			continue
		}
		if prev, dup := current.fields[field]; dup {
			warn("row %d: %s already given on row %d in group %s", line, field, prev, current.group.Label)
			continue
		}
		current.fields[field] = line

		for k, col := range current.columns {
			if col < len(cells) && cells[col] != "" {
				current.group.Cases[k].Record[field] = cells[col]
			}
		}
		if extra := extraValues(cells, current.columns); extra > 0 {
			warn("row %d: %d value(s) under unnamed case columns ignored", line, extra)
		}
	}
	flush()

	if len(data.Groups) == 0 {
		return nil, errors.InvalidInput("no group blocks found; expected a header row such as Baseline, Intervention or 基线组")
	}
	logger.Info("[DataReader] parsed %d groups, %d cases, %d warnings", len(data.Groups), data.CaseCount(), len(data.Warnings))
	return data, nil
}

func newBlock(label core.GroupLabel, role boxplot.GroupRole, header []string) (*block, error) {
	b := &block{
		group:  boxplot.RawGroup{Label: label, Role: role},
		fields: make(map[boxplot.Field]int),
	}
	caseSeen := make(map[core.CaseLabel]bool)
	for col := 1; col < len(header); col++ {
		if header[col] == "" {
			continue
		}
		cl, err := core.ParseCaseLabel(header[col])
		if err != nil {
			return nil, err
		}
		if caseSeen[cl] {
			return nil, fmt.Errorf("case %s appears twice in group %s", cl, label)
		}
		caseSeen[cl] = true
		b.columns = append(b.columns, col)
		b.group.Cases = append(b.group.Cases, boxplot.RawCase{Label: cl, Record: boxplot.RawRecord{}})
	}
	return b, nil
}

func trimRow(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func extraValues(cells []string, columns []int) int {
	named := make(map[int]bool, len(columns))
	for _, c := range columns {
		named[c] = true
	}
	extra := 0
	for col := 1; col < len(cells); col++ {
		if cells[col] != "" && !named[col] {
			extra++
		}
	}
	return extra
}

// ReadGroups reads the file and returns its groups and warnings
func (r *DataReader) ReadGroups(ctx context.Context) ([]boxplot.RawGroup, []string, error) {
	data, err := r.ReadData(ctx)
	if err != nil {
		return nil, nil, err
	}
	return data.Groups, data.Warnings, nil
}
