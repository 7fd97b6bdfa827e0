package excel

import (
	"boxmeta/domain/boxplot"
)

// RawRowData is one sheet row as trimmed cell strings
type RawRowData []string

// BlockData is the parsed content of a block-structured sheet
type BlockData struct {
	Groups   []boxplot.RawGroup // In file order
	Warnings []string           // Rows that were skipped and why
}

// CaseCount returns the number of cases over all groups
func (d *BlockData) CaseCount() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Cases)
	}
	return n
}
