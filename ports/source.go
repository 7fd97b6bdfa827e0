package ports

import (
	"context"

	"boxmeta/domain/boxplot"
)

// GroupSource provides raw box plot groups for one conversion run.
// Warnings are non-fatal notes about input that was skipped.
type GroupSource interface {
	ReadGroups(ctx context.Context) (groups []boxplot.RawGroup, warnings []string, err error)
}

// StaticSource serves groups already held in memory (HTTP bodies, quick mode)
type StaticSource struct {
	Groups   []boxplot.RawGroup
	Warnings []string
}

// ReadGroups returns the held groups
func (s StaticSource) ReadGroups(ctx context.Context) ([]boxplot.RawGroup, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return s.Groups, s.Warnings, nil
}
