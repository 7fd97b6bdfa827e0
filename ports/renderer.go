package ports

import (
	"io"

	"boxmeta/domain/run"
)

// ReportRenderer serializes a finished run report
type ReportRenderer interface {
	// Format is the renderer's name ("text", "json", ...)
	Format() string
	// ContentType is the MIME type written by Render
	ContentType() string
	Render(w io.Writer, report *run.Report) error
}
