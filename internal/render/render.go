// Package render projects an AggregateSummary into detailed text, a table,
// Markdown, or a structured JSON document.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// Format names an output mode.
type Format string

const (
	FormatDetailed Format = "detailed"
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists the supported output modes.
var Formats = []Format{FormatDetailed, FormatTable, FormatJSON, FormatMarkdown}

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want detailed, table, json or markdown): %w", s, model.ErrConfiguration)
}

// Options tunes the human-readable modes. The JSON mode ignores them and
// always writes every record.
type Options struct {
	// Filter keeps only the pending and running records it returns true for.
	// Nil keeps everything.
	Filter func(model.CheckRecord) bool
}

// Render writes summary in the given format.
func Render(w io.Writer, f Format, summary model.AggregateSummary, opts Options) error {
	switch f {
	case FormatDetailed:
		return Detailed(w, summary, opts)
	case FormatTable:
		return Table(w, summary, opts)
	case FormatJSON:
		return Structured(w, summary)
	case FormatMarkdown:
		return Markdown(w, summary, opts)
	default:
		return fmt.Errorf("unknown output format %q: %w", f, model.ErrConfiguration)
	}
}

// outstanding returns the pending and running records of r that pass the filter.
func outstanding(r model.SubjectReport, opts Options) (pending, running []model.CheckRecord) {
	return filter(r.Classification.Pending, opts.Filter), filter(r.Classification.Running, opts.Filter)
}

func filter(records []model.CheckRecord, keep func(model.CheckRecord) bool) []model.CheckRecord {
	if keep == nil {
		return records
	}
	var out []model.CheckRecord
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// pendingNames formats records as "name (status)" joined by ", ".
func pendingNames(records []model.CheckRecord) string {
	parts := make([]string, 0, len(records))
	for _, r := range records {
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.Status))
	}
	return strings.Join(parts, ", ")
}

// subjectLabel is the short human label for a Subject.
func subjectLabel(s model.Subject) string {
	if s.Kind == model.SubjectPullRequest {
		return fmt.Sprintf("#%d", s.Number)
	}
	return model.ShortSHA(s.HeadSHA)
}
