package render

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

var (
	headerColor  = color.New(color.Bold)
	pendingColor = color.New(color.FgYellow)
	runningColor = color.New(color.FgCyan)
	failColor    = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

// Detailed writes one block per Subject with at least one pending or running
// record, listing every available field of those records. Warnings and
// failed Subjects follow.
func Detailed(w io.Writer, summary model.AggregateSummary, opts Options) error {
	ew := &errWriter{w: w}
	shown := 0

	for _, r := range summary.Reports {
		pending, running := outstanding(r, opts)
		if len(pending) == 0 && len(running) == 0 {
			continue
		}
		shown++

		ew.printf("%s %s %s\n",
			headerColor.Sprint(r.Subject.Key()),
			r.Subject.Title,
			ciStatusColor(r.CIStatus).Sprintf("[%s]", r.CIStatus))
		if r.Subject.URL != "" {
			ew.printf("  %s\n", dimColor.Sprint(r.Subject.URL))
		}
		writeBucket(ew, "Pending", pendingColor, pending)
		writeBucket(ew, "Running", runningColor, running)
		ew.printf("\n")
	}

	if shown == 0 {
		ew.printf("No pending or running checks.\n")
	}

	ew.printf("%d subject(s) evaluated, %d with pending checks: %d pending, %d running, %d completed\n",
		summary.TotalSubjects, summary.SubjectsWithPending,
		summary.PendingCount, summary.RunningCount, summary.CompletedCount)

	for _, r := range summary.Reports {
		for _, warning := range r.Warnings {
			ew.printf("%s %s: %s\n", pendingColor.Sprint("warning:"), r.Subject.Key(), warning)
		}
	}
	for _, r := range summary.Failures {
		ew.printf("%s %s: %s\n", failColor.Sprint("error:"), r.Subject.Key(), r.Err)
	}

	return ew.err
}

func writeBucket(ew *errWriter, label string, c *color.Color, records []model.CheckRecord) {
	if len(records) == 0 {
		return
	}
	ew.printf("  %s (%d):\n", label, len(records))
	for _, rec := range records {
		required := ""
		if rec.Required {
			required = " required"
		}
		ew.printf("    %s %s %s%s\n", c.Sprint("●"), rec.Name, dimColor.Sprintf("[%s] %s", rec.Kind, rec.Status), required)
		if rec.Conclusion != "" {
			ew.printf("        conclusion:  %s\n", rec.Conclusion)
		}
		if rec.Description != "" {
			ew.printf("        description: %s\n", rec.Description)
		}
		if rec.Source != "" {
			ew.printf("        source:      %s\n", rec.Source)
		}
		if !rec.CreatedAt.IsZero() {
			ew.printf("        created:     %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
		}
		if rec.URL != "" {
			ew.printf("        url:         %s\n", rec.URL)
		}
	}
}

func ciStatusColor(s model.CIStatus) *color.Color {
	switch s {
	case model.CIStatusPassing:
		return color.New(color.FgGreen)
	case model.CIStatusFailing:
		return failColor
	case model.CIStatusPending:
		return pendingColor
	default:
		return dimColor
	}
}

// errWriter keeps the first write error so callers can print freely.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
