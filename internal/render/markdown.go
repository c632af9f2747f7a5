package render

import (
	"io"
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

// Markdown writes a GitHub-flavored Markdown report: a table with one row per
// Subject, then a section per Subject with outstanding records.
func Markdown(w io.Writer, summary model.AggregateSummary, opts Options) error {
	ew := &errWriter{w: w}

	ew.printf("## Pending checks\n\n")
	ew.printf("%d subject(s) evaluated, %d with pending checks: %d pending, %d running, %d completed.\n\n",
		summary.TotalSubjects, summary.SubjectsWithPending,
		summary.PendingCount, summary.RunningCount, summary.CompletedCount)

	if len(summary.Reports) > 0 {
		ew.printf("| Subject | Title | State | Pending | Running |\n")
		ew.printf("| --- | --- | --- | ---: | ---: |\n")
		for _, r := range summary.Reports {
			pending, running := outstanding(r, opts)
			ew.printf("| %s | %s | %s | %d | %d |\n",
				markdownLink(r.Subject.Key(), r.Subject.URL),
				cellEscaper.Replace(r.Subject.Title),
				r.CIStatus, len(pending), len(running))
		}
		ew.printf("\n")
	}

	for _, r := range summary.Reports {
		pending, running := outstanding(r, opts)
		if len(pending) == 0 && len(running) == 0 {
			continue
		}
		ew.printf("### %s %s\n\n", subjectLabel(r.Subject), r.Subject.Title)
		for _, rec := range pending {
			writeMarkdownItem(ew, rec)
		}
		for _, rec := range running {
			writeMarkdownItem(ew, rec)
		}
		ew.printf("\n")
	}

	if len(summary.Failures) > 0 {
		ew.printf("### Failed\n\n")
		for _, r := range summary.Failures {
			ew.printf("- `%s`: %s\n", r.Subject.Key(), r.Err)
		}
		ew.printf("\n")
	}

	return ew.err
}

func writeMarkdownItem(ew *errWriter, rec model.CheckRecord) {
	ew.printf("- %s `%s` %s", markdownLink("**"+rec.Name+"**", rec.URL), rec.Kind, rec.Status)
	if rec.Required {
		ew.printf(" (required)")
	}
	if rec.Description != "" {
		ew.printf(": %s", rec.Description)
	}
	ew.printf("\n")
}

func markdownLink(text, url string) string {
	if url == "" {
		return text
	}
	return "[" + text + "](" + url + ")"
}
