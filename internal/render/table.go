package render

import (
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// maxTitle bounds the TITLE column width.
const maxTitle = 50

// Table writes one row per evaluated Subject. Failed Subjects get a row with
// STATE "error".
func Table(w io.Writer, summary model.AggregateSummary, opts Options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	ew := &errWriter{w: tw}

	ew.printf("SUBJECT\tTITLE\tSTATE\tPENDING\tRUNNING\tPENDING CHECKS\n")
	ew.printf("-------\t-----\t-----\t-------\t-------\t--------------\n")

	for _, r := range summary.Reports {
		pending, running := outstanding(r, opts)
		ew.printf("%s\t%s\t%s\t%d\t%d\t%s\n",
			r.Subject.Key(),
			truncate(r.Subject.Title, maxTitle),
			r.CIStatus,
			len(pending),
			len(running),
			pendingNames(pending))
	}
	for _, r := range summary.Failures {
		ew.printf("%s\t%s\t%s\t-\t-\t%s\n",
			r.Subject.Key(),
			truncate(r.Subject.Title, maxTitle),
			"error",
			r.Err)
	}

	if ew.err != nil {
		return ew.err
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\t", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
