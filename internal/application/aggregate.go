package application

import (
	"slices"
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// recordKey is the dedup identity of a record. Kind is part of the identity:
// a commit status and a check run sharing a name are distinct entries.
type recordKey struct {
	name string
	kind model.CheckKind
}

// Aggregate removes duplicate records (same name, case-insensitive, and same
// kind), keeping the first one seen, and orders the result by kind: workflow
// runs, check runs, commit statuses, then required-check gaps. Order within a
// kind is discovery order. The input is not modified.
func Aggregate(records []model.CheckRecord) []model.CheckRecord {
	seen := make(map[recordKey]bool, len(records))
	out := make([]model.CheckRecord, 0, len(records))

	for _, r := range records {
		key := recordKey{name: strings.ToLower(r.Name), kind: r.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b model.CheckRecord) int {
		return a.Kind.Rank() - b.Kind.Rank()
	})

	return out
}

// WithoutIgnored drops records whose name matches any of ignore (case-insensitive).
func WithoutIgnored(records []model.CheckRecord, ignore []string) []model.CheckRecord {
	if len(ignore) == 0 {
		return records
	}

	ignored := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		ignored[strings.ToLower(strings.TrimSpace(name))] = true
	}

	out := make([]model.CheckRecord, 0, len(records))
	for _, r := range records {
		if !ignored[strings.ToLower(r.Name)] {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate runs the pure pipeline for one Subject: normalize, deduplicate,
// drop ignored names and classify. The sentinel is only produced when the
// feeds reported nothing at all, not when every record was ignored.
func Evaluate(feeds model.Feeds, classifier Classifier, ignore []string) model.ClassificationResult {
	records := Aggregate(Normalize(feeds))
	if len(records) == 0 {
		return classifier.ClassifyRecords(nil)
	}

	records = WithoutIgnored(records, ignore)
	if len(records) == 0 {
		return model.ClassificationResult{}
	}

	return classifier.ClassifyRecords(records)
}
