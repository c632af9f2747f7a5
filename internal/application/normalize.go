package application

import (
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// Normalize converts the raw items of all four feeds into CheckRecords tagged
// with their origin. Required check names that match no other record
// (case-insensitive) become required_check records with status "missing";
// names that do match mark those records as Required. Missing provider fields
// stay empty.
func Normalize(feeds model.Feeds) []model.CheckRecord {
	records := make([]model.CheckRecord, 0,
		len(feeds.WorkflowRuns)+len(feeds.CheckRuns)+len(feeds.CommitStatuses)+len(feeds.RequiredChecks))

	for _, wr := range feeds.WorkflowRuns {
		records = append(records, fromWorkflowRun(wr))
	}
	for _, cr := range feeds.CheckRuns {
		records = append(records, fromCheckRun(cr))
	}
	for _, cs := range feeds.CommitStatuses {
		records = append(records, fromCommitStatus(cs))
	}

	return withRequiredChecks(records, feeds.RequiredChecks)
}

func fromWorkflowRun(wr model.WorkflowRun) model.CheckRecord {
	return model.CheckRecord{
		Name:       wr.Name,
		Kind:       model.KindWorkflowRun,
		Status:     model.CheckStatus(wr.Status),
		Conclusion: wr.Conclusion,
		URL:        wr.URL,
		Source:     wr.Event,
		CreatedAt:  wr.CreatedAt,
	}
}

func fromCheckRun(cr model.CheckRun) model.CheckRecord {
	return model.CheckRecord{
		Name:       cr.Name,
		Kind:       model.KindCheckRun,
		Status:     model.CheckStatus(cr.Status),
		Conclusion: cr.Conclusion,
		URL:        cr.URL,
		Source:     cr.App,
		CreatedAt:  cr.CreatedAt,
	}
}

func fromCommitStatus(cs model.CommitStatus) model.CheckRecord {
	return model.CheckRecord{
		Name:        cs.Context,
		Kind:        model.KindCommitStatus,
		Status:      model.CheckStatus(cs.State),
		URL:         cs.URL,
		Description: cs.Description,
		CreatedAt:   cs.CreatedAt,
	}
}

// withRequiredChecks marks records named in required and appends a missing
// record for every required name no record reports. records is modified in
// place; it is always a slice owned by Normalize.
func withRequiredChecks(records []model.CheckRecord, required []string) []model.CheckRecord {
	if len(required) == 0 {
		return records
	}

	requiredSet := make(map[string]bool, len(required))
	for _, name := range required {
		requiredSet[strings.ToLower(name)] = true
	}

	seen := make(map[string]bool, len(records))
	for i := range records {
		key := strings.ToLower(records[i].Name)
		seen[key] = true
		if requiredSet[key] {
			records[i].Required = true
		}
	}

	for _, name := range required {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, model.CheckRecord{
			Name:        name,
			Kind:        model.KindRequiredCheck,
			Status:      model.StatusMissing,
			Description: "required by branch protection but not reported",
			Required:    true,
		})
	}

	return records
}
