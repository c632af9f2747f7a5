package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// SubjectDocument is the JSON shape of one Subject's evaluation.
type SubjectDocument struct {
	Subject         SubjectJSON `json:"subject"`
	CIStatus        string      `json:"ciStatus,omitempty"`
	PendingChecks   []CheckJSON `json:"pendingChecks"`
	RunningChecks   []CheckJSON `json:"runningChecks"`
	CompletedChecks []CheckJSON `json:"completedChecks"`
	Warnings        []string    `json:"warnings,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// SubjectJSON identifies a pull request or commit.
type SubjectJSON struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Repo       string `json:"repo"`
	Number     int    `json:"number,omitempty"`
	SHA        string `json:"sha"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Author     string `json:"author"`
	BaseBranch string `json:"baseBranch"`
	Draft      bool   `json:"draft"`
}

// CheckJSON is one classified record.
type CheckJSON struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	Conclusion  string     `json:"conclusion,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	Source      string     `json:"source,omitempty"`
	Required    bool       `json:"required,omitempty"`
}

// Structured writes every report, successful and failed, as an indented JSON
// array. It is the only lossless mode.
func Structured(w io.Writer, summary model.AggregateSummary) error {
	docs := Documents(summary)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(docs); err != nil {
		return fmt.Errorf("encoding structured output: %w", err)
	}
	return nil
}

// Documents converts a summary into its JSON documents: successful reports
// first, then failures.
func Documents(summary model.AggregateSummary) []SubjectDocument {
	docs := make([]SubjectDocument, 0, len(summary.Reports)+len(summary.Failures))
	for _, r := range summary.Reports {
		docs = append(docs, toDocument(r))
	}
	for _, r := range summary.Failures {
		docs = append(docs, toDocument(r))
	}
	return docs
}

// ParseStructured decodes a document written by Structured back into
// reports, in document order.
func ParseStructured(r io.Reader) ([]model.SubjectReport, error) {
	var docs []SubjectDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("decoding structured output: %w", err)
	}

	reports := make([]model.SubjectReport, 0, len(docs))
	for _, d := range docs {
		reports = append(reports, fromDocument(d))
	}
	return reports, nil
}

func toDocument(r model.SubjectReport) SubjectDocument {
	return SubjectDocument{
		Subject: SubjectJSON{
			ID:         r.Subject.Key(),
			Kind:       string(r.Subject.Kind),
			Repo:       r.Subject.Repo,
			Number:     r.Subject.Number,
			SHA:        r.Subject.HeadSHA,
			Title:      r.Subject.Title,
			URL:        r.Subject.URL,
			Author:     r.Subject.Author,
			BaseBranch: r.Subject.BaseBranch,
			Draft:      r.Subject.IsDraft,
		},
		CIStatus:        string(r.CIStatus),
		PendingChecks:   toChecks(r.Classification.Pending),
		RunningChecks:   toChecks(r.Classification.Running),
		CompletedChecks: toChecks(r.Classification.Completed),
		Warnings:        r.Warnings,
		Error:           r.Err,
	}
}

func toChecks(records []model.CheckRecord) []CheckJSON {
	checks := make([]CheckJSON, 0, len(records))
	for _, rec := range records {
		c := CheckJSON{
			Name:        rec.Name,
			Status:      string(rec.Status),
			Type:        string(rec.Kind),
			Conclusion:  rec.Conclusion,
			URL:         rec.URL,
			Description: rec.Description,
			Source:      rec.Source,
			Required:    rec.Required,
		}
		if !rec.CreatedAt.IsZero() {
			t := rec.CreatedAt
			c.CreatedAt = &t
		}
		checks = append(checks, c)
	}
	return checks
}

func fromDocument(d SubjectDocument) model.SubjectReport {
	return model.SubjectReport{
		Subject: model.Subject{
			Kind:       model.SubjectKind(d.Subject.Kind),
			Repo:       d.Subject.Repo,
			Number:     d.Subject.Number,
			Title:      d.Subject.Title,
			URL:        d.Subject.URL,
			Author:     d.Subject.Author,
			HeadSHA:    d.Subject.SHA,
			BaseBranch: d.Subject.BaseBranch,
			IsDraft:    d.Subject.Draft,
		},
		Classification: model.ClassificationResult{
			Pending:   fromChecks(d.PendingChecks),
			Running:   fromChecks(d.RunningChecks),
			Completed: fromChecks(d.CompletedChecks),
		},
		CIStatus: model.CIStatus(d.CIStatus),
		Warnings: d.Warnings,
		Err:      d.Error,
	}
}

// fromChecks returns nil for an empty list.
func fromChecks(checks []CheckJSON) []model.CheckRecord {
	if len(checks) == 0 {
		return nil
	}
	records := make([]model.CheckRecord, 0, len(checks))
	for _, c := range checks {
		rec := model.CheckRecord{
			Name:        c.Name,
			Kind:        model.CheckKind(c.Type),
			Status:      model.CheckStatus(c.Status),
			Conclusion:  c.Conclusion,
			URL:         c.URL,
			Description: c.Description,
			Source:      c.Source,
			Required:    c.Required,
		}
		if c.CreatedAt != nil {
			rec.CreatedAt = *c.CreatedAt
		}
		records = append(records, rec)
	}
	return records
}
