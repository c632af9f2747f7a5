package application

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
)

// Feed names used in FeedError and log attributes.
const (
	FeedWorkflowRuns   = "workflow runs"
	FeedCheckRuns      = "check runs"
	FeedCommitStatuses = "commit statuses"
	FeedRequiredChecks = "required checks"
)

// FeedError reports that one check feed could not be fetched for a Subject.
// The feed is treated as empty and evaluation continues.
type FeedError struct {
	Feed    string
	Subject string
	Err     error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("fetch %s for %s: %v", e.Feed, e.Subject, e.Err)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// ValidateRepo checks that name is in owner/repo format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func ValidateRepo(name string) error {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 2 {
		return fmt.Errorf("invalid repository %q, expected owner/repo: %w", name, model.ErrConfiguration)
	}

	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid repository %q, expected owner/repo: %w", name, model.ErrConfiguration)
		}
		for _, ch := range part {
			if !isValidRepoChar(ch) {
				return fmt.Errorf("invalid character %q in repository %q: %w", ch, name, model.ErrConfiguration)
			}
		}
	}

	return nil
}

func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
