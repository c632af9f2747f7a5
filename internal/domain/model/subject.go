package model

import "fmt"

// Subject is a pull request or commit evaluated for outstanding checks.
type Subject struct {
	Kind       SubjectKind
	Repo       string // owner/name
	Number     int    // Pull request number; zero for commits.
	Title      string
	URL        string
	Author     string
	HeadSHA    string
	BaseBranch string // Branch whose protection rules supply the required checks.
	IsDraft    bool
}

// Key returns a stable identifier: "owner/repo#12" for pull requests and
// "owner/repo@abc1234" for commits.
func (s Subject) Key() string {
	if s.Kind == SubjectPullRequest {
		return fmt.Sprintf("%s#%d", s.Repo, s.Number)
	}
	return fmt.Sprintf("%s@%s", s.Repo, ShortSHA(s.HeadSHA))
}

// ShortSHA abbreviates a commit SHA to seven characters.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
