package github

import (
	"fmt"
	"time"
)

// Conclusion is the terminal status of a workflow run.
type Conclusion string

const (
	ConclusionSuccess   Conclusion = "success"
	ConclusionSkipped   Conclusion = "skipped"
	ConclusionCancelled Conclusion = "cancelled"
	ConclusionFailure   Conclusion = "failure"
)

// ParseConclusion validates a user-supplied conclusion value.
func ParseConclusion(s string) (Conclusion, error) {
	switch Conclusion(s) {
	case ConclusionSuccess, ConclusionSkipped, ConclusionCancelled, ConclusionFailure:
		return Conclusion(s), nil
	}
	return "", fmt.Errorf("invalid conclusion %q: must be one of success, skipped, cancelled, failure", s)
}

// Workflow is a workflow definition in a repository.
type Workflow struct {
	ID    int64  // platform-assigned workflow ID
	Name  string // display name (e.g. "CI")
	Path  string // file path (e.g. ".github/workflows/ci.yml")
	State string // "active", "disabled_manually", ...
}

// WorkflowRun is one executed instance of a workflow. Records are
// read-only copies of what the API returned; nothing here is ever
// written back.
type WorkflowRun struct {
	ID         int64
	Conclusion Conclusion // may carry values outside the known constants
	Actor      string     // login of the triggering actor
	StartedAt  time.Time
}
