package prune

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/korosuke613/ghasweep/github"
)

// ErrWorkflowNotFound is returned when a workflow name does not resolve.
// Transport and API failures are returned as distinct wrapped errors,
// never folded into this one.
var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowClient is the GitHub API surface the query pipeline uses.
type WorkflowClient interface {
	ListWorkflows(ctx context.Context, owner, repo string) ([]github.Workflow, error)
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64) ([]github.WorkflowRun, error)
}

// ResolveWorkflow maps a workflow name to its descriptor by exact,
// case-sensitive name match over the repository's workflow list.
func ResolveWorkflow(ctx context.Context, client WorkflowClient, owner, repo, name string) (github.Workflow, error) {
	workflows, err := client.ListWorkflows(ctx, owner, repo)
	if err != nil {
		return github.Workflow{}, fmt.Errorf("failed to resolve workflow %q (%s/%s): %w", name, owner, repo, err)
	}

	for _, w := range workflows {
		if w.Name == name {
			return w, nil
		}
	}

	return github.Workflow{}, fmt.Errorf("workflow %q (%s/%s): %w", name, owner, repo, ErrWorkflowNotFound)
}

// RunResult is one row of query output. RunID is nil when the query
// matched no runs; owner, repo and workflow are always populated so a
// caller can tell "matched nothing" apart from "never queried".
type RunResult struct {
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	Workflow string `json:"workflow"`
	RunID    *int64 `json:"run_id,omitempty"`
}

// QueryRuns resolves the workflow, fetches its run history and applies
// the criterion. The service's most-recent-first ordering is preserved.
// An empty match set, whether because no runs exist or none satisfied
// the criterion, yields exactly one result with RunID nil.
func QueryRuns(ctx context.Context, client WorkflowClient, owner, repo, workflowName string, criterion Criterion) ([]RunResult, error) {
	workflow, err := ResolveWorkflow(ctx, client, owner, repo, workflowName)
	if err != nil {
		return nil, err
	}

	runs, err := client.ListWorkflowRuns(ctx, owner, repo, workflow.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs for workflow %q (%s/%s): %w", workflowName, owner, repo, err)
	}

	now := time.Now()
	var results []RunResult
	for _, run := range runs {
		if !criterion.Matches(run, now) {
			continue
		}
		id := run.ID
		results = append(results, RunResult{
			Owner:    owner,
			Repo:     repo,
			Workflow: workflowName,
			RunID:    &id,
		})
	}

	if len(results) == 0 {
		results = append(results, RunResult{
			Owner:    owner,
			Repo:     repo,
			Workflow: workflowName,
		})
	}

	return results, nil
}

// RunIDs extracts the matched run identifiers from query output,
// skipping the no-match record.
func RunIDs(results []RunResult) []int64 {
	var ids []int64
	for _, r := range results {
		if r.RunID != nil {
			ids = append(ids, *r.RunID)
		}
	}
	return ids
}
