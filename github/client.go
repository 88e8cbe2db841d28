package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// requestTimeout bounds every outbound API call.
const requestTimeout = 30 * time.Second

// Client is a GitHub API client.
type Client struct {
	gh *gh.Client
}

// NewTokenClient creates a client authenticated with a personal access token.
func NewTokenClient(token string) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{gh: gh.NewClient(httpClient).WithAuthToken(token)}
}

// NewAppClient creates a client with GitHub App installation authentication.
func NewAppClient(appID int64, privateKeyPEM []byte) (*Client, error) {
	transport, err := NewTransport(appID, privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	httpClient := &http.Client{Transport: transport, Timeout: requestTimeout}
	return &Client{gh: gh.NewClient(httpClient)}, nil
}

// ListWorkflows returns all workflows defined in a repository.
func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]Workflow, error) {
	var workflows []Workflow
	opts := &gh.ListOptions{PerPage: 100}

	for {
		result, resp, err := c.gh.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows (%s/%s): %w", owner, repo, err)
		}

		for _, w := range result.Workflows {
			workflows = append(workflows, Workflow{
				ID:    w.GetID(),
				Name:  w.GetName(),
				Path:  w.GetPath(),
				State: w.GetState(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return workflows, nil
}

// ListWorkflowRuns returns the recorded runs of a workflow in the
// service's native order (most recent first). A single page is fetched;
// run histories are pruned incrementally, so the newest page is the
// working set.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64) ([]WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	result, _, err := c.gh.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow runs (%s/%s, workflow=%d): %w", owner, repo, workflowID, err)
	}

	runs := make([]WorkflowRun, 0, len(result.WorkflowRuns))
	for _, r := range result.WorkflowRuns {
		runs = append(runs, WorkflowRun{
			ID:         r.GetID(),
			Conclusion: Conclusion(r.GetConclusion()),
			Actor:      r.GetTriggeringActor().GetLogin(),
			StartedAt:  r.GetRunStartedAt().Time,
		})
	}

	return runs, nil
}

// DeleteWorkflowRun deletes a single run. Deleting an already-deleted run
// (404) is treated as success.
func (c *Client) DeleteWorkflowRun(ctx context.Context, owner, repo string, runID int64) error {
	resp, err := c.gh.Actions.DeleteWorkflowRun(ctx, owner, repo, runID)
	if err != nil {
		if ghErr, ok := err.(*gh.ErrorResponse); ok && ghErr.Response.StatusCode == 404 {
			return nil
		}
		if resp != nil {
			return fmt.Errorf("failed to delete workflow run (%s/%s, run=%d, status=%d): %w",
				owner, repo, runID, resp.StatusCode, err)
		}
		return fmt.Errorf("failed to delete workflow run (%s/%s, run=%d): %w",
			owner, repo, runID, err)
	}

	slog.Debug("deleted workflow run",
		"owner", owner,
		"repo", repo,
		"run_id", runID,
	)
	return nil
}
