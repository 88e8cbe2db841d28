package prune

import (
	"context"
	"log/slog"
	"sync"
)

// RunDeleter is the GitHub API surface the deleter uses.
type RunDeleter interface {
	DeleteWorkflowRun(ctx context.Context, owner, repo string, runID int64) error
}

// DeleteResult records the outcome of one deletion attempt.
type DeleteResult struct {
	RunID int64
	Err   error
}

// Deleter issues one deletion request per run identifier. Workers <= 1
// deletes sequentially in input order. A larger value uses a bounded
// pool; every identifier is still attempted, but completion order is no
// longer the input order.
type Deleter struct {
	Client  RunDeleter
	Workers int
}

// Delete attempts every identifier, one request each. A failed item does
// not stop later items. A cancelled context stops further requests;
// identifiers not yet issued are reported with the context's error.
// Deletions already issued cannot be rolled back.
func (d *Deleter) Delete(ctx context.Context, owner, repo string, runIDs []int64) []DeleteResult {
	if len(runIDs) == 0 {
		return nil
	}
	if d.Workers <= 1 {
		return d.deleteSequential(ctx, owner, repo, runIDs)
	}
	return d.deleteParallel(ctx, owner, repo, runIDs)
}

func (d *Deleter) deleteSequential(ctx context.Context, owner, repo string, runIDs []int64) []DeleteResult {
	results := make([]DeleteResult, 0, len(runIDs))

	for i, id := range runIDs {
		if err := ctx.Err(); err != nil {
			for _, rest := range runIDs[i:] {
				results = append(results, DeleteResult{RunID: rest, Err: err})
			}
			break
		}

		err := d.Client.DeleteWorkflowRun(ctx, owner, repo, id)
		if err != nil {
			slog.Error("failed to delete workflow run",
				"owner", owner,
				"repo", repo,
				"run_id", id,
				"error", err,
			)
		}
		results = append(results, DeleteResult{RunID: id, Err: err})
	}

	return results
}

func (d *Deleter) deleteParallel(ctx context.Context, owner, repo string, runIDs []int64) []DeleteResult {
	results := make([]DeleteResult, len(runIDs))
	sem := make(chan struct{}, d.Workers)
	var wg sync.WaitGroup

	for i, id := range runIDs {
		if err := ctx.Err(); err != nil {
			results[i] = DeleteResult{RunID: id, Err: err}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id int64) {
			defer wg.Done()
			defer func() { <-sem }()

			err := d.Client.DeleteWorkflowRun(ctx, owner, repo, id)
			if err != nil {
				slog.Error("failed to delete workflow run",
					"owner", owner,
					"repo", repo,
					"run_id", id,
					"error", err,
				)
			}
			results[i] = DeleteResult{RunID: id, Err: err}
		}(i, id)
	}

	wg.Wait()
	return results
}

// Failed returns the results whose deletion failed.
func Failed(results []DeleteResult) []DeleteResult {
	var failed []DeleteResult
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
