package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/korosuke613/ghasweep/github"
	"github.com/korosuke613/ghasweep/prune"
)

// policyTimeout bounds one full query-and-delete pass for a policy.
const policyTimeout = 5 * time.Minute

// Client is the GitHub API surface the sweeper uses.
type Client interface {
	ListWorkflows(ctx context.Context, owner, repo string) ([]github.Workflow, error)
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64) ([]github.WorkflowRun, error)
	DeleteWorkflowRun(ctx context.Context, owner, repo string, runID int64) error
}

// PolicyStatus is the reportable state of one registered policy.
type PolicyStatus struct {
	Policy       Policy    `json:"policy"`
	LastSweep    time.Time `json:"last_sweep,omitzero"`
	LastDeleted  int       `json:"last_deleted"`
	TotalDeleted int       `json:"total_deleted"`
	LastError    string    `json:"last_error,omitempty"`
	NextRun      time.Time `json:"next_run,omitzero"`
}

// Sweeper runs retention policies against workflow run histories.
type Sweeper struct {
	client  Client
	deleter *prune.Deleter
	cron    *cron.Cron
	dryRun  bool

	mu           sync.RWMutex
	entries      map[string]cron.EntryID
	statuses     map[string]*PolicyStatus
	lastSweep    time.Time
	totalDeleted int
}

// New creates a Sweeper. workers configures the deleter's pool; 1 keeps
// per-policy deletions in input order.
func New(client Client, workers int, dryRun bool, loc *time.Location) *Sweeper {
	return &Sweeper{
		client:   client,
		deleter:  &prune.Deleter{Client: client, Workers: workers},
		cron:     cron.New(cron.WithLocation(loc)),
		dryRun:   dryRun,
		entries:  make(map[string]cron.EntryID),
		statuses: make(map[string]*PolicyStatus),
	}
}

// Register adds a policy's cron job. The policy must carry a schedule.
func (s *Sweeper) Register(p Policy) error {
	if p.Schedule == "" {
		return fmt.Errorf("policy %s has no schedule", p.Key())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.Key()
	if _, exists := s.entries[key]; exists {
		return fmt.Errorf("policy %s is already registered", key)
	}

	entryID, err := s.cron.AddFunc(p.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), policyTimeout)
		defer cancel()
		s.runPolicy(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("failed to register policy %s (%q): %w", key, p.Schedule, err)
	}

	s.entries[key] = entryID
	s.statuses[key] = &PolicyStatus{Policy: p}

	slog.Info("registered sweep policy",
		"policy", key,
		"schedule", p.Schedule,
		"criterion", p.Criterion().String(),
	)
	return nil
}

// Start begins scheduled sweeping.
func (s *Sweeper) Start() {
	s.cron.Start()
	slog.Info("sweep scheduler started")
}

// Stop stops the scheduler and waits for running jobs.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("sweep scheduler stopped")
}

// Apply runs one policy now: query matching runs, delete them. Returns
// the number of runs deleted. In dry-run mode nothing is deleted and the
// matched identifiers are logged instead.
func (s *Sweeper) Apply(ctx context.Context, p Policy) (int, error) {
	results, err := prune.QueryRuns(ctx, s.client, p.Owner, p.Repo, p.Workflow, p.Criterion())
	if err != nil {
		return 0, err
	}

	ids := prune.RunIDs(results)
	if len(ids) == 0 {
		slog.Info("no runs matched policy", "policy", p.Key(), "criterion", p.Criterion().String())
		return 0, nil
	}

	if s.dryRun {
		slog.Info("[DRY-RUN] matched runs",
			"policy", p.Key(),
			"criterion", p.Criterion().String(),
			"run_ids", ids,
		)
		return 0, nil
	}

	deleteResults := s.deleter.Delete(ctx, p.Owner, p.Repo, ids)
	failed := prune.Failed(deleteResults)
	deleted := len(deleteResults) - len(failed)

	if len(failed) > 0 {
		return deleted, fmt.Errorf("policy %s: %d of %d deletions failed", p.Key(), len(failed), len(ids))
	}
	return deleted, nil
}

// runPolicy is the cron job body: Apply plus status bookkeeping.
func (s *Sweeper) runPolicy(ctx context.Context, p Policy) {
	slog.Info("sweep started", "policy", p.Key())
	start := time.Now()

	deleted, err := s.Apply(ctx, p)
	if err != nil {
		slog.Error("sweep failed", "policy", p.Key(), "deleted", deleted, "error", err)
	} else {
		slog.Info("sweep completed",
			"policy", p.Key(),
			"deleted", deleted,
			"duration", time.Since(start).String(),
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSweep = time.Now()
	s.totalDeleted += deleted
	if status, ok := s.statuses[p.Key()]; ok {
		status.LastSweep = s.lastSweep
		status.LastDeleted = deleted
		status.TotalDeleted += deleted
		status.LastError = ""
		if err != nil {
			status.LastError = err.Error()
		}
	}
}

// GetLastSweepTime returns the last sweep timestamp (StatusProvider).
func (s *Sweeper) GetLastSweepTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSweep
}

// GetTotalDeleted returns the number of runs deleted since start (StatusProvider).
func (s *Sweeper) GetTotalDeleted() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalDeleted
}

// GetPolicyStatuses returns the state of every registered policy (StatusProvider).
func (s *Sweeper) GetPolicyStatuses() []PolicyStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]PolicyStatus, 0, len(s.statuses))
	for key, status := range s.statuses {
		copied := *status
		if entryID, ok := s.entries[key]; ok {
			copied.NextRun = s.cron.Entry(entryID).Next
		}
		statuses = append(statuses, copied)
	}
	return statuses
}
