package sweep

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/korosuke613/ghasweep/github"
)

// mockClient is a mock GitHub client for testing.
type mockClient struct {
	mu sync.Mutex

	workflows []github.Workflow
	runs      []github.WorkflowRun
	runsErr   error

	deleteErrs  map[int64]error
	deleteCalls []int64
}

func (m *mockClient) ListWorkflows(_ context.Context, _, _ string) ([]github.Workflow, error) {
	return m.workflows, nil
}

func (m *mockClient) ListWorkflowRuns(_ context.Context, _, _ string, _ int64) ([]github.WorkflowRun, error) {
	return m.runs, m.runsErr
}

func (m *mockClient) DeleteWorkflowRun(_ context.Context, _, _ string, runID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, runID)
	if m.deleteErrs != nil {
		return m.deleteErrs[runID]
	}
	return nil
}

func testPolicy() Policy {
	return Policy{
		Owner:      "test-owner",
		Repo:       "test-repo",
		Workflow:   "CI",
		Schedule:   "0 3 * * *",
		Conclusion: "failure",
	}
}

func newMockClient() *mockClient {
	return &mockClient{
		workflows: []github.Workflow{{ID: 1, Name: "CI"}},
		runs: []github.WorkflowRun{
			{ID: 102, Conclusion: github.ConclusionSuccess, Actor: "bob", StartedAt: time.Now()},
			{ID: 101, Conclusion: github.ConclusionFailure, Actor: "alice", StartedAt: time.Now().AddDate(0, 0, -100)},
		},
	}
}

func TestApply_DeletesMatchedRuns(t *testing.T) {
	mock := newMockClient()
	s := New(mock, 1, false, time.UTC)

	deleted, err := s.Apply(context.Background(), testPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(mock.deleteCalls) != 1 || mock.deleteCalls[0] != 101 {
		t.Errorf("deleteCalls = %v, want [101]", mock.deleteCalls)
	}
}

func TestApply_NoMatchDeletesNothing(t *testing.T) {
	mock := newMockClient()
	s := New(mock, 1, false, time.UTC)

	p := testPolicy()
	p.Conclusion = ""
	p.Actor = "carol"

	deleted, err := s.Apply(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if len(mock.deleteCalls) != 0 {
		t.Errorf("deleteCalls = %v, want none", mock.deleteCalls)
	}
}

func TestApply_DryRunDeletesNothing(t *testing.T) {
	mock := newMockClient()
	s := New(mock, 1, true, time.UTC)

	deleted, err := s.Apply(context.Background(), testPolicy())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 0 {
		t.Errorf("deleted = %d, want 0", deleted)
	}
	if len(mock.deleteCalls) != 0 {
		t.Errorf("deleteCalls = %v, want none", mock.deleteCalls)
	}
}

func TestApply_QueryFailureSurfaces(t *testing.T) {
	mock := newMockClient()
	mock.runsErr = errors.New("rate limited")
	s := New(mock, 1, false, time.UTC)

	_, err := s.Apply(context.Background(), testPolicy())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestApply_PartialDeleteFailureReported(t *testing.T) {
	mock := newMockClient()
	mock.runs = []github.WorkflowRun{
		{ID: 101, Conclusion: github.ConclusionFailure},
		{ID: 102, Conclusion: github.ConclusionFailure},
	}
	mock.deleteErrs = map[int64]error{101: errors.New("boom")}
	s := New(mock, 1, false, time.UTC)

	deleted, err := s.Apply(context.Background(), testPolicy())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(mock.deleteCalls) != 2 {
		t.Errorf("deleteCalls = %v, want both runs attempted", mock.deleteCalls)
	}
}

func TestRegister_InvalidSchedule(t *testing.T) {
	s := New(newMockClient(), 1, false, time.UTC)

	p := testPolicy()
	p.Schedule = "not a cron expr"
	if err := s.Register(p); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRegister_MissingSchedule(t *testing.T) {
	s := New(newMockClient(), 1, false, time.UTC)

	p := testPolicy()
	p.Schedule = ""
	if err := s.Register(p); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRegister_DuplicateRejected(t *testing.T) {
	s := New(newMockClient(), 1, false, time.UTC)

	if err := s.Register(testPolicy()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Register(testPolicy()); err == nil {
		t.Fatal("expected duplicate error, got nil")
	}
}

func TestRunPolicy_UpdatesStatus(t *testing.T) {
	mock := newMockClient()
	s := New(mock, 1, false, time.UTC)

	p := testPolicy()
	if err := s.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.runPolicy(context.Background(), p)

	if s.GetTotalDeleted() != 1 {
		t.Errorf("GetTotalDeleted = %d, want 1", s.GetTotalDeleted())
	}
	if s.GetLastSweepTime().IsZero() {
		t.Error("GetLastSweepTime is zero after a sweep")
	}

	statuses := s.GetPolicyStatuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if statuses[0].LastDeleted != 1 {
		t.Errorf("LastDeleted = %d, want 1", statuses[0].LastDeleted)
	}
	if statuses[0].LastError != "" {
		t.Errorf("LastError = %q, want empty", statuses[0].LastError)
	}
}
