// Package prune implements the query-and-delete pipeline for workflow
// run histories: resolve a workflow by name, filter its runs by a single
// criterion, and delete the matched runs.
package prune

import (
	"fmt"
	"time"

	"github.com/korosuke613/ghasweep/github"
)

type criterionKind int

const (
	kindNone criterionKind = iota
	kindConclusion
	kindActor
	kindOlderThan
)

// Criterion selects workflow runs. It carries exactly one selection kind;
// the zero value selects nothing, so an unfiltered invocation can never
// match the whole history by accident.
type Criterion struct {
	kind       criterionKind
	conclusion github.Conclusion
	actor      string
	days       int
}

// ByConclusion selects runs whose conclusion equals c.
func ByConclusion(c github.Conclusion) Criterion {
	return Criterion{kind: kindConclusion, conclusion: c}
}

// ByActor selects runs triggered by the given login.
func ByActor(login string) Criterion {
	return Criterion{kind: kindActor, actor: login}
}

// ByOlderThan selects runs started strictly before now minus the given
// number of calendar days.
func ByOlderThan(days int) Criterion {
	return Criterion{kind: kindOlderThan, days: days}
}

// IsZero reports whether no selection kind was set.
func (c Criterion) IsZero() bool {
	return c.kind == kindNone
}

// Matches reports whether the run satisfies the criterion at time now.
// A zero Criterion matches nothing.
func (c Criterion) Matches(run github.WorkflowRun, now time.Time) bool {
	switch c.kind {
	case kindConclusion:
		return run.Conclusion == c.conclusion
	case kindActor:
		return run.Actor == c.actor
	case kindOlderThan:
		// Strictly before the threshold; a run started exactly at
		// now-days is kept.
		return run.StartedAt.Before(now.AddDate(0, 0, -c.days))
	default:
		return false
	}
}

func (c Criterion) String() string {
	switch c.kind {
	case kindConclusion:
		return fmt.Sprintf("conclusion=%s", c.conclusion)
	case kindActor:
		return fmt.Sprintf("actor=%s", c.actor)
	case kindOlderThan:
		return fmt.Sprintf("older_than=%dd", c.days)
	default:
		return "none"
	}
}
