package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/rotabull/supportsync/internal/pkg/logger"
)

type StepName string

const (
	StepUsers   StepName = "users"
	StepDocs    StepName = "docs"
	StepTickets StepName = "tickets"
)

// State is the explicit outcome of a full sync run. Partial failure is a
// named state so callers never have to infer it from logs.
type State string

const (
	StateSuccess        State = "success"
	StatePartialFailure State = "partial_failure"
	StateFailure        State = "failure"
)

type StepResult struct {
	Step     StepName      `json:"step"`
	Count    int           `json:"count"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
	Error    string        `json:"error,omitempty"`
}

type Result struct {
	RunID       uuid.UUID    `json:"run_id"`
	State       State        `json:"state"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Steps       []StepResult `json:"steps"`
	FailedSteps []StepName   `json:"failed_steps,omitempty"`
}

// StepFunc runs one sync step and returns how many entities it wrote.
type StepFunc func(ctx context.Context) (int, error)

// AlertFunc is invoked whenever a run finishes in a non-success state.
type AlertFunc func(Result)

// Orchestrator sequences the three sync steps. Users always run first: the
// ticket annotator reads the user table for its internal-author lookup.
// Docs and tickets then run sequentially or in parallel.
type Orchestrator struct {
	Log     *logger.Logger
	Users   StepFunc
	Docs    StepFunc
	Tickets StepFunc

	// Parallel runs docs and tickets concurrently after users complete.
	Parallel bool
	// AbortSiblings cancels the remaining parallel step on first failure
	// instead of letting it finish.
	AbortSiblings bool
	Alert         AlertFunc
}

func (o *Orchestrator) Run(ctx context.Context) Result {
	res := Result{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}
	log := o.Log.With("component", "SyncOrchestrator", "run_id", res.RunID)
	log.Info("Starting support data sync", "parallel", o.Parallel)

	res.Steps = append(res.Steps, o.runStep(ctx, StepUsers, o.Users))

	if o.Parallel {
		runCtx := ctx
		var cancel context.CancelFunc
		if o.AbortSiblings {
			runCtx, cancel = context.WithCancel(ctx)
		}

		var mu stdsync.Mutex
		var wg stdsync.WaitGroup
		for _, s := range []struct {
			name StepName
			fn   StepFunc
		}{
			{StepDocs, o.Docs},
			{StepTickets, o.Tickets},
		} {
			s := s
			wg.Add(1)
			go func() {
				defer wg.Done()
				sr := o.runStep(runCtx, s.name, s.fn)
				if sr.Err != nil && cancel != nil {
					cancel()
				}
				mu.Lock()
				res.Steps = append(res.Steps, sr)
				mu.Unlock()
			}()
		}
		wg.Wait()
		if cancel != nil {
			cancel()
		}
	} else {
		res.Steps = append(res.Steps, o.runStep(ctx, StepDocs, o.Docs))
		res.Steps = append(res.Steps, o.runStep(ctx, StepTickets, o.Tickets))
	}

	res.FinishedAt = time.Now().UTC()
	for _, sr := range res.Steps {
		if sr.Err != nil {
			res.FailedSteps = append(res.FailedSteps, sr.Step)
		}
	}
	switch len(res.FailedSteps) {
	case 0:
		res.State = StateSuccess
	case len(res.Steps):
		res.State = StateFailure
	default:
		res.State = StatePartialFailure
	}

	recordRun(res.State, res.FinishedAt.Sub(res.StartedAt).Seconds())

	if res.State == StateSuccess {
		log.Info("Support data sync finished",
			"state", res.State,
			"duration", res.FinishedAt.Sub(res.StartedAt).String(),
		)
	} else {
		log.Error("Support data sync finished with failures",
			"state", res.State,
			"failed_steps", res.FailedSteps,
			"duration", res.FinishedAt.Sub(res.StartedAt).String(),
		)
		if o.Alert != nil {
			o.Alert(res)
		}
	}
	return res
}

func (o *Orchestrator) runStep(ctx context.Context, name StepName, fn StepFunc) StepResult {
	log := o.Log.With("step", name)
	start := time.Now()
	count, err := fn(ctx)
	sr := StepResult{
		Step:     name,
		Count:    count,
		Duration: time.Since(start),
		Err:      err,
	}
	recordStep(name, count, err)
	if err != nil {
		sr.Error = err.Error()
		log.Error("Sync step failed", "error", err, "duration", sr.Duration.String())
		return sr
	}
	log.Info("Sync step finished", "count", count, "duration", sr.Duration.String())
	return sr
}
