// Package dispatch runs batches of independent, slow lookup tasks under a
// process-wide concurrency ceiling and a wall-clock batch deadline. Partial
// failure is the normal case: each task resolves to its own tagged result and
// a batch always returns one result per submitted task, index-aligned.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Defaults mirror the service configuration surface.
const (
	DefaultConcurrency = 3
	DefaultDeadline    = 120 * time.Second
)

// Status tags the outcome of a single task.
type Status string

const (
	// StatusSuccess marks a task whose Run returned a payload.
	StatusSuccess Status = "success"
	// StatusFailure marks a task whose Run returned an error or panicked.
	StatusFailure Status = "failure"
	// StatusTimedOut marks a task cancelled by its own timeout or by the
	// batch deadline, including tasks still queued when the deadline hit.
	StatusTimedOut Status = "timed_out"
)

// Task is a single unit of fetch work. Tasks are stateless, submitted once,
// and never retried by the dispatcher.
type Task struct {
	ID    string
	URL   string
	Skill string
	// Timeout is this task's share of the batch budget. Zero means the task
	// runs under the batch deadline alone; a positive value is additionally
	// capped by the remaining batch time.
	Timeout time.Duration
	// Run performs the lookup. It must honor ctx cancellation.
	Run func(ctx context.Context) (json.RawMessage, error)
}

// Result is the outcome of one task. A batch's results match its tasks 1:1 by
// index, regardless of completion order.
type Result struct {
	TaskID  string
	URL     string
	Skill   string
	Status  Status
	Payload json.RawMessage
	Err     string
	Elapsed time.Duration
}

// ErrBridge reports that the dispatcher could not schedule the batch at all,
// as opposed to individual tasks failing or timing out.
var ErrBridge = errors.New("dispatch: batch could not be scheduled")

// Dispatcher owns the worker-pool semaphore. The ceiling is global: batches
// dispatched by concurrent requests compete for the same slots.
type Dispatcher struct {
	sem      *semaphore.Weighted
	deadline time.Duration
	log      zerolog.Logger
}

// New creates a dispatcher with concurrency ceiling c and batch deadline d.
// Non-positive values fall back to the defaults.
func New(c int, d time.Duration, log zerolog.Logger) *Dispatcher {
	if c <= 0 {
		c = DefaultConcurrency
	}
	if d <= 0 {
		d = DefaultDeadline
	}
	return &Dispatcher{
		sem:      semaphore.NewWeighted(int64(c)),
		deadline: d,
		log:      log,
	}
}

// indexedResult pairs a completed result with its task index so the collector
// can restore submission order.
type indexedResult struct {
	index  int
	result Result
}

// RunBatch executes all tasks and returns their results in task order.
//
// At most C tasks run concurrently; excess tasks queue on the semaphore. Each
// task runs under its own context carved from the batch deadline. A task
// error or panic is recorded as a failure for that task only. When the batch
// deadline elapses, still-pending and still-running tasks are cancelled
// cooperatively and recorded as timed out, and RunBatch returns immediately
// with whatever was collected.
//
// The error return is reserved for bridge failure: ctx was already dead
// before any work could be scheduled. Task-level problems never produce it.
func (d *Dispatcher) RunBatch(ctx context.Context, tasks []Task) ([]Result, error) {
	if len(tasks) == 0 {
		return []Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridge, err)
	}

	batchCtx, cancel := context.WithTimeout(ctx, d.deadline)
	defer cancel()

	// Buffered so late finishers never block after the collector has
	// returned; the worker goroutines always terminate.
	completions := make(chan indexedResult, len(tasks))

	for i, task := range tasks {
		go d.runTask(batchCtx, i, task, completions)
	}

	results := make([]Result, len(tasks))
	received := make([]bool, len(tasks))
	pending := len(tasks)

	for pending > 0 {
		select {
		case c := <-completions:
			results[c.index] = c.result
			received[c.index] = true
			pending--
		case <-batchCtx.Done():
			// Deadline (or caller cancellation): everything not yet
			// collected is timed out. Workers see the same cancellation and
			// unwind on their own.
			for i, task := range tasks {
				if !received[i] {
					results[i] = Result{
						TaskID: task.ID,
						URL:    task.URL,
						Skill:  task.Skill,
						Status: StatusTimedOut,
						Err:    "batch deadline exceeded",
					}
				}
			}
			d.log.Warn().Int("pending", pending).Int("total", len(tasks)).
				Msg("batch deadline elapsed, returning partial results")
			return results, nil
		}
	}

	return results, nil
}

// runTask acquires a worker slot, executes the task under its timeout share,
// and reports exactly one result on completions.
func (d *Dispatcher) runTask(batchCtx context.Context, index int, task Task, completions chan<- indexedResult) {
	started := time.Now()

	if err := d.sem.Acquire(batchCtx, 1); err != nil {
		// The deadline hit while this task was still queued.
		completions <- indexedResult{index, Result{
			TaskID:  task.ID,
			URL:     task.URL,
			Skill:   task.Skill,
			Status:  StatusTimedOut,
			Err:     "timed out waiting for worker slot",
			Elapsed: time.Since(started),
		}}
		return
	}
	defer d.sem.Release(1)

	taskCtx := batchCtx
	if task.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(batchCtx, task.Timeout)
		defer cancel()
	}

	payload, err := d.execute(taskCtx, task)
	elapsed := time.Since(started)

	result := Result{
		TaskID:  task.ID,
		URL:     task.URL,
		Skill:   task.Skill,
		Elapsed: elapsed,
	}

	switch {
	case err == nil:
		result.Status = StatusSuccess
		result.Payload = payload
	case errors.Is(err, context.DeadlineExceeded) || taskCtx.Err() != nil:
		result.Status = StatusTimedOut
		result.Err = err.Error()
		d.log.Warn().Str("task", task.ID).Str("url", task.URL).Dur("elapsed", elapsed).
			Msg("fetch task timed out")
	default:
		result.Status = StatusFailure
		result.Err = err.Error()
		d.log.Warn().Str("task", task.ID).Str("url", task.URL).Err(err).
			Msg("fetch task failed")
	}

	completions <- indexedResult{index, result}
}

// execute invokes task.Run with panic containment: a panicking task becomes a
// failure for that task alone, never a crashed batch.
func (d *Dispatcher) execute(ctx context.Context, task Task) (payload json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if task.Run == nil {
		return nil, errors.New("task has no run function")
	}
	return task.Run(ctx)
}
