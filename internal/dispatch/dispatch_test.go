package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func succeedTask(id string, payload string) Task {
	return Task{
		ID: id,
		Run: func(ctx context.Context) (json.RawMessage, error) {
			return json.RawMessage(payload), nil
		},
	}
}

func failTask(id string, msg string) Task {
	return Task{
		ID: id,
		Run: func(ctx context.Context) (json.RawMessage, error) {
			return nil, errors.New(msg)
		},
	}
}

// hangTask blocks until its context is cancelled.
func hangTask(id string) Task {
	return Task{
		ID: id,
		Run: func(ctx context.Context) (json.RawMessage, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
}

func TestRunBatchResultAlignment(t *testing.T) {
	d := New(3, 200*time.Millisecond, zerolog.Nop())

	tasks := []Task{
		succeedTask("t0", `{"a":1}`),
		failTask("t1", "boom"),
		hangTask("t2"),
		succeedTask("t3", `{"b":2}`),
	}

	results, err := d.RunBatch(context.Background(), tasks)
	require.NoError(t, err)
	require.Len(t, results, len(tasks))

	// Results are index-aligned with tasks, not completion-ordered.
	assert.Equal(t, "t0", results[0].TaskID)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.JSONEq(t, `{"a":1}`, string(results[0].Payload))

	assert.Equal(t, "t1", results[1].TaskID)
	assert.Equal(t, StatusFailure, results[1].Status)
	assert.Contains(t, results[1].Err, "boom")

	assert.Equal(t, "t2", results[2].TaskID)
	assert.Equal(t, StatusTimedOut, results[2].Status)

	assert.Equal(t, "t3", results[3].TaskID)
	assert.Equal(t, StatusSuccess, results[3].Status)
}

func TestRunBatchConcurrencyCeiling(t *testing.T) {
	for _, ceiling := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("C=%d", ceiling), func(t *testing.T) {
			d := New(ceiling, 5*time.Second, zerolog.Nop())

			var running, peak int64
			tasks := make([]Task, 12)
			for i := range tasks {
				tasks[i] = Task{
					ID: fmt.Sprintf("t%d", i),
					Run: func(ctx context.Context) (json.RawMessage, error) {
						current := atomic.AddInt64(&running, 1)
						for {
							observed := atomic.LoadInt64(&peak)
							if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
								break
							}
						}
						time.Sleep(20 * time.Millisecond)
						atomic.AddInt64(&running, -1)
						return json.RawMessage(`{}`), nil
					},
				}
			}

			results, err := d.RunBatch(context.Background(), tasks)
			require.NoError(t, err)
			for _, r := range results {
				assert.Equal(t, StatusSuccess, r.Status)
			}

			observedPeak := atomic.LoadInt64(&peak)
			assert.LessOrEqual(t, observedPeak, int64(ceiling),
				"no more than C tasks may overlap")
			assert.Greater(t, observedPeak, int64(0))
		})
	}
}

func TestRunBatchCeilingSharedAcrossBatches(t *testing.T) {
	d := New(2, 5*time.Second, zerolog.Nop())

	var running, peak int64
	makeTasks := func(n int) []Task {
		tasks := make([]Task, n)
		for i := range tasks {
			tasks[i] = Task{
				ID: fmt.Sprintf("t%d", i),
				Run: func(ctx context.Context) (json.RawMessage, error) {
					current := atomic.AddInt64(&running, 1)
					for {
						observed := atomic.LoadInt64(&peak)
						if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
							break
						}
					}
					time.Sleep(20 * time.Millisecond)
					atomic.AddInt64(&running, -1)
					return json.RawMessage(`{}`), nil
				},
			}
		}
		return tasks
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.RunBatch(context.Background(), makeTasks(4))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2),
		"the ceiling is process-wide, not per-batch")
}

func TestRunBatchDeadlineEnforcement(t *testing.T) {
	deadline := 150 * time.Millisecond
	d := New(2, deadline, zerolog.Nop())

	// Two hangers occupy both slots; the rest queue behind them and the
	// whole batch would take far longer than the deadline.
	tasks := []Task{
		hangTask("t0"),
		hangTask("t1"),
		hangTask("t2"),
		hangTask("t3"),
	}

	start := time.Now()
	results, err := d.RunBatch(context.Background(), tasks)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, deadline+100*time.Millisecond,
		"batch must return within the deadline plus bounded overhead")

	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, StatusTimedOut, r.Status, "task %d", i)
	}
}

func TestRunBatchPartialCompletionAtDeadline(t *testing.T) {
	d := New(3, 150*time.Millisecond, zerolog.Nop())

	tasks := []Task{
		succeedTask("fast", `{"ok":true}`),
		hangTask("slow"),
	}

	results, err := d.RunBatch(context.Background(), tasks)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, StatusTimedOut, results[1].Status)
}

func TestRunBatchPerTaskTimeout(t *testing.T) {
	d := New(3, 2*time.Second, zerolog.Nop())

	slow := hangTask("slow")
	slow.Timeout = 50 * time.Millisecond

	tasks := []Task{slow, succeedTask("fast", `{}`)}

	start := time.Now()
	results, err := d.RunBatch(context.Background(), tasks)
	require.NoError(t, err)

	assert.Equal(t, StatusTimedOut, results[0].Status,
		"task exceeding its own timeout share times out alone")
	assert.Equal(t, StatusSuccess, results[1].Status)
	assert.Less(t, time.Since(start), time.Second,
		"one slow task must not consume the whole batch deadline")
}

func TestRunBatchPanicBecomesFailure(t *testing.T) {
	d := New(3, time.Second, zerolog.Nop())

	tasks := []Task{
		{ID: "p", Run: func(ctx context.Context) (json.RawMessage, error) {
			panic("unexpected page structure")
		}},
		succeedTask("ok", `{}`),
	}

	results, err := d.RunBatch(context.Background(), tasks)
	require.NoError(t, err)

	assert.Equal(t, StatusFailure, results[0].Status)
	assert.Contains(t, results[0].Err, "unexpected page structure")
	assert.Equal(t, StatusSuccess, results[1].Status,
		"a panicking task must not take down its siblings")
}

func TestRunBatchEmpty(t *testing.T) {
	d := New(3, time.Second, zerolog.Nop())

	results, err := d.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunBatchBridgeFailure(t *testing.T) {
	d := New(3, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.RunBatch(ctx, []Task{succeedTask("t0", `{}`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBridge)
}

func TestRunBatchNilRun(t *testing.T) {
	d := New(3, time.Second, zerolog.Nop())

	results, err := d.RunBatch(context.Background(), []Task{{ID: "empty"}})
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, results[0].Status)
}

func TestNewAppliesDefaults(t *testing.T) {
	d := New(0, 0, zerolog.Nop())
	require.NotNil(t, d)
	assert.Equal(t, DefaultDeadline, d.deadline)
}
