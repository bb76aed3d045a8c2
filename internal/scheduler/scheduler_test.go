package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
	panics   bool
	block    chan struct{}
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if j.block != nil {
		select {
		case <-j.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if j.panics {
		panic("boom")
	}
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(nil).WithRetry(2, time.Millisecond)
}

func TestScheduler_AddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "0 30 15 * * 1-5"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "a", schedule: "@daily"}), "duplicate name")
	assert.Error(t, s.AddJob(&fakeJob{name: "b", schedule: "not a cron"}))

	assert.Equal(t, []string{"a"}, s.GetAllJobs())
}

func TestScheduler_RemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@hourly"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))
	assert.Empty(t, s.cron.Entries())

	_, ok := s.NextRun("a")
	assert.False(t, ok)
}

func TestScheduler_RetryUntilSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow("flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Empty(t, result.Error)
}

func TestScheduler_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "broken", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobNow("broken")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, "transient", result.Error)

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestScheduler_PanicBecomesFailure(t *testing.T) {
	s := New(nil).WithRetry(0, 0)
	require.NoError(t, s.AddJob(&fakeJob{name: "panicky", schedule: "@daily", panics: true}))

	result, err := s.RunJobNow("panicky")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "panicked")
}

func TestScheduler_SkipsOverlappingRun(t *testing.T) {
	s := New(nil).WithRetry(0, 0)
	job := &fakeJob{name: "slow", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("slow"))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)

	second, err := s.RunJobNow("slow")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "still running")
	assert.True(t, s.GetJobStats()["slow"].Running)

	close(job.block)
	require.Eventually(t, func() bool {
		h, _ := s.GetJobHistory("slow")
		return len(h) == 1 && h[0].Success
	}, time.Second, time.Millisecond)
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(nil).WithRetry(0, 0)
	job := &fakeJob{name: "slow", schedule: "@daily", block: make(chan struct{})}
	require.NoError(t, s.AddJob(job))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		r, _ := s.RunJobNow("slow")
		done <- r
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&job.calls) == 1 }, time.Second, time.Millisecond)

	s.Stop()
	select {
	case r := <-done:
		assert.False(t, r.Success)
		assert.Contains(t, r.Error, context.Canceled.Error())
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
}

func TestScheduler_UnknownJob(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobNow("missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestScheduler_NextRun(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&fakeJob{name: "a", schedule: "@every 1h"}))
	s.Start()
	defer s.Stop()

	var next time.Time
	require.Eventually(t, func() bool {
		next, _ = s.NextRun("a")
		return !next.IsZero()
	}, time.Second, time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+5; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0, Attempts: i})
	}

	assert.Len(t, h.Results, historyLimit)
	assert.Equal(t, 5, h.Results[0].Attempts)
	assert.Len(t, h.Latest(3), 3)
	assert.Equal(t, historyLimit+4, h.Latest(1)[0].Attempts)
	assert.Empty(t, h.Latest(0))
	assert.Len(t, h.Failed(), historyLimit/2)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-9)
	assert.Zero(t, (&JobHistory{}).SuccessRate())
}
