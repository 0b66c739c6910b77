package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/work"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

type fakeRunner struct {
	modes []work.Mode
	err   error
}

func (r *fakeRunner) Run(ctx context.Context, mode work.Mode) (*work.RunReport, error) {
	r.modes = append(r.modes, mode)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a deadline")
	}
	if r.err != nil {
		return nil, r.err
	}
	return &work.RunReport{RunID: "run-1", Mode: mode}, nil
}

func quietLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := New(time.UTC, quietLogger())
	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
	// five-field specs are rejected since the seconds field is required
	assert.Error(t, s.AddJob("30 16 * * MON-FRI", &countingJob{}))
}

func TestAddJob_NextActivation(t *testing.T) {
	s := New(time.FixedZone("CST", 8*3600), quietLogger())
	require.NoError(t, s.AddJob("0 30 16 * * MON-FRI", &countingJob{}))

	s.Start()
	defer s.Stop()

	next := s.Entries()
	require.Len(t, next, 1)
	assert.Equal(t, 16, next[0].Hour())
	assert.Equal(t, 30, next[0].Minute())
	assert.NotEqual(t, time.Saturday, next[0].Weekday())
	assert.NotEqual(t, time.Sunday, next[0].Weekday())
}

func TestScheduler_RunsJob(t *testing.T) {
	s := New(time.UTC, quietLogger())
	job := &countingJob{}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestScheduler_StorageFailureIsFatal(t *testing.T) {
	s := New(time.UTC, quietLogger())
	storageErr := &domain.StorageError{Op: "upsert valuation", Symbol: "SH600519", Err: errors.New("disk I/O error")}

	s.execute(&countingJob{err: errors.New("network down")})
	select {
	case <-s.Fatal():
		t.Fatal("fetch failures must not be fatal")
	default:
	}

	s.execute(&countingJob{err: storageErr})
	select {
	case err := <-s.Fatal():
		assert.True(t, domain.IsStorageError(err))
	default:
		t.Fatal("expected a fatal storage error")
	}
}

func TestRunNow(t *testing.T) {
	s := New(nil, quietLogger())
	job := &countingJob{}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestPipelineJob(t *testing.T) {
	runner := &fakeRunner{}
	job := NewPipelineJob(runner, work.ModeAll, quietLogger())

	assert.Equal(t, "pipeline:all", job.Name())
	require.NoError(t, job.Run())
	assert.Equal(t, []work.Mode{work.ModeAll}, runner.modes)

	runner.err = errors.New("stage prices failed")
	assert.Error(t, job.Run())
}
