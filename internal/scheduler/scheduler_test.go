package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/momentum/pkg/logger"
)

type testJob struct {
	name     string
	schedule string
	err      error
	runs     int
	deadline bool
}

func (j *testJob) Name() string     { return j.name }
func (j *testJob) Schedule() string { return j.schedule }

func (j *testJob) Run(ctx context.Context) error {
	j.runs++
	_, j.deadline = ctx.Deadline()
	return j.err
}

func TestAddJob(t *testing.T) {
	s := New(logger.Nop(), time.UTC, 0)
	job := &testJob{name: "report", schedule: "0 30 15 * * 1-5"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")
	require.Len(t, s.Stats(), 1)
	assert.Equal(t, "report", s.Stats()[0].JobName)
	assert.Equal(t, "0 30 15 * * 1-5", s.Stats()[0].Schedule)

	next, err := s.NextRun("report")
	require.NoError(t, err)
	assert.True(t, next.IsZero(), "entries have no next time before Start")
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := New(logger.Nop(), nil, 0)
	err := s.AddJob(&testJob{name: "bad", schedule: "every day"})
	assert.Error(t, err)
	assert.Empty(t, s.Stats())
}

func TestRunJobSingleAttempt(t *testing.T) {
	s := New(logger.Nop(), time.UTC, time.Minute)
	job := &testJob{name: "report", schedule: "@daily", err: errors.New("feed down")}
	require.NoError(t, s.AddJob(job))

	err := s.RunJob("report")
	assert.EqualError(t, err, "feed down")
	assert.Equal(t, 1, job.runs)
	assert.True(t, job.deadline)

	job.err = nil
	require.NoError(t, s.RunJob("report"))

	stats := s.Stats()
	require.Len(t, stats, 1)
	stat := stats[0]
	assert.Equal(t, 2, stat.TotalRuns)
	assert.Equal(t, 1, stat.SuccessCount)
	assert.Equal(t, 1, stat.FailureCount)
	assert.Equal(t, 0.5, stat.SuccessRate)
	require.NotNil(t, stat.LastRun)
	require.NotNil(t, stat.LastSuccess)
	require.NotNil(t, stat.LastFailure)
	assert.Equal(t, *stat.LastSuccess, *stat.LastRun)
	assert.Empty(t, stat.LastError)
	assert.Nil(t, stat.NextRun, "not started")
}

func TestStatsKeepsLastError(t *testing.T) {
	s := New(logger.Nop(), time.UTC, 0)
	require.NoError(t, s.AddJob(&testJob{name: "b", schedule: "@daily", err: errors.New("parse failed")}))
	require.NoError(t, s.AddJob(&testJob{name: "a", schedule: "@hourly"}))

	assert.Error(t, s.RunJob("b"))

	stats := s.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "a", stats[0].JobName)
	assert.Zero(t, stats[0].TotalRuns)
	assert.Nil(t, stats[0].LastRun)

	assert.Equal(t, "b", stats[1].JobName)
	assert.Equal(t, "parse failed", stats[1].LastError)
	assert.Nil(t, stats[1].LastSuccess)
	assert.Zero(t, stats[1].SuccessRate)
}

func TestStatsNextRunAfterStart(t *testing.T) {
	s := New(logger.Nop(), time.UTC, 0)
	require.NoError(t, s.AddJob(&testJob{name: "report", schedule: "@daily"}))

	s.Start()
	defer s.Stop()

	stat := s.Stats()[0]
	require.NotNil(t, stat.NextRun)
	assert.True(t, stat.NextRun.After(time.Now()))
}

func TestRunJobUnknown(t *testing.T) {
	s := New(logger.Nop(), time.UTC, 0)
	assert.Error(t, s.RunJob("missing"))
}

func TestJobHistoryBounded(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+5; i++ {
		h.AddResult(JobResult{Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Equal(t, maxHistory/2, h.FailureCount())
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.01)

	last, ok := h.Last()
	require.True(t, ok)
	assert.True(t, last.Success)

	_, ok = (&JobHistory{}).Last()
	assert.False(t, ok)
}
