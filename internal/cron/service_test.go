package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/greenleague-backend/pkg/logger"
	"github.com/angelmondragon/greenleague-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLock struct{}

func (failingLock) Acquire(context.Context) (bool, error) { return false, errors.New("redis down") }
func (failingLock) Release(context.Context) error         { return nil }

type testJob struct {
	name string
	err  error
	runs int
	wait bool
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(ctx context.Context) error {
	t.runs++
	if t.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	return t.err
}

func newTestService(t *testing.T, params ServiceParams) *Service {
	t.Helper()
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "cron-test", Output: &bytes.Buffer{}})
	}
	if params.Lock == nil {
		params.Lock = &LocalLock{}
	}
	service, err := NewService(params)
	require.NoError(t, err)
	return service
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success"}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	registry, err := NewRegistry(success, failure)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	service := newTestService(t, ServiceParams{Registry: registry, Metrics: metrics.NewCronJobMetrics(reg)})

	require.NoError(t, service.runCycle(context.Background()))
	assert.Equal(t, 1, success.runs)
	assert.Equal(t, 1, failure.runs)

	count, err := testutil.GatherAndCount(reg, "cron_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestServiceRunCycleSkipsWhenLocked(t *testing.T) {
	job := &testJob{name: "relationship-sync"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	lock := &LocalLock{}
	service := newTestService(t, ServiceParams{Registry: registry, Lock: lock})

	ctx := context.Background()
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, service.runCycle(ctx))
	assert.Equal(t, 0, job.runs)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, service.runCycle(ctx))
	assert.Equal(t, 1, job.runs)
}

func TestServiceRunCycleLockError(t *testing.T) {
	job := &testJob{name: "relationship-sync"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service := newTestService(t, ServiceParams{Registry: registry, Lock: failingLock{}})

	assert.Error(t, service.runCycle(context.Background()))
	assert.Equal(t, 0, job.runs)
}

func TestServiceJobTimeout(t *testing.T) {
	slow := &testJob{name: "slow", wait: true}
	after := &testJob{name: "after"}
	registry, err := NewRegistry(slow, after)
	require.NoError(t, err)
	service := newTestService(t, ServiceParams{Registry: registry, JobTimeout: 10 * time.Millisecond})

	require.NoError(t, service.runCycle(context.Background()))
	assert.Equal(t, 1, slow.runs)
	assert.Equal(t, 1, after.runs)
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "relationship-sync"}
	registry, err := NewRegistry(job)
	require.NoError(t, err)
	service := newTestService(t, ServiceParams{Registry: registry, Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, service.Run(ctx), context.Canceled)
	assert.Equal(t, 0, job.runs)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &LocalLock{}})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Logger: logger.New(logger.Options{ServiceName: "test"})})
	assert.Error(t, err)
}
