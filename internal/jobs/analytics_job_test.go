package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	calls atomic.Int32
	err   error
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("refresh must run with a deadline")
	}
	return 2, f.err
}

func TestNewAnalyticsJobRejectsInvalidSpec(t *testing.T) {
	_, err := NewAnalyticsJob(&fakeRefresher{}, "not a schedule")
	assert.Error(t, err)
}

func TestAnalyticsJobRun(t *testing.T) {
	r := &fakeRefresher{}
	job, err := NewAnalyticsJob(r, "")
	require.NoError(t, err)

	job.Run()
	assert.Equal(t, int32(1), r.calls.Load())

	r.err = errors.New("quiz 3: boom")
	job.Run()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestAnalyticsJobSchedule(t *testing.T) {
	r := &fakeRefresher{}
	job, err := NewAnalyticsJob(r, "@every 1s")
	require.NoError(t, err)

	job.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	job.Stop(ctx)
}
