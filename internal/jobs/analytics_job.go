package jobs

import (
	"context"
	"learning_cloud_backend/pkg/logger"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// AnalyticsRefresher 刷新全部测验统计快照
type AnalyticsRefresher interface {
	RefreshAll(ctx context.Context) (int, error)
}

type AnalyticsJob struct {
	cron      *cron.Cron
	refresher AnalyticsRefresher
	timeout   time.Duration
}

// NewAnalyticsJob spec 为空时不注册任务
func NewAnalyticsJob(refresher AnalyticsRefresher, spec string) (*AnalyticsJob, error) {
	job := &AnalyticsJob{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresher: refresher,
		timeout:   5 * time.Minute,
	}
	if spec == "" {
		return job, nil
	}
	if _, err := job.cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}
	return job, nil
}

func (j *AnalyticsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	n, err := j.refresher.RefreshAll(ctx)
	if err != nil {
		logger.Log.Error("Quiz analytics refresh finished with errors", zap.Int("refreshed", n), zap.Error(err))
		return
	}
	logger.Log.Info("Quiz analytics refreshed", zap.Int("refreshed", n), zap.Duration("took", time.Since(start)))
}

func (j *AnalyticsJob) Start() {
	j.cron.Start()
}

// Stop 等待正在执行的任务结束
func (j *AnalyticsJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
