// Package jobs 负责注册业务定时任务（基于 scheduler）.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yeisme/receiptvault/pkg/configs"
	"github.com/yeisme/receiptvault/pkg/internal/service"
	"github.com/yeisme/receiptvault/pkg/log"
)

// Scheduler 定时任务注册所需的最小接口.
type Scheduler interface {
	AddInterval(name string, every time.Duration, job func(ctx context.Context), ctx context.Context) error
}

// RegisterJobs 配置业务定时任务：按配置间隔扫描监听目录并导入新文件.
// 扫描被单飞标志保护，定时触发与手动触发不会并发重叠.
func RegisterJobs(sched Scheduler, watcher *service.Watcher, cfg *configs.AppConfig) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	if watcher == nil {
		return fmt.Errorf("watcher is nil")
	}

	if !cfg.Watch.Enabled {
		log.Logger().Info().Msg("watch scanning disabled by config")

		return nil
	}

	interval := cfg.Watch.GetInterval()
	watcher.SetNextScan(time.Now().Add(interval))

	return sched.AddInterval(JobWatchScan, interval, func(ctx context.Context) {
		runWatchScan(ctx, watcher, interval)
	}, context.Background())
}

// runWatchScan 执行一次定时扫描并登记下次计划时间.
func runWatchScan(ctx context.Context, watcher *service.Watcher, interval time.Duration) {
	l := log.Logger().With().Str("job", JobWatchScan).Logger()

	defer watcher.SetNextScan(time.Now().Add(interval))

	res, err := watcher.Scan(ctx)
	if err != nil {
		// 手动触发的扫描还在跑，本轮直接让行
		if errors.Is(err, service.ErrScanInProgress) {
			l.Info().Msg("scan already running, skipping this tick")

			return
		}

		l.Error().Err(err).Msg("scheduled scan failed")

		return
	}

	if res.CreatedReceipts > 0 || len(res.Errors) > 0 {
		l.Info().
			Int("receipts", res.CreatedReceipts).
			Int("files", res.StoredFiles).
			Int("errors", len(res.Errors)).
			Msg("scheduled scan imported files")
	}
}
