// Package scheduler runs a job once a day at a fixed local time with retries.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Job 定时执行的任务
type Job func(ctx context.Context) error

// Daily 每日定时任务
type Daily struct {
	Name          string
	Hour, Minute  int
	Retries       int
	RetryInterval time.Duration
	RunOnStartup  bool
	Log           zerolog.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// NewDaily 创建每日任务
func NewDaily(name string, hour, minute, retries int, retryInterval time.Duration, log zerolog.Logger) *Daily {
	return &Daily{
		Name:          name,
		Hour:          hour,
		Minute:        minute,
		Retries:       retries,
		RetryInterval: retryInterval,
		Log:           log,
	}
}

// NextRun 计算下一个执行时间
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Run 阻塞直到ctx取消
func (d *Daily) Run(ctx context.Context, job Job) error {
	if d.Hour < 0 || d.Hour > 23 || d.Minute < 0 || d.Minute > 59 {
		return fmt.Errorf("invalid run time %02d:%02d", d.Hour, d.Minute)
	}
	now, after := d.clock()

	if d.RunOnStartup {
		_ = d.runWithRetry(ctx, job)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := now()
		next := NextRun(t, d.Hour, d.Minute)
		wait := next.Sub(t)
		d.Log.Info().
			Str("job", d.Name).
			Str("next_run", next.Format("2006-01-02 15:04:05")).
			Dur("in", wait.Round(time.Minute)).
			Msg("下次执行时间")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(wait):
		}
		if err := d.runWithRetry(ctx, job); errors.Is(err, context.Canceled) {
			return err
		}
	}
}

func (d *Daily) clock() (func() time.Time, func(time.Duration) <-chan time.Time) {
	now, after := d.now, d.after
	if now == nil {
		now = time.Now
	}
	if after == nil {
		after = time.After
	}
	return now, after
}

func (d *Daily) runWithRetry(ctx context.Context, job Job) error {
	_, after := d.clock()
	return RunWithRetry(ctx, d.Name, d.Retries, d.RetryInterval, d.Log, after, job)
}

// RunWithRetry 执行任务，失败后按间隔重试maxRetry次
func RunWithRetry(ctx context.Context, name string, maxRetry int, interval time.Duration, log zerolog.Logger, after func(time.Duration) <-chan time.Time, job Job) error {
	if after == nil {
		after = time.After
	}
	var err error
	for i := 0; i <= maxRetry; i++ {
		if i > 0 {
			log.Info().Str("job", name).Int("retry", i).Msg("重试任务")
		} else {
			log.Info().Str("job", name).Msg("开始执行任务")
		}

		start := time.Now()
		if err = job(ctx); err == nil {
			log.Info().Str("job", name).Dur("duration", time.Since(start)).Msg("任务完成")
			return nil
		}
		log.Error().Err(err).Str("job", name).Msg("任务失败")

		if i < maxRetry {
			log.Info().Str("job", name).Dur("retry_in", interval).Msg("等待重试")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-after(interval):
			}
		}
	}
	log.Error().Str("job", name).Int("retries", maxRetry).Msg("任务失败，已达最大重试次数")
	return err
}
