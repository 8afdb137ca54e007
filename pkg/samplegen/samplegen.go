// Package samplegen is the command-line generator for the mock price dataset.
package samplegen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agri-price-backend/internal/config"
	"agri-price-backend/internal/export"
	"agri-price-backend/internal/logger"
	"agri-price-backend/internal/model"
	"agri-price-backend/internal/scheduler"
	"agri-price-backend/internal/stats"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type Options struct {
	ConfigPath       string
	EndDate          string
	Days             int
	MaxDays          int
	BaseIndex        float64
	Seed             uint64
	EventProbability float64
	OutputPath       string
	SQLitePath       string
	XLSXPath         string
	Daemon           bool
	RunAt            string
	RunOnStartup     bool
	RetryCount       int
	RetryInterval    time.Duration
}

// Execute 解析参数并运行
func Execute(ctx context.Context, args []string) error {
	cmd := NewCommand()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// NewCommand 构造sample-gen根命令
func NewCommand() *cobra.Command {
	var opts Options
	cmd := &cobra.Command{
		Use:           "sample-gen",
		Short:         "生成农产品批发价格模拟数据",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			opts = mergeConfig(cmd, opts, cfg)

			log, closer, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer closer.Close()
			log = log.With().Str("component", "sample-gen").Logger()

			if opts.Daemon {
				log.Info().
					Str("output", opts.OutputPath).
					Str("time", opts.RunAt).
					Bool("on_startup", opts.RunOnStartup).
					Msg("daemon mode")
				return RunDailyDaemon(cmd.Context(), opts, log)
			}

			_, err = GenerateOnce(cmd.Context(), opts, log)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "YAML配置文件")
	f.StringVar(&opts.EndDate, "end-date", "", "结束日期 YYYY-MM-DD，为空时使用配置或今天")
	f.IntVar(&opts.Days, "days", synth.DefaultDayCount, "生成天数")
	f.IntVar(&opts.MaxDays, "max-days", synth.DefaultMaxDays, "生成天数上限")
	f.Float64Var(&opts.BaseIndex, "base-index", synth.DefaultBaseIndex, "基准指数")
	f.Uint64Var(&opts.Seed, "seed", 0, "随机种子，0表示按时间")
	f.Float64Var(&opts.EventProbability, "event-probability", 0.05, "每日随机事件概率")
	f.StringVarP(&opts.OutputPath, "output", "o", "", "JSON输出路径")
	f.StringVar(&opts.SQLitePath, "sqlite", "", "同时写入SQLite（文件或目录）")
	f.StringVar(&opts.XLSXPath, "xlsx", "", "同时导出Excel")
	f.BoolVar(&opts.Daemon, "daemon", false, "每日定时生成")
	f.StringVar(&opts.RunAt, "time", "", "定时生成时间 HH:MM")
	f.BoolVar(&opts.RunOnStartup, "on-startup", false, "守护模式启动时先生成一次")
	f.IntVar(&opts.RetryCount, "retries", 0, "失败重试次数")
	f.DurationVar(&opts.RetryInterval, "retry-interval", 0, "重试间隔")
	return cmd
}

// mergeConfig 未显式指定的参数取配置值
func mergeConfig(cmd *cobra.Command, opts Options, cfg *config.Config) Options {
	changed := cmd.Flags().Changed
	if !changed("end-date") {
		opts.EndDate = cfg.Generator.EndDate
	}
	if !changed("days") {
		opts.Days = cfg.Generator.Days
	}
	if !changed("max-days") {
		opts.MaxDays = cfg.Generator.MaxDays
	}
	if !changed("base-index") {
		opts.BaseIndex = cfg.Generator.BaseIndex
	}
	if !changed("seed") {
		opts.Seed = cfg.Generator.Seed
	}
	if !changed("event-probability") {
		opts.EventProbability = cfg.Generator.EventProbability
	}
	if strings.TrimSpace(opts.OutputPath) == "" {
		opts.OutputPath = cfg.Data.JSONPath
	}
	if opts.SQLitePath == "" {
		opts.SQLitePath = cfg.Data.SQLitePath
	}
	if opts.XLSXPath == "" {
		opts.XLSXPath = cfg.Data.XLSXPath
	}
	if opts.RunAt == "" {
		opts.RunAt = cfg.Scheduler.Time
	}
	if !changed("retries") {
		opts.RetryCount = cfg.Scheduler.Retries
	}
	if !changed("retry-interval") {
		opts.RetryInterval = cfg.Scheduler.RetryInterval
	}
	return opts
}

// GenerateOnce 生成一次：合成、写文件、输出摘要
func GenerateOnce(ctx context.Context, opts Options, log zerolog.Logger) (*stats.Summary, error) {
	end := time.Now()
	if strings.TrimSpace(opts.EndDate) != "" {
		d, err := synth.ParseDate(opts.EndDate)
		if err != nil {
			return nil, err
		}
		end = d
	}
	if opts.OutputPath == "" {
		opts.OutputPath = store.DefaultJSONFileName
	}

	synthOpts := []synth.Option{
		synth.WithEventProbability(opts.EventProbability),
		synth.WithLogger(log),
	}
	if opts.MaxDays > 0 {
		synthOpts = append(synthOpts, synth.WithMaxDays(opts.MaxDays))
	}
	if opts.Seed != 0 {
		synthOpts = append(synthOpts, synth.WithSeed(opts.Seed))
	}
	s := synth.New(synthOpts...)

	log.Info().
		Str("end_date", end.Format(model.DateLayout)).
		Int("days", opts.Days).
		Float64("base_index", opts.BaseIndex).
		Uint64("seed", opts.Seed).
		Msg("开始生成农产品价格模拟数据")

	records, err := s.Synthesize(end, opts.Days, opts.BaseIndex)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := store.WriteJSON(opts.OutputPath, records, time.Now()); err != nil {
		return nil, err
	}
	log.Info().Str("path", opts.OutputPath).Int("records", len(records)).Msg("数据已保存")

	if opts.SQLitePath != "" {
		if err := store.Rebuild(opts.SQLitePath, records); err != nil {
			return nil, fmt.Errorf("写入SQLite失败: %w", err)
		}
		log.Info().Str("path", store.ResolveDBPath(opts.SQLitePath)).Msg("SQLite已更新")
	}
	if opts.XLSXPath != "" {
		if err := export.WriteFile(opts.XLSXPath, records, model.DefaultCatalog); err != nil {
			return nil, fmt.Errorf("导出Excel失败: %w", err)
		}
		log.Info().Str("path", opts.XLSXPath).Msg("Excel已导出")
	}

	sum := stats.Summarize(records, model.DefaultCatalog)
	logSummary(log, sum)
	return &sum, nil
}

// RunDailyDaemon 每日定时生成，结束日期为当天
func RunDailyDaemon(ctx context.Context, opts Options, log zerolog.Logger) error {
	hour, minute, err := config.SchedulerConfig{Time: opts.RunAt}.Clock()
	if err != nil {
		return err
	}
	daily := scheduler.NewDaily("sample-gen", hour, minute, opts.RetryCount, opts.RetryInterval, log)
	daily.RunOnStartup = opts.RunOnStartup

	err = daily.Run(ctx, func(ctx context.Context) error {
		run := opts
		run.EndDate = ""
		_, err := GenerateOnce(ctx, run, log)
		return err
	})
	if ctx.Err() != nil {
		log.Info().Msg("daemon stopped")
		return nil
	}
	return err
}

func logSummary(log zerolog.Logger, sum stats.Summary) {
	log.Info().
		Int("total", sum.Total).
		Str("start", sum.Start).
		Str("end", sum.End).
		Float64("index_start", sum.IndexStart).
		Float64("index_end", sum.IndexEnd).
		Float64("index_high", sum.IndexHigh).
		Float64("index_low", sum.IndexLow).
		Float64("growth_percent", sum.GrowthPercent).
		Msg("价格指数统计")
	log.Info().
		Int("up_days", sum.UpDays).
		Int("down_days", sum.DownDays).
		Float64("up_rate", sum.UpRate).
		Float64("max_change", sum.MaxChange).
		Float64("min_change", sum.MinChange).
		Float64("avg_change", sum.AvgChange).
		Msg("涨跌统计")
	for _, p := range sum.Products {
		log.Info().
			Str("product", p.Name).
			Float64("min", p.Min).
			Float64("max", p.Max).
			Str("unit", p.Unit).
			Msg("产品价格范围")
	}
	for _, r := range sum.Recent {
		log.Debug().
			Str("date", r.Date).
			Float64("index_value", r.IndexValue).
			Float64("change", r.ChangeValue()).
			Str("event", r.Event).
			Msg("最近数据")
	}
}
