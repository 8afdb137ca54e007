package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"agri-price-backend/internal/cache"
	"agri-price-backend/internal/config"
	"agri-price-backend/internal/handler"
	"agri-price-backend/internal/logger"
	"agri-price-backend/internal/metrics"
	"agri-price-backend/internal/middleware"
	"agri-price-backend/internal/scheduler"
	"agri-price-backend/internal/service"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "YAML配置文件")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("服务异常退出")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	gin.SetMode(cfg.Server.Mode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	synthOpts := []synth.Option{
		synth.WithEventProbability(cfg.Generator.EventProbability),
		synth.WithMaxDays(cfg.Generator.MaxDays),
		synth.WithLogger(log.With().Str("component", "synth").Logger()),
		synth.WithRecorder(rec),
	}
	if cfg.Generator.Seed != 0 {
		synthOpts = append(synthOpts, synth.WithSeed(cfg.Generator.Seed))
	}
	sy := synth.New(synthOpts...)

	svcOpts := []service.Option{
		service.WithLogger(log.With().Str("component", "service").Logger()),
		service.WithObserver(rec),
		service.WithPersister(service.FilePersister{
			JSONPath:   cfg.Data.JSONPath,
			SQLitePath: cfg.Data.SQLitePath,
			XLSXPath:   cfg.Data.XLSXPath,
		}),
	}
	provider, closeCache, err := newCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()
	if provider != nil {
		svcOpts = append(svcOpts, service.WithCache(provider, cfg.Cache.TTL))
	}
	svc := service.NewPriceService(store.NewMemoryRepository(nil), sy, svcOpts...)

	req := service.GenerateRequest{
		EndDate:   cfg.Generator.EndDate,
		Days:      cfg.Generator.Days,
		BaseIndex: cfg.Generator.BaseIndex,
	}
	if err := svc.Load(ctx, service.Source{
		Kind:       cfg.Data.Source,
		JSONPath:   cfg.Data.JSONPath,
		SQLitePath: cfg.Data.SQLitePath,
		Request:    req,
	}); err != nil {
		return err
	}

	adminCode := cfg.Auth.AdminCode
	if adminCode == "" {
		adminCode = handler.GenerateRandomCode(6)
		log.Warn().Str("admin_code", adminCode).Msg("未配置ADMIN_CODE，已生成临时管理员验证码")
	}
	auth := handler.NewAuthenticator(adminCode, cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	opts := handler.RouterOptions{
		Handler:      handler.New(svc, log.With().Str("component", "handler").Logger()),
		Auth:         auth,
		Limiter:      middleware.PerMinute(cfg.RateLimit.GeneratePerMinute, cfg.RateLimit.GenerateBurst),
		AllowOrigins: cfg.Server.AllowOrigins,
		Middlewares: []gin.HandlerFunc{
			middleware.Logger(log.With().Str("component", "http").Logger(), 0),
		},
	}
	if cfg.Metrics.Enabled {
		opts.Recorder = rec
		opts.Metrics = rec.Handler()
		opts.MetricsPath = cfg.Metrics.Path
	}
	router := handler.NewRouter(opts)

	if cfg.Scheduler.Enabled {
		hour, minute, _ := cfg.Scheduler.Clock()
		daily := scheduler.NewDaily("daily-generate", hour, minute, cfg.Scheduler.Retries, cfg.Scheduler.RetryInterval,
			log.With().Str("component", "scheduler").Logger())
		go func() {
			_ = daily.Run(ctx, func(ctx context.Context) error {
				// 每日生成以当天为结束日期
				today := req
				today.EndDate = ""
				_, err := svc.Generate(ctx, today)
				return err
			})
		}()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("服务启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("启动服务失败: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("正在关闭服务")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Provider, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		rc := cfg.Cache.Redis
		client, err := cache.NewRedisClient(ctx, rc.Addr, rc.Password, rc.DB)
		if err != nil {
			return nil, func() {}, err
		}
		log.Info().Str("addr", rc.Addr).Msg("Redis连接成功")
		return cache.NewRedisProvider(client, rc.Prefix), func() { _ = client.Close() }, nil
	case "none":
		return nil, func() {}, nil
	default:
		return cache.NewMemoryProvider(), func() {}, nil
	}
}
