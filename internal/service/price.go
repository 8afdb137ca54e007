// Package service serves the generated series to the HTTP layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"agri-price-backend/internal/analysis"
	"agri-price-backend/internal/cache"
	"agri-price-backend/internal/model"
	"agri-price-backend/internal/stats"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/rs/zerolog"
)

var (
	// ErrInsufficientHistory 历史数据不足，无法预测
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUnknownProduct 产品不存在
	ErrUnknownProduct = fmt.Errorf("unknown product: %w", store.ErrNotFound)
)

const (
	DefaultPage      = 1
	DefaultLimit     = 20
	MaxLimit         = 100
	DefaultRankLimit = 20

	// predictionHistory 预测使用的最近记录数
	predictionHistory = 60
	// minPredictionHistory 最少历史记录数
	minPredictionHistory = 10
)

// Observer receives dataset and failure signals. *metrics.Recorder satisfies it.
type Observer interface {
	RecordFailure(stage string)
	RecordSeries(days int, latestIndex float64)
}

type nopObserver struct{}

func (nopObserver) RecordFailure(string)      {}
func (nopObserver) RecordSeries(int, float64) {}

// PriceService 价格数据服务
type PriceService struct {
	repo     *store.MemoryRepository
	cache    cache.Provider
	cacheTTL time.Duration
	synth    *synth.Synthesizer
	catalog  []model.ProductSpec
	persist  Persister
	observer Observer
	log      zerolog.Logger
	now      func() time.Time

	// version 每次替换数据后递增，作为缓存键前缀
	version atomic.Uint64
	started time.Time
	genMu   sync.Mutex
}

// Option configures a PriceService.
type Option func(*PriceService)

func WithCache(p cache.Provider, ttl time.Duration) Option {
	return func(s *PriceService) {
		s.cache = p
		s.cacheTTL = ttl
	}
}

func WithPersister(p Persister) Option {
	return func(s *PriceService) { s.persist = p }
}

func WithObserver(o Observer) Option {
	return func(s *PriceService) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *PriceService) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *PriceService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithCatalog(c []model.ProductSpec) Option {
	return func(s *PriceService) {
		if len(c) > 0 {
			s.catalog = c
		}
	}
}

func NewPriceService(repo *store.MemoryRepository, sy *synth.Synthesizer, opts ...Option) *PriceService {
	s := &PriceService{
		repo:     repo,
		synth:    sy,
		catalog:  model.DefaultCatalog,
		persist:  NopPersister{},
		observer: nopObserver{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()
	return s
}

// Health 健康检查信息
type Health struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Records   int     `json:"records"`
}

func (s *PriceService) Health() Health {
	now := s.now()
	return Health{
		Status:    "ok",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(s.started).Seconds(),
		Records:   s.repo.Count(),
	}
}

// Replace 替换数据集并使缓存失效
func (s *PriceService) Replace(ctx context.Context, records []model.DayRecord) {
	s.repo.Replace(records)
	s.version.Add(1)
	if s.cache != nil {
		if err := s.cache.Flush(ctx); err != nil {
			s.log.Warn().Err(err).Msg("清理缓存失败")
		}
	}
	var latest float64
	if newest := s.repo.Latest(1); len(newest) > 0 {
		latest = newest[0].IndexValue
	}
	s.observer.RecordSeries(s.repo.Count(), latest)
}

// Latest 获取最新价格数据
func (s *PriceService) Latest(limit int) []model.DayRecord {
	if limit <= 0 {
		limit = 1
	}
	return s.repo.Latest(min(limit, MaxLimit))
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// List 分页获取价格列表，按日期倒序
func (s *PriceService) List(page, limit int) ([]model.DayRecord, Pagination) {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)
	total := s.repo.Count()
	return s.repo.Page(page, limit), Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

// ByDate 获取指定日期的价格
func (s *PriceService) ByDate(date string) (model.DayRecord, error) {
	if _, err := synth.ParseDate(date); err != nil {
		return model.DayRecord{}, err
	}
	return s.repo.ByDate(date)
}

// Range 获取日期范围内的价格，闭区间
func (s *PriceService) Range(start, end string) ([]model.DayRecord, error) {
	startDate, err := synth.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endDate, err := synth.ParseDate(end)
	if err != nil {
		return nil, err
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: end date %s before start date %s", synth.ErrInvalidArgument, end, start)
	}
	return s.repo.Range(start, end), nil
}

const (
	RankIncrease = "increase"
	RankDecrease = "decrease"
)

// Ranking 最近days天按涨跌点数排序
func (s *PriceService) Ranking(kind string, limit, days int) []model.DayRecord {
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	if days <= 0 {
		days = 30
	}
	latest := s.repo.Latest(1)
	if len(latest) == 0 {
		return []model.DayRecord{}
	}
	end, err := time.Parse(model.DateLayout, latest[0].Date)
	if err != nil {
		return []model.DayRecord{}
	}
	start := end.AddDate(0, 0, -days).Format(model.DateLayout)

	recs := s.repo.Range(start, latest[0].Date)
	slices.SortStableFunc(recs, func(a, b model.DayRecord) int {
		ca, cb := a.ChangeValue(), b.ChangeValue()
		if kind == RankDecrease {
			ca, cb = cb, ca
		}
		switch {
		case ca > cb:
			return -1
		case ca < cb:
			return 1
		}
		return 0
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// TrendPoint 产品价格趋势点
type TrendPoint struct {
	Date          string  `json:"date"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// ProductTrend 特定产品最近days天的价格趋势，按日期升序
func (s *PriceService) ProductTrend(key string, days int) ([]TrendPoint, error) {
	key = strings.TrimSpace(key)
	if !slices.ContainsFunc(s.catalog, func(p model.ProductSpec) bool { return p.Key == key }) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, key)
	}
	if days <= 0 {
		days = 30
	}
	recent := s.repo.Latest(days)
	out := make([]TrendPoint, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		p := recent[i].Products[key]
		out = append(out, TrendPoint{Date: recent[i].Date, Price: p.Price, ChangePercent: p.ChangePercent})
	}
	return out, nil
}

// recent 最近days条记录，按日期升序
func (s *PriceService) recent(days int) []model.DayRecord {
	return stats.Tail(s.repo.All(), days)
}

// Overview 概览统计
func (s *PriceService) Overview(ctx context.Context) (stats.Overview, error) {
	return cached(ctx, s, "statistics:overview", func() (stats.Overview, error) {
		return stats.ComputeOverview(s.repo.All()), nil
	})
}

// ProductStats 产品价格统计
func (s *PriceService) ProductStats(ctx context.Context, days int) (map[string]stats.ProductStat, error) {
	if days <= 0 {
		days = 30
	}
	return cached(ctx, s, fmt.Sprintf("statistics:products:%d", days), func() (map[string]stats.ProductStat, error) {
		return stats.ComputeProductStats(s.repo.All(), s.catalog, days), nil
	})
}

// Monthly 月度统计
func (s *PriceService) Monthly(ctx context.Context) ([]stats.MonthlyStat, error) {
	return cached(ctx, s, "statistics:monthly", func() ([]stats.MonthlyStat, error) {
		return stats.ComputeMonthly(s.repo.All()), nil
	})
}

// ChangeStats 涨跌统计
func (s *PriceService) ChangeStats(ctx context.Context, days int) (stats.ChangeDistribution, error) {
	if days <= 0 {
		days = 90
	}
	return cached(ctx, s, fmt.Sprintf("statistics:change:%d", days), func() (stats.ChangeDistribution, error) {
		return stats.ComputeChangeDistribution(s.repo.All(), days), nil
	})
}

// Predict 价格预测，使用最近60条记录
func (s *PriceService) Predict(ctx context.Context, days int, method string) (*analysis.Prediction, error) {
	if days <= 0 {
		days = analysis.DefaultForecastDays
	}
	if method == "" {
		method = analysis.MethodMovingAverage
	}
	if method != analysis.MethodMovingAverage && method != analysis.MethodLinear {
		return nil, fmt.Errorf("%w: unknown method %q", synth.ErrInvalidArgument, method)
	}
	if days > analysis.MaxForecastDays {
		return nil, fmt.Errorf("%w: days %d exceeds %d", synth.ErrInvalidArgument, days, analysis.MaxForecastDays)
	}
	history := s.recent(predictionHistory)
	if len(history) < minPredictionHistory {
		return nil, ErrInsufficientHistory
	}
	return cached(ctx, s, fmt.Sprintf("analysis:prediction:%s:%d", method, days), func() (*analysis.Prediction, error) {
		return analysis.Predict(history, days, method)
	})
}

// MovingAverage 移动平均线
func (s *PriceService) MovingAverage(ctx context.Context, days int, periods []int) (analysis.MovingAverageResult, error) {
	if days <= 0 {
		days = 90
	}
	for _, p := range periods {
		if p <= 0 {
			return analysis.MovingAverageResult{}, fmt.Errorf("%w: period %d", synth.ErrInvalidArgument, p)
		}
	}
	key := fmt.Sprintf("analysis:ma:%d:%v", days, periods)
	return cached(ctx, s, key, func() (analysis.MovingAverageResult, error) {
		return analysis.MovingAverage(s.recent(days), periods), nil
	})
}

// Trend 趋势分析
func (s *PriceService) Trend(ctx context.Context, days int) (analysis.TrendResult, error) {
	if days <= 0 {
		days = 365
	}
	return cached(ctx, s, fmt.Sprintf("analysis:trend:%d", days), func() (analysis.TrendResult, error) {
		return analysis.AnalyzeTrend(s.recent(days)), nil
	})
}

// Correlation 产品间价格相关性
func (s *PriceService) Correlation(ctx context.Context, days int) (analysis.CorrelationResult, error) {
	if days <= 0 {
		days = 90
	}
	return cached(ctx, s, fmt.Sprintf("analysis:correlation:%d", days), func() (analysis.CorrelationResult, error) {
		return analysis.AnalyzeCorrelation(s.recent(days), analysis.CorrelationProducts), nil
	})
}

// Indicators 指数技术指标（MA/MACD/RSI/BOLL）
func (s *PriceService) Indicators(ctx context.Context, days int) (*analysis.Indicators, error) {
	if days <= 0 {
		days = 120
	}
	if s.repo.Count() == 0 {
		return nil, ErrInsufficientHistory
	}
	return cached(ctx, s, fmt.Sprintf("analysis:indicators:%d", days), func() (*analysis.Indicators, error) {
		return analysis.ComputeIndicators(s.recent(days))
	})
}

// Seasonality 季节性分析
func (s *PriceService) Seasonality(ctx context.Context) (analysis.SeasonalityResult, error) {
	return cached(ctx, s, "analysis:seasonality", func() (analysis.SeasonalityResult, error) {
		return analysis.AnalyzeSeasonality(s.repo.All()), nil
	})
}

// Records 当前数据集，按日期升序
func (s *PriceService) Records() []model.DayRecord {
	return s.repo.All()
}

func (s *PriceService) Catalog() []model.ProductSpec {
	return s.catalog
}

func cached[T any](ctx context.Context, s *PriceService, key string, compute func() (T, error)) (T, error) {
	if s.cache == nil {
		return compute()
	}
	fullKey := fmt.Sprintf("v%d:%s", s.version.Load(), key)

	var out T
	err := s.cache.Get(ctx, fullKey, &out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Str("key", fullKey).Msg("读取缓存失败")
	}

	out, err = compute()
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, fullKey, out, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("key", fullKey).Msg("写入缓存失败")
	}
	return out, nil
}
