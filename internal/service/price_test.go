package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"agri-price-backend/internal/analysis"
	"agri-price-backend/internal/cache"
	"agri-price-backend/internal/model"
	"agri-price-backend/internal/store"
	"agri-price-backend/internal/synth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 10, 24, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, days int, opts ...Option) *PriceService {
	t.Helper()
	sy := synth.New(synth.WithSeed(42))
	recs, err := sy.Synthesize(fixedNow, days, synth.DefaultBaseIndex)
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPriceService(store.NewMemoryRepository(recs), sy, opts...)
}

type countingCache struct {
	*cache.MemoryProvider
	mu   sync.Mutex
	sets int
}

func (c *countingCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.MemoryProvider.Set(ctx, key, value, ttl)
}

type recordingObserver struct {
	failures []string
	days     int
	latest   float64
}

func (o *recordingObserver) RecordFailure(stage string) { o.failures = append(o.failures, stage) }
func (o *recordingObserver) RecordSeries(days int, latest float64) {
	o.days, o.latest = days, latest
}

type failingPersister struct{}

func (failingPersister) Persist(context.Context, []model.DayRecord, time.Time) error {
	return errors.New("disk full")
}

func TestLatestAndList(t *testing.T) {
	s := newTestService(t, 45)

	latest := s.Latest(0)
	require.Len(t, latest, 1)
	assert.Equal(t, "2024-10-24", latest[0].Date)
	assert.Len(t, s.Latest(500), 45)

	recs, p := s.List(3, 20)
	assert.Len(t, recs, 5)
	assert.Equal(t, Pagination{Page: 3, Limit: 20, Total: 45, TotalPages: 3}, p)

	_, p = s.List(0, 1000)
	assert.Equal(t, MaxLimit, p.Limit)
}

func TestByDateAndRange(t *testing.T) {
	s := newTestService(t, 30)

	rec, err := s.ByDate("2024-10-20")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-20", rec.Date)

	_, err = s.ByDate("2020-01-01")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.ByDate("20241020")
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)

	rng, err := s.Range("2024-10-20", "2024-10-22")
	require.NoError(t, err)
	assert.Len(t, rng, 3)

	_, err = s.Range("2024-10-22", "2024-10-20")
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)
}

func TestRanking(t *testing.T) {
	s := newTestService(t, 90)

	inc := s.Ranking(RankIncrease, 5, 30)
	require.Len(t, inc, 5)
	for i := 1; i < len(inc); i++ {
		assert.GreaterOrEqual(t, inc[i-1].ChangeValue(), inc[i].ChangeValue())
	}
	for _, r := range inc {
		assert.GreaterOrEqual(t, r.Date, "2024-09-24")
	}

	dec := s.Ranking(RankDecrease, 5, 30)
	for i := 1; i < len(dec); i++ {
		assert.LessOrEqual(t, dec[i-1].ChangeValue(), dec[i].ChangeValue())
	}
}

func TestProductTrend(t *testing.T) {
	s := newTestService(t, 40)

	pts, err := s.ProductTrend("pork", 10)
	require.NoError(t, err)
	require.Len(t, pts, 10)
	assert.Equal(t, "2024-10-15", pts[0].Date)
	assert.Equal(t, "2024-10-24", pts[9].Date)
	assert.Positive(t, pts[9].Price)

	_, err = s.ProductTrend("durian", 10)
	assert.ErrorIs(t, err, ErrUnknownProduct)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStatistics_CachedUntilReplace(t *testing.T) {
	c := &countingCache{MemoryProvider: cache.NewMemoryProvider()}
	s := newTestService(t, 60, WithCache(c, time.Minute))
	ctx := context.Background()

	first, err := s.Overview(ctx)
	require.NoError(t, err)
	second, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.sets)

	s.Replace(ctx, s.Records()[:10])
	third, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, third.TotalRecords)
	assert.Equal(t, 2, c.sets)
}

func TestAnalysisEndpoints(t *testing.T) {
	s := newTestService(t, 120, WithCache(cache.NewMemoryProvider(), time.Minute))
	ctx := context.Background()

	pred, err := s.Predict(ctx, 7, "")
	require.NoError(t, err)
	assert.Len(t, pred.Predictions, 7)
	assert.Equal(t, "2024-10-25", pred.Predictions[0].Date)

	_, err = s.Predict(ctx, 7, "arima")
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)

	ma, err := s.MovingAverage(ctx, 60, []int{5, 10})
	require.NoError(t, err)
	assert.Equal(t, 60, ma.Count)

	_, err = s.MovingAverage(ctx, 60, []int{0})
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)

	_, err = s.Trend(ctx, 0)
	require.NoError(t, err)
	_, err = s.Correlation(ctx, 0)
	require.NoError(t, err)
	_, err = s.Seasonality(ctx)
	require.NoError(t, err)
	ind, err := s.Indicators(ctx, 60)
	require.NoError(t, err)
	assert.Equal(t, s.Records()[len(s.Records())-1].Date, ind.Date)
}

func TestPredict_InsufficientHistory(t *testing.T) {
	s := newTestService(t, 9)
	_, err := s.Predict(context.Background(), 7, analysis.MethodLinear)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestGenerate_ReplacesAndPersists(t *testing.T) {
	dir := t.TempDir()
	obs := &recordingObserver{}
	s := newTestService(t, 10,
		WithPersister(FilePersister{
			JSONPath:   filepath.Join(dir, store.DefaultJSONFileName),
			SQLitePath: dir,
		}),
		WithObserver(obs),
	)

	res, err := s.Generate(context.Background(), GenerateRequest{EndDate: "2024-06-30", Days: 30, BaseIndex: 110})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Total)
	assert.Equal(t, "2024-06-01", res.Start)
	assert.Equal(t, "2024-06-30", res.End)
	assert.Equal(t, 30, s.repo.Count())
	assert.Equal(t, 30, obs.days)

	ds, err := store.ReadJSON(filepath.Join(dir, store.DefaultJSONFileName))
	require.NoError(t, err)
	assert.Equal(t, s.Records(), ds.Data)

	fromDB, err := store.LoadSQLite(dir)
	require.NoError(t, err)
	assert.Len(t, fromDB, 30)
}

func TestGenerate_Defaults(t *testing.T) {
	s := newTestService(t, 1)
	res, err := s.Generate(context.Background(), GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, synth.DefaultDayCount, res.Total)
	assert.Equal(t, "2024-10-24", res.End)
}

func TestGenerate_Errors(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestService(t, 5, WithObserver(obs))

	_, err := s.Generate(context.Background(), GenerateRequest{Days: -1})
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)

	_, err = s.Generate(context.Background(), GenerateRequest{EndDate: "tomorrow"})
	assert.ErrorIs(t, err, synth.ErrInvalidArgument)

	s.persist = failingPersister{}
	_, err = s.Generate(context.Background(), GenerateRequest{Days: 3})
	assert.Error(t, err)
	assert.Equal(t, 5, s.repo.Count(), "failed persist must not swap data")
	assert.Equal(t, []string{"synthesize", "persist"}, obs.failures)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	src := newTestService(t, 12)
	require.NoError(t, store.WriteJSON(path, src.Records(), fixedNow))

	s := NewPriceService(store.NewMemoryRepository(nil), synth.New(synth.WithSeed(1)))
	require.NoError(t, s.Load(context.Background(), Source{Kind: "json", JSONPath: path}))
	assert.Equal(t, 12, s.repo.Count())

	// missing file falls back to generation
	s2 := NewPriceService(store.NewMemoryRepository(nil), synth.New(synth.WithSeed(1)),
		WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s2.Load(context.Background(), Source{
		Kind:     "json",
		JSONPath: filepath.Join(dir, "missing.json"),
		Request:  GenerateRequest{Days: 20},
	}))
	assert.Equal(t, 20, s2.repo.Count())
}

func TestHealth(t *testing.T) {
	s := newTestService(t, 3)
	h := s.Health()
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 3, h.Records)
}
