package synth_test

import (
	"errors"
	"math"
	"regexp"
	"sync"
	"testing"
	"time"

	"agri-price-backend/internal/model"
	"agri-price-backend/internal/synth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 0.01

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := synth.ParseDate(s)
	require.NoError(t, err)
	return d
}

// midRand returns the midpoint for every draw: no events, zero noise.
type midRand struct{}

func (midRand) Float64() float64 { return 0.5 }
func (midRand) IntN(int) int     { return 0 }

type countingRecorder struct {
	mu   sync.Mutex
	runs []synth.RunStats
}

func (r *countingRecorder) RecordRun(s synth.RunStats) {
	r.mu.Lock()
	r.runs = append(r.runs, s)
	r.mu.Unlock()
}

func TestSynthesizeSingleDay(t *testing.T) {
	s := synth.New(synth.WithSeed(1))
	records, err := s.Synthesize(mustDate(t, "2024-10-24"), 1, 120.0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "2024-10-24", rec.Date)
	assert.GreaterOrEqual(t, rec.IndexValue, 120.0*0.97)
	assert.LessOrEqual(t, rec.IndexValue, 120.0*1.03)
	require.NotNil(t, rec.Change)
	assert.InDelta(t, rec.IndexValue-120.0, *rec.Change, 1e-9)
	assert.Equal(t, "昨天", rec.CompareBase)
	assert.Len(t, rec.Products, 9)
}

func TestSynthesizeYearWindow(t *testing.T) {
	s := synth.New(synth.WithSeed(2024))
	records, err := s.Synthesize(mustDate(t, "2024-10-24"), 365, synth.DefaultBaseIndex)
	require.NoError(t, err)
	require.Len(t, records, 365)

	assert.Equal(t, "2023-10-26", records[0].Date) // 窗口含2024-02-29
	assert.Equal(t, "2024-10-24", records[364].Date)

	seen := map[string]bool{}
	for i, rec := range records {
		require.False(t, seen[rec.Date], "duplicate date %s", rec.Date)
		seen[rec.Date] = true
		if i == 0 {
			continue
		}
		prev, err := time.Parse(model.DateLayout, records[i-1].Date)
		require.NoError(t, err)
		assert.Equal(t, prev.AddDate(0, 0, 1).Format(model.DateLayout), rec.Date, "gap before %s", rec.Date)
	}
}

func TestSynthesizeInvariants(t *testing.T) {
	for _, seed := range []uint64{1, 7, 42, 99, 12345} {
		s := synth.New(synth.WithSeed(seed), synth.WithEventProbability(0.3))
		records, err := s.Synthesize(mustDate(t, "2024-10-24"), 400, 120.0)
		require.NoError(t, err)

		for i, rec := range records {
			require.Positive(t, rec.IndexValue)
			assert.Equal(t, model.Round(rec.IndexValue*synth.BasketMarkup, 2), rec.BasketIndex, rec.Date)

			// the recurrence predecessor is the chronologically next record
			prev := 120.0
			if i+1 < len(records) {
				prev = records[i+1].IndexValue
			}
			require.NotNil(t, rec.Change)
			assert.LessOrEqual(t, math.Abs(*rec.Change), synth.MaxDailyChange*prev+eps, rec.Date)
			assert.InDelta(t, rec.IndexValue-prev, *rec.Change, 1e-6, rec.Date)

			require.Len(t, rec.Products, len(model.DefaultCatalog))
			for key, p := range rec.Products {
				assert.LessOrEqual(t, math.Abs(p.ChangePercent), 5.0+1e-9, "%s %s", rec.Date, key)
				assert.Positive(t, p.Price)
				assert.Equal(t, model.Unit, p.Unit)
			}
			if rec.Event != "" {
				assert.Contains(t, []string{"利好政策", "不利天气"}, rec.Event)
			}
		}
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	end := mustDate(t, "2024-10-24")
	a, err := synth.New(synth.WithSeed(42)).Synthesize(end, 120, 120.0)
	require.NoError(t, err)
	b, err := synth.New(synth.WithSeed(42)).Synthesize(end, 120, 120.0)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := synth.New(synth.WithSeed(43)).Synthesize(end, 120, 120.0)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSynthesizeMidpointRecurrence(t *testing.T) {
	s := synth.New(synth.WithRand(midRand{}))
	records, err := s.Synthesize(mustDate(t, "2024-10-24"), 2, 120.0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// 2024-10-24 is a Thursday in October at walk step 0: every factor is neutral.
	newest := records[1]
	assert.Equal(t, "2024-10-24", newest.Date)
	assert.Equal(t, 120.0, newest.IndexValue)
	assert.Equal(t, 0.0, *newest.Change)
	assert.Equal(t, 11.2, newest.Products["egg"].Price)
	assert.Equal(t, 0.0, newest.Products["egg"].ChangePercent)
	assert.Empty(t, newest.Event)
	assert.Equal(t, "10月24日：\"农产品批发价格200指数\"比昨天上升0.00个点", newest.Title)
	assert.Equal(t, "https://www.agri.cn/V20/ZX/nyyw/2024/10/t20241024_10000000.htm", newest.URL)

	// One step back the trend factor is 1.02, so the older day sits higher.
	older := records[0]
	assert.Equal(t, "2024-10-23", older.Date)
	assert.InDelta(t, 120.72, older.IndexValue, 1e-9)
	assert.InDelta(t, 0.72, *older.Change, 1e-9)
	assert.InDelta(t, 5.94, older.Products["vegetable"].Price, 1e-9)
	assert.InDelta(t, 0.4, older.Products["vegetable"].ChangePercent, 1e-9)
	assert.InDelta(t, 122.17, older.BasketIndex, 1e-9)
}

func TestSynthesizeInvalidArguments(t *testing.T) {
	s := synth.New(synth.WithSeed(1), synth.WithMaxDays(1000))
	end := mustDate(t, "2024-10-24")

	cases := []struct {
		name string
		end  time.Time
		days int
		base float64
	}{
		{"zero days", end, 0, 120},
		{"negative days", end, -3, 120},
		{"too many days", end, 1001, 120},
		{"zero base", end, 10, 0},
		{"negative base", end, 10, -1},
		{"nan base", end, 10, math.NaN()},
		{"inf base", end, 10, math.Inf(1)},
		{"zero date", time.Time{}, 10, 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			records, err := s.Synthesize(tc.end, tc.days, tc.base)
			assert.ErrorIs(t, err, synth.ErrInvalidArgument)
			assert.Nil(t, records)
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := synth.ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())

	for _, bad := range []string{"", "2024/10/24", "2024-13-01", "yesterday"} {
		_, err := synth.ParseDate(bad)
		assert.True(t, errors.Is(err, synth.ErrInvalidArgument), bad)
	}
}

func TestSynthesizeConcurrent(t *testing.T) {
	s := synth.New(synth.WithSeed(5))
	end := mustDate(t, "2024-10-24")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			records, err := s.Synthesize(end, 90, 120.0)
			if err == nil && len(records) != 90 {
				err = errors.New("short series")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestSynthesizeRecorder(t *testing.T) {
	rec := &countingRecorder{}
	s := synth.New(synth.WithSeed(3), synth.WithRecorder(rec), synth.WithEventProbability(1))
	_, err := s.Synthesize(mustDate(t, "2024-10-24"), 30, 120.0)
	require.NoError(t, err)

	require.Len(t, rec.runs, 1)
	run := rec.runs[0]
	assert.Equal(t, 30, run.Days)
	assert.Equal(t, 30, run.Events["利好政策"]+run.Events["不利天气"])
}

func TestFormatURL(t *testing.T) {
	url := synth.FormatURL(mustDate(t, "2024-03-05"), synth.NewRand(9))
	assert.Regexp(t, regexp.MustCompile(`^https://www\.agri\.cn/V20/ZX/nyyw/2024/03/t20240305_[1-9]\d{7}\.htm$`), url)
}

func TestFormatTitleFalling(t *testing.T) {
	title := synth.FormatTitle(mustDate(t, "2024-01-09"), -1.236)
	assert.Equal(t, "1月9日：\"农产品批发价格200指数\"比昨天下降1.24个点", title)
}
