package factor_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"agri-price-backend/internal/factor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSeasonal(t *testing.T) {
	cases := map[string]float64{
		"2024-01-15": 1.15,
		"2024-02-10": 1.20,
		"2024-07-01": 0.88,
		"2024-10-24": 1.00,
		"2024-12-31": 1.12,
	}
	for date, want := range cases {
		assert.Equal(t, want, factor.Seasonal(day(date)), date)
	}
}

func TestSeasonalRange(t *testing.T) {
	d := day("2024-01-01")
	for m := 0; m < 12; m++ {
		v := factor.Seasonal(d.AddDate(0, m, 0))
		assert.GreaterOrEqual(t, v, 0.88)
		assert.LessOrEqual(t, v, 1.20)
	}
}

func TestWeekly(t *testing.T) {
	// 2024-10-21 is a Monday
	want := []float64{1.0, 1.0, 1.0, 1.0, 1.02, 1.02, 1.0}
	start := day("2024-10-21")
	for i, w := range want {
		d := start.AddDate(0, 0, i)
		assert.Equal(t, i, factor.MondayWeekday(d))
		assert.Equal(t, w, factor.Weekly(d), d.Weekday().String())
	}
}

func TestTrend(t *testing.T) {
	assert.Equal(t, 1.0, factor.Trend(0, 365))
	assert.InDelta(t, 1.02, factor.Trend(50, 100), 1e-12)
	assert.InDelta(t, 1.04, factor.Trend(100, 100), 1e-12)
	assert.Equal(t, 1.0, factor.Trend(10, 0))
	assert.Greater(t, factor.Trend(364, 365), factor.Trend(0, 365))
}

// scriptedRand replays fixed draws.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (s *scriptedRand) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRand) IntN(int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

func TestRandomEventNone(t *testing.T) {
	ev := factor.RandomEvent(&scriptedRand{floats: []float64{0.5}}, 0.05)
	assert.Equal(t, factor.EventNone, ev.Kind)
	assert.Zero(t, ev.Delta)
	assert.Empty(t, ev.Label())
}

func TestRandomEventFavorable(t *testing.T) {
	ev := factor.RandomEvent(&scriptedRand{floats: []float64{0.01, 0.0}, ints: []int{0}}, 0.05)
	assert.Equal(t, factor.EventFavorable, ev.Kind)
	assert.InDelta(t, -0.02, ev.Delta, 1e-12)
	assert.Equal(t, "利好政策", ev.Label())
}

func TestRandomEventAdverse(t *testing.T) {
	ev := factor.RandomEvent(&scriptedRand{floats: []float64{0.01, 0.999999}, ints: []int{1}}, 0.05)
	assert.Equal(t, factor.EventAdverse, ev.Kind)
	assert.InDelta(t, 0.02, ev.Delta, 1e-6)
	assert.Equal(t, "不利天气", ev.Label())
}

func TestRandomEventBounds(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	seen := map[factor.EventKind]int{}
	for i := 0; i < 20000; i++ {
		ev := factor.RandomEvent(r, 0.05)
		seen[ev.Kind]++
		switch ev.Kind {
		case factor.EventFavorable:
			require.GreaterOrEqual(t, ev.Delta, -0.02)
			require.LessOrEqual(t, ev.Delta, -0.005)
		case factor.EventAdverse:
			require.GreaterOrEqual(t, ev.Delta, 0.005)
			require.LessOrEqual(t, ev.Delta, 0.02)
		default:
			require.Zero(t, ev.Delta)
		}
	}
	assert.Positive(t, seen[factor.EventFavorable])
	assert.Positive(t, seen[factor.EventAdverse])
	assert.Greater(t, seen[factor.EventNone], 18000)
}
