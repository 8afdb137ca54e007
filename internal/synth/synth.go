// Package synth generates the daily agricultural price series.
//
// Generation walks backward from the end date: each step derives the day's
// index from the previously generated (chronologically later) day, so the
// recurrence state is the most recently emitted index value. The trend factor
// grows with the walk step and therefore with the age of the day.
package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"agri-price-backend/internal/factor"
	"agri-price-backend/internal/model"

	"github.com/rs/zerolog"
)

// ErrInvalidArgument is returned for unusable synthesis inputs.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	DefaultBaseIndex = 120.0
	DefaultDayCount  = 365
	DefaultMaxDays   = 3660

	// MinBaseIndex keeps the rounded recurrence state strictly positive.
	MinBaseIndex = 0.01
)

// RunStats summarises one Synthesize call.
type RunStats struct {
	Days     int
	Events   map[string]int
	Clamped  int
	Duration time.Duration
}

// Recorder receives per-run statistics.
type Recorder interface {
	RecordRun(stats RunStats)
}

// Synthesizer owns a random source and produces independent series per call.
// It is safe for concurrent use; calls are serialized on the random source.
type Synthesizer struct {
	mu               sync.Mutex
	rng              factor.Rand
	eventProbability float64
	catalog          []model.ProductSpec
	maxDays          int
	log              zerolog.Logger
	recorder         Recorder
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithSeed uses a deterministic PCG source.
func WithSeed(seed uint64) Option {
	return func(s *Synthesizer) {
		s.rng = NewRand(seed)
	}
}

// WithRand injects a random source. The caller must not share it with
// other goroutines.
func WithRand(r factor.Rand) Option {
	return func(s *Synthesizer) {
		if r != nil {
			s.rng = r
		}
	}
}

func WithEventProbability(p float64) Option {
	return func(s *Synthesizer) {
		s.eventProbability = p
	}
}

func WithCatalog(catalog []model.ProductSpec) Option {
	return func(s *Synthesizer) {
		if len(catalog) > 0 {
			s.catalog = catalog
		}
	}
}

// WithMaxDays caps dayCount; non-positive disables the cap.
func WithMaxDays(n int) Option {
	return func(s *Synthesizer) {
		s.maxDays = n
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Synthesizer) {
		s.log = l
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Synthesizer) {
		s.recorder = r
	}
}

// NewRand returns a seeded PCG generator.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// New creates a Synthesizer. Without WithSeed/WithRand it seeds from the clock.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		eventProbability: factor.DefaultEventProbability,
		catalog:          model.DefaultCatalog,
		maxDays:          DefaultMaxDays,
		log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = NewRand(uint64(time.Now().UnixNano()))
	}
	return s
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: malformed date %q", ErrInvalidArgument, s)
	}
	return t, nil
}

func (s *Synthesizer) validate(endDate time.Time, dayCount int, baseIndex float64) error {
	if endDate.IsZero() {
		return fmt.Errorf("%w: end date is required", ErrInvalidArgument)
	}
	if dayCount <= 0 {
		return fmt.Errorf("%w: day count must be positive, got %d", ErrInvalidArgument, dayCount)
	}
	if s.maxDays > 0 && dayCount > s.maxDays {
		return fmt.Errorf("%w: day count %d exceeds limit %d", ErrInvalidArgument, dayCount, s.maxDays)
	}
	if math.IsNaN(baseIndex) || math.IsInf(baseIndex, 0) || baseIndex < MinBaseIndex {
		return fmt.Errorf("%w: base index must be at least %.2f, got %v", ErrInvalidArgument, MinBaseIndex, baseIndex)
	}
	return nil
}

// Synthesize generates dayCount records ending at endDate, returned in
// ascending date order.
func (s *Synthesizer) Synthesize(endDate time.Time, dayCount int, baseIndex float64) ([]model.DayRecord, error) {
	if err := s.validate(endDate, dayCount, baseIndex); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	startAt := time.Now()
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 0, 0, 0, 0, time.UTC)
	stats := RunStats{Days: dayCount, Events: map[string]int{}}

	records := make([]model.DayRecord, 0, dayCount)
	events := 0
	prev := baseIndex
	for i := 0; i < dayCount; i++ {
		date := end.AddDate(0, 0, -i)
		rec, clamped := s.generateDay(date, prev, i, dayCount)
		if clamped {
			stats.Clamped++
		}
		if rec.Event != "" {
			stats.Events[rec.Event]++
			events++
		}
		records = append(records, rec)
		prev = rec.IndexValue

		if (i+1)%50 == 0 {
			s.log.Debug().Int("generated", i+1).Int("total", dayCount).Msg("synthesis progress")
		}
	}

	slices.SortFunc(records, func(a, b model.DayRecord) int {
		return strings.Compare(a.Date, b.Date)
	})

	stats.Duration = time.Since(startAt)
	if s.recorder != nil {
		s.recorder.RecordRun(stats)
	}
	s.log.Info().
		Int("days", dayCount).
		Str("start", records[0].Date).
		Str("end", records[len(records)-1].Date).
		Int("events", events).
		Int("clamped", stats.Clamped).
		Msg("series synthesized")
	return records, nil
}

// generateDay 生成一天的数据
func (s *Synthesizer) generateDay(date time.Time, prev float64, daysFromStart, totalDays int) (model.DayRecord, bool) {
	seasonal := factor.Seasonal(date)
	weekly := factor.Weekly(date)
	trend := factor.Trend(daysFromStart, totalDays)
	ev := factor.RandomEvent(s.rng, s.eventProbability)
	noise := factor.Uniform(s.rng, -NoiseAmplitude, NoiseAmplitude)

	total, clamped := Compose(Components{
		Seasonal:   seasonal,
		Weekly:     weekly,
		Trend:      trend,
		EventDelta: ev.Delta,
		Noise:      noise,
	})

	indexValue := model.Round(prev*(1+total), 2)
	change := model.Round(indexValue-prev, 2)

	products := make(map[string]model.ProductPrice, len(s.catalog))
	for _, p := range s.catalog {
		pc := ProductChange(total, factor.Uniform(s.rng, -p.Volatility, p.Volatility))
		// 产品价格每天从自身基准价重新计算，不做递推
		price := p.BasePrice * seasonal * trend * (1 + pc)
		products[p.Key] = model.ProductPrice{
			Name:          p.Name,
			Price:         model.Round(price, 2),
			ChangePercent: model.Round(pc*100, 1),
			Unit:          model.Unit,
		}
	}

	return model.DayRecord{
		Date:        date.Format(model.DateLayout),
		Title:       FormatTitle(date, change),
		URL:         FormatURL(date, s.rng),
		Change:      model.Float64(change),
		CompareBase: model.CompareBase,
		IndexValue:  indexValue,
		BasketIndex: model.Round(indexValue*BasketMarkup, 2),
		Products:    products,
		Event:       ev.Label(),
	}, clamped
}
