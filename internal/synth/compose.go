package synth

// Composition weights and bounds for one day's change.
const (
	SeasonalWeight = 0.3
	WeeklyWeight   = 0.5
	TrendWeight    = 0.3

	NoiseAmplitude   = 0.01
	MaxDailyChange   = 0.03 // 单日指数涨跌幅上限
	MaxProductChange = 0.05 // 单日产品涨跌幅上限

	ProductIndexWeight = 0.7
	ProductNoiseWeight = 0.3

	BasketMarkup = 1.012 // 菜篮子指数相对总指数的固定加成
)

// Components are the per-day factor outputs fed into Compose.
type Components struct {
	Seasonal   float64
	Weekly     float64
	Trend      float64
	EventDelta float64
	Noise      float64
}

// Compose combines the factors into the day's relative index change, clamped
// to ±MaxDailyChange. clamped reports whether the bound was applied.
func Compose(c Components) (total float64, clamped bool) {
	raw := (c.Seasonal-1)*SeasonalWeight +
		(c.Weekly-1)*WeeklyWeight +
		(c.Trend-1)*TrendWeight +
		c.EventDelta +
		c.Noise
	return Clamp(raw, MaxDailyChange)
}

// ProductChange 产品涨跌与总指数相关，但有自己的波动
func ProductChange(total, noise float64) float64 {
	v, _ := Clamp(total*ProductIndexWeight+noise*ProductNoiseWeight, MaxProductChange)
	return v
}

// Clamp bounds v to [-limit, limit].
func Clamp(v, limit float64) (float64, bool) {
	switch {
	case v > limit:
		return limit, true
	case v < -limit:
		return -limit, true
	default:
		return v, false
	}
}
