package analysis

import (
	"math"
	"time"

	"agri-price-backend/internal/model"
)

// FeatureRow is the tabular projection of one record used for export.
type FeatureRow struct {
	Date          string
	Year          int
	Month         int
	Day           int
	Weekday       int // 周一为0
	Quarter       int
	DayOfYear     int
	IndexValue    float64
	BasketIndex   float64
	Change        float64
	ChangePercent float64
	MA7           float64
	MA15          float64
	MA30          float64
	Volatility    float64 // 7日涨跌标准差
	Event         string
	Prices        map[string]float64
}

// Features 构造特征表，均线和波动率在窗口不足时使用已有数据
func Features(records []model.DayRecord) []FeatureRow {
	values := indexValues(records)
	changes := make([]float64, len(records))
	for i, r := range records {
		changes[i] = r.ChangeValue()
	}

	rows := make([]FeatureRow, 0, len(records))
	for i, r := range records {
		d, err := time.Parse(model.DateLayout, r.Date)
		if err != nil {
			continue
		}
		row := FeatureRow{
			Date:        r.Date,
			Year:        d.Year(),
			Month:       int(d.Month()),
			Day:         d.Day(),
			Weekday:     (int(d.Weekday()) + 6) % 7,
			Quarter:     (int(d.Month())-1)/3 + 1,
			DayOfYear:   d.YearDay(),
			IndexValue:  r.IndexValue,
			BasketIndex: r.BasketIndex,
			Change:      r.ChangeValue(),
			MA7:         model.Round(rollingMean(values[:i+1], 7), 2),
			MA15:        model.Round(rollingMean(values[:i+1], 15), 2),
			MA30:        model.Round(rollingMean(values[:i+1], 30), 2),
			Volatility:  model.Round(rollingStd(changes[:i+1], 7), 4),
			Event:       r.Event,
			Prices:      make(map[string]float64, len(r.Products)),
		}
		if r.IndexValue != 0 {
			row.ChangePercent = model.Round(row.Change/r.IndexValue*100, 4)
		}
		for k, p := range r.Products {
			row.Prices[k] = p.Price
		}
		rows = append(rows, row)
	}
	return rows
}

func rollingMean(data []float64, window int) float64 {
	if len(data) == 0 {
		return 0
	}
	return calculateMA(data, min(window, len(data)))
}

// rollingStd is the sample standard deviation of the trailing window; zero
// when fewer than two samples exist.
func rollingStd(data []float64, window int) float64 {
	w := data[max(0, len(data)-window):]
	if len(w) < 2 {
		return 0
	}
	m := 0.0
	for _, v := range w {
		m += v
	}
	m /= float64(len(w))
	ss := 0.0
	for _, v := range w {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(w)-1))
}
