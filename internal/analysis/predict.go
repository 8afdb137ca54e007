package analysis

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"agri-price-backend/internal/model"
)

// ErrNoHistory is returned when there is nothing to predict from.
var ErrNoHistory = errors.New("no historical data")

const (
	MethodMovingAverage = "ma"
	MethodLinear        = "linear"

	// 结果中的方法名
	methodNameMovingAverage = "moving_average"
	methodNameLinear        = "linear_regression"

	// DefaultForecastDays 默认预测天数
	DefaultForecastDays = 30
	// MaxForecastDays 预测天数上限
	MaxForecastDays = 365

	maWindow       = 7
	trendWindow    = 30
	historyPreview = 30
)

// PredictionPoint 预测点
type PredictionPoint struct {
	Date           string  `json:"date"`
	PredictedValue float64 `json:"predicted_value"`
	Confidence     float64 `json:"confidence"`
	Method         string  `json:"method"`
}

// HistoricalPoint 历史点
type HistoricalPoint struct {
	Date        string  `json:"date"`
	ActualValue float64 `json:"actual_value"`
}

// PredictionMetadata 预测参数
type PredictionMetadata struct {
	Method    string  `json:"method"`
	Period    int     `json:"period,omitempty"`
	Trend     string  `json:"trend"` // 线性回归为方向，移动平均为斜率（4位小数）
	Slope     float64 `json:"slope"`
	BaseValue float64 `json:"base_value,omitempty"`
	Intercept float64 `json:"intercept,omitempty"`
}

// Prediction 预测结果
type Prediction struct {
	Predictions []PredictionPoint  `json:"predictions"`
	Historical  []HistoricalPoint  `json:"historical"`
	Metadata    PredictionMetadata `json:"metadata"`
}

// Predict 预测未来days天的指数。method为 "ma"（默认）或 "linear"。
func Predict(records []model.DayRecord, days int, method string) (*Prediction, error) {
	if len(records) == 0 {
		return nil, ErrNoHistory
	}
	if days <= 0 {
		days = DefaultForecastDays
	}
	if days > MaxForecastDays {
		return nil, fmt.Errorf("forecast days %d exceeds limit %d", days, MaxForecastDays)
	}
	lastDate, err := time.Parse(model.DateLayout, records[len(records)-1].Date)
	if err != nil {
		return nil, fmt.Errorf("parse last date: %w", err)
	}

	values := indexValues(records)
	out := &Prediction{Historical: historical(records)}

	switch method {
	case MethodLinear:
		slope, intercept := linearFit(values)
		n := len(values)
		for i := 1; i <= days; i++ {
			v := slope*float64(n+i-1) + intercept
			out.Predictions = append(out.Predictions, point(lastDate, i, v, 0.85, methodNameLinear))
		}
		out.Metadata = PredictionMetadata{
			Method:    methodNameLinear,
			Trend:     direction(slope),
			Slope:     model.Round(slope, 4),
			Intercept: model.Round(intercept, 2),
		}
	default:
		recent := values[max(0, len(values)-maWindow):]
		base := 0.0
		for _, v := range recent {
			base += v
		}
		base /= float64(len(recent))
		slope, _ := linearFit(values[max(0, len(values)-trendWindow):])
		for i := 1; i <= days; i++ {
			out.Predictions = append(out.Predictions, point(lastDate, i, base+slope*float64(i), 0.9, methodNameMovingAverage))
		}
		out.Metadata = PredictionMetadata{
			Method:    methodNameMovingAverage,
			Period:    maWindow,
			Trend:     strconv.FormatFloat(slope, 'f', 4, 64),
			Slope:     model.Round(slope, 4),
			BaseValue: model.Round(base, 2),
		}
	}
	return out, nil
}

// point 置信度随预测距离每天递减0.01，下限0.5
func point(last time.Time, step int, v, startConfidence float64, method string) PredictionPoint {
	return PredictionPoint{
		Date:           last.AddDate(0, 0, step).Format(model.DateLayout),
		PredictedValue: math.Max(0, model.Round(v, 2)),
		Confidence:     model.Round(math.Max(0.5, startConfidence-float64(step)*0.01), 2),
		Method:         method,
	}
}

func direction(slope float64) string {
	if slope > 0 {
		return "increasing"
	}
	return "decreasing"
}

func historical(records []model.DayRecord) []HistoricalPoint {
	tail := records[max(0, len(records)-historyPreview):]
	out := make([]HistoricalPoint, len(tail))
	for i, r := range tail {
		out[i] = HistoricalPoint{Date: r.Date, ActualValue: r.IndexValue}
	}
	return out
}
