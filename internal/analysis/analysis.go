// Package analysis implements the read-only analytics over a generated
// series: moving averages, trend regression, product correlation,
// seasonality and short-horizon prediction.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"agri-price-backend/internal/model"
)

// DefaultPeriods 默认移动平均周期
var DefaultPeriods = []int{7, 15, 30}

// MAPoint 移动平均数据点，周期不足时对应均线缺省
type MAPoint struct {
	Date   string             `json:"date"`
	Actual float64            `json:"actual"`
	MA     map[string]float64 `json:"ma"` // key如 "ma7"
}

// MovingAverageResult 移动平均线
type MovingAverageResult struct {
	Data    []MAPoint `json:"data"`
	Periods []int     `json:"periods"`
	Count   int       `json:"count"`
}

// MovingAverage 计算移动平均线
func MovingAverage(records []model.DayRecord, periods []int) MovingAverageResult {
	if len(periods) == 0 {
		periods = DefaultPeriods
	}
	values := indexValues(records)
	points := make([]MAPoint, len(records))
	for i, r := range records {
		pt := MAPoint{Date: r.Date, Actual: r.IndexValue, MA: map[string]float64{}}
		for _, p := range periods {
			if p <= 0 || i < p-1 {
				continue
			}
			pt.MA["ma"+strconv.Itoa(p)] = model.Round(calculateMA(values[:i+1], p), 2)
		}
		points[i] = pt
	}
	return MovingAverageResult{Data: points, Periods: periods, Count: len(points)}
}

// calculateMA 计算最后period个值的均值
func calculateMA(data []float64, period int) float64 {
	if len(data) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	for i := len(data) - period; i < len(data); i++ {
		sum += data[i]
	}
	return sum / float64(period)
}

// Trend classes
const (
	TrendInsufficient   = "insufficient_data"
	TrendStable         = "stable"
	TrendStrongIncrease = "strong_increase"
	TrendSlightIncrease = "slight_increase"
	TrendStrongDecrease = "strong_decrease"
	TrendSlightDecrease = "slight_decrease"
)

// Period 分析区间
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// TrendResult 趋势分析
type TrendResult struct {
	Trend         string  `json:"trend"`
	Slope         float64 `json:"slope"`
	Intercept     float64 `json:"intercept"`
	RSquared      float64 `json:"rSquared"`
	TotalChange   float64 `json:"totalChange"`
	PercentChange float64 `json:"percentChange"`
	StartValue    float64 `json:"startValue"`
	EndValue      float64 `json:"endValue"`
	Period        Period  `json:"period"`
}

// AnalyzeTrend 线性回归趋势分析
func AnalyzeTrend(records []model.DayRecord) TrendResult {
	n := len(records)
	if n < 2 {
		return TrendResult{Trend: TrendInsufficient}
	}
	values := indexValues(records)
	slope, intercept := linearFit(values)

	meanY := 0.0
	for _, v := range values {
		meanY += v
	}
	meanY /= float64(n)
	ssTotal, ssResidual := 0.0, 0.0
	for i, v := range values {
		predicted := slope*float64(i) + intercept
		ssTotal += (v - meanY) * (v - meanY)
		ssResidual += (v - predicted) * (v - predicted)
	}
	rSquared := 0.0
	if ssTotal > 0 {
		rSquared = 1 - ssResidual/ssTotal
	}

	first, last := values[0], values[n-1]
	res := TrendResult{
		Trend:       classifyTrend(slope),
		Slope:       model.Round(slope, 4),
		Intercept:   model.Round(intercept, 2),
		RSquared:    model.Round(rSquared, 4),
		TotalChange: model.Round(last-first, 2),
		StartValue:  model.Round(first, 2),
		EndValue:    model.Round(last, 2),
		Period:      Period{Start: records[0].Date, End: records[n-1].Date, Days: n},
	}
	if first != 0 {
		res.PercentChange = model.Round((last-first)/first*100, 2)
	}
	return res
}

func classifyTrend(slope float64) string {
	switch {
	case math.Abs(slope) < 0.01:
		return TrendStable
	case slope > 0.05:
		return TrendStrongIncrease
	case slope > 0:
		return TrendSlightIncrease
	case slope < -0.05:
		return TrendStrongDecrease
	default:
		return TrendSlightDecrease
	}
}

// linearFit returns the least-squares slope and intercept of values against
// their index.
func linearFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumX2 += x * x
	}
	den := n*sumX2 - sumX*sumX
	if den == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / den
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// CorrelationProducts 参与相关性分析的产品
var CorrelationProducts = []string{"vegetable", "pork", "beef", "mutton", "egg", "chicken"}

// Correlation 两个产品的价格相关性
type Correlation struct {
	Product1    string  `json:"product1"`
	Product2    string  `json:"product2"`
	Correlation float64 `json:"correlation"`
	Strength    string  `json:"strength"`
	Samples     int     `json:"samples"`
}

// CorrelationResult 产品间相关性矩阵
type CorrelationResult struct {
	Correlations map[string]Correlation `json:"correlations"`
	Count        int                    `json:"count"`
}

// AnalyzeCorrelation 计算产品间皮尔逊相关系数
func AnalyzeCorrelation(records []model.DayRecord, products []string) CorrelationResult {
	if len(products) == 0 {
		products = CorrelationProducts
	}
	out := CorrelationResult{Correlations: map[string]Correlation{}}
	for i := 0; i < len(products); i++ {
		for j := i + 1; j < len(products); j++ {
			p1, p2 := products[i], products[j]
			var xs, ys []float64
			for _, r := range records {
				a, ok1 := r.Products[p1]
				b, ok2 := r.Products[p2]
				if ok1 && ok2 {
					xs = append(xs, a.Price)
					ys = append(ys, b.Price)
				}
			}
			if len(xs) < 2 {
				continue
			}
			corr := Pearson(xs, ys)
			out.Correlations[fmt.Sprintf("%s_%s", p1, p2)] = Correlation{
				Product1:    p1,
				Product2:    p2,
				Correlation: model.Round(corr, 3),
				Strength:    correlationStrength(corr),
				Samples:     len(xs),
			}
		}
	}
	out.Count = len(out.Correlations)
	return out
}

// Pearson 皮尔逊相关系数，方差为0时返回0
func Pearson(x, y []float64) float64 {
	n := float64(len(x))
	if len(x) == 0 || len(x) != len(y) {
		return 0
	}
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	num := n*sumXY - sumX*sumY
	den := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}

func correlationStrength(corr float64) string {
	abs := math.Abs(corr)
	switch {
	case abs >= 0.8:
		return "very_strong"
	case abs >= 0.6:
		return "strong"
	case abs >= 0.4:
		return "moderate"
	case abs >= 0.2:
		return "weak"
	default:
		return "very_weak"
	}
}

// MonthAverage 月份均值
type MonthAverage struct {
	Month     int     `json:"month"`
	MonthName string  `json:"monthName"`
	AvgIndex  float64 `json:"avgIndex"`
	Samples   int     `json:"samples"`
}

// SeasonalitySummary 季节性摘要
type SeasonalitySummary struct {
	HighestMonth string  `json:"highestMonth"`
	HighestValue float64 `json:"highestValue"`
	LowestMonth  string  `json:"lowestMonth"`
	LowestValue  float64 `json:"lowestValue"`
	Volatility   float64 `json:"volatility"` // (最高-最低)/最低，百分比
}

// SeasonalityResult 季节性分析
type SeasonalityResult struct {
	MonthlyData []MonthAverage      `json:"monthlyData"`
	Summary     *SeasonalitySummary `json:"summary,omitempty"`
}

// AnalyzeSeasonality 按自然月汇总指数均值
func AnalyzeSeasonality(records []model.DayRecord) SeasonalityResult {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		m, err := strconv.Atoi(r.Date[5:7])
		if err != nil || m < 1 || m > 12 {
			continue
		}
		sums[m] += r.IndexValue
		counts[m]++
	}

	months := make([]int, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Ints(months)

	res := SeasonalityResult{MonthlyData: make([]MonthAverage, 0, len(months))}
	for _, m := range months {
		res.MonthlyData = append(res.MonthlyData, MonthAverage{
			Month:     m,
			MonthName: fmt.Sprintf("%d月", m),
			AvgIndex:  model.Round(sums[m]/float64(counts[m]), 2),
			Samples:   counts[m],
		})
	}
	if len(res.MonthlyData) == 0 {
		return res
	}

	hi, lo := res.MonthlyData[0], res.MonthlyData[0]
	for _, ma := range res.MonthlyData[1:] {
		if ma.AvgIndex > hi.AvgIndex {
			hi = ma
		}
		if ma.AvgIndex < lo.AvgIndex {
			lo = ma
		}
	}
	sum := &SeasonalitySummary{
		HighestMonth: hi.MonthName,
		HighestValue: hi.AvgIndex,
		LowestMonth:  lo.MonthName,
		LowestValue:  lo.AvgIndex,
	}
	if lo.AvgIndex != 0 {
		sum.Volatility = model.Round((hi.AvgIndex-lo.AvgIndex)/lo.AvgIndex*100, 2)
	}
	res.Summary = sum
	return res
}

func indexValues(records []model.DayRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.IndexValue
	}
	return out
}
