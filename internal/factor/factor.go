// Package factor holds the per-day adjustment models that drive the price
// index recurrence: seasonal, weekly, trend and random event.
package factor

import "time"

// AnnualGrowth 年化涨幅，按生成窗口线性摊分
const AnnualGrowth = 0.04

// DefaultEventProbability 异常事件发生概率
const DefaultEventProbability = 0.05

// 冬季和春节前价格偏高，夏秋季价格偏低
var seasonalByMonth = [12]float64{
	1.15, // 1月 冬季+春节
	1.20, // 2月 春节
	1.05, // 3月 早春
	0.95, // 4月 春季
	0.90, // 5月 初夏
	0.92, // 6月 夏季
	0.88, // 7月 盛夏
	0.90, // 8月 夏末
	0.95, // 9月 初秋
	1.00, // 10月 秋季
	1.08, // 11月 秋冬
	1.12, // 12月 冬季
}

// 周一为0；周五、周六价格略高
var weeklyByWeekday = [7]float64{1.0, 1.0, 1.0, 1.0, 1.02, 1.02, 1.0}

// Seasonal 季节性因子
func Seasonal(date time.Time) float64 {
	m := int(date.Month()) - 1
	if m < 0 || m >= len(seasonalByMonth) {
		return 1.0
	}
	return seasonalByMonth[m]
}

// Weekly 周内因子
func Weekly(date time.Time) float64 {
	wd := MondayWeekday(date)
	if wd < 0 || wd >= len(weeklyByWeekday) {
		return 1.0
	}
	return weeklyByWeekday[wd]
}

// MondayWeekday converts time.Weekday (Sunday=0) to a Monday-start index.
func MondayWeekday(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// Trend 长期趋势因子。daysFromStart counts walk steps from the newest date,
// so older days receive the larger multiplier.
func Trend(daysFromStart, totalDays int) float64 {
	if totalDays <= 0 {
		return 1.0
	}
	return 1 + AnnualGrowth*float64(daysFromStart)/float64(totalDays)
}
