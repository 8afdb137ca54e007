// Package stats computes the descriptive statistics served by the API and
// printed after generation. Inputs are records in ascending date order.
package stats

import (
	"math"
	"sort"

	"agri-price-backend/internal/model"
)

// DateRange 日期范围
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IndexStats 指数统计
type IndexStats struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
}

// ChangeStats 涨跌统计
type ChangeStats struct {
	UpDays    int     `json:"upDays"`
	DownDays  int     `json:"downDays"`
	FlatDays  int     `json:"flatDays"`
	UpRate    float64 `json:"upRate"`
	AvgChange float64 `json:"avgChange"`
	MaxChange float64 `json:"maxChange"`
	MinChange float64 `json:"minChange"`
}

// Overview 概览统计
type Overview struct {
	TotalRecords int         `json:"totalRecords"`
	DateRange    DateRange   `json:"dateRange"`
	IndexStats   IndexStats  `json:"indexStats"`
	ChangeStats  ChangeStats `json:"changeStats"`
}

// ComputeOverview 概览统计
func ComputeOverview(records []model.DayRecord) Overview {
	ov := Overview{TotalRecords: len(records)}
	if len(records) == 0 {
		return ov
	}
	ov.DateRange = DateRange{Start: records[0].Date, End: records[len(records)-1].Date}

	indices := indexValues(records)
	ov.IndexStats = IndexStats{
		Current: records[len(records)-1].IndexValue,
		Average: model.Round(mean(indices), 2),
		Max:     model.Round(maxOf(indices), 2),
		Min:     model.Round(minOf(indices), 2),
	}

	changes := changeValues(records)
	cs := ChangeStats{}
	for _, c := range changes {
		switch {
		case c > 0:
			cs.UpDays++
		case c < 0:
			cs.DownDays++
		default:
			cs.FlatDays++
		}
	}
	if n := cs.UpDays + cs.DownDays + cs.FlatDays; n > 0 {
		cs.UpRate = model.Round(float64(cs.UpDays)/float64(n)*100, 1)
		cs.AvgChange = model.Round(mean(changes), 2)
		cs.MaxChange = model.Round(maxOf(changes), 2)
		cs.MinChange = model.Round(minOf(changes), 2)
	}
	ov.ChangeStats = cs
	return ov
}

// ProductStat 单个产品的价格统计
type ProductStat struct {
	Name    string  `json:"name"`
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Unit    string  `json:"unit"`
}

// ComputeProductStats 最近days天的产品价格统计，按产品key索引
func ComputeProductStats(records []model.DayRecord, catalog []model.ProductSpec, days int) map[string]ProductStat {
	recent := Tail(records, days)
	out := make(map[string]ProductStat, len(catalog))
	for _, spec := range catalog {
		var prices []float64
		var latest model.ProductPrice
		for _, r := range recent {
			p, ok := r.Products[spec.Key]
			if !ok {
				continue
			}
			prices = append(prices, p.Price)
			latest = p
		}
		if len(prices) == 0 {
			continue
		}
		out[spec.Key] = ProductStat{
			Name:    latest.Name,
			Current: latest.Price,
			Average: model.Round(mean(prices), 2),
			Max:     model.Round(maxOf(prices), 2),
			Min:     model.Round(minOf(prices), 2),
			Unit:    latest.Unit,
		}
	}
	return out
}

// MonthlyStat 月度统计
type MonthlyStat struct {
	Month     string  `json:"month"` // YYYY-MM
	AvgIndex  float64 `json:"avgIndex"`
	AvgChange float64 `json:"avgChange"`
	MaxIndex  float64 `json:"maxIndex"`
	MinIndex  float64 `json:"minIndex"`
	UpDays    int     `json:"upDays"`
	DownDays  int     `json:"downDays"`
	UpRate    float64 `json:"upRate"`
}

// ComputeMonthly 按月份分组统计
func ComputeMonthly(records []model.DayRecord) []MonthlyStat {
	type acc struct {
		count       int
		totalIndex  float64
		totalChange float64
		max, min    float64
		up, down    int
	}
	groups := map[string]*acc{}
	for _, r := range records {
		if len(r.Date) < 7 {
			continue
		}
		month := r.Date[:7]
		a, ok := groups[month]
		if !ok {
			a = &acc{max: r.IndexValue, min: r.IndexValue}
			groups[month] = a
		}
		a.count++
		a.totalIndex += r.IndexValue
		a.totalChange += r.ChangeValue()
		a.max = math.Max(a.max, r.IndexValue)
		a.min = math.Min(a.min, r.IndexValue)
		if c := r.ChangeValue(); c > 0 {
			a.up++
		} else if c < 0 {
			a.down++
		}
	}

	out := make([]MonthlyStat, 0, len(groups))
	for month, a := range groups {
		n := float64(a.count)
		out = append(out, MonthlyStat{
			Month:     month,
			AvgIndex:  model.Round(a.totalIndex/n, 2),
			AvgChange: model.Round(a.totalChange/n, 2),
			MaxIndex:  model.Round(a.max, 2),
			MinIndex:  model.Round(a.min, 2),
			UpDays:    a.up,
			DownDays:  a.down,
			UpRate:    model.Round(float64(a.up)/n*100, 1),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// Distribution 涨跌区间分布（单位：点）
type Distribution struct {
	BigUp     int `json:"bigUp"`     // >2个点
	SmallUp   int `json:"smallUp"`   // 0-2个点
	Flat      int `json:"flat"`      // 0
	SmallDown int `json:"smallDown"` // 0到-2个点
	BigDown   int `json:"bigDown"`   // <-2个点
}

// ChangeDistribution 涨跌统计
type ChangeDistribution struct {
	Distribution Distribution `json:"distribution"`
	Total        int          `json:"total"`
	Average      float64      `json:"average"`
	Max          float64      `json:"max"`
	Min          float64      `json:"min"`
}

// ComputeChangeDistribution 最近days天的涨跌分布
func ComputeChangeDistribution(records []model.DayRecord, days int) ChangeDistribution {
	changes := changeValues(Tail(records, days))
	out := ChangeDistribution{Total: len(changes)}
	for _, c := range changes {
		switch {
		case c > 2:
			out.Distribution.BigUp++
		case c > 0:
			out.Distribution.SmallUp++
		case c == 0:
			out.Distribution.Flat++
		case c > -2:
			out.Distribution.SmallDown++
		default:
			out.Distribution.BigDown++
		}
	}
	if len(changes) > 0 {
		out.Average = model.Round(mean(changes), 2)
		out.Max = model.Round(maxOf(changes), 2)
		out.Min = model.Round(minOf(changes), 2)
	}
	return out
}

// Tail returns the last n records; n <= 0 returns all of them.
func Tail(records []model.DayRecord, n int) []model.DayRecord {
	if n <= 0 || n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

func indexValues(records []model.DayRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.IndexValue
	}
	return out
}

func changeValues(records []model.DayRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Change != nil {
			out = append(out, *r.Change)
		}
	}
	return out
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func maxOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
