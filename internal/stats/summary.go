package stats

import "agri-price-backend/internal/model"

// ProductRange 产品价格区间
type ProductRange struct {
	Key  string  `json:"key"`
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

// Summary 数据摘要，生成完成后输出
type Summary struct {
	Total         int               `json:"total"`
	Start         string            `json:"start"`
	End           string            `json:"end"`
	IndexStart    float64           `json:"index_start"`
	IndexEnd      float64           `json:"index_end"`
	IndexHigh     float64           `json:"index_high"`
	IndexLow      float64           `json:"index_low"`
	GrowthPercent float64           `json:"growth_percent"`
	UpDays        int               `json:"up_days"`
	DownDays      int               `json:"down_days"`
	UpRate        float64           `json:"up_rate"`
	DownRate      float64           `json:"down_rate"`
	MaxChange     float64           `json:"max_change"`
	MinChange     float64           `json:"min_change"`
	AvgChange     float64           `json:"avg_change"`
	Products      []ProductRange    `json:"products"`
	Recent        []model.DayRecord `json:"recent"`
}

// RecentPreview 摘要中预览的最近天数
const RecentPreview = 5

// Summarize 生成数据摘要
func Summarize(records []model.DayRecord, catalog []model.ProductSpec) Summary {
	s := Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}
	first, last := records[0], records[len(records)-1]
	indices := indexValues(records)
	s.Start, s.End = first.Date, last.Date
	s.IndexStart, s.IndexEnd = first.IndexValue, last.IndexValue
	s.IndexHigh, s.IndexLow = maxOf(indices), minOf(indices)
	if first.IndexValue != 0 {
		s.GrowthPercent = model.Round((last.IndexValue/first.IndexValue-1)*100, 2)
	}

	changes := changeValues(records)
	for _, c := range changes {
		if c > 0 {
			s.UpDays++
		} else if c < 0 {
			s.DownDays++
		}
	}
	if n := float64(len(changes)); n > 0 {
		s.UpRate = model.Round(float64(s.UpDays)/n*100, 1)
		s.DownRate = model.Round(float64(s.DownDays)/n*100, 1)
		s.MaxChange = maxOf(changes)
		s.MinChange = minOf(changes)
		s.AvgChange = model.Round(mean(changes), 3)
	}

	for _, spec := range catalog {
		var prices []float64
		for _, r := range records {
			if p, ok := r.Products[spec.Key]; ok {
				prices = append(prices, p.Price)
			}
		}
		if len(prices) == 0 {
			continue
		}
		s.Products = append(s.Products, ProductRange{
			Key:  spec.Key,
			Name: spec.Name,
			Min:  minOf(prices),
			Max:  maxOf(prices),
			Unit: model.Unit,
		})
	}
	s.Recent = Tail(records, RecentPreview)
	return s
}
