package model

// DateLayout 记录日期格式
const DateLayout = "2006-01-02"

// CompareBase 涨跌比较基准
const CompareBase = "昨天"

// ProductPrice 单个农产品当日价格
type ProductPrice struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Unit          string  `json:"unit"`
}

// DayRecord 一天的农产品批发价格快照
type DayRecord struct {
	Date        string                  `json:"date"` // YYYY-MM-DD
	Title       string                  `json:"title"`
	URL         string                  `json:"url"`
	Change      *float64                `json:"change"` // 相对上一条递推记录的点数变化
	CompareBase string                  `json:"compare_base"`
	IndexValue  float64                 `json:"index_value"`  // 农产品批发价格200指数
	BasketIndex float64                 `json:"basket_index"` // 菜篮子指数
	Products    map[string]ProductPrice `json:"products"`
	Event       string                  `json:"event,omitempty"`
}

// ChangeValue returns the change in points, or zero when absent.
func (r DayRecord) ChangeValue() float64 {
	if r.Change == nil {
		return 0
	}
	return *r.Change
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
