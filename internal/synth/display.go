package synth

import (
	"fmt"
	"math"
	"time"

	"agri-price-backend/internal/factor"
)

const indexName = "农产品批发价格200指数"

// FormatTitle 生成标题，如 10月24日："农产品批发价格200指数"比昨天上升0.35个点
func FormatTitle(date time.Time, change float64) string {
	direction := "上升"
	if change < 0 {
		direction = "下降"
	}
	return fmt.Sprintf("%d月%d日：\"%s\"比昨天%s%.2f个点", int(date.Month()), date.Day(), indexName, direction, math.Abs(change))
}

// FormatURL 模拟真实URL格式，末尾为随机8位数字
func FormatURL(date time.Time, r factor.Rand) string {
	suffix := 10000000 + r.IntN(90000000)
	return fmt.Sprintf("https://www.agri.cn/V20/ZX/nyyw/%d/%02d/t%s_%d.htm", date.Year(), int(date.Month()), date.Format("20060102"), suffix)
}
