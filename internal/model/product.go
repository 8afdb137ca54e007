package model

// Unit 农产品价格单位
const Unit = "元/公斤"

// ProductSpec 产品基准配置
type ProductSpec struct {
	Key        string
	Name       string
	BasePrice  float64 // 元/公斤
	Volatility float64
}

// DefaultCatalog is the fixed nine-product basket, in generation order.
var DefaultCatalog = []ProductSpec{
	{Key: "vegetable", Name: "蔬菜", BasePrice: 5.8, Volatility: 0.15},
	{Key: "pork", Name: "猪肉", BasePrice: 22.5, Volatility: 0.08},
	{Key: "beef", Name: "牛肉", BasePrice: 76.8, Volatility: 0.05},
	{Key: "mutton", Name: "羊肉", BasePrice: 68.5, Volatility: 0.06},
	{Key: "egg", Name: "鸡蛋", BasePrice: 11.2, Volatility: 0.12},
	{Key: "chicken", Name: "白条鸡", BasePrice: 18.6, Volatility: 0.07},
	{Key: "fish", Name: "活鲤鱼", BasePrice: 13.8, Volatility: 0.08},
	{Key: "apple", Name: "富士苹果", BasePrice: 9.5, Volatility: 0.10},
	{Key: "banana", Name: "香蕉", BasePrice: 6.2, Volatility: 0.12},
}

// ProductKeys returns the catalog keys in order.
func ProductKeys(catalog []ProductSpec) []string {
	keys := make([]string, 0, len(catalog))
	for _, p := range catalog {
		keys = append(keys, p.Key)
	}
	return keys
}

// LookupProduct 按key查找产品配置
func LookupProduct(catalog []ProductSpec, key string) (ProductSpec, bool) {
	for _, p := range catalog {
		if p.Key == key {
			return p, true
		}
	}
	return ProductSpec{}, false
}
