package model

// Dataset 模拟数据文件的外层结构
type Dataset struct {
	Total        int         `json:"total"`
	GenerateTime string      `json:"generate_time"` // 2006-01-02 15:04:05
	DateRange    DateRange   `json:"date_range"`
	Description  string      `json:"description"`
	DataQuality  DataQuality `json:"data_quality"`
	Data         []DayRecord `json:"data"`
}

// DateRange 数据日期范围，空数据集时为null
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// DataQuality 数据质量说明
type DataQuality struct {
	SeasonalVariation string `json:"seasonal_variation"`
	Trend             string `json:"trend"`
	Events            string `json:"events"`
	Products          string `json:"products"`
}

const DatasetDescription = "基于真实规律生成的农产品价格模拟数据，包含价格指数、各类农产品价格等"

var DefaultDataQuality = DataQuality{
	SeasonalVariation: "包含季节性波动",
	Trend:             "年化增长约4%",
	Events:            "随机事件影响",
	Products:          "9类农产品价格",
}

// NewDataset wraps ordered records in the persisted envelope.
func NewDataset(records []DayRecord, generateTime string) Dataset {
	ds := Dataset{
		Total:        len(records),
		GenerateTime: generateTime,
		Description:  DatasetDescription,
		DataQuality:  DefaultDataQuality,
		Data:         records,
	}
	if ds.Data == nil {
		ds.Data = []DayRecord{}
	}
	if len(records) > 0 {
		start, end := records[0].Date, records[len(records)-1].Date
		ds.DateRange = DateRange{Start: &start, End: &end}
	}
	return ds
}
