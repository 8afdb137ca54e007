package analysis

import (
	"math"

	"agri-price-backend/internal/model"
)

const (
	rsiPeriod       = 14
	bollingerPeriod = 20
	macdFast        = 12
	macdSlow        = 26
	macdSignal      = 9
)

// Indicators 指数技术指标
type Indicators struct {
	Date string  `json:"date"`
	MA5  float64 `json:"ma5"`
	MA10 float64 `json:"ma10"`
	MA20 float64 `json:"ma20"`
	MA60 float64 `json:"ma60"`

	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`

	RSI float64 `json:"rsi"`

	BollUpper  float64 `json:"boll_upper"`
	BollMiddle float64 `json:"boll_middle"`
	BollLower  float64 `json:"boll_lower"`

	Signals []Signal `json:"signals"`
}

// Signal 指标信号
type Signal struct {
	Type   string `json:"type"` // overbought/oversold/breakout_up/breakout_down/macd_bull/macd_bear
	Source string `json:"source"`
	Desc   string `json:"desc"`
}

// ComputeIndicators 根据指数序列计算技术指标，数据不足的指标为0
func ComputeIndicators(records []model.DayRecord) (*Indicators, error) {
	if len(records) == 0 {
		return nil, ErrNoHistory
	}
	values := indexValues(records)

	ind := &Indicators{
		Date: records[len(records)-1].Date,
		MA5:  model.Round(calculateMA(values, 5), 2),
		MA10: model.Round(calculateMA(values, 10), 2),
		MA20: model.Round(calculateMA(values, 20), 2),
		MA60: model.Round(calculateMA(values, 60), 2),
		RSI:  model.Round(calculateRSI(values, rsiPeriod), 2),
	}

	macd, signal, hist := calculateMACD(values)
	ind.MACD, ind.MACDSignal, ind.MACDHist = model.Round(macd, 4), model.Round(signal, 4), model.Round(hist, 4)

	upper, middle, lower := calculateBollinger(values, bollingerPeriod)
	ind.BollUpper, ind.BollMiddle, ind.BollLower = model.Round(upper, 2), model.Round(middle, 2), model.Round(lower, 2)

	ind.Signals = generateSignals(ind, values[len(values)-1], len(values))
	return ind, nil
}

// calculateEMA 指数移动平均，前period-1项为0
func calculateEMA(data []float64, period int) []float64 {
	if len(data) < period || period <= 0 {
		return nil
	}
	ema := make([]float64, len(data))
	multiplier := 2.0 / float64(period+1)

	// 第一个EMA使用SMA
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	ema[period-1] = sum / float64(period)
	for i := period; i < len(data); i++ {
		ema[i] = (data[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// calculateMACD DIF=EMA12-EMA26, DEA=EMA9(DIF)
func calculateMACD(values []float64) (macd, signal, hist float64) {
	if len(values) < macdSlow {
		return 0, 0, 0
	}
	fast := calculateEMA(values, macdFast)
	slow := calculateEMA(values, macdSlow)

	validStart := macdSlow - 1
	dif := make([]float64, len(values)-validStart)
	for i := validStart; i < len(values); i++ {
		dif[i-validStart] = fast[i] - slow[i]
	}
	macd = dif[len(dif)-1]

	dea := calculateEMA(dif, macdSignal)
	if dea == nil {
		return macd, 0, 0
	}
	signal = dea[len(dea)-1]
	return macd, signal, macd - signal
}

// calculateRSI Wilder平滑的RSI，数据不足时返回50
func calculateRSI(values []float64, period int) float64 {
	if len(values) < period+1 {
		return 50
	}
	gains := make([]float64, len(values)-1)
	losses := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if d := values[i] - values[i-1]; d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	alpha := 1.0 / float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = alpha*gains[i] + (1-alpha)*avgGain
		avgLoss = alpha*losses[i] + (1-alpha)*avgLoss
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rsi := 100 - 100/(1+avgGain/avgLoss)
	return math.Min(100, math.Max(0, rsi))
}

// calculateBollinger 布林带，中轨为MA，上下轨为两倍标准差
func calculateBollinger(values []float64, period int) (upper, middle, lower float64) {
	if len(values) < period {
		return 0, 0, 0
	}
	middle = calculateMA(values, period)
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += (values[i] - middle) * (values[i] - middle)
	}
	std := math.Sqrt(sum / float64(period))
	return middle + 2*std, middle, middle - 2*std
}

func generateSignals(ind *Indicators, last float64, n int) []Signal {
	signals := []Signal{}

	if n > rsiPeriod {
		if ind.RSI > 70 {
			signals = append(signals, Signal{Type: "overbought", Source: "RSI", Desc: "RSI高于70，指数短期涨幅过大"})
		} else if ind.RSI < 30 {
			signals = append(signals, Signal{Type: "oversold", Source: "RSI", Desc: "RSI低于30，指数短期跌幅过大"})
		}
	}

	if n >= bollingerPeriod && ind.BollUpper > ind.BollLower {
		if last > ind.BollUpper {
			signals = append(signals, Signal{Type: "breakout_up", Source: "BOLL", Desc: "指数突破布林带上轨"})
		} else if last < ind.BollLower {
			signals = append(signals, Signal{Type: "breakout_down", Source: "BOLL", Desc: "指数跌破布林带下轨"})
		}
	}

	if n >= macdSlow+macdSignal-1 {
		if ind.MACDHist > 0 {
			signals = append(signals, Signal{Type: "macd_bull", Source: "MACD", Desc: "DIF位于DEA上方"})
		} else if ind.MACDHist < 0 {
			signals = append(signals, Signal{Type: "macd_bear", Source: "MACD", Desc: "DIF位于DEA下方"})
		}
	}
	return signals
}
