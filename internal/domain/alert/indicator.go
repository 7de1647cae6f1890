package alert

import "errors"

const (
	// RSIPeriod 相對強弱指標的預設期間。
	RSIPeriod = 14
	// PsychologyPeriod 心理線的預設期間。
	PsychologyPeriod = 12
)

// ErrNotEnoughData 收盤價筆數不足以計算指標。
var ErrNotEnoughData = errors.New("not enough closes for indicator")

// RSI 以 Wilder 平滑計算相對強弱指標，closes 由舊到新排列，回傳 0~100。
func RSI(closes []float64, period int) (float64, error) {
	if period <= 0 || len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}
	var gain, loss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var g, l float64
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
	}
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50, nil
		}
		return 100, nil
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// Psychology 心理線：最近 period 日中上漲日的比例（0~100）。
func Psychology(closes []float64, period int) (float64, error) {
	if period <= 0 || len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}
	recent := closes[len(closes)-period-1:]
	up := 0
	for i := 1; i < len(recent); i++ {
		if recent[i] > recent[i-1] {
			up++
		}
	}
	return float64(up) / float64(period) * 100, nil
}
