package indicator

import "pairlens/pkg/model"

// SMASeries computes the simple moving average of closes over the given
// period, aligned to the input. Entries before the window is satisfied
// are nil.
func SMASeries(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	var sum float64
	for i, c := range closes {
		sum += c
		if i >= period {
			sum -= closes[i-period]
		}
		if i >= period-1 {
			v := sum / float64(period)
			out[i] = &v
		}
	}
	return out
}

// RSISeries computes the Wilder-smoothed Relative Strength Index over the
// given period, aligned to the input. The first value appears at index
// period (period+1 observations needed); earlier entries are nil.
//
// Degenerate cases: avgLoss == 0 with avgGain > 0 yields 100; a flat
// window (avgGain == 0 and avgLoss == 0) yields 50.
func RSISeries(closes []float64, period int) []*float64 {
	out := make([]*float64, len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	// Seed averages from the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	v := rsiValue(avgGain, avgLoss)
	out[period] = &v

	// Wilder smoothing for the remaining sessions
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		v := rsiValue(avgGain, avgLoss)
		out[i] = &v
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0 // flat window, neutral by convention
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}

// Latest returns the last defined value of an aligned indicator series
func Latest(series []*float64) (float64, bool) {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != nil {
			return *series[i], true
		}
	}
	return 0, false
}

// Closes extracts closing prices from a candle series
func Closes(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
