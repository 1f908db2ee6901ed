package recorder

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"sesboard/core"
)

// Summary describes a window of recorded status samples
type Summary struct {
	Samples     int
	RunningFrac float64 // share of samples with the motor turning

	MeanHz, StdHz, MedianHz float64 // over running samples only

	MeanTempC, MaxTempC float64

	// DutyHzCorrelation is the Pearson correlation of duty and speed
	// while running, NaN with fewer than two distinct duties
	DutyHzCorrelation float64
}

// Summarize computes statistics over samples
func Summarize(samples []Sample) Summary {
	sum := Summary{Samples: len(samples), DutyHzCorrelation: math.NaN()}
	if len(samples) == 0 {
		return sum
	}

	temps := make([]float64, 0, len(samples))
	var hz, duty []float64
	for _, s := range samples {
		temps = append(temps, float64(s.TempDeciC)/core.TempPerDegree)
		if s.MotorOn {
			hz = append(hz, float64(s.MedianCentiHz)/core.FrequencyScale)
			duty = append(duty, float64(s.Duty))
		}
	}

	sum.RunningFrac = float64(len(hz)) / float64(len(samples))
	sum.MeanTempC = stat.Mean(temps, nil)
	sum.MaxTempC = temps[0]
	for _, t := range temps[1:] {
		sum.MaxTempC = math.Max(sum.MaxTempC, t)
	}

	if len(hz) > 0 {
		sum.MeanHz, sum.StdHz = stat.MeanStdDev(hz, nil)
		if len(hz) == 1 {
			sum.StdHz = 0
		}
		sorted := append([]float64(nil), hz...)
		sort.Float64s(sorted)
		sum.MedianHz = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	if len(hz) > 1 && !constant(duty) && !constant(hz) {
		sum.DutyHzCorrelation = stat.Correlation(duty, hz, nil)
	}
	return sum
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
