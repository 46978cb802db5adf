package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistics is a quick summary of a value sequence.
type Statistics struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	RMS  float64 `json:"rms"`
}

// ComputeStatistics summarizes values without removing the mean. Empty input
// yields zeros.
func ComputeStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Statistics{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(values),
		Max:  floats.Max(values),
		RMS:  math.Sqrt(floats.Dot(values, values) / float64(len(values))),
	}
}
