package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// LossSummary describes an averaged loss curve.
type LossSummary struct {
	Windows     int     `json:"windows"`
	First       float64 `json:"first"`
	Last        float64 `json:"last"`
	Min         float64 `json:"min"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"std_dev"`
	Improvement float64 `json:"improvement"`
}

func SummarizeLoss(history []float64) LossSummary {
	if len(history) == 0 {
		return LossSummary{}
	}
	mean, std := stat.MeanStdDev(history, nil)
	if len(history) == 1 {
		std = 0
	}
	first, last := history[0], history[len(history)-1]
	return LossSummary{
		Windows:     len(history),
		First:       first,
		Last:        last,
		Min:         floats.Min(history),
		Mean:        mean,
		StdDev:      std,
		Improvement: first - last,
	}
}
