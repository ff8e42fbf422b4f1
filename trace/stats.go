package trace

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Stats holds prediction statistics for one replayed trace.
type Stats struct {
	// Branches is the total number of conditional branches replayed.
	Branches uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// Taken is the number of branches whose outcome was taken.
	Taken uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Branches) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Branches) * 100
}

// Summary describes how the misprediction rate varied across fixed-size
// windows of a trace.
type Summary struct {
	Windows int
	Mean    float64
	StdDev  float64
	P90     float64
	Max     float64
}

// Summarize computes a Summary over per-window misprediction rates.
// An empty input gives a zero Summary.
func Summarize(rates []float64) (Summary, error) {
	if len(rates) == 0 {
		return Summary{}, nil
	}

	data := stats.LoadRawData(rates)
	s := Summary{Windows: len(rates)}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, errors.Wrap(err, "mean")
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, errors.Wrap(err, "standard deviation")
	}
	if s.P90, err = stats.Percentile(data, 90); err != nil {
		return Summary{}, errors.Wrap(err, "90th percentile")
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, errors.Wrap(err, "max")
	}

	return s, nil
}
