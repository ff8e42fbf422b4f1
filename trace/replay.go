package trace

import (
	"io"

	"github.com/sarchlab/bpsim/predictor"
)

// Target is anything that predicts and then trains on branches:
// a *predictor.Predictor or one of the bare schemes.
type Target interface {
	Predict(pc uint32) predictor.Outcome
	Train(pc uint32, outcome predictor.Outcome)
}

// Result is the outcome of replaying a trace through one Target.
type Result struct {
	Name  string
	Stats Stats
	// WindowRates holds the misprediction rate, as a percentage, of every
	// complete window when a window size was set.
	WindowRates []float64
}

// Summary summarizes the per-window misprediction rates.
func (r Result) Summary() (Summary, error) {
	return Summarize(r.WindowRates)
}

// ReplayOption is a functional option for Replay and Compare.
type ReplayOption func(*replayConfig)

type replayConfig struct {
	window uint64
}

// WithWindow records the misprediction rate of every n consecutive branches.
func WithWindow(n uint64) ReplayOption {
	return func(c *replayConfig) {
		c.window = n
	}
}

// Entrant names a Target taking part in a Compare run.
type Entrant struct {
	Name   string
	Target Target
}

type tally struct {
	result      Result
	windowMiss  uint64
	windowCount uint64
}

func (t *tally) record(predicted, actual predictor.Outcome, window uint64) {
	s := &t.result.Stats
	s.Branches++
	if actual == predictor.Taken {
		s.Taken++
	}
	if predicted == actual {
		s.Correct++
	} else {
		s.Mispredictions++
		t.windowMiss++
	}

	if window == 0 {
		return
	}
	t.windowCount++
	if t.windowCount == window {
		t.result.WindowRates = append(t.result.WindowRates,
			float64(t.windowMiss)/float64(window)*100)
		t.windowMiss = 0
		t.windowCount = 0
	}
}

// Replay feeds every branch of src through target, predicting before
// training, and tallies the predictions.
func Replay(src Source, target Target, opts ...ReplayOption) (Result, error) {
	results, err := Compare(src, []Entrant{{Target: target}}, opts...)
	if len(results) == 0 {
		return Result{}, err
	}
	return results[0], err
}

// Compare replays src once, feeding each branch to every entrant in order.
// Entrants must not share state with each other.
func Compare(
	src Source,
	entrants []Entrant,
	opts ...ReplayOption,
) ([]Result, error) {
	config := replayConfig{}
	for _, opt := range opts {
		opt(&config)
	}

	tallies := make([]tally, len(entrants))
	for i, e := range entrants {
		tallies[i].result.Name = e.Name
	}

	collect := func() []Result {
		results := make([]Result, len(tallies))
		for i := range tallies {
			results[i] = tallies[i].result
		}
		return results
	}

	for {
		rec, err := src.Next()
		if err == io.EOF {
			return collect(), nil
		}
		if err != nil {
			return collect(), err
		}

		for i, e := range entrants {
			predicted := e.Target.Predict(rec.PC)
			e.Target.Train(rec.PC, rec.Outcome)
			tallies[i].record(predicted, rec.Outcome, config.window)
		}
	}
}
