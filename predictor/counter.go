// Package predictor implements conditional branch direction predictors for
// trace-driven simulation: gshare, a global/local tournament, and a
// TAGE-style tagged geometric-history predictor, behind a single façade.
//
// Every scheme is built from the same pieces: 2-bit saturating counters kept
// in power-of-two tables, indexed by hashes of the branch address and a
// history of recent outcomes.
package predictor

// Outcome is the resolved (or predicted) direction of a conditional branch.
type Outcome uint8

const (
	// NotTaken means the branch falls through.
	NotTaken Outcome = 0
	// Taken means the branch jumps to its target.
	Taken Outcome = 1
)

// OutcomeOf converts a boolean taken flag into an Outcome.
func OutcomeOf(taken bool) Outcome {
	if taken {
		return Taken
	}
	return NotTaken
}

// Taken reports whether o is Taken.
func (o Outcome) Taken() bool {
	return o == Taken
}

// bit returns the value shifted into history registers.
func (o Outcome) bit() uint64 {
	if o == Taken {
		return 1
	}
	return 0
}

func (o Outcome) String() string {
	if o == Taken {
		return "Taken"
	}
	return "NotTaken"
}

// Counter is a 2-bit saturating counter. States: 0=Strongly Not Taken,
// 1=Weakly Not Taken, 2=Weakly Taken, 3=Strongly Taken.
type Counter uint8

const (
	StrongNotTaken Counter = iota
	WeakNotTaken
	WeakTaken
	StrongTaken
)

// InitialCounter is the state every counter table starts in: a mild
// not-taken bias.
const InitialCounter = WeakNotTaken

// Valid reports whether c holds one of the four legal states.
func (c Counter) Valid() bool {
	return c <= StrongTaken
}

// Predict maps the counter state to a direction. Illegal states predict
// NotTaken.
func (c Counter) Predict() Outcome {
	switch c {
	case WeakTaken, StrongTaken:
		return Taken
	default:
		return NotTaken
	}
}

// Next returns the state after observing outcome. The counter saturates at
// both ends. An illegal state is returned unchanged.
func (c Counter) Next(outcome Outcome) Counter {
	if !c.Valid() {
		return c
	}

	if outcome == Taken {
		if c < StrongTaken {
			return c + 1
		}
		return c
	}

	if c > StrongNotTaken {
		return c - 1
	}
	return c
}

func (c Counter) String() string {
	switch c {
	case StrongNotTaken:
		return "SN"
	case WeakNotTaken:
		return "WN"
	case WeakTaken:
		return "WT"
	case StrongTaken:
		return "ST"
	default:
		return "invalid"
	}
}
