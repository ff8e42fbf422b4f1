package predictor

// Source identifies which side of the tournament supplies a prediction.
type Source uint8

const (
	// Global is the gshare-style global history side.
	Global Source = iota
	// Local is the per-address local history side.
	Local
)

func (s Source) String() string {
	if s == Local {
		return "Local"
	}
	return "Global"
}

// TournamentConfig sizes a tournament predictor.
type TournamentConfig struct {
	// HistoryBits is the global history width and the log2 size of both the
	// global counter table and the choice table.
	HistoryBits uint
	// PCIndexBits is the log2 number of local history registers.
	PCIndexBits uint
	// LocalHistoryBits is the local history width and the log2 size of the
	// local pattern table.
	LocalHistoryBits uint
}

// Tournament combines a global history predictor and a local history
// predictor, with a table of choice counters that learns which one to trust.
// The choice counters reuse the 2-bit law: not-taken states select Global,
// taken states select Local.
type Tournament struct {
	global *globalCore

	localHistories []HistoryRegister
	localMask      uint32
	localPatterns  *counterTable

	choice *counterTable
}

// NewTournament creates a tournament predictor.
func NewTournament(config TournamentConfig) *Tournament {
	return newTournament(config, newReporter(nil))
}

func newTournament(config TournamentConfig, report *reporter) *Tournament {
	t := &Tournament{
		global:         newGlobalCore("tournament.global", config.HistoryBits, report),
		localHistories: make([]HistoryRegister, Pow2(config.PCIndexBits)),
		localMask:      Mask(config.PCIndexBits),
		localPatterns: newCounterTable("tournament.local",
			config.LocalHistoryBits, report),
		choice: newCounterTable("tournament.choice", config.HistoryBits, report),
	}

	for i := range t.localHistories {
		t.localHistories[i] = NewHistoryRegister(config.LocalHistoryBits)
	}

	return t
}

// localRegister returns the history register for pc. Addresses that share
// their low PCIndexBits share a register.
func (t *Tournament) localRegister(pc uint32) *HistoryRegister {
	return &t.localHistories[pc&t.localMask]
}

func (t *Tournament) localIndex(pc uint32) tableIndex {
	return t.localPatterns.index(t.localRegister(pc).Value())
}

func (t *Tournament) choiceIndex() tableIndex {
	return t.choice.index(t.global.history.Value())
}

func (t *Tournament) choose(idx tableIndex) Source {
	if t.choice.predict(idx) == Taken {
		return Local
	}
	return Global
}

// Predict makes a direction prediction for the branch at pc.
func (t *Tournament) Predict(pc uint32) Outcome {
	globalPred := t.global.predict(pc)
	localPred := t.localPatterns.predict(t.localIndex(pc))

	if t.choose(t.choiceIndex()) == Local {
		return localPred
	}
	return globalPred
}

// Choice returns the side the arbiter currently selects for pc. The choice
// table is indexed by global history alone, so every pc gets the same
// answer at a given point in the trace.
func (t *Tournament) Choice(pc uint32) Source {
	return t.choose(t.choiceIndex())
}

// SubPredictions returns what the global and local sides predict for pc.
func (t *Tournament) SubPredictions(pc uint32) (global, local Outcome) {
	return t.global.predict(pc), t.localPatterns.predict(t.localIndex(pc))
}

// LocalHistory returns the local history register used for pc.
func (t *Tournament) LocalHistory(pc uint32) uint32 {
	return t.localRegister(pc).Value()
}

// GlobalHistory returns the global history register.
func (t *Tournament) GlobalHistory() uint32 {
	return t.global.history.Value()
}

// Train updates the predictor with the resolved outcome of the branch at pc.
// All indices are taken from the state Predict saw, before any history is
// shifted.
func (t *Tournament) Train(pc uint32, outcome Outcome) {
	globalPred := t.global.predict(pc)
	localIdx := t.localIndex(pc)
	localPred := t.localPatterns.predict(localIdx)
	choiceIdx := t.choiceIndex()

	// The arbiter only learns when the two sides disagree.
	if globalPred != localPred {
		if localPred == outcome {
			t.choice.update(choiceIdx, Taken)
		} else {
			t.choice.update(choiceIdx, NotTaken)
		}
	}

	t.global.train(pc, outcome)

	t.localPatterns.update(localIdx, outcome)
	t.localRegister(pc).Shift(outcome)
}

// Reset restores the initial state.
func (t *Tournament) Reset() {
	t.global.reset()
	for i := range t.localHistories {
		t.localHistories[i].Reset()
	}
	t.localPatterns.reset()
	t.choice.reset()
}
