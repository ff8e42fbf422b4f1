package predictor

// globalCore is a counter table indexed by pc XOR global history, together
// with the history register it is indexed by. Gshare, the tournament's
// global side and the TAGE base predictor are each one globalCore.
type globalCore struct {
	table   *counterTable
	history HistoryRegister
	mask    uint32
}

func newGlobalCore(name string, bits uint, report *reporter) *globalCore {
	return &globalCore{
		table:   newCounterTable(name, bits, report),
		history: NewHistoryRegister(bits),
		mask:    Mask(bits),
	}
}

func (g *globalCore) index(pc uint32) tableIndex {
	return g.table.index((pc & g.mask) ^ g.history.Value())
}

func (g *globalCore) predict(pc uint32) Outcome {
	return g.table.predict(g.index(pc))
}

// updateCounter trains the counter for pc without touching the history.
func (g *globalCore) updateCounter(pc uint32, outcome Outcome) {
	g.table.update(g.index(pc), outcome)
}

func (g *globalCore) shiftHistory(outcome Outcome) {
	g.history.Shift(outcome)
}

func (g *globalCore) train(pc uint32, outcome Outcome) {
	g.updateCounter(pc, outcome)
	g.shiftHistory(outcome)
}

func (g *globalCore) reset() {
	g.table.reset()
	g.history.Reset()
}

// Gshare predicts with a single table of 2-bit counters indexed by the XOR
// of the low pc bits and the global history.
type Gshare struct {
	core *globalCore
}

// NewGshare creates a gshare predictor with 2^historyBits counters.
func NewGshare(historyBits uint) *Gshare {
	return newGshare(historyBits, newReporter(nil))
}

func newGshare(historyBits uint, report *reporter) *Gshare {
	return &Gshare{core: newGlobalCore("gshare", historyBits, report)}
}

// Index returns the table slot consulted for pc under the current history.
func (g *Gshare) Index(pc uint32) uint32 {
	return uint32(g.core.index(pc))
}

// TableSize returns the number of counters.
func (g *Gshare) TableSize() int {
	return g.core.table.size()
}

// History returns the meaningful bits of the global history register.
func (g *Gshare) History() uint32 {
	return g.core.history.Value()
}

// Counter returns the counter that would be consulted for pc.
func (g *Gshare) Counter(pc uint32) Counter {
	return g.core.table.get(g.core.index(pc))
}

// Predict makes a direction prediction for the branch at pc.
func (g *Gshare) Predict(pc uint32) Outcome {
	return g.core.predict(pc)
}

// Train updates the counter for pc with the resolved outcome and shifts it
// into the global history.
func (g *Gshare) Train(pc uint32, outcome Outcome) {
	g.core.train(pc, outcome)
}

// Reset restores the initial state.
func (g *Gshare) Reset() {
	g.core.reset()
}
