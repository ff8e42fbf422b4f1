package predictor

// tableIndex is a position in a counterTable. It is only produced by
// counterTable.index, which masks to the table size, so every tableIndex
// is in range for the table that made it.
type tableIndex uint32

// counterTable is a power-of-two array of saturating counters.
type counterTable struct {
	name     string
	counters []Counter
	mask     uint32
	report   *reporter
}

func newCounterTable(name string, bits uint, report *reporter) *counterTable {
	t := &counterTable{
		name:     name,
		counters: make([]Counter, Pow2(bits)),
		mask:     Mask(bits),
		report:   report,
	}
	t.reset()
	return t
}

// index masks v into the table.
func (t *counterTable) index(v uint32) tableIndex {
	return tableIndex(v & t.mask)
}

func (t *counterTable) size() int {
	return len(t.counters)
}

func (t *counterTable) get(i tableIndex) Counter {
	return t.counters[i]
}

// predict reads the direction stored at i, reporting an illegal state.
func (t *counterTable) predict(i tableIndex) Outcome {
	c := t.counters[i]
	if !c.Valid() {
		t.report.invalidCounter(t.name, i, c)
	}
	return c.Predict()
}

// update moves the counter at i one step toward outcome.
func (t *counterTable) update(i tableIndex, outcome Outcome) {
	c := t.counters[i]
	if !c.Valid() {
		t.report.invalidCounter(t.name, i, c)
		return
	}
	t.counters[i] = c.Next(outcome)
}

func (t *counterTable) reset() {
	for i := range t.counters {
		t.counters[i] = InitialCounter
	}
}

// snapshot copies the counters, for comparing states.
func (t *counterTable) snapshot() []Counter {
	out := make([]Counter, len(t.counters))
	copy(out, t.counters)
	return out
}
