package predictor

import (
	"math/rand/v2"
	"sort"
	"strconv"
)

// maxUseful is the saturation point of the 2-bit usefulness counter.
const maxUseful = 3

// TAGEConfig sizes a TAGE predictor.
type TAGEConfig struct {
	// BaseBits is the log2 size of the base gshare table and its history
	// width.
	BaseBits uint
	// HistoryLengths holds one global history length per tagged component.
	HistoryLengths []int
	// EntryCount is the number of entries per tagged component. Must be a
	// power of 2.
	EntryCount uint32
	// TagBits is the tag width. Must be in [2, 16].
	TagBits uint
	// UsefulResetPeriod is the number of trained branches between halvings
	// of every usefulness counter. Zero disables aging.
	UsefulResetPeriod uint64
	// Seed drives the allocation choice between free components.
	Seed uint64
}

// tageEntry is one tagged slot. Only allocated entries are valid, so a fresh
// slot never matches a lookup.
type tageEntry struct {
	valid   bool
	tag     uint16
	counter Counter
	useful  uint8
}

// tageComponent is one tagged table with its own history length.
type tageComponent struct {
	name          string
	historyLength int
	entries       []tageEntry
	indexBits     uint
	tagMask       uint32

	indexFold foldedHistory
	tagFold1  foldedHistory
	tagFold2  foldedHistory
}

func newTAGEComponent(
	name string,
	historyLength int,
	indexBits, tagBits uint,
) *tageComponent {
	c := &tageComponent{
		name:          name,
		historyLength: historyLength,
		entries:       make([]tageEntry, Pow2(indexBits)),
		indexBits:     indexBits,
		tagMask:       Mask(tagBits),
		indexFold:     newFoldedHistory(historyLength, indexBits),
		tagFold1:      newFoldedHistory(historyLength, tagBits),
		tagFold2:      newFoldedHistory(historyLength, tagBits-1),
	}
	c.reset()
	return c
}

func (c *tageComponent) index(pc uint32) tableIndex {
	return tableIndex((pc ^ (pc >> c.indexBits) ^ c.indexFold.value) & Mask(c.indexBits))
}

func (c *tageComponent) tag(pc uint32) uint16 {
	return uint16((pc ^ c.tagFold1.value ^ (c.tagFold2.value << 1)) & c.tagMask)
}

func (c *tageComponent) updateFolds(h *longHistory) {
	c.indexFold.update(h)
	c.tagFold1.update(h)
	c.tagFold2.update(h)
}

func (c *tageComponent) reset() {
	for i := range c.entries {
		c.entries[i] = tageEntry{counter: InitialCounter}
	}
	c.indexFold.reset()
	c.tagFold1.reset()
	c.tagFold2.reset()
}

// tageLookup is the outcome of searching every component for pc.
type tageLookup struct {
	indices []tableIndex
	tags    []uint16

	// provider and alt are component positions, -1 for the base predictor.
	provider int
	alt      int

	providerPred Outcome
	altPred      Outcome
	pred         Outcome
}

func (l *tageLookup) reset() {
	clear(l.indices)
	clear(l.tags)
	l.provider, l.alt = 0, 0
	l.providerPred, l.altPred, l.pred = NotTaken, NotTaken, NotTaken
}

// TAGE is a tagged geometric-history-length predictor: a gshare base
// predictor backed by tagged components that each index with a different
// length of global history. The longest component whose tag matches makes
// the prediction.
type TAGE struct {
	base       *globalCore
	components []*tageComponent
	history    *longHistory

	usefulResetPeriod uint64
	trained           uint64

	seed uint64
	rng  *rand.Rand

	report *reporter
	lookup tageLookup
}

// NewTAGE creates a TAGE predictor. The configuration must already be
// valid; see Config.Validate.
func NewTAGE(config TAGEConfig) *TAGE {
	return newTAGE(config, newReporter(nil))
}

func newTAGE(config TAGEConfig, report *reporter) *TAGE {
	indexBits, _ := Log2(config.EntryCount)

	lengths := append([]int(nil), config.HistoryLengths...)
	sort.SliceStable(lengths, func(i, j int) bool {
		return lengths[i] > lengths[j]
	})

	t := &TAGE{
		base:              newGlobalCore("tage.base", config.BaseBits, report),
		components:        make([]*tageComponent, len(lengths)),
		usefulResetPeriod: config.UsefulResetPeriod,
		seed:              config.Seed,
		report:            report,
		lookup: tageLookup{
			indices: make([]tableIndex, len(lengths)),
			tags:    make([]uint16, len(lengths)),
		},
	}

	maxLength := 0
	for i, l := range lengths {
		t.components[i] = newTAGEComponent(
			"tage.t"+strconv.Itoa(l), l, indexBits, config.TagBits)
		if l > maxLength {
			maxLength = l
		}
	}
	t.history = newLongHistory(maxLength)
	t.rng = rand.New(rand.NewPCG(t.seed, t.seed))

	return t
}

// HistoryLengths returns the component history lengths, longest first.
func (t *TAGE) HistoryLengths() []int {
	out := make([]int, len(t.components))
	for i, c := range t.components {
		out[i] = c.historyLength
	}
	return out
}

func (t *TAGE) entryPredict(c *tageComponent, idx tableIndex) Outcome {
	counter := c.entries[idx].counter
	if !counter.Valid() {
		t.report.invalidCounter(c.name, idx, counter)
	}
	return counter.Predict()
}

// search fills t.lookup for pc from the current state.
func (t *TAGE) search(pc uint32) *tageLookup {
	l := &t.lookup
	l.provider, l.alt = -1, -1

	for i, c := range t.components {
		l.indices[i] = c.index(pc)
		l.tags[i] = c.tag(pc)

		if e := c.entries[l.indices[i]]; !e.valid || e.tag != l.tags[i] {
			continue
		}
		if l.provider < 0 {
			l.provider = i
		} else if l.alt < 0 {
			l.alt = i
		}
	}

	basePred := t.base.predict(pc)

	l.altPred = basePred
	if l.alt >= 0 {
		l.altPred = t.entryPredict(t.components[l.alt], l.indices[l.alt])
	}

	l.providerPred = basePred
	if l.provider >= 0 {
		l.providerPred = t.entryPredict(
			t.components[l.provider], l.indices[l.provider])
	}
	l.pred = l.providerPred

	return l
}

// Provider returns the history length of the component that would predict
// pc. ok is false when the base predictor would.
func (t *TAGE) Provider(pc uint32) (historyLength int, ok bool) {
	l := t.search(pc)
	if l.provider < 0 {
		return 0, false
	}
	return t.components[l.provider].historyLength, true
}

// Predict makes a direction prediction for the branch at pc.
func (t *TAGE) Predict(pc uint32) Outcome {
	return t.search(pc).pred
}

// Train updates the predictor with the resolved outcome of the branch at pc.
func (t *TAGE) Train(pc uint32, outcome Outcome) {
	l := t.search(pc)

	if l.provider >= 0 {
		c := t.components[l.provider]
		e := &c.entries[l.indices[l.provider]]

		if !e.counter.Valid() {
			t.report.invalidCounter(c.name, l.indices[l.provider], e.counter)
		} else {
			e.counter = e.counter.Next(outcome)
		}

		if l.providerPred != l.altPred {
			if l.providerPred == outcome {
				if e.useful < maxUseful {
					e.useful++
				}
			} else if e.useful > 0 {
				e.useful--
			}
		}
	} else {
		t.base.updateCounter(pc, outcome)
	}

	if l.pred != outcome {
		t.allocate(l, outcome)
	}

	t.trained++
	if t.usefulResetPeriod > 0 && t.trained%t.usefulResetPeriod == 0 {
		t.ageUseful()
	}

	t.base.shiftHistory(outcome)
	t.history.push(outcome)
	for _, c := range t.components {
		c.updateFolds(t.history)
	}
}

// allocate claims an entry in a component with longer history than the
// provider after a misprediction. If every candidate entry is still useful,
// they all lose one step of usefulness instead.
func (t *TAGE) allocate(l *tageLookup, outcome Outcome) {
	longer := l.provider
	if longer < 0 {
		longer = len(t.components)
	}

	// Components are ordered longest first, so walk downward from the
	// provider to visit candidates shortest first.
	first, second := -1, -1
	for i := longer - 1; i >= 0; i-- {
		if t.components[i].entries[l.indices[i]].useful != 0 {
			continue
		}
		if first < 0 {
			first = i
		} else {
			second = i
			break
		}
	}

	if first < 0 {
		for i := longer - 1; i >= 0; i-- {
			e := &t.components[i].entries[l.indices[i]]
			if e.useful > 0 {
				e.useful--
			}
		}
		return
	}

	chosen := first
	if second >= 0 && t.rng.IntN(2) == 0 {
		chosen = second
	}

	counter := WeakNotTaken
	if outcome == Taken {
		counter = WeakTaken
	}
	t.components[chosen].entries[l.indices[chosen]] = tageEntry{
		valid:   true,
		tag:     l.tags[chosen],
		counter: counter,
	}
}

func (t *TAGE) ageUseful() {
	for _, c := range t.components {
		for i := range c.entries {
			c.entries[i].useful >>= 1
		}
	}
}

// Reset restores the initial state, including the allocation PRNG.
func (t *TAGE) Reset() {
	t.base.reset()
	for _, c := range t.components {
		c.reset()
	}
	t.history.reset()
	t.trained = 0
	t.rng = rand.New(rand.NewPCG(t.seed, t.seed))
	t.lookup.reset()
}
