package predictor

// longHistory is a circular buffer of outcome bits, newest first. It holds
// one bit more than the longest history any component reads so the bit
// leaving a window is still available when the window slides.
type longHistory struct {
	bits []uint8
	head int
}

func newLongHistory(maxLength int) *longHistory {
	return &longHistory{bits: make([]uint8, maxLength+1)}
}

func (h *longHistory) push(outcome Outcome) {
	h.head--
	if h.head < 0 {
		h.head = len(h.bits) - 1
	}
	h.bits[h.head] = uint8(outcome.bit())
}

// bit returns the outcome i branches ago; bit(0) is the newest.
func (h *longHistory) bit(i int) uint32 {
	return uint32(h.bits[(h.head+i)%len(h.bits)])
}

func (h *longHistory) reset() {
	for i := range h.bits {
		h.bits[i] = 0
	}
	h.head = 0
}

// foldedHistory compresses the newest length bits of a longHistory into
// width bits by XOR-folding, maintained incrementally in O(1) per branch.
type foldedHistory struct {
	value    uint32
	length   int
	width    uint
	outPoint uint
}

func newFoldedHistory(length int, width uint) foldedHistory {
	return foldedHistory{
		length:   length,
		width:    width,
		outPoint: uint(length) % width,
	}
}

// update folds in the newest bit of h and folds out the bit that just left
// the window. Call it after pushing the outcome into h.
func (f *foldedHistory) update(h *longHistory) {
	f.value = (f.value << 1) | h.bit(0)
	f.value ^= h.bit(f.length) << f.outPoint
	f.value ^= f.value >> f.width
	f.value &= Mask(f.width)
}

func (f *foldedHistory) reset() {
	f.value = 0
}
