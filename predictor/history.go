package predictor

// MaxTableBits bounds every configured index width. Larger tables would not
// fit the 32-bit branch addresses the predictors index with.
const MaxTableBits = 30

// Pow2 returns 2^k.
func Pow2(k uint) uint32 {
	return 1 << k
}

// Mask returns a mask selecting the low k bits, i.e. 2^k - 1.
func Mask(k uint) uint32 {
	return Pow2(k) - 1
}

// Log2 returns k such that 2^k == n. ok is false if n is not a power of two
// within MaxTableBits.
func Log2(n uint32) (k uint, ok bool) {
	for i := uint(0); i <= MaxTableBits; i++ {
		if Pow2(i) == n {
			return i, true
		}
	}
	return 0, false
}

// HistoryRegister is a shift register of recent branch outcomes. The newest
// outcome is in bit 0. Bits above the register width are kept in storage
// but never observed through Value.
type HistoryRegister struct {
	bits  uint64
	width uint
}

// NewHistoryRegister creates an all-not-taken register of the given width.
func NewHistoryRegister(width uint) HistoryRegister {
	return HistoryRegister{width: width}
}

// Width returns the number of meaningful bits.
func (h *HistoryRegister) Width() uint {
	return h.width
}

// Value returns the low Width bits of the register.
func (h *HistoryRegister) Value() uint32 {
	return uint32(h.bits) & Mask(h.width)
}

// Shift records outcome as the newest history bit.
func (h *HistoryRegister) Shift(outcome Outcome) {
	h.bits = (h.bits << 1) | outcome.bit()
}

// Reset clears the register.
func (h *HistoryRegister) Reset() {
	h.bits = 0
}
