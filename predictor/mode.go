package predictor

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned when a Config cannot size the tables of
	// the requested mode.
	ErrInvalidConfig = errors.New("invalid predictor configuration")
	// ErrUnsupportedMode is returned for a mode that is not one of
	// ModeStatic, ModeGshare, ModeTournament or ModeCustom.
	ErrUnsupportedMode = errors.New("unsupported predictor mode")
	// ErrReleased is the panic value of Predict and Train after Cleanup.
	ErrReleased = errors.New("predictor used after cleanup")
)

// Mode selects the prediction scheme.
type Mode int

const (
	// ModeStatic always predicts taken and ignores training.
	ModeStatic Mode = iota
	// ModeGshare uses a single global-history XOR table.
	ModeGshare
	// ModeTournament arbitrates between global and local history predictors.
	ModeTournament
	// ModeCustom is the TAGE tagged geometric-history predictor.
	ModeCustom
)

var modeNames = [...]string{"Static", "Gshare", "Tournament", "Custom"}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "Unknown"
	}
	return modeNames[m]
}

// ParseMode converts a mode name, case-insensitively, into a Mode. "tage" is
// accepted as an alias for ModeCustom.
func ParseMode(name string) (Mode, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range modeNames {
		if strings.ToLower(n) == lower {
			return Mode(i), nil
		}
	}
	if lower == "tage" {
		return ModeCustom, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedMode, "%q", name)
}
