package predictor

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-multierror/multierror"
	"github.com/pkg/errors"
)

// MaxTagHistoryLength bounds the history length of a tagged component.
const MaxTagHistoryLength = 1024

// Config holds the table sizing for every predictor scheme. Only the fields
// used by the selected Mode are validated and read. A Config is copied into
// the predictor at construction and never changes afterwards.
type Config struct {
	// GHistoryBits is the global history width for gshare. The table has
	// 2^GHistoryBits counters. Default: 14.
	GHistoryBits int `json:"ghistory_bits"`

	// TourHistoryBits is the global history width of the tournament
	// predictor, sizing both its global table and its choice table.
	// Default: 12.
	TourHistoryBits int `json:"tour_history_bits"`

	// PCIndexBits is the number of pc bits selecting a local history
	// register in the tournament predictor. Default: 10.
	PCIndexBits int `json:"pc_index_bits"`

	// LocalHistoryBits is the local history width of the tournament
	// predictor, sizing its local pattern table. Default: 11.
	LocalHistoryBits int `json:"local_history_bits"`

	// TAGEBaseBits is the history width and log2 table size of the TAGE
	// base predictor. Default: 13.
	TAGEBaseBits int `json:"tage_base_bits"`

	// TagComponentCount is the number of tagged TAGE components. It must
	// match the length of TagHistoryLengths. Default: 5.
	TagComponentCount int `json:"tag_component_count"`

	// TagHistoryLengths is the global history length of each tagged
	// component. Default: 80, 40, 20, 10, 5.
	TagHistoryLengths []int `json:"tag_history_lengths"`

	// TagEntryCount is the number of entries per tagged component. Must be
	// a power of 2. Default: 256.
	TagEntryCount int `json:"tag_entry_count"`

	// TagBits is the tag width of tagged entries. Default: 10.
	TagBits int `json:"tag_bits"`

	// UsefulResetPeriod is the number of branches between halvings of all
	// usefulness counters. Zero disables aging. Default: 262144.
	UsefulResetPeriod uint64 `json:"useful_reset_period"`

	// Seed initializes the TAGE allocation PRNG. Default: 1.
	Seed uint64 `json:"seed"`
}

// DefaultConfig returns the sizing used by the reference predictors.
func DefaultConfig() Config {
	return Config{
		GHistoryBits:      14,
		TourHistoryBits:   12,
		PCIndexBits:       10,
		LocalHistoryBits:  11,
		TAGEBaseBits:      13,
		TagComponentCount: 5,
		TagHistoryLengths: []int{80, 40, 20, 10, 5},
		TagEntryCount:     256,
		TagBits:           10,
		UsefulResetPeriod: 256 * 1024,
		Seed:              1,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read predictor config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse predictor config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize predictor config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write predictor config file: %w", err)
	}

	return nil
}

// Clone returns a deep copy of the Config.
func (c Config) Clone() Config {
	clone := c
	clone.TagHistoryLengths = append([]int(nil), c.TagHistoryLengths...)
	return clone
}

func checkBits(name string, bits int) error {
	if bits <= 0 {
		return errors.Errorf("%s must be > 0, got %d", name, bits)
	}
	if bits > MaxTableBits {
		return errors.Errorf("%s must be <= %d, got %d", name, MaxTableBits, bits)
	}
	return nil
}

// Validate reports every sizing problem relevant to mode at once.
func (c Config) Validate(mode Mode) error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	switch mode {
	case ModeStatic:
	case ModeGshare:
		add(checkBits("ghistory_bits", c.GHistoryBits))
	case ModeTournament:
		add(checkBits("tour_history_bits", c.TourHistoryBits))
		add(checkBits("pc_index_bits", c.PCIndexBits))
		add(checkBits("local_history_bits", c.LocalHistoryBits))
	case ModeCustom:
		errs = append(errs, c.validateTAGE()...)
	default:
		return errors.Wrapf(ErrUnsupportedMode, "mode %d", int(mode))
	}

	if len(errs) == 0 {
		return nil
	}

	return errors.Wrapf(ErrInvalidConfig, "%s: %v", mode, multierror.Of(errs...))
}

func (c Config) validateTAGE() []error {
	var errs []error

	if err := checkBits("tage_base_bits", c.TAGEBaseBits); err != nil {
		errs = append(errs, err)
	}

	if c.TagComponentCount <= 0 {
		errs = append(errs, errors.Errorf(
			"tag_component_count must be > 0, got %d", c.TagComponentCount))
	}
	if c.TagComponentCount != len(c.TagHistoryLengths) {
		errs = append(errs, errors.Errorf(
			"tag_component_count is %d but %d tag_history_lengths are given",
			c.TagComponentCount, len(c.TagHistoryLengths)))
	}
	for i, l := range c.TagHistoryLengths {
		if l <= 0 || l > MaxTagHistoryLength {
			errs = append(errs, errors.Errorf(
				"tag_history_lengths[%d] must be in [1, %d], got %d",
				i, MaxTagHistoryLength, l))
		}
	}

	if c.TagEntryCount < 2 {
		errs = append(errs, errors.Errorf(
			"tag_entry_count must be >= 2, got %d", c.TagEntryCount))
	} else if _, ok := Log2(uint32(c.TagEntryCount)); !ok {
		errs = append(errs, errors.Errorf(
			"tag_entry_count must be a power of 2, got %d", c.TagEntryCount))
	}

	if c.TagBits < 2 || c.TagBits > 16 {
		errs = append(errs, errors.Errorf(
			"tag_bits must be in [2, 16], got %d", c.TagBits))
	}

	return errs
}

// TournamentConfig extracts the tournament sizing.
func (c Config) TournamentConfig() TournamentConfig {
	return TournamentConfig{
		HistoryBits:      uint(c.TourHistoryBits),
		PCIndexBits:      uint(c.PCIndexBits),
		LocalHistoryBits: uint(c.LocalHistoryBits),
	}
}

// TAGEConfig extracts the TAGE sizing.
func (c Config) TAGEConfig() TAGEConfig {
	return TAGEConfig{
		BaseBits:          uint(c.TAGEBaseBits),
		HistoryLengths:    append([]int(nil), c.TagHistoryLengths...),
		EntryCount:        uint32(c.TagEntryCount),
		TagBits:           uint(c.TagBits),
		UsefulResetPeriod: c.UsefulResetPeriod,
		Seed:              c.Seed,
	}
}
