package predictor_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/bpsim/predictor"
)

type branch struct {
	pc      uint32
	outcome predictor.Outcome
}

func randomBranches(seed int64, n int) []branch {
	rng := rand.New(rand.NewSource(seed))
	branches := make([]branch, n)
	for i := range branches {
		branches[i] = branch{
			pc:      uint32(rng.Intn(64)) * 4,
			outcome: predictor.OutcomeOf(rng.Intn(4) != 0),
		}
	}
	return branches
}

func replay(p interface {
	Predict(uint32) predictor.Outcome
	Train(uint32, predictor.Outcome)
}, branches []branch) []predictor.Outcome {
	out := make([]predictor.Outcome, len(branches))
	for i, b := range branches {
		out[i] = p.Predict(b.pc)
		p.Train(b.pc, b.outcome)
	}
	return out
}

var allModes = []predictor.Mode{
	predictor.ModeStatic,
	predictor.ModeGshare,
	predictor.ModeTournament,
	predictor.ModeCustom,
}

var _ = Describe("Predictor", func() {
	var logger, _ = test.NewNullLogger()

	newPredictor := func(mode predictor.Mode, opts ...predictor.Option) *predictor.Predictor {
		opts = append([]predictor.Option{predictor.WithLogger(logger)}, opts...)
		p, err := predictor.New(mode, predictor.DefaultConfig(), opts...)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	It("should construct every mode from the default config", func() {
		for _, mode := range allModes {
			p := newPredictor(mode)
			Expect(p.Mode()).To(Equal(mode))
			Expect(p.Config()).To(Equal(predictor.DefaultConfig()))
			p.Cleanup()
		}
	})

	It("should always predict taken in static mode", func() {
		p := newPredictor(predictor.ModeStatic)
		for _, b := range randomBranches(1, 200) {
			Expect(p.Predict(b.pc)).To(Equal(predictor.Taken))
			p.Train(b.pc, b.outcome)
		}
	})

	It("should accept any sizing in static mode", func() {
		p, err := predictor.New(predictor.ModeStatic, predictor.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Predict(0x40)).To(Equal(predictor.Taken))
	})

	DescribeTable("invalid sizing",
		func(mode predictor.Mode, mutate func(*predictor.Config)) {
			config := predictor.DefaultConfig()
			mutate(&config)
			_, err := predictor.New(mode, config)
			Expect(err).To(MatchError(predictor.ErrInvalidConfig))
		},
		Entry("zero gshare bits", predictor.ModeGshare,
			func(c *predictor.Config) { c.GHistoryBits = 0 }),
		Entry("oversized gshare table", predictor.ModeGshare,
			func(c *predictor.Config) { c.GHistoryBits = 31 }),
		Entry("zero local history", predictor.ModeTournament,
			func(c *predictor.Config) { c.LocalHistoryBits = 0 }),
		Entry("negative pc index", predictor.ModeTournament,
			func(c *predictor.Config) { c.PCIndexBits = -1 }),
		Entry("component count mismatch", predictor.ModeCustom,
			func(c *predictor.Config) { c.TagComponentCount = 4 }),
		Entry("entry count not a power of two", predictor.ModeCustom,
			func(c *predictor.Config) { c.TagEntryCount = 300 }),
		Entry("tag too wide", predictor.ModeCustom,
			func(c *predictor.Config) { c.TagBits = 17 }),
		Entry("history too long", predictor.ModeCustom,
			func(c *predictor.Config) { c.TagHistoryLengths[0] = 2000 }),
	)

	It("should only validate the fields of the selected mode", func() {
		config := predictor.DefaultConfig()
		config.TagBits = 0
		_, err := predictor.New(predictor.ModeGshare, config)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report every invalid field at once", func() {
		config := predictor.DefaultConfig()
		config.TourHistoryBits = 0
		config.PCIndexBits = 40
		config.LocalHistoryBits = -3

		err := config.Validate(predictor.ModeTournament)
		Expect(err).To(MatchError(predictor.ErrInvalidConfig))
		Expect(err.Error()).To(ContainSubstring("tour_history_bits"))
		Expect(err.Error()).To(ContainSubstring("pc_index_bits"))
		Expect(err.Error()).To(ContainSubstring("local_history_bits"))
	})

	It("should reject an unknown mode", func() {
		_, err := predictor.New(predictor.Mode(7), predictor.DefaultConfig())
		Expect(err).To(MatchError(predictor.ErrUnsupportedMode))
		Expect(predictor.Mode(7).String()).To(Equal("Unknown"))
	})

	DescribeTable("ParseMode",
		func(name string, want predictor.Mode) {
			mode, err := predictor.ParseMode(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(mode).To(Equal(want))
		},
		Entry("static", "static", predictor.ModeStatic),
		Entry("mixed case", "GShare", predictor.ModeGshare),
		Entry("padded", " tournament ", predictor.ModeTournament),
		Entry("custom", "custom", predictor.ModeCustom),
		Entry("tage alias", "TAGE", predictor.ModeCustom),
	)

	It("should reject an unknown mode name", func() {
		_, err := predictor.ParseMode("perceptron")
		Expect(err).To(MatchError(predictor.ErrUnsupportedMode))
	})

	It("should make cleanup idempotent and final", func() {
		p := newPredictor(predictor.ModeTournament)
		p.Predict(0x10)
		p.Train(0x10, predictor.Taken)

		p.Cleanup()
		Expect(p.Cleanup).NotTo(Panic())

		Expect(func() { p.Predict(0x10) }).To(PanicWith(predictor.ErrReleased))
		Expect(func() { p.Train(0x10, predictor.Taken) }).To(PanicWith(predictor.ErrReleased))
		Expect(p.Reset).To(PanicWith(predictor.ErrReleased))
		Expect(p.Mode()).To(Equal(predictor.ModeTournament))
	})

	It("should count out of order training in strict mode", func() {
		p := newPredictor(predictor.ModeGshare, predictor.WithStrictOrder())

		p.Predict(0x10)
		p.Train(0x10, predictor.Taken)
		Expect(p.Diagnostics().OrderViolations).To(BeZero())

		p.Train(0x10, predictor.Taken)
		Expect(p.Diagnostics().OrderViolations).To(Equal(uint64(1)))

		p.Predict(0x20)
		p.Train(0x30, predictor.NotTaken)
		Expect(p.Diagnostics().OrderViolations).To(Equal(uint64(2)))
	})

	It("should not check ordering unless asked", func() {
		p := newPredictor(predictor.ModeGshare)
		p.Train(0x10, predictor.Taken)
		p.Train(0x20, predictor.Taken)
		Expect(p.Diagnostics()).To(Equal(predictor.Diagnostics{}))
	})

	It("should predict exactly like a bare gshare", func() {
		p := newPredictor(predictor.ModeGshare)
		g := predictor.NewGshare(uint(predictor.DefaultConfig().GHistoryBits))

		branches := randomBranches(2, 3000)
		Expect(replay(p, branches)).To(Equal(replay(g, branches)))
	})

	It("should predict exactly like a bare tournament", func() {
		p := newPredictor(predictor.ModeTournament)
		t := predictor.NewTournament(predictor.DefaultConfig().TournamentConfig())

		branches := randomBranches(3, 3000)
		Expect(replay(p, branches)).To(Equal(replay(t, branches)))
	})

	for _, mode := range allModes {
		mode := mode

		It("should be deterministic in "+mode.String()+" mode", func() {
			branches := randomBranches(4, 3000)
			first := replay(newPredictor(mode), branches)
			second := replay(newPredictor(mode), branches)
			Expect(first).To(Equal(second))
		})

		It("should forget everything on reset in "+mode.String()+" mode", func() {
			branches := randomBranches(5, 2000)
			p := newPredictor(mode)
			replay(p, randomBranches(6, 2000))

			p.Reset()
			Expect(replay(p, branches)).To(Equal(replay(newPredictor(mode), branches)))
		})
	}

	It("should learn a loop exit with the default TAGE sizing", func() {
		p := newPredictor(predictor.ModeCustom)
		pc := uint32(0x1234)

		misses := 0
		for i := 0; i < 7*200; i++ {
			outcome := predictor.OutcomeOf(i%7 != 6)
			if p.Predict(pc) != outcome && i >= 7*100 {
				misses++
			}
			p.Train(pc, outcome)
		}
		Expect(misses).To(BeNumerically("<", 5))
	})
})
