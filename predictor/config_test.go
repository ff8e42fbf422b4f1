package predictor_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/bpsim/predictor"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should validate the defaults for every mode", func() {
		config := predictor.DefaultConfig()
		for _, mode := range allModes {
			Expect(config.Validate(mode)).To(Succeed())
		}
	})

	It("should round trip through a file", func() {
		config := predictor.DefaultConfig()
		config.GHistoryBits = 10
		config.TagHistoryLengths = []int{64, 16, 4}
		config.TagComponentCount = 3
		config.Seed = 99

		path := filepath.Join(dir, "predictor.json")
		Expect(config.SaveConfig(path)).To(Succeed())

		loaded, err := predictor.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should keep defaults for fields missing from the file", func() {
		path := filepath.Join(dir, "partial.json")
		Expect(os.WriteFile(path, []byte(`{"ghistory_bits": 8}`), 0644)).To(Succeed())

		loaded, err := predictor.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())

		want := predictor.DefaultConfig()
		want.GHistoryBits = 8
		Expect(loaded).To(Equal(want))
	})

	It("should fail on malformed JSON", func() {
		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte(`{"ghistory_bits": `), 0644)).To(Succeed())

		_, err := predictor.LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse predictor config")))
	})

	It("should fail on a missing file", func() {
		_, err := predictor.LoadConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read predictor config file")))
	})

	It("should clone deeply", func() {
		config := predictor.DefaultConfig()
		clone := config.Clone()
		clone.TagHistoryLengths[0] = 1

		Expect(config.TagHistoryLengths[0]).To(Equal(80))
		Expect(config.TAGEConfig().HistoryLengths).To(Equal([]int{80, 40, 20, 10, 5}))
	})

	It("should extract scheme sizing", func() {
		config := predictor.DefaultConfig()
		Expect(config.TournamentConfig()).To(Equal(predictor.TournamentConfig{
			HistoryBits:      12,
			PCIndexBits:      10,
			LocalHistoryBits: 11,
		}))

		tage := config.TAGEConfig()
		Expect(tage.BaseBits).To(Equal(uint(13)))
		Expect(tage.EntryCount).To(Equal(uint32(256)))
		Expect(tage.TagBits).To(Equal(uint(10)))
		Expect(tage.UsefulResetPeriod).To(Equal(uint64(262144)))
	})
})
