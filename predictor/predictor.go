package predictor

import (
	log "github.com/sirupsen/logrus"
)

// scheme is the common shape of every prediction scheme.
type scheme interface {
	Predict(pc uint32) Outcome
	Train(pc uint32, outcome Outcome)
	Reset()
}

// staticScheme always predicts taken and owns no state.
type staticScheme struct{}

func (staticScheme) Predict(uint32) Outcome { return Taken }
func (staticScheme) Train(uint32, Outcome)  {}
func (staticScheme) Reset()                 {}

// Option is a functional option for configuring the Predictor.
type Option func(*Predictor)

// WithLogger sets the logger that receives diagnostics. The default is the
// logrus standard logger.
func WithLogger(logger log.FieldLogger) Option {
	return func(p *Predictor) {
		p.logger = logger
	}
}

// WithStrictOrder enables checking that every Train follows a Predict for
// the same pc. Violations are logged and counted; they never change
// predictions or training.
func WithStrictOrder() Option {
	return func(p *Predictor) {
		p.strict = true
	}
}

// Predictor dispatches Predict and Train to the scheme selected by its Mode.
//
// The caller must call Predict for a branch before calling Train with the
// same pc and the resolved outcome, exactly once per branch occurrence.
// A Predictor is not safe for concurrent use; independent predictors share
// no state.
type Predictor struct {
	mode   Mode
	config Config
	scheme scheme

	logger log.FieldLogger
	report *reporter

	strict    bool
	pending   bool
	pendingPC uint32
}

// New validates config for mode and allocates the tables of that mode only.
func New(mode Mode, config Config, opts ...Option) (*Predictor, error) {
	if err := config.Validate(mode); err != nil {
		return nil, err
	}

	p := &Predictor{
		mode:   mode,
		config: config.Clone(),
	}

	for _, opt := range opts {
		opt(p)
	}

	p.report = newReporter(p.logger)

	switch mode {
	case ModeStatic:
		p.scheme = staticScheme{}
	case ModeGshare:
		p.scheme = newGshare(uint(config.GHistoryBits), p.report)
	case ModeTournament:
		p.scheme = newTournament(config.TournamentConfig(), p.report)
	case ModeCustom:
		p.scheme = newTAGE(config.TAGEConfig(), p.report)
	}

	p.report.logger.WithFields(log.Fields{
		"mode": mode.String(),
	}).Debug("Predictor initialized")

	return p, nil
}

// Mode returns the active scheme.
func (p *Predictor) Mode() Mode {
	return p.mode
}

// Config returns a copy of the configuration the predictor was built with.
func (p *Predictor) Config() Config {
	return p.config.Clone()
}

// Diagnostics returns the counts of invariant and ordering violations seen
// so far.
func (p *Predictor) Diagnostics() Diagnostics {
	return p.report.diag
}

func (p *Predictor) active() scheme {
	if p.scheme == nil {
		panic(ErrReleased)
	}
	return p.scheme
}

// Predict returns the predicted direction of the branch at pc. It does not
// change any table or history.
func (p *Predictor) Predict(pc uint32) Outcome {
	s := p.active()

	if p.strict {
		p.pending = true
		p.pendingPC = pc
	}

	return s.Predict(pc)
}

// Train updates the active scheme with the resolved outcome of the branch at
// pc.
func (p *Predictor) Train(pc uint32, outcome Outcome) {
	s := p.active()

	if p.strict {
		if !p.pending || p.pendingPC != pc {
			p.report.orderViolation(p.pendingPC, pc, p.pending)
		}
		p.pending = false
	}

	s.Train(pc, outcome)
}

// Reset restores every table and history register of the active scheme to
// its initial state without reallocating. Diagnostics are kept.
func (p *Predictor) Reset() {
	p.active().Reset()
	p.pending = false
}

// Cleanup releases the tables of the active scheme. Calling it again has no
// effect. Predict, Train and Reset panic with ErrReleased afterwards.
func (p *Predictor) Cleanup() {
	if p.scheme == nil {
		return
	}
	p.scheme = nil
	p.pending = false

	p.report.logger.WithFields(log.Fields{
		"mode": p.mode.String(),
	}).Debug("Predictor released")
}
