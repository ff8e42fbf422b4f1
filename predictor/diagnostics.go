package predictor

import (
	log "github.com/sirupsen/logrus"
)

// Diagnostics counts conditions that never change a prediction but indicate
// corrupted state or caller misuse.
type Diagnostics struct {
	// InvalidCounters is the number of times a counter outside the four
	// legal states was read or trained.
	InvalidCounters uint64
	// OrderViolations is the number of Train calls that did not follow a
	// Predict for the same pc. Only counted with WithStrictOrder.
	OrderViolations uint64
}

// reporter is the side channel shared by every table of one predictor.
type reporter struct {
	logger log.FieldLogger
	diag   Diagnostics
}

func newReporter(logger log.FieldLogger) *reporter {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &reporter{logger: logger}
}

func (r *reporter) invalidCounter(table string, idx tableIndex, c Counter) {
	r.diag.InvalidCounters++
	r.logger.WithFields(log.Fields{
		"table": table,
		"index": uint32(idx),
		"state": uint8(c),
	}).Warn("Undefined counter state, predicting not taken")
}

func (r *reporter) orderViolation(predicted, trained uint32, pending bool) {
	r.diag.OrderViolations++
	r.logger.WithFields(log.Fields{
		"predictedPC": predicted,
		"trainedPC":   trained,
		"pending":     pending,
	}).Warn("Train does not follow a matching Predict")
}
