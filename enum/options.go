package enum

import (
	"github.com/crillab/sparsenum/logger"
	"github.com/crillab/sparsenum/metrics"
)

// DefaultTolerance is the default maximal difference between a returned score and the score of the oracle.
const DefaultTolerance = 1e-6

type options struct {
	logger    logger.Logger
	metrics   *metrics.Metrics
	checks    bool
	tolerance float64
}

func defaultOptions() options {
	return options{
		logger:    logger.NewNoopLogger(),
		checks:    true,
		tolerance: DefaultTolerance,
	}
}

// An Option configures an enumerator.
type Option func(*options)

// WithLogger sets the logger of the enumerator.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collectors the enumerator reports to. A nil value disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithChecks enables or disables the runtime checks: duplicate detection in caches and
// comparison of every returned score with the score of the oracle.
// Checks are enabled by default.
func WithChecks(checks bool) Option {
	return func(o *options) { o.checks = checks }
}

// WithTolerance sets the maximal difference accepted between a returned score and the oracle's,
// relative to the magnitude of the score when it is greater than 1.
func WithTolerance(tol float64) Option {
	return func(o *options) { o.tolerance = tol }
}
