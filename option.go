package receive

import (
	"time"

	"github.com/vitwit/receive/logger"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
)

type Option func(*Controller)

func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		c.logger = logger.OrNoop(l)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Controller) {
		c.metrics = metrics.OrNoop(r)
	}
}

// WithTimeout bounds every wallet engine call.
func WithTimeout(t time.Duration) Option {
	return func(c *Controller) {
		if t > 0 {
			c.timeout = t
		}
	}
}

// WithPollInterval sets how often a shown request is checked for settlement.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithFeeWarningThreshold sets the LSP fee above which a setup fee notice is
// shown.
func WithFeeWarningThreshold(threshold types.Sats) Option {
	return func(c *Controller) {
		c.feeThreshold = threshold
	}
}

// WithResolveAllTags resolves every sender tag instead of only the first.
func WithResolveAllTags(all bool) Option {
	return func(c *Controller) {
		c.resolveAll = all
	}
}

// WithNetwork sets the network assumed until the engine reports its own.
func WithNetwork(n types.Network) Option {
	return func(c *Controller) {
		c.network = n
	}
}

func WithExplorerBaseURL(base string) Option {
	return func(c *Controller) {
		c.explorerBase = base
	}
}

// WithMaterialVerification toggles address and invoice checks on engine
// output. Enabled by default.
func WithMaterialVerification(enabled bool) Option {
	return func(c *Controller) {
		c.skipVerify = !enabled
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.nowFn = now
		}
	}
}
