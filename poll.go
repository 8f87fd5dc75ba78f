package receive

import (
	"context"

	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/settlement"
	"github.com/vitwit/receive/types"
)

// startPollingLocked starts the settlement loop for the current request.
// Only one loop runs per controller; checks never overlap.
func (c *Controller) startPollingLocked() {
	if c.poll != nil || c.closed {
		return
	}

	ctx, cancel := context.WithCancel(c.rootCtx)
	handle := &pollHandle{cancel: cancel, done: make(chan struct{})}
	c.poll = handle

	gen := c.generation
	materials := c.session.materials
	interval := c.pollInterval
	sessionID := c.session.id

	c.pollers.Add(1)
	go func() {
		defer c.pollers.Done()
		defer close(handle.done)

		c.logger.Debug("settlement polling started", map[string]any{
			"session_id": sessionID,
			"interval":   interval.String(),
		})
		_, settled := c.poller.Run(ctx, materials, interval, func(obs settlement.Observation) {
			c.applyObservation(gen, obs)
		})
		c.logger.Debug("settlement polling stopped", map[string]any{
			"session_id": sessionID,
			"settled":    settled,
		})
	}()
}

// takePollLocked detaches the running loop, if any. The caller stops it
// with stopPoll after releasing the lock.
func (c *Controller) takePollLocked() *pollHandle {
	h := c.poll
	c.poll = nil
	return h
}

func stopPoll(h *pollHandle) {
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}

// applyObservation folds a settlement check into the session. Observations
// for an older request, or arriving after the session left show, are
// dropped. The first settling observation wins.
func (c *Controller) applyObservation(gen uint64, obs settlement.Observation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.session.state != types.StateShow {
		return
	}

	if obs.LspFee != nil && *obs.LspFee != c.session.lspFee {
		c.session.lspFee = *obs.LspFee
		c.emitLocked(EventFeeObserved)
	}

	if !obs.Settled() {
		return
	}

	c.session.paid = obs.Paid
	c.session.invoice = obs.Invoice
	c.session.tx = obs.Transaction
	c.session.state = types.StatePaid

	c.metrics.IncCounter(metrics.EventSettled, map[string]string{"rail": obs.Paid.Rail()})
	c.logger.Info("receive settled", map[string]any{
		"session_id": c.session.id,
		"paid":       string(obs.Paid),
		"lsp_fee":    uint64(c.session.lspFee),
	})

	c.emitLocked(EventSettled)
	c.emitLocked(EventStateChanged)

	// This may run on the loop goroutine, so cancel without waiting.
	if h := c.takePollLocked(); h != nil {
		h.cancel()
	}
}
