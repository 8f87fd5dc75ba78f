package settlement

import (
	"context"
	"time"

	"github.com/vitwit/receive/clients"
	"github.com/vitwit/receive/logger"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
)

// Observation is the outcome of one settlement check.
type Observation struct {
	Paid        types.PaidState
	Invoice     *types.Invoice
	Transaction *types.OnChainTx
	// LspFee is set whenever the invoice reports a fee, paid or not.
	LspFee *types.Sats
}

// Settled reports whether either rail settled.
func (o Observation) Settled() bool {
	return o.Paid != types.PaidNone
}

// Checker is the contract for a single settlement check
type Checker interface {
	Check(ctx context.Context, materials *types.RequestMaterials) Observation
}

// Poller checks both payment rails for a request.
type Poller struct {
	client  clients.WalletClient
	timeout time.Duration
	logger  logger.Logger
	metrics metrics.Recorder
}

var _ Checker = (*Poller)(nil)

type Option func(*Poller)

func WithLogger(l logger.Logger) Option {
	return func(p *Poller) {
		p.logger = logger.OrNoop(l)
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(p *Poller) {
		p.metrics = metrics.OrNoop(m)
	}
}

// NewPoller creates a poller. timeout bounds each lookup.
func NewPoller(client clients.WalletClient, timeout time.Duration, opts ...Option) *Poller {
	if client == nil {
		panic("wallet client required")
	}
	if timeout <= 0 {
		timeout = types.DefaultEngineTimeout
	}
	p := &Poller{
		client:  client,
		timeout: timeout,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Check looks for settlement of materials. The invoice is checked before
// the address and a paid invoice wins. Lookup failures are swallowed and
// read as "not settled yet"; the next check retries them.
func (p *Poller) Check(ctx context.Context, materials *types.RequestMaterials) Observation {
	var obs Observation
	if materials == nil {
		return obs
	}

	if materials.Invoice != "" {
		invoice := p.lookupInvoice(ctx, materials.Invoice)
		if invoice != nil {
			if invoice.FeesPaid != nil {
				fee := *invoice.FeesPaid
				obs.LspFee = &fee
			}
			if invoice.Paid {
				obs.Paid = types.LightningPaid
				obs.Invoice = invoice
				return obs
			}
		}
	}

	if materials.Address == "" {
		return obs
	}

	if tx := p.lookupAddress(ctx, materials.Address); tx != nil {
		obs.Paid = types.OnchainPaid
		obs.Transaction = tx
	}

	return obs
}

func (p *Poller) lookupInvoice(ctx context.Context, invoice string) *types.Invoice {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	result, err := p.client.GetInvoiceStatus(callCtx, invoice)
	p.metrics.ObserveLatency("get_invoice_status", time.Since(start), map[string]string{"rail": "lightning"})
	if err != nil {
		p.lookupFailed("lightning", err)
		return nil
	}
	return result
}

func (p *Poller) lookupAddress(ctx context.Context, address string) *types.OnChainTx {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	tx, err := p.client.CheckAddressForTx(callCtx, address)
	p.metrics.ObserveLatency("check_address_for_tx", time.Since(start), map[string]string{"rail": "onchain"})
	if err != nil {
		p.lookupFailed("onchain", err)
		return nil
	}
	return tx
}

func (p *Poller) lookupFailed(rail string, err error) {
	p.metrics.IncCounter(metrics.EventPollLookupError, map[string]string{"rail": rail})
	p.logger.Debug("settlement lookup failed", map[string]any{
		"code":  types.ErrPollLookup,
		"rail":  rail,
		"error": err,
	})
}

// Run checks materials once right away and then every interval until a
// check settles or ctx is done. onObservation receives every observation
// that settled or carried a fee. Run returns the settling observation, if
// any.
func (p *Poller) Run(
	ctx context.Context,
	materials *types.RequestMaterials,
	interval time.Duration,
	onObservation func(Observation),
) (Observation, bool) {
	if interval <= 0 {
		interval = types.DefaultPollInterval
	}

	check := func() (Observation, bool) {
		obs := p.Check(ctx, materials)
		if ctx.Err() != nil {
			return Observation{}, false
		}
		if onObservation != nil && (obs.Settled() || obs.LspFee != nil) {
			onObservation(obs)
		}
		return obs, obs.Settled()
	}

	if obs, ok := check(); ok || ctx.Err() != nil {
		return obs, ok
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return Observation{}, false
		case <-ticker.C:
			if obs, ok := check(); ok {
				return obs, true
			}
		}
	}
}
