// Package request builds payable receive requests from the wallet engine,
// falling back to an address-only request when a unified one is unavailable.
package request

import (
	"context"
	"errors"
	"time"

	"github.com/vitwit/receive/clients"
	"github.com/vitwit/receive/contacts"
	"github.com/vitwit/receive/logger"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
	"github.com/vitwit/receive/utils"
	"github.com/vitwit/receive/verification"
)

// Result is a successfully built request.
type Result struct {
	Materials *types.RequestMaterials
	// URI is the unified payment URI, or the bare address on the fallback path.
	URI    string
	Flavor types.ReceiveFlavor
	// Warning is set when the unified attempt failed and the fallback was used.
	Warning *types.ReceiveError
}

// Fallback reports whether the result is address-only.
func (r *Result) Fallback() bool {
	return r != nil && !r.Materials.HasInvoice()
}

// Builder builds receive requests
type Builder struct {
	client   clients.WalletClient
	resolver *contacts.Resolver
	verifier *verification.Verifier
	timeout  time.Duration
	logger   logger.Logger
	metrics  metrics.Recorder
	nowFn    func() time.Time
}

type Option func(*Builder)

func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		b.logger = logger.OrNoop(l)
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(b *Builder) {
		b.metrics = metrics.OrNoop(m)
	}
}

func WithVerifier(v *verification.Verifier) Option {
	return func(b *Builder) {
		b.verifier = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.nowFn = now
		}
	}
}

// NewBuilder creates a builder. timeout bounds each engine call.
func NewBuilder(client clients.WalletClient, resolver *contacts.Resolver, timeout time.Duration, opts ...Option) *Builder {
	if client == nil {
		panic("wallet client required")
	}
	if timeout <= 0 {
		timeout = types.DefaultEngineTimeout
	}
	if resolver == nil {
		resolver = contacts.NewResolver(client, timeout)
	}
	b := &Builder{
		client:   client,
		resolver: resolver,
		verifier: verification.NewVerifier(false),
		timeout:  timeout,
		logger:   logger.NoopLogger{},
		metrics:  metrics.NoopRecorder{},
		nowFn:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build resolves tags and requests a unified payment request for amount,
// falling back to an address-only request. The unified attempt always
// completes before the fallback starts. On complete failure the returned
// error has code FALLBACK_REQUEST_FAILED and wraps both causes.
func (b *Builder) Build(
	ctx context.Context,
	network types.Network,
	amount types.Sats,
	tags []types.TagDescriptor,
) (*Result, error) {
	ids, err := b.resolver.Resolve(ctx, tags)
	if err != nil {
		b.metrics.IncCounter(metrics.EventBuildFailed, nil)
		return nil, &types.ReceiveError{
			Code:    types.ErrTagResolution,
			Message: "failed to resolve tags",
			Err:     err,
		}
	}

	result, unifiedErr := b.buildUnified(ctx, network, amount, ids)
	if unifiedErr == nil {
		b.metrics.IncCounter(metrics.EventBuildUnified, nil)
		return result, nil
	}

	b.logger.Warn("unified request failed, falling back to address", map[string]any{
		"amount": uint64(amount),
		"error":  unifiedErr,
	})

	warning := &types.ReceiveError{
		Code:    types.ErrUnifiedRequest,
		Message: clients.FriendlyMessage(unifiedErr),
		Err:     unifiedErr,
	}

	result, fallbackErr := b.buildAddress(ctx, network, ids)
	if fallbackErr != nil {
		b.metrics.IncCounter(metrics.EventBuildFailed, nil)
		b.logger.Error("address request failed", map[string]any{"error": fallbackErr})
		return nil, &types.ReceiveError{
			Code:    types.ErrFallbackRequest,
			Message: clients.FriendlyMessage(fallbackErr),
			Err:     errors.Join(fallbackErr, warning),
		}
	}

	b.metrics.IncCounter(metrics.EventBuildFallback, nil)
	result.Warning = warning
	return result, nil
}

func (b *Builder) buildUnified(
	ctx context.Context,
	network types.Network,
	amount types.Sats,
	ids []types.ContactID,
) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	m, err := b.client.CreateUnifiedRequest(callCtx, amount, ids)
	b.metrics.ObserveLatency("create_unified_request", time.Since(start), map[string]string{"rail": "lightning"})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &types.ReceiveError{Code: types.ErrInvalidMaterials, Message: "engine returned no materials"}
	}

	materials := *m
	materials.Amount = amount
	materials.ContactIDs = ids
	materials.CreatedAt = b.nowFn()

	if err := b.verifier.VerifyUnified(network, amount, &materials); err != nil {
		return nil, err
	}

	uri, err := utils.UnifiedURI(&materials)
	if err != nil {
		return nil, err
	}

	return &Result{
		Materials: &materials,
		URI:       uri,
		Flavor:    types.FlavorUnified,
	}, nil
}

func (b *Builder) buildAddress(
	ctx context.Context,
	network types.Network,
	ids []types.ContactID,
) (*Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	m, err := b.client.CreateAddressRequest(callCtx, ids)
	b.metrics.ObserveLatency("create_address_request", time.Since(start), map[string]string{"rail": "onchain"})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &types.ReceiveError{Code: types.ErrInvalidMaterials, Message: "engine returned no materials"}
	}

	materials := types.RequestMaterials{
		Address:    m.Address,
		ContactIDs: ids,
		CreatedAt:  b.nowFn(),
	}

	if err := b.verifier.VerifyAddress(network, &materials); err != nil {
		return nil, err
	}

	return &Result{
		Materials: &materials,
		URI:       materials.Address,
		Flavor:    types.FlavorOnchain,
	}, nil
}
