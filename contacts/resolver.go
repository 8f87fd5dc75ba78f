// Package contacts turns sender tags into wallet engine contact ids.
package contacts

import (
	"context"
	"time"

	"github.com/vitwit/receive/clients"
	"github.com/vitwit/receive/logger"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/types"
)

// Resolver resolves tag descriptors, creating contacts for new names.
type Resolver struct {
	client     clients.WalletClient
	timeout    time.Duration
	resolveAll bool
	logger     logger.Logger
	metrics    metrics.Recorder
}

type Option func(*Resolver)

// WithResolveAll makes the resolver process every descriptor instead of
// only the first.
func WithResolveAll(all bool) Option {
	return func(r *Resolver) {
		r.resolveAll = all
	}
}

func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger.OrNoop(l)
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(r *Resolver) {
		r.metrics = metrics.OrNoop(m)
	}
}

// NewResolver creates a resolver. timeout bounds each contact creation.
func NewResolver(client clients.WalletClient, timeout time.Duration, opts ...Option) *Resolver {
	if timeout <= 0 {
		timeout = types.DefaultEngineTimeout
	}
	r := &Resolver{
		client:  client,
		timeout: timeout,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the contact ids for descriptors. Descriptors without a
// name, and names whose contact could not be created, are dropped. The
// returned error is only set when resolution could not run at all.
func (r *Resolver) Resolve(ctx context.Context, descriptors []types.TagDescriptor) ([]types.ContactID, error) {
	if len(descriptors) == 0 {
		return []types.ContactID{}, nil
	}

	if r.client == nil {
		return nil, &types.ReceiveError{
			Code:    types.ErrTagResolution,
			Message: "no wallet client configured",
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &types.ReceiveError{
			Code:    types.ErrTagResolution,
			Message: "tag resolution cancelled",
			Err:     err,
		}
	}

	// TODO: drop the first-only default once tagging multiple senders on
	// one receive is a supported product flow.
	if !r.resolveAll {
		descriptors = descriptors[:1]
	}

	ids := make([]types.ContactID, 0, len(descriptors))
	seen := make(map[types.ContactID]struct{}, len(descriptors))
	for _, d := range descriptors {
		id, ok := r.resolveOne(ctx, d)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	return ids, nil
}

func (r *Resolver) resolveOne(ctx context.Context, d types.TagDescriptor) (types.ContactID, bool) {
	if d.Name == "" {
		return "", false
	}

	if d.ID != "" {
		return types.ContactID(d.ID), true
	}

	createCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	id, err := r.client.CreateContact(createCtx, d.Name)
	r.metrics.ObserveLatency("create_contact", time.Since(start), nil)
	if err != nil {
		r.metrics.IncCounter(metrics.EventTagResolveFailed, nil)
		r.logger.Warn("contact creation failed, dropping tag", map[string]any{
			"code":  types.ErrTagResolution,
			"name":  d.Name,
			"error": err,
		})
		return "", false
	}

	if id == "" {
		return "", false
	}

	r.logger.Debug("created contact for tag", map[string]any{"name": d.Name, "contact_id": string(id)})
	return id, true
}
