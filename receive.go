// Package receive implements the receive flow of a bitcoin/lightning wallet:
// it builds a payable request for an amount, watches the lightning and
// on-chain rails for settlement, and exposes the session as a view model.
package receive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vitwit/receive/clients"
	"github.com/vitwit/receive/contacts"
	"github.com/vitwit/receive/logger"
	"github.com/vitwit/receive/metrics"
	"github.com/vitwit/receive/present"
	"github.com/vitwit/receive/request"
	"github.com/vitwit/receive/settlement"
	"github.com/vitwit/receive/types"
	"github.com/vitwit/receive/utils"
	"github.com/vitwit/receive/verification"
)

// Controller owns one receive session at a time and moves it through
// edit -> show -> paid. It is safe for concurrent use.
type Controller struct {
	client   clients.WalletClient
	builder  *request.Builder
	poller   *settlement.Poller
	logger   logger.Logger
	metrics  metrics.Recorder
	nowFn    func() time.Time
	rootCtx  context.Context
	shutdown context.CancelFunc
	pollers  sync.WaitGroup

	timeout         time.Duration
	pollInterval    time.Duration
	feeThreshold    types.Sats
	resolveAll      bool
	skipVerify      bool
	explorerBase    string
	network         types.Network
	networkResolved bool

	mu         sync.Mutex
	closed     bool
	generation uint64
	poll       *pollHandle
	subs       map[int]chan Event
	nextSub    int
	session    session
}

// session is every field Clear resets.
type session struct {
	id            string
	state         types.ReceiveState
	amountText    string
	tags          []types.TagDescriptor
	materials     *types.RequestMaterials
	uri           string
	flavor        types.ReceiveFlavor
	paid          types.PaidState
	invoice       *types.Invoice
	tx            *types.OnChainTx
	lspFee        types.Sats
	loading       bool
	notifications []types.Notification
}

func newSession() session {
	return session{
		id:     uuid.NewString(),
		state:  types.StateEdit,
		flavor: types.FlavorUnified,
	}
}

type pollHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller for client.
func New(client clients.WalletClient, opts ...Option) *Controller {
	if client == nil {
		panic("wallet client required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		client:       client,
		logger:       logger.NoopLogger{},
		metrics:      metrics.NoopRecorder{},
		nowFn:        time.Now,
		rootCtx:      ctx,
		shutdown:     cancel,
		timeout:      types.DefaultEngineTimeout,
		pollInterval: types.DefaultPollInterval,
		feeThreshold: types.DefaultFeeWarningThreshold,
		network:      types.NetworkBitcoin,
		subs:         make(map[int]chan Event),
		session:      newSession(),
	}
	for _, opt := range opts {
		opt(c)
	}

	resolver := contacts.NewResolver(client, c.timeout,
		contacts.WithResolveAll(c.resolveAll),
		contacts.WithLogger(c.logger.Named("contacts")),
		contacts.WithMetrics(c.metrics),
	)
	c.builder = request.NewBuilder(client, resolver, c.timeout,
		request.WithVerifier(verification.NewVerifier(c.skipVerify)),
		request.WithLogger(c.logger.Named("request")),
		request.WithMetrics(c.metrics),
		request.WithClock(c.nowFn),
	)
	c.poller = settlement.NewPoller(client, c.timeout,
		settlement.WithLogger(c.logger.Named("settlement")),
		settlement.WithMetrics(c.metrics),
	)

	return c
}

// NewFromConfig validates cfg and creates a controller. When client is nil
// a JSON-RPC client is built from cfg.Engine.
func NewFromConfig(cfg *types.Config, client clients.WalletClient) (*Controller, error) {
	if cfg == nil {
		return nil, &types.ReceiveError{Code: types.ErrConfigError, Message: "config is required"}
	}
	if err := utils.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if client == nil {
		rpc, err := clients.NewRPCWalletClientFromConfig(cfg.Engine)
		if err != nil {
			return nil, err
		}
		client = rpc
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.EnableMetrics {
		recorder = metrics.NewPrometheusRecorder(nil)
	}

	return New(client,
		WithLogger(logger.NewZapLoggerWithOptions(logger.ZapOptions{Level: cfg.LogLevel, File: cfg.LogFile})),
		WithMetrics(recorder),
		WithNetwork(cfg.NetworkID()),
		WithTimeout(cfg.Timeout()),
		WithPollInterval(cfg.PollEvery()),
		WithFeeWarningThreshold(*cfg.FeeWarningThreshold),
		WithResolveAllTags(cfg.ResolveAllTags),
		WithMaterialVerification(!cfg.SkipMaterialVerification),
		WithExplorerBaseURL(cfg.ExplorerBaseURL),
	), nil
}

// SetAmount stores the amount text being edited.
func (c *Controller) SetAmount(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.state != types.StateEdit {
		return c.invalidState("set amount")
	}
	c.session.amountText = text
	return nil
}

// SetTags stores the sender tags for the next submission.
func (c *Controller) SetTags(tags []types.TagDescriptor) error {
	if err := utils.ValidateTags(tags); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.state != types.StateEdit {
		return c.invalidState("set tags")
	}
	c.session.tags = append([]types.TagDescriptor(nil), tags...)
	return nil
}

// CanSubmit reports whether Submit would be attempted.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Controller) canSubmitLocked() bool {
	return !c.closed &&
		c.session.state == types.StateEdit &&
		!c.session.loading &&
		utils.IsValidAmount(c.session.amountText)
}

// Submit builds a payment request for the current amount and tags. On
// success the session moves to show and polling starts. When even the
// address-only fallback fails the session stays in edit, an error
// notification is recorded and the error is returned.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.invalidState("submit on closed controller")
	}
	if c.session.state != types.StateEdit || c.session.loading {
		err := c.invalidState("submit")
		c.mu.Unlock()
		return err
	}
	amount, err := utils.ParseAmount(c.session.amountText)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	tags := append([]types.TagDescriptor(nil), c.session.tags...)
	gen := c.generation
	c.session.loading = true
	c.mu.Unlock()

	network := c.resolveNetwork(ctx)
	result, buildErr := c.builder.Build(ctx, network, amount, tags)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.closed {
		return c.invalidState("session changed during submit")
	}
	c.session.loading = false

	if buildErr != nil {
		c.logger.Error("receive request failed", map[string]any{
			"session_id": c.session.id,
			"amount":     uint64(amount),
			"error":      buildErr,
		})
		c.notifyLocked(types.SeverityError, buildErr)
		return buildErr
	}

	c.generation++
	c.session.materials = result.Materials
	c.session.uri = result.URI
	c.session.flavor = result.Flavor
	c.session.state = types.StateShow

	if result.Warning != nil {
		c.notifyLocked(types.SeverityWarning, result.Warning)
	}

	c.logger.Info("receive request ready", map[string]any{
		"session_id": c.session.id,
		"amount":     uint64(amount),
		"flavor":     result.Flavor.String(),
		"fallback":   result.Fallback(),
	})

	c.emitLocked(EventStateChanged)
	c.startPollingLocked()
	return nil
}

// SetFlavor picks the representation shown while in show.
func (c *Controller) SetFlavor(flavor types.ReceiveFlavor) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.state != types.StateShow {
		return c.invalidState("set flavor")
	}
	if !present.IsSelectable(flavor, c.session.materials) {
		return &types.ReceiveError{
			Code:    types.ErrUnsupportedFlavor,
			Message: fmt.Sprintf("flavor %q is not available for this request", flavor),
		}
	}
	if c.session.flavor == flavor {
		return nil
	}
	c.session.flavor = flavor
	c.emitLocked(EventFlavorChanged)
	return nil
}

// Edit returns from show to edit, discarding the request. Amount and tags
// are kept for the next submission.
func (c *Controller) Edit() error {
	c.mu.Lock()
	if c.session.state != types.StateShow {
		err := c.invalidState("edit")
		c.mu.Unlock()
		return err
	}
	c.generation++
	c.session.state = types.StateEdit
	c.session.materials = nil
	c.session.uri = ""
	c.session.flavor = types.FlavorUnified
	c.session.lspFee = 0
	handle := c.takePollLocked()
	c.emitLocked(EventStateChanged)
	c.mu.Unlock()

	stopPoll(handle)
	return nil
}

// Clear resets the session to a fresh edit state. It is used after the
// user acknowledged a payment and to abort a receive.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.generation++
	handle := c.takePollLocked()
	c.session = newSession()
	c.emitLocked(EventCleared)
	c.emitLocked(EventStateChanged)
	c.mu.Unlock()

	stopPoll(handle)
}

// CheckNow runs one settlement check outside the polling cadence.
func (c *Controller) CheckNow(ctx context.Context) (types.PaidState, bool) {
	c.mu.Lock()
	if c.session.state != types.StateShow {
		paid := c.session.paid
		c.mu.Unlock()
		return paid, paid != types.PaidNone
	}
	materials := c.session.materials
	gen := c.generation
	c.mu.Unlock()

	obs := c.poller.Check(ctx, materials)
	c.applyObservation(gen, obs)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.paid, c.session.paid != types.PaidNone
}

// Close stops polling and closes every subscription. The controller cannot
// be used afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	handle := c.takePollLocked()
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.mu.Unlock()

	stopPoll(handle)
	c.shutdown()
	c.pollers.Wait()
}

func (c *Controller) invalidState(op string) error {
	return &types.ReceiveError{
		Code:    types.ErrInvalidState,
		Message: fmt.Sprintf("cannot %s in state %s", op, c.session.state),
	}
}

// resolveNetwork asks the engine for its network once per controller. When
// the engine cannot answer, materials are checked without a network and the
// configured network is kept for display.
func (c *Controller) resolveNetwork(ctx context.Context) types.Network {
	c.mu.Lock()
	if c.networkResolved {
		n := c.network
		c.mu.Unlock()
		return n
	}
	configured := c.network
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	n, err := c.client.GetNetwork(callCtx)
	if err != nil {
		c.logger.Warn("engine network unavailable, skipping network checks", map[string]any{
			"configured": configured.String(),
			"error":      err,
		})
		return types.NetworkUnknown
	}

	if n != configured {
		c.logger.Info("engine reports a different network than configured", map[string]any{
			"configured": configured.String(),
			"engine":     n.String(),
		})
	}

	c.mu.Lock()
	c.network = n
	c.networkResolved = true
	c.mu.Unlock()
	return n
}

func (c *Controller) notifyLocked(severity types.Severity, err error) {
	code := types.ErrFallbackRequest
	message := err.Error()
	var re *types.ReceiveError
	if errors.As(err, &re) {
		code = re.Code
		message = re.Message
	}
	n := types.Notification{
		Severity: severity,
		Code:     code,
		Message:  message,
		At:       c.nowFn(),
	}
	c.session.notifications = append(c.session.notifications, n)
	c.emitNotificationLocked(n)
}
