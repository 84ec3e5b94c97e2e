//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package client assembles the public SDK surface: provider lookup, auth,
// the subscription registry, the connection manager, the event queue, and
// the binary decoders, wired together behind start/stop/join/leave/stats.
// It generalizes the teacher's cmd/ws_options.go connectAndStreamOptions
// helper (dial, subscribe, read, print) into a reusable, long-lived client
// with runtime-swappable callbacks.
package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cloudmanic/realtime-go/internal/auth"
	"github.com/cloudmanic/realtime-go/internal/codec"
	"github.com/cloudmanic/realtime-go/internal/config"
	"github.com/cloudmanic/realtime-go/internal/errs"
	"github.com/cloudmanic/realtime-go/internal/provider"
	"github.com/cloudmanic/realtime-go/internal/queue"
	"github.com/cloudmanic/realtime-go/internal/registry"
	"github.com/cloudmanic/realtime-go/internal/transport"
)

// OnTrade, OnQuote, OnRefresh, and OnUnusualActivity are the callback slots
// a Client dispatches decoded events to. Only the payload relevant to the
// event's concrete type is set on the Event; callers type-switch on
// Event.Type. A callback left unset silently drops events of that type
// (still counted in Stats).
type (
	EventCallback func(codec.Event)
	RawCallback   func(frame []byte)
)

// Stats mirrors queue.Stats, the coherent counters getStats() exposes.
type Stats = queue.Stats

// drainTimeout bounds how long Stop waits for the queue to empty before
// force-unblocking workers, per spec.md §5's cancellation contract.
const drainTimeout = 5 * time.Second

// Client is the top-level SDK handle: one WebSocket connection, its worker
// pool, and the subscription registry that survives reconnects. A process
// may construct multiple Clients with disjoint configuration; there are no
// package-level globals.
type Client struct {
	cfg     *config.Config
	profile *provider.Profile
	decoder codec.FrameDecoder

	registry *registry.Registry
	queue    *queue.Queue
	manager  *transport.Manager

	logger *slog.Logger

	metricsReg   prometheus.Registerer
	metricsLabel string

	cbMu               sync.RWMutex
	onTrade            EventCallback
	onQuote            EventCallback
	onRefresh          EventCallback
	onUnusualActivity  EventCallback
	onRaw              RawCallback

	terminalMu  sync.Mutex
	terminalErr error
}

// Option configures optional Client behavior beyond the required config and
// callbacks.
type Option func(*Client)

// WithLogger overrides the default slog.Default() logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics registers Prometheus collectors for the event queue under
// clientLabel. Metrics are entirely optional; omit this option to run with
// no Prometheus dependency at runtime.
func WithMetrics(reg prometheus.Registerer, clientLabel string) Option {
	return func(c *Client) {
		c.metricsReg = reg
		c.metricsLabel = clientLabel
	}
}

// New constructs a Client from cfg, which must already satisfy Validate().
// onTrade and onQuote may be nil, in which case events of that type are
// dropped; onRefresh and onUnusualActivity apply only to options providers
// and are set with SetOnRefresh and SetOnUnusualActivity.
func New(cfg *config.Config, onTrade, onQuote EventCallback, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	profile, err := provider.Lookup(cfg.Provider, cfg.Delayed, cfg.ManualIPAddress)
	if err != nil {
		return nil, errs.Config(err)
	}

	var decoder codec.FrameDecoder
	switch profile.WireVariant {
	case provider.WireOptions:
		decoder = &codec.OptionsDecoder{}
	default:
		decoder = &codec.EquitiesDecoder{}
	}

	c := &Client{
		cfg:      cfg,
		profile:  profile,
		decoder:  decoder,
		registry: registry.New(),
		logger:   slog.Default(),
		onTrade:  onTrade,
		onQuote:  onQuote,
	}

	for _, opt := range opts {
		opt(c)
	}

	var metrics *queue.Metrics
	if c.metricsReg != nil {
		metrics = queue.NewMetrics(c.metricsReg, c.metricsLabel)
	}

	numWorkers := cfg.NumThreads
	c.queue = queue.New(cfg.MaxQueueSize, numWorkers, c.handleFrame, c.logger, metrics)

	c.manager = transport.New(transport.Config{
		Profile:    profile,
		APIKey:     cfg.APIKey,
		Registry:   c.registry,
		Queue:      c.queue,
		Auth:       auth.NewClient(),
		Logger:     c.logger,
		OnTerminal: c.onTerminal,
	})

	return c, nil
}

// Start authenticates, dials, and subscribes to every channel in
// cfg.Symbols. Returns once authentication resolves; the dial, the
// connection itself, and reconnects run in the background.
// Channels are registered before dialing so the Manager's first
// flushSubscriptions pass (run once READY) picks them up directly, the same
// path a reconnect replay takes.
func (c *Client) Start(ctx context.Context) error {
	for _, s := range c.cfg.Symbols {
		c.registry.Join(s)
	}

	return c.manager.Start(ctx)
}

// Stop tears down the connection, drains the queue, and releases every
// resource acquired by Start.
func (c *Client) Stop() {
	c.manager.Stop(drainTimeout)
}

// Join subscribes to one or more channels (symbols or option contracts).
// Idempotent: re-joining an already-joined channel is a no-op on the wire.
func (c *Client) Join(channels ...string) {
	for _, ch := range channels {
		if c.registry.Join(ch) {
			c.manager.SendJoin(ch)
		}
	}
}

// JoinFirehose subscribes to the provider's firehose/lobby sentinel,
// delivering every symbol's stream.
func (c *Client) JoinFirehose() {
	c.registry.SetFirehose(true)
	c.manager.SendJoin(c.profile.FirehoseSentinel)
}

// Leave unsubscribes from one or more channels. A channel not currently
// joined is a no-op.
func (c *Client) Leave(channels ...string) {
	for _, ch := range channels {
		if c.registry.Leave(ch) {
			c.manager.SendLeave(ch)
		}
	}
}

// LeaveAll unsubscribes from every currently-joined channel.
func (c *Client) LeaveAll() {
	removed := c.registry.LeaveAll()
	for _, ch := range removed {
		c.manager.SendLeave(ch)
	}
	if c.registry.Firehose() {
		c.registry.SetFirehose(false)
		c.manager.SendLeave(c.profile.FirehoseSentinel)
	}
}

// GetStats returns a coherent snapshot of the event queue's counters.
func (c *Client) GetStats() Stats {
	return c.queue.Stats()
}

// SetOnTrade swaps the trade callback at runtime. Safe to call while the
// client is streaming; workers read the callback under a read-lock.
func (c *Client) SetOnTrade(cb EventCallback) {
	c.cbMu.Lock()
	c.onTrade = cb
	c.cbMu.Unlock()
}

// SetOnQuote swaps the quote callback at runtime.
func (c *Client) SetOnQuote(cb EventCallback) {
	c.cbMu.Lock()
	c.onQuote = cb
	c.cbMu.Unlock()
}

// SetOnRefresh swaps the options-refresh callback at runtime.
func (c *Client) SetOnRefresh(cb EventCallback) {
	c.cbMu.Lock()
	c.onRefresh = cb
	c.cbMu.Unlock()
}

// SetOnUnusualActivity swaps the options-unusual-activity callback at
// runtime.
func (c *Client) SetOnUnusualActivity(cb EventCallback) {
	c.cbMu.Lock()
	c.onUnusualActivity = cb
	c.cbMu.Unlock()
}

// SetOnRaw swaps the bypassParsing raw-frame callback at runtime.
func (c *Client) SetOnRaw(cb RawCallback) {
	c.cbMu.Lock()
	c.onRaw = cb
	c.cbMu.Unlock()
}

// TerminalErr returns the fatal error that stopped the client (e.g.
// ReconnectExhausted), or nil if the client is running or was stopped
// deliberately via Stop.
func (c *Client) TerminalErr() error {
	c.terminalMu.Lock()
	defer c.terminalMu.Unlock()
	return c.terminalErr
}

func (c *Client) onTerminal(err error) {
	c.terminalMu.Lock()
	c.terminalErr = err
	c.terminalMu.Unlock()
	c.logger.Error("client stopped permanently", "err", err)
}

// handleFrame is the queue.Handler: decode (or bypass) one frame and
// dispatch each resulting event to the registered callback. Runs on a
// worker goroutine; the queue's dispatch wraps this call in a recover
// boundary, so a panic in a user callback never kills the worker.
func (c *Client) handleFrame(f queue.Frame) {
	if f.IsText {
		// Phoenix-channel acks/replies; no user-visible event.
		return
	}

	if c.cfg.BypassParsing {
		c.cbMu.RLock()
		cb := c.onRaw
		c.cbMu.RUnlock()
		if cb != nil {
			cb(f.Data)
		}
		return
	}

	events, err := c.decoder.Decode(f.Data)
	if err != nil {
		c.queue.IncrementMalformed()
		c.logger.Warn("malformed frame", "err", err)
	}

	for _, ev := range events {
		c.dispatch(ev)
	}
}

func (c *Client) dispatch(ev codec.Event) {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()

	switch ev.Type {
	case codec.EventEquitiesTrade, codec.EventOptionsTrade:
		if c.onTrade != nil {
			c.onTrade(ev)
		}
	case codec.EventEquitiesQuote, codec.EventOptionsQuote:
		if c.onQuote != nil {
			c.onQuote(ev)
		}
	case codec.EventOptionsRefresh:
		if c.onRefresh != nil {
			c.onRefresh(ev)
		}
	case codec.EventOptionsUnusualActivity:
		if c.onUnusualActivity != nil {
			c.onUnusualActivity(ev)
		}
	}
}
