//
// Date: 2026-02-15
// Copyright (c) 2026. All rights reserved.
//

// Package transport implements the Connection Manager: the state machine
// that authenticates, dials, subscribes, heartbeats, detects loss, and
// reconnects with backoff. It is adapted from the teacher's internal/ws
// client (mutex-guarded conn, Listen loop, graceful Close) generalized to
// the full lifecycle spec.md §4.5 describes, plus the heartbeat ticker the
// teacher's client never implemented.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cloudmanic/realtime-go/internal/errs"
	"github.com/cloudmanic/realtime-go/internal/provider"
	"github.com/cloudmanic/realtime-go/internal/queue"
	"github.com/cloudmanic/realtime-go/internal/registry"
)

// controlFrame is one outbound join/leave/heartbeat message awaiting write.
type controlFrame struct {
	data   []byte
	isText bool
}

const controlBufferSize = 1024

// TokenSource fetches a fresh bearer token for each dial. Implemented by
// internal/auth.Client in production and faked in tests.
type TokenSource interface {
	FetchToken(ctx context.Context, authURL string) (token string, expiry time.Time, err error)
}

// Manager drives one WebSocket connection's full lifecycle: authenticate,
// dial, flush subscriptions, heartbeat, detect loss, reconnect with
// randomized exponential backoff, and tear down cleanly on Stop.
type Manager struct {
	profile  *provider.Profile
	apiKey   string
	registry *registry.Registry
	queue    *queue.Queue
	auth     TokenSource
	logger   *slog.Logger

	heartbeatInterval time.Duration

	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	control chan controlFrame
	stopCh  chan struct{}
	doneCh  chan struct{}

	lastFrameAt atomic64

	onTerminal func(error) // invoked once on ReconnectExhausted or a fatal token error during reconnect
}

// Config configures a Manager.
type Config struct {
	Profile           *provider.Profile
	APIKey            string
	Registry          *registry.Registry
	Queue             *queue.Queue
	Auth              TokenSource
	Logger            *slog.Logger
	HeartbeatInterval time.Duration // defaults to 20s
	OnTerminal        func(error)
}

// New constructs a Manager in state IDLE. Call Start to begin the
// authenticate-dial-subscribe lifecycle.
func New(cfg Config) *Manager {
	hb := cfg.HeartbeatInterval
	if hb <= 0 {
		hb = 20 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		profile:           cfg.Profile,
		apiKey:            cfg.APIKey,
		registry:          cfg.Registry,
		queue:             cfg.Queue,
		auth:              cfg.Auth,
		logger:            logger,
		heartbeatInterval: hb,
		state:             StateIdle,
		control:           make(chan controlFrame, controlBufferSize),
		stopCh:            make(chan struct{}),
		doneCh:            make(chan struct{}),
		onTerminal:        cfg.OnTerminal,
	}
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.logger.Debug("connection state transition", "state", s.String())
}

// State returns the Manager's current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start authenticates, then dials and begins the reconnect-supervised run
// loop in the background. It returns once authentication resolves: the
// error for a failed token fetch (the Manager is then STOPPED), or nil once
// the first dial has been handed to the background goroutine.
func (m *Manager) Start(ctx context.Context) error {
	m.setState(StateAuthenticating)

	token, err := m.fetchToken(ctx)
	if err != nil {
		m.setState(StateStopped)
		return err
	}

	m.setState(StateDialing)
	go func() {
		// dialAndRun blocks for the life of the first connection; a
		// transient failure or a dropped connection falls into the
		// supervised reconnect loop.
		_ = m.dialAndRun(ctx, token)
		m.superviseReconnects(ctx)
	}()
	return nil
}

func (m *Manager) fetchToken(ctx context.Context) (string, error) {
	authURL := m.profile.AuthURL(m.apiKey)
	token, _, err := m.auth.FetchToken(ctx, authURL)
	if err != nil {
		return "", err
	}
	return token, nil
}

func isFatal(err error) bool {
	e, ok := err.(*errs.Error)
	if !ok {
		return false
	}
	return e.Kind == errs.KindAuth || e.Kind == errs.KindConfig || e.Kind == errs.KindReconnectExhausted
}

// dialAndRun dials the socket, flushes subscriptions, and blocks running the
// reader/writer/heartbeat loops until the connection drops or Stop is
// called.
func (m *Manager) dialAndRun(ctx context.Context, token string) error {
	url := m.profile.SocketURL(token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return errs.TransientNetwork(fmt.Errorf("dial %s: %w", url, err))
	}

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()
	m.setState(StateReady)
	m.lastFrameAt.Store(time.Now())

	m.flushSubscriptions()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	readerErrCh := make(chan error, 1)

	go m.writerLoop(runCtx, errCh)
	go m.heartbeatLoop(runCtx, errCh)
	go func() { readerErrCh <- m.readerLoop(conn) }()

	var runErr error
	select {
	case runErr = <-readerErrCh:
	case runErr = <-errCh:
		// A heartbeat timeout or writer failure: force the socket closed so
		// readerLoop's blocking ReadMessage unblocks and its goroutine exits.
		m.closeConn()
		<-readerErrCh
	}

	cancel()
	m.closeConn()

	if runErr != nil {
		return errs.TransientNetwork(runErr)
	}
	return nil
}

// flushSubscriptions walks the registry and emits a join control message for
// every currently-joined channel, in insertion order, satisfying the
// reconnect-replay invariant (spec.md §8 property 4).
func (m *Manager) flushSubscriptions() {
	for _, channel := range m.registry.Snapshot() {
		m.sendJoinLocked(channel)
	}
	if m.registry.Firehose() {
		m.sendJoinLocked(m.profile.FirehoseSentinel)
	}
}

func (m *Manager) sendJoinLocked(channel string) {
	data, isText, err := m.profile.JoinEncoder(channel)
	if err != nil {
		m.logger.Error("failed to encode join message", "channel", channel, "err", err)
		return
	}
	m.enqueueControl(controlFrame{data: data, isText: isText})
}

// SendJoin encodes and enqueues a join control message for channel if the
// connection is currently READY. The Subscription Registry mutation (the
// actual membership change) is the caller's responsibility; SendJoin only
// handles the on-the-wire side effect.
func (m *Manager) SendJoin(channel string) {
	if m.State() != StateReady {
		return
	}
	data, isText, err := m.profile.JoinEncoder(channel)
	if err != nil {
		m.logger.Error("failed to encode join message", "channel", channel, "err", err)
		return
	}
	m.enqueueControl(controlFrame{data: data, isText: isText})
}

// SendLeave encodes and enqueues a leave control message for channel if the
// connection is currently READY.
func (m *Manager) SendLeave(channel string) {
	if m.State() != StateReady {
		return
	}
	data, isText, err := m.profile.LeaveEncoder(channel)
	if err != nil {
		m.logger.Error("failed to encode leave message", "channel", channel, "err", err)
		return
	}
	m.enqueueControl(controlFrame{data: data, isText: isText})
}

func (m *Manager) enqueueControl(f controlFrame) {
	select {
	case m.control <- f:
	default:
		m.logger.Warn("control message buffer full, dropping message")
	}
}

func (m *Manager) writerLoop(ctx context.Context, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		case cf, ok := <-m.control:
			if !ok {
				return
			}
			if err := m.writeFrame(cf); err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
		}
	}
}

func (m *Manager) heartbeatLoop(ctx context.Context, errCh chan<- error) {
	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	timeoutTicker := time.NewTicker(m.heartbeatInterval)
	defer timeoutTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.profile.HeartbeatMessage != "" || !m.profile.HeartbeatIsText {
				m.enqueueControl(controlFrame{
					data:   []byte(m.profile.HeartbeatMessage),
					isText: m.profile.HeartbeatIsText,
				})
			}
		case <-timeoutTicker.C:
			if time.Since(m.lastFrameAt.Load()) > 2*m.heartbeatInterval {
				select {
				case errCh <- fmt.Errorf("heartbeat timeout: no frame in %s", 2*m.heartbeatInterval):
				default:
				}
				return
			}
		}
	}
}

func (m *Manager) writeFrame(cf controlFrame) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("write on nil connection")
	}

	msgType := websocket.BinaryMessage
	if cf.isText {
		msgType = websocket.TextMessage
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return conn.WriteMessage(msgType, cf.data)
}

func (m *Manager) readerLoop(conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			select {
			case <-m.stopCh:
				return nil
			default:
				return err
			}
		}

		m.lastFrameAt.Store(time.Now())
		m.queue.Push(queue.Frame{Data: data, IsText: msgType == websocket.TextMessage})
	}
}

func (m *Manager) closeConn() {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// superviseReconnects retries dialAndRun with randomized exponential
// backoff after a transient failure, up to maxReconnectTries, surfacing a
// fatal ReconnectExhausted event and stopping the manager if the budget
// runs out.
func (m *Manager) superviseReconnects(ctx context.Context) {
	attempt := 0
	for {
		select {
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		m.setState(StateReconnecting)
		delay := nextBackoff(attempt)
		select {
		case <-time.After(delay):
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}

		token, err := m.fetchToken(ctx)
		if err != nil {
			if isFatal(err) {
				m.setState(StateStopped)
				if m.onTerminal != nil {
					m.onTerminal(err)
				}
				return
			}
			attempt++
		} else {
			m.setState(StateDialing)
			if runErr := m.dialAndRun(ctx, token); runErr != nil {
				attempt++
			} else {
				attempt = 0
				continue
			}
		}

		if attempt >= maxReconnectTries {
			finalErr := errs.ReconnectExhausted(fmt.Errorf("exhausted %d reconnect attempts", maxReconnectTries))
			m.setState(StateStopped)
			if m.onTerminal != nil {
				m.onTerminal(finalErr)
			}
			return
		}
	}
}

// Stop transitions the Manager to DRAINING, closes the socket, stops the
// workers after the queue empties (or a 5s timeout), and finishes in
// STOPPED.
func (m *Manager) Stop(drainTimeout time.Duration) {
	m.setState(StateDraining)

	select {
	case <-m.stopCh:
		// already stopped
	default:
		close(m.stopCh)
	}

	m.closeConn()

	if m.queue != nil {
		m.queue.Stop(drainTimeout)
	}

	m.setState(StateStopped)
}
