package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/streamnode/streamnode/internal/accounts"
	"github.com/streamnode/streamnode/internal/metrics"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/routes"
	"github.com/streamnode/streamnode/internal/wire"
)

// outBufSize is the per-connection outgoing message buffer depth.
const outBufSize = 16

// Config describes one (account, route) cell of the session matrix.
type Config struct {
	Account           accounts.Account
	Route             routes.Route
	GatewayURL        string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration
}

// wsConn is the subset of *websocket.Conn the session uses.
// Abstracted so tests can drive the read/write side with a fake.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

// dialFunc opens one gateway connection. Injectable for tests.
type dialFunc func(ctx context.Context) (wsConn, error)

// Session owns one persistent gateway connection for one (account, route)
// pair: its identity, its reconnection loop, its heartbeat, and the relay
// tasks the server pushes down it.
//
// Identity is strictly per-session. Two sessions for the same account on
// different routes authenticate independently and never share fields.
type Session struct {
	cfg   Config
	api   *platform.Client
	reg   *metrics.Registry
	log   *slog.Logger
	dial  dialFunc
	httpc *http.Client // relay task executor; egresses directly, not via the route

	// deviceID is generated once at construction and survives every
	// reconnect of this session.
	deviceID string

	// identity is populated by the single Login call at the top of Run and
	// read-only afterwards.
	identity platform.Identity

	// active guards against two concurrent connection attempts for this
	// slot. Transitioned with compare-and-swap, never read-then-set.
	active atomic.Bool

	mu        sync.Mutex
	lastAlive time.Time
}

// New builds a Session for cfg. api must be a platform client egressing via
// cfg.Route so login and points polls leave through the session's proxy.
func New(cfg Config, api *platform.Client, reg *metrics.Registry, log *slog.Logger) (*Session, error) {
	dev, err := newDeviceID()
	if err != nil {
		return nil, fmt.Errorf("session: generate device id: %w", err)
	}
	s := &Session{
		cfg:      cfg,
		api:      api,
		reg:      reg,
		log:      log.With("account", cfg.Account.Email, "route", cfg.Route.Label()),
		deviceID: dev,
		httpc:    &http.Client{},
	}
	s.dial = s.dialGateway
	return s, nil
}

// newDeviceID returns a random 32-character lowercase-hex identifier.
func newDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DeviceID returns the session's stable device identifier.
func (s *Session) DeviceID() string { return s.deviceID }

// Identity returns the identity obtained at login. Zero until Run has
// authenticated.
func (s *Session) Identity() platform.Identity { return s.identity }

// LastAlive returns the time of the last successful liveness event
// (connection open or heartbeat ping).
func (s *Session) LastAlive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAlive
}

func (s *Session) markAlive() {
	s.mu.Lock()
	s.lastAlive = time.Now()
	s.mu.Unlock()
}

// Run authenticates once, then holds the gateway connection open for the
// rest of the process lifetime, reconnecting after the fixed delay whenever
// the channel closes or errors. There is no retry limit and no terminal
// state; only ctx cancellation returns.
//
// A login failure abandons this session alone — Run logs and returns nil so
// sibling sessions keep going.
func (s *Session) Run(ctx context.Context) error {
	id, err := s.api.Login(ctx, s.cfg.Account.Email, s.cfg.Account.Password)
	if err != nil {
		s.log.Error("login failed — abandoning session", "err", err)
		s.reg.AuthFailure()
		return nil
	}
	s.identity = id
	s.log.Info("logged in", "user", id.UserID)

	for {
		if err := s.connect(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("channel down — reconnecting", "err", err, "delay", s.cfg.ReconnectDelay)
		}
		if ctx.Err() != nil {
			return nil
		}

		s.reg.Reconnect()
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

// connect performs one full connection lifetime: dial, register, heartbeat,
// inbound dispatch. Blocks until the channel closes or errors. Returns nil
// only when the teardown was caused by ctx cancellation.
func (s *Session) connect(ctx context.Context) error {
	if !s.active.CompareAndSwap(false, true) {
		// Another attempt already owns this slot.
		return nil
	}
	defer s.active.Store(false)

	conn, err := s.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}

	l := newLink(conn)
	defer l.close()

	// Unblock the read loop if the process is shutting down.
	go func() {
		select {
		case <-ctx.Done():
			l.close()
		case <-l.done:
		}
	}()

	// register must reach the server before the first heartbeat tick, so it
	// is written directly here and the ticker starts after.
	if err := conn.WriteJSON(wire.NewRegister(s.identity.UserID, s.deviceID)); err != nil {
		return fmt.Errorf("send register: %w", err)
	}
	s.markAlive()
	s.reg.SessionOpened()
	defer s.reg.SessionClosed()
	s.log.Info("channel open — registered device", "dev", s.deviceID)

	go l.writePump()
	go s.heartbeat(ctx, l)

	return s.readLoop(ctx, l)
}

// readLoop dispatches inbound frames until the connection fails.
func (s *Session) readLoop(ctx context.Context, l *link) error {
	for {
		_, frame, err := l.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		in, ok := wire.Decode(frame)
		if !ok {
			s.log.Warn("dropping malformed frame", "bytes", len(frame))
			continue
		}

		switch in.Type {
		case wire.TypeRequest:
			go s.handleTask(ctx, l, in)
		default:
			// Unknown types are ignored so the gateway can add message
			// kinds without breaking older clients.
		}
	}
}

// heartbeat pings the gateway and polls reward points every tick. Its
// lifetime is bound to the connection: it stops as soon as the link closes,
// so reconnecting never stacks ticker chains.
func (s *Session) heartbeat(ctx context.Context, l *link) {
	t := time.NewTicker(s.cfg.HeartbeatInterval)
	defer t.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			if !l.enqueue(wire.NewPing()) {
				return
			}
			s.markAlive()
			s.reg.Heartbeat()

			p, err := s.api.Points(ctx, s.identity.Token)
			if err != nil {
				s.log.Warn("points poll failed", "err", err)
				continue
			}
			s.log.Info("points", "total", p.TotalScore, "today", p.TodayScore)
			s.reg.SetPoints(s.identity.Email, p.TotalScore)
		}
	}
}

// dialGateway is the production dialFunc: a gorilla dial through the
// session's route. No handshake timeout — the caller's ctx is the only
// bound.
func (s *Session) dialGateway(ctx context.Context) (wsConn, error) {
	d := websocket.Dialer{Proxy: s.cfg.Route.ProxyFunc()}
	conn, resp, err := d.DialContext(ctx, s.cfg.GatewayURL, nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// link is one live connection with a serialized write path, modeled as an
// outgoing buffer drained by a single pump goroutine.
type link struct {
	conn wsConn
	out  chan any
	done chan struct{}
	once sync.Once
}

func newLink(conn wsConn) *link {
	return &link{
		conn: conn,
		out:  make(chan any, outBufSize),
		done: make(chan struct{}),
	}
}

// close tears the connection down exactly once. Safe to call from any
// goroutine.
func (l *link) close() {
	l.once.Do(func() {
		close(l.done)
		l.conn.Close()
	})
}

// enqueue queues msg for writing. Returns false when the link is already
// closed or the buffer is saturated; the message is dropped either way.
func (l *link) enqueue(msg any) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.out <- msg:
		return true
	case <-l.done:
		return false
	}
}

// writePump is the only goroutine that writes to the connection. A write
// error closes the link, which in turn fails the read loop and triggers the
// session's reconnect path.
func (l *link) writePump() {
	for {
		select {
		case <-l.done:
			return
		case msg := <-l.out:
			if err := l.conn.WriteJSON(msg); err != nil {
				l.close()
				return
			}
		}
	}
}
