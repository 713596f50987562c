package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/BitForged/Compass/internal/domain"
	"github.com/coder/websocket"
)

// Built-in events delivered by the bridge itself.
const (
	EventConnect      = "connect"
	EventDisconnect   = "disconnect"
	EventConnectError = "connect_error"
	// AnyEvent subscribes to every event, built-in ones included.
	AnyEvent = "*"
)

const (
	defaultDialTimeout       = 10 * time.Second
	defaultWriteTimeout      = 5 * time.Second
	defaultReconnectDelay    = time.Second
	defaultReconnectDelayMax = 5 * time.Second
	maxMessageBytes          = 1 << 20

	reasonClientDisconnect    = "io client disconnect"
	reasonServerDisconnect    = "io server disconnect"
	reasonTransportClose      = "transport close"
	reasonTransportError      = "transport error"
	reasonPingTimeout         = "ping timeout"
	reasonConnectErrorAborted = "connect error"
)

var (
	errServerDisconnect = errors.New("server closed the session")
	errConnectRefused   = errors.New("server refused the connection")
	errEngineClosed     = errors.New("server closed the transport")
)

type Listener func(Event)

type ListenerID uint64

type Options struct {
	URL        string
	HTTPClient *http.Client
	// AuthToken, when set and non-empty, is sent as {"token": ...} in the
	// connect packet.
	AuthToken         func() string
	DialTimeout       time.Duration
	Reconnect         bool
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	// ReconnectAttempts bounds consecutive failed reconnects; 0 means no bound.
	ReconnectAttempts int
	Logger            *slog.Logger
	Metrics           *Metrics
}

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Bridge keeps one realtime connection and fans incoming events out to
// listeners. Listeners run on the read goroutine.
type Bridge struct {
	endpoint string
	opts     Options
	log      *slog.Logger
	metrics  *Metrics

	mu        sync.Mutex
	listeners map[string][]listenerEntry
	nextID    ListenerID
	conn      *websocket.Conn
	connected bool
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(opts Options) (*Bridge, error) {
	endpoint, err := Endpoint(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.ReconnectDelayMax < opts.ReconnectDelay {
		opts.ReconnectDelayMax = max(defaultReconnectDelayMax, opts.ReconnectDelay)
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	done := make(chan struct{})
	close(done)

	return &Bridge{
		endpoint:  endpoint,
		opts:      opts,
		log:       log.With("component", "realtime"),
		metrics:   opts.Metrics,
		listeners: map[string][]listenerEntry{},
		done:      done,
	}, nil
}

// Endpoint turns a realtime base URL into the Socket.IO websocket endpoint.
// A base without a path gets the default /socket.io/ path.
func Endpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("realtime url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse realtime url: %w", err)
	}

	switch parsed.Scheme {
	case "http", "ws":
		parsed.Scheme = "ws"
	case "https", "wss":
		parsed.Scheme = "wss"
	default:
		return "", fmt.Errorf("realtime url scheme %q is not supported", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", errors.New("realtime url host is required")
	}
	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = "/socket.io/"
	}

	q := parsed.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	parsed.RawQuery = q.Encode()
	parsed.Fragment = ""

	return parsed.String(), nil
}

// On registers fn for event and returns an id for Off.
func (b *Bridge) On(event string, fn Listener) ListenerID {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[event] = append(b.listeners[event], listenerEntry{id: b.nextID, fn: fn})
	return b.nextID
}

// Off removes one listener. Unknown ids are ignored.
func (b *Bridge) Off(event string, id ListenerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.listeners[event]
	for i, entry := range entries {
		if entry.id == id {
			b.listeners[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(b.listeners[event]) == 0 {
		delete(b.listeners, event)
	}
}

func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.connected
}

// Done is closed once the bridge stops for good.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.done
}

// Emit sends one event without waiting for an acknowledgement.
func (b *Bridge) Emit(ctx context.Context, event string, data any) error {
	b.mu.Lock()
	conn, connected := b.conn, b.connected
	b.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("emit %q: %w", event, domain.ErrNotConnected)
	}

	packet, err := encodeEvent(event, data)
	if err != nil {
		return err
	}
	if err := b.write(ctx, conn, packet); err != nil {
		return fmt.Errorf("emit %q: %w", event, err)
	}
	b.metrics.emitted(event)
	return nil
}

// Connect dials the realtime server and starts reading in the background.
// Only the first dial is reported; later drops are retried when reconnection
// is enabled.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	conn, open, err := b.dial(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		cancel()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return nil
	}
	b.running = true
	b.conn = conn
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	go b.run(runCtx, conn, open, done)
	return nil
}

// Close stops the bridge and waits for the read loop to exit.
func (b *Bridge) Close() error {
	b.mu.Lock()
	cancel, conn, done := b.cancel, b.conn, b.done
	b.cancel = nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		// The read loop may already have torn the transport down.
		_ = conn.Close(websocket.StatusNormalClosure, reasonClientDisconnect)
	}
	<-done
	return nil
}

func (b *Bridge) run(ctx context.Context, conn *websocket.Conn, open openPayload, done chan struct{}) {
	defer close(done)
	defer func() {
		b.mu.Lock()
		b.running = false
		b.conn = nil
		b.mu.Unlock()
	}()

	for {
		err := b.serve(ctx, conn, open)
		_ = conn.CloseNow()
		b.markDisconnected(disconnectReason(ctx, err))

		// A refused namespace connect is final.
		if ctx.Err() != nil || !b.opts.Reconnect || errors.Is(err, errServerDisconnect) || errors.Is(err, errConnectRefused) {
			return
		}

		conn, open, err = b.reconnect(ctx)
		if err != nil {
			b.log.Warn("giving up on realtime server", "error", err)
			return
		}
		b.mu.Lock()
		b.conn = conn
		b.mu.Unlock()
	}
}

func (b *Bridge) reconnect(ctx context.Context) (*websocket.Conn, openPayload, error) {
	delay := b.opts.ReconnectDelay
	for attempt := 1; ; attempt++ {
		if b.opts.ReconnectAttempts > 0 && attempt > b.opts.ReconnectAttempts {
			return nil, openPayload{}, fmt.Errorf("reconnect: %d attempts failed", b.opts.ReconnectAttempts)
		}

		b.log.Info("reconnecting", "attempt", attempt, "delay", delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, openPayload{}, ctx.Err()
		case <-timer.C:
		}

		b.metrics.reconnectAttempt()
		conn, open, err := b.dial(ctx)
		if err == nil {
			return conn, open, nil
		}
		b.log.Warn("reconnect failed", "attempt", attempt, "error", err)

		delay = min(delay*2, b.opts.ReconnectDelayMax)
	}
}

// dial opens the websocket, reads the Engine.IO handshake and asks to join
// the default namespace.
func (b *Bridge) dial(ctx context.Context) (*websocket.Conn, openPayload, error) {
	dialCtx, cancel := context.WithTimeout(ctx, b.opts.DialTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, b.endpoint, &websocket.DialOptions{HTTPClient: b.opts.HTTPClient})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, openPayload{}, fmt.Errorf("dial realtime server: %w", err)
	}
	conn.SetReadLimit(maxMessageBytes)

	_, raw, err := conn.Read(dialCtx)
	if err != nil {
		_ = conn.CloseNow()
		return nil, openPayload{}, fmt.Errorf("read handshake: %w", err)
	}
	f, err := parseFrame(raw)
	if err != nil || f.engine != engineOpen {
		_ = conn.CloseNow()
		return nil, openPayload{}, fmt.Errorf("read handshake: unexpected packet %q", truncate(raw))
	}
	var open openPayload
	if err := json.Unmarshal(f.payload, &open); err != nil {
		_ = conn.CloseNow()
		return nil, openPayload{}, fmt.Errorf("decode handshake: %w", err)
	}

	var auth map[string]string
	if b.opts.AuthToken != nil {
		if token := b.opts.AuthToken(); token != "" {
			auth = map[string]string{"token": token}
		}
	}
	packet, err := encodeConnect(auth)
	if err != nil {
		_ = conn.CloseNow()
		return nil, openPayload{}, err
	}
	if err := b.write(dialCtx, conn, packet); err != nil {
		_ = conn.CloseNow()
		return nil, openPayload{}, fmt.Errorf("join namespace: %w", err)
	}

	b.log.Debug("transport open", "sid", open.SID)
	return conn, open, nil
}

func (b *Bridge) serve(ctx context.Context, conn *websocket.Conn, open openPayload) error {
	for {
		readCtx, cancel := context.WithTimeout(ctx, open.readTimeout())
		typ, raw, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		f, err := parseFrame(raw)
		if err != nil {
			b.log.Warn("dropping packet", "error", err)
			continue
		}

		switch f.engine {
		case enginePing:
			if err := b.write(ctx, conn, []byte{enginePong}); err != nil {
				return err
			}
		case engineClose:
			return errEngineClosed
		case engineMessage:
			if f.namespace != defaultNamespace {
				continue
			}
			if err := b.handleSocketPacket(f); err != nil {
				return err
			}
		case engineNoop:
		default:
			b.log.Debug("ignoring engine packet", "type", string(f.engine))
		}
	}
}

func (b *Bridge) handleSocketPacket(f frame) error {
	switch f.socket {
	case socketConnect:
		b.mu.Lock()
		b.connected = true
		b.mu.Unlock()
		b.metrics.setConnected(true)
		b.log.Info("connected to realtime server")
		b.dispatch(Event{Name: EventConnect, Args: rawArgs(f.payload)})
	case socketDisconnect:
		return errServerDisconnect
	case socketEvent:
		event, err := decodeEvent(f.payload)
		if err != nil {
			b.log.Warn("dropping event", "error", err)
			return nil
		}
		b.metrics.received(event.Name)
		b.dispatch(event)
	case socketConnectError:
		b.log.Warn("realtime server refused the connection", "payload", truncate(f.payload))
		b.dispatch(Event{Name: EventConnectError, Args: rawArgs(f.payload)})
		return errConnectRefused
	case socketAck:
	default:
		b.log.Debug("ignoring socket packet", "type", string(f.socket))
	}
	return nil
}

func (b *Bridge) markDisconnected(reason string) {
	b.mu.Lock()
	wasConnected := b.connected
	b.connected = false
	b.mu.Unlock()

	if !wasConnected {
		return
	}
	b.metrics.setConnected(false)
	b.log.Info("disconnected from realtime server", "reason", reason)

	encoded, _ := json.Marshal(reason)
	b.dispatch(Event{Name: EventDisconnect, Args: []json.RawMessage{encoded}})
}

func (b *Bridge) dispatch(event Event) {
	b.mu.Lock()
	entries := append([]listenerEntry(nil), b.listeners[event.Name]...)
	if event.Name != AnyEvent {
		entries = append(entries, b.listeners[AnyEvent]...)
	}
	b.mu.Unlock()

	for _, entry := range entries {
		entry.fn(event)
	}
}

func (b *Bridge) write(ctx context.Context, conn *websocket.Conn, packet []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, packet)
}

func disconnectReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return reasonClientDisconnect
	case errors.Is(err, errServerDisconnect):
		return reasonServerDisconnect
	case errors.Is(err, errConnectRefused):
		return reasonConnectErrorAborted
	case errors.Is(err, context.DeadlineExceeded):
		return reasonPingTimeout
	case errors.Is(err, errEngineClosed) || websocket.CloseStatus(err) != -1:
		return reasonTransportClose
	default:
		return reasonTransportError
	}
}

func rawArgs(payload json.RawMessage) []json.RawMessage {
	if len(payload) == 0 {
		return nil
	}
	return []json.RawMessage{payload}
}

func truncate(raw []byte) string {
	const limit = 120
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}
