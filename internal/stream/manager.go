package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// State of a streaming session. Owned by the Manager; visible to callers for
// diagnostics only.
type State int

const (
	Disconnected State = iota
	Connecting
	Subscribed
	Receiving
	Closing
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	case Receiving:
		return "receiving"
	case Closing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrConnectionClosed reports that the peer closed the streaming connection.
var ErrConnectionClosed = errors.New("stream: connection closed by peer")

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"

	defaultDialTimeout = 10 * time.Second
)

// Config for one streaming session.
type Config struct {
	// URL is the websocket endpoint (wss://...).
	URL string
	// APIKey is attached to the dial URL as a query parameter named KeyParam
	// ("apikey" when empty).
	APIKey   string
	KeyParam string
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
	// OnMessage receives each decoded event, in the order the transport
	// delivered it.
	OnMessage func(Event)
	// OnError receives per-message decode failures and the final connection
	// error. When nil, errors go to the log instead.
	OnError func(error)
}

type controlMessage struct {
	Action string        `json:"action"`
	Params controlParams `json:"params"`
}

type controlParams struct {
	Symbols string `json:"symbols"`
}

// Manager owns one persistent streaming connection and the set of symbols
// that should be live on it. A single receive loop decodes inbound events
// and hands them to OnMessage; malformed messages are reported through
// OnError and never end the session, while a peer close tears it down.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	state   State
	conn    *websocket.Conn
	symbols map[string]struct{}
	stopped bool
	done    chan struct{}
}

func NewManager(cfg Config) *Manager {
	if cfg.KeyParam == "" {
		cfg.KeyParam = "apikey"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &Manager{cfg: cfg, symbols: make(map[string]struct{})}
}

// State returns the current session state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Symbols returns the desired-symbol set, sorted.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.symbolListLocked()
}

// Done reports session teardown: the returned channel closes when the
// receive loop started by the most recent Start has fully exited.
// It returns nil before the first Start.
func (m *Manager) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Start opens the connection, subscribes to the current symbol set, and
// launches the receive loop. Connection failures are returned synchronously
// and leave the session Disconnected; there is no automatic retry, the caller
// may simply Start again. The dial happens outside the session lock, so
// State, Subscribe, Unsubscribe and Stop stay responsive while Connecting.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Disconnected {
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("stream: session already %s", state)
	}
	m.state = Connecting
	m.stopped = false
	m.mu.Unlock()

	u, err := url.Parse(m.cfg.URL)
	if err != nil {
		m.setState(Disconnected)
		return fmt.Errorf("stream: bad endpoint %q: %w", m.cfg.URL, err)
	}
	q := u.Query()
	if m.cfg.APIKey != "" {
		q.Set(m.cfg.KeyParam, m.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: m.cfg.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		m.setState(Disconnected)
		return fmt.Errorf("stream: connecting to %s: %w", u.Host, err)
	}

	m.mu.Lock()
	if m.stopped {
		// Stop arrived while the dial was in flight.
		m.state = Disconnected
		m.mu.Unlock()
		conn.Close()
		return errors.New("stream: stopped while connecting")
	}
	m.conn = conn
	m.state = Subscribed
	if len(m.symbols) > 0 {
		if err := m.writeControlLocked(actionSubscribe, m.symbolListLocked()); err != nil {
			m.conn = nil
			m.state = Disconnected
			m.mu.Unlock()
			conn.Close()
			return fmt.Errorf("stream: subscribing: %w", err)
		}
	}
	m.done = make(chan struct{})
	m.state = Receiving
	go m.readLoop(conn, m.done)
	m.mu.Unlock()
	return nil
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Subscribe adds symbols to the desired set. When the session is live the
// corresponding control message goes out immediately; otherwise the set is
// applied on the next successful Start.
func (m *Manager) Subscribe(symbols ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := m.symbols[s]; !ok {
			m.symbols[s] = struct{}{}
			added = append(added, s)
		}
	}
	if len(added) == 0 || !m.liveLocked() {
		return nil
	}
	sort.Strings(added)
	return m.writeControlLocked(actionSubscribe, added)
}

// Unsubscribe removes symbols from the desired set. Removing an absent
// symbol is a no-op, so repeated calls converge on the same set.
func (m *Manager) Unsubscribe(symbols ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := m.symbols[s]; ok {
			delete(m.symbols, s)
			removed = append(removed, s)
		}
	}
	if len(removed) == 0 || !m.liveLocked() {
		return nil
	}
	sort.Strings(removed)
	return m.writeControlLocked(actionUnsubscribe, removed)
}

// Stop requests session teardown. Cancellation is cooperative: the receive
// loop observes the request at its next message boundary, so at most one
// already-in-flight message may still be read. Safe to call in any state.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Disconnected || m.state == Closing {
		return
	}
	m.stopped = true
	m.state = Closing
	if m.conn != nil {
		// Unblocks the loop's pending read.
		m.conn.Close()
	}
}

func (m *Manager) liveLocked() bool {
	return m.conn != nil && (m.state == Subscribed || m.state == Receiving)
}

func (m *Manager) symbolListLocked() []string {
	out := make([]string, 0, len(m.symbols))
	for s := range m.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) writeControlLocked(action string, symbols []string) error {
	msg := controlMessage{Action: action, Params: controlParams{Symbols: strings.Join(symbols, ",")}}
	return m.conn.WriteJSON(msg)
}

// readLoop is the session's single long-lived task. Its only suspension
// point is the blocking read; everything between reads runs to completion.
func (m *Manager) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.mu.Lock()
			requested := m.stopped
			m.state = Closing
			m.mu.Unlock()
			if !requested {
				m.reportError(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
			}
			break
		}

		m.mu.Lock()
		requested := m.stopped
		m.mu.Unlock()
		if requested {
			break
		}

		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			// A single malformed message never ends the session.
			m.reportError(fmt.Errorf("stream: decoding message: %w", err))
			continue
		}
		m.deliver(eventFrom(doc))
	}

	conn.Close()
	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.state = Disconnected
	m.mu.Unlock()
}

// deliver hands one event to OnMessage, containing any handler panic so a
// failing consumer cannot end the session either.
func (m *Manager) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			m.reportError(fmt.Errorf("stream: message handler: %v", r))
		}
	}()
	if m.cfg.OnMessage != nil {
		m.cfg.OnMessage(ev)
	}
}

func (m *Manager) reportError(err error) {
	if m.cfg.OnError != nil {
		m.cfg.OnError(err)
		return
	}
	log.Printf("stream: %v", err)
}
