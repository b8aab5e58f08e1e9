package ws

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client connection states.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var ErrNotOpen = errors.New("ws: connection not open")

const (
	defaultReconnectDelay = time.Second
	defaultMaxReconnects  = 5
)

// ClientConfig configures a Client. Zero values fall back to the defaults:
// 1s fixed reconnect delay, 5 reconnect attempts.
type ClientConfig struct {
	URL            string
	Dialer         *websocket.Dialer
	ReconnectDelay time.Duration
	MaxReconnects  int

	// OnMessage receives every decoded inbound frame. Malformed frames are
	// logged and dropped before reaching it.
	OnMessage func(ChatResponse)
}

// Client maintains one duplex connection to the chat relay with bounded
// automatic reconnection. Abnormal closure (close code other than 1000)
// schedules a reconnect after a fixed delay, up to MaxReconnects attempts;
// after that the client stays Closed. An explicit Close never reconnects.
//
// Deliberately a fixed-delay retry rather than exponential backoff: with a
// hard attempt cap the worst case is a handful of dials, and the cap is the
// contract that prevents retry storms.
type Client struct {
	url       string
	dialer    *websocket.Dialer
	delay     time.Duration
	maxRetry  int
	onMessage func(ChatResponse)

	mu       sync.Mutex
	state    State
	conn     *websocket.Conn
	attempts int  // cumulative; never reset, which is what bounds retry storms
	closed   bool // user-initiated teardown
}

func NewClient(cfg ClientConfig) *Client {
	d := cfg.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	maxRetry := cfg.MaxReconnects
	if maxRetry <= 0 {
		maxRetry = defaultMaxReconnects
	}
	return &Client{
		url:       cfg.URL,
		dialer:    d,
		delay:     delay,
		maxRetry:  maxRetry,
		onMessage: cfg.OnMessage,
		state:     StateConnecting,
	}
}

// Connect performs the initial dial and starts the read loop. It returns
// the initial dial error, if any; reconnects after that happen in the
// background.
func (c *Client) Connect() error {
	if err := c.dial(); err != nil {
		c.scheduleReconnect()
		return err
	}
	return nil
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send writes a frame. It fails with ErrNotOpen unless the connection is
// Open; delivery is fire-and-forget, confirmation arrives as an inbound
// reply.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	if c.state != StateOpen || c.conn == nil {
		c.mu.Unlock()
		return ErrNotOpen
	}
	conn := c.conn
	c.mu.Unlock()

	return conn.WriteJSON(v)
}

// Close performs a clean shutdown (close code 1000). No reconnect is
// scheduled afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return conn.Close()
}

// dial opens a single connection attempt. Only one attempt is ever in
// flight: dial is called from Connect or from the reconnect timer, and the
// timer is armed only after the previous connection's read loop exits.
func (c *Client) dial() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotOpen
	}
	c.state = StateConnecting
	c.mu.Unlock()

	conn, _, err := c.dialer.Dial(c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrNotOpen
	}
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.onDisconnect(conn, err)
			return
		}
		if c.onMessage == nil {
			continue
		}
		var resp ChatResponse
		if jerr := json.Unmarshal(raw, &resp); jerr != nil {
			log.Printf("ws client: dropped malformed frame: %v", jerr)
			continue
		}
		c.onMessage(resp)
	}
}

func (c *Client) onDisconnect(conn *websocket.Conn, err error) {
	_ = conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	if c.closed {
		// clean teardown: suppress the reconnect path entirely
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		// server-side clean close, treat like teardown
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
		return
	}

	c.scheduleReconnect()
}

func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed || c.attempts >= c.maxRetry {
		c.state = StateClosed
		c.mu.Unlock()
		return
	}
	c.attempts++
	attempt := c.attempts
	c.state = StateConnecting
	c.mu.Unlock()

	time.AfterFunc(c.delay, func() {
		if err := c.dial(); err != nil {
			if !errors.Is(err, ErrNotOpen) {
				log.Printf("ws client: reconnect %d/%d failed: %v", attempt, c.maxRetry, err)
				c.scheduleReconnect()
			}
		}
	})
}
