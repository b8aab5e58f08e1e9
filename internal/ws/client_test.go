package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// startCountingServer runs handler for every websocket connection and
// counts how many connections were ever accepted.
func startCountingServer(t *testing.T, count *atomic.Int32, handler func(*websocket.Conn)) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		count.Add(1)
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForState(t *testing.T, c *Client, want State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

func TestClient_SendRequiresOpen(t *testing.T) {
	c := NewClient(ClientConfig{URL: "ws://127.0.0.1:1/nope"})
	if err := c.Send(ChatRequest{Type: TypeChat, Message: "x"}); err != ErrNotOpen {
		t.Fatalf("expected ErrNotOpen before connect, got %v", err)
	}
}

func TestClient_CleanCloseSuppressesReconnect(t *testing.T) {
	var count atomic.Int32
	url := startCountingServer(t, &count, func(conn *websocket.Conn) {
		// echo until the peer goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				_ = conn.Close()
				return
			}
		}
	})

	c := NewClient(ClientConfig{URL: url, ReconnectDelay: 10 * time.Millisecond, MaxReconnects: 5})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	waitForState(t, c, StateOpen)

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state after close = %v, want closed", c.State())
	}

	// give any (wrong) reconnect timer room to fire
	time.Sleep(100 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Fatalf("expected exactly 1 connection after clean close, got %d", n)
	}
	if err := c.Send(ChatRequest{Type: TypeChat, Message: "x"}); err != ErrNotOpen {
		t.Fatalf("expected ErrNotOpen after close, got %v", err)
	}
}

func TestClient_BoundedReconnectOnAbnormalClose(t *testing.T) {
	var count atomic.Int32
	// server drops every connection immediately without a close handshake:
	// an abnormal closure from the client's point of view
	url := startCountingServer(t, &count, func(conn *websocket.Conn) {
		_ = conn.Close()
	})

	maxRetry := 3
	c := NewClient(ClientConfig{URL: url, ReconnectDelay: 10 * time.Millisecond, MaxReconnects: maxRetry})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	// the client retries maxRetry times, then gives up for good
	waitForState(t, c, StateClosed)
	time.Sleep(100 * time.Millisecond)

	// initial connection + maxRetry reconnect attempts, nothing more
	if n := count.Load(); n != int32(1+maxRetry) {
		t.Fatalf("expected %d connections, got %d", 1+maxRetry, n)
	}
}

func TestClient_ServerCleanCloseEndsClient(t *testing.T) {
	var count atomic.Int32
	url := startCountingServer(t, &count, func(conn *websocket.Conn) {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), deadline)
		// wait for the client's close response, then drop
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	})

	c := NewClient(ClientConfig{URL: url, ReconnectDelay: 10 * time.Millisecond, MaxReconnects: 5})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	waitForState(t, c, StateClosed)
	time.Sleep(100 * time.Millisecond)
	if n := count.Load(); n != 1 {
		t.Fatalf("expected no reconnect after clean server close, got %d connections", n)
	}
}

func TestClient_ReceivesReplies(t *testing.T) {
	var count atomic.Int32
	url := startCountingServer(t, &count, func(conn *websocket.Conn) {
		for {
			var req ChatRequest
			if err := conn.ReadJSON(&req); err != nil {
				_ = conn.Close()
				return
			}
			_ = conn.WriteJSON(ChatResponse{Type: TypeChatResponse, Message: "echo:" + req.Message})
		}
	})

	got := make(chan ChatResponse, 1)
	c := NewClient(ClientConfig{
		URL:            url,
		ReconnectDelay: 10 * time.Millisecond,
		OnMessage:      func(r ChatResponse) { got <- r },
	})
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()
	waitForState(t, c, StateOpen)

	if err := c.Send(ChatRequest{Type: TypeChat, Message: "hello"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case r := <-got:
		if r.Type != TypeChatResponse || r.Message != "echo:hello" {
			t.Fatalf("unexpected reply: %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reply")
	}
}
