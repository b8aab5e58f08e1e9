package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mindharbor/wellness-platform/internal/ai"
	"github.com/mindharbor/wellness-platform/internal/chat"
)

type recordingProvider struct {
	reply string
	last  []ai.Message
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	p.last = append([]ai.Message(nil), messages...)
	return p.reply, nil
}

func newTestRelay(prov ai.Provider) *Relay {
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})
	return NewRelay(reg, "fake", "default")
}

func startRelayServer(t *testing.T, relay *Relay, userID uint64) string {
	t.Helper()
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		relay.HandleConn(r.Context(), userID, conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialT(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestRelay_ChatRoundTrip(t *testing.T) {
	prov := &recordingProvider{reply: "hi there"}
	url := startRelayServer(t, newTestRelay(prov), 1)

	conn := dialT(t, url)

	req := ChatRequest{
		Type:    TypeChat,
		Message: "hello",
		History: []HistoryMessage{
			{Role: "user", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
		},
		Personality: "coach",
	}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp ChatResponse
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != TypeChatResponse || resp.Message != "hi there" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// provider saw: system prompt, the history, then the new message
	if len(prov.last) != 4 {
		t.Fatalf("provider got %d messages, want 4", len(prov.last))
	}
	if prov.last[0].Role != ai.RoleSystem || prov.last[0].Content != chat.PersonalityPrompt("coach") {
		t.Fatalf("expected coach system prompt first, got %+v", prov.last[0])
	}
	if prov.last[3].Role != ai.RoleUser || prov.last[3].Content != "hello" {
		t.Fatalf("expected new message last, got %+v", prov.last[3])
	}
}

func TestRelay_MalformedFrameDropped(t *testing.T) {
	prov := &recordingProvider{reply: "still here"}
	url := startRelayServer(t, newTestRelay(prov), 1)

	conn := dialT(t, url)

	// not JSON at all, then a frame with the wrong type: both dropped
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// the connection survives and a valid frame still gets a reply
	if err := conn.WriteJSON(ChatRequest{Type: TypeChat, Message: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp ChatResponse
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Type != TypeChatResponse || resp.Message != "still here" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRelay_NotifyJobDone(t *testing.T) {
	relay := newTestRelay(&recordingProvider{reply: "x"})
	url := startRelayServer(t, relay, 7)

	conn := dialT(t, url)

	// round-trip once so the relay has registered the connection
	if err := conn.WriteJSON(ChatRequest{Type: TypeChat, Message: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var warmup ChatResponse
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&warmup); err != nil {
		t.Fatalf("warmup read: %v", err)
	}

	// no socket for user 8: must be a no-op
	relay.NotifyJobDone(8, JobDoneEvent{JobID: "j1", Status: "succeeded"})

	relay.NotifyJobDone(7, JobDoneEvent{JobID: "j2", SessionID: "s1", Status: "succeeded", MessageID: 42})

	var ev JobDoneEvent
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	if ev.Type != TypeJobDone || ev.JobID != "j2" || ev.MessageID != 42 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}
