package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/mindharbor/wellness-platform/internal/ai"
	"github.com/mindharbor/wellness-platform/internal/chat"
)

// Relay holds one chat socket per authenticated user and forwards each
// chat frame to the AI provider, writing exactly one reply frame back.
// The relay is stateless with respect to history: the client sends the
// conversation window it wants the model to see.
type Relay struct {
	registry *ai.Registry
	provider string
	model    string

	mu    sync.Mutex
	conns map[uint64]*userConn
}

type userConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func (c *userConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

func NewRelay(registry *ai.Registry, provider, model string) *Relay {
	return &Relay{
		registry: registry,
		provider: provider,
		model:    model,
		conns:    make(map[uint64]*userConn),
	}
}

// HandleConn runs the read loop for one user's socket and returns when the
// socket closes. A newer connection for the same user supersedes the old
// one, which is closed.
func (r *Relay) HandleConn(ctx context.Context, userID uint64, wsc *websocket.Conn) {
	c := &userConn{ws: wsc}

	r.mu.Lock()
	if old, ok := r.conns[userID]; ok {
		_ = old.ws.Close()
	}
	r.conns[userID] = c
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.conns[userID] == c {
			delete(r.conns, userID)
		}
		r.mu.Unlock()
		_ = wsc.Close()
	}()

	for {
		_, raw, err := wsc.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws: user %d read: %v", userID, err)
			}
			return
		}

		var req ChatRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			// malformed frames are dropped, never fatal
			log.Printf("ws: user %d dropped malformed frame: %v", userID, err)
			continue
		}
		if req.Type != TypeChat || req.Message == "" {
			log.Printf("ws: user %d dropped frame type=%q", userID, req.Type)
			continue
		}

		r.handleChat(ctx, userID, c, req)
	}
}

func (r *Relay) handleChat(ctx context.Context, userID uint64, c *userConn, req ChatRequest) {
	provider, err := r.registry.Get(ctx, r.provider, r.model)
	if err != nil {
		log.Printf("ws: user %d provider: %v", userID, err)
		_ = c.writeJSON(ChatResponse{Type: TypeError, Message: "assistant unavailable"})
		return
	}

	msgs := make([]ai.Message, 0, len(req.History)+1)
	for _, h := range req.History {
		msgs = append(msgs, ai.Message{Role: h.Role, Content: h.Content})
	}
	msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: req.Message})
	msgs = ai.WithSystemPrompt(chat.PersonalityPrompt(req.Personality), msgs)

	reply, err := provider.Chat(ctx, msgs)
	if err != nil {
		log.Printf("ws: user %d chat: %v", userID, err)
		_ = c.writeJSON(ChatResponse{Type: TypeError, Message: "assistant unavailable"})
		return
	}

	if err := c.writeJSON(ChatResponse{Type: TypeChatResponse, Message: reply}); err != nil {
		log.Printf("ws: user %d write: %v", userID, err)
	}
}

// NotifyJobDone pushes a job completion to the user's socket, if any.
// Users without a live socket simply miss the push and poll instead.
func (r *Relay) NotifyJobDone(userID uint64, ev JobDoneEvent) {
	ev.Type = TypeJobDone

	r.mu.Lock()
	c, ok := r.conns[userID]
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := c.writeJSON(ev); err != nil {
		log.Printf("ws: user %d notify: %v", userID, err)
	}
}
