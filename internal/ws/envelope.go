package ws

// Frame types exchanged over the chat socket.
const (
	TypeChat         = "chat"
	TypeChatResponse = "chat_response"
	TypeError        = "error"
	TypeJobDone      = "job_done"
)

type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the inbound envelope: the new message plus the
// client-held history and the personality the reply should use.
type ChatRequest struct {
	Type        string           `json:"type"`
	Message     string           `json:"message"`
	History     []HistoryMessage `json:"history,omitempty"`
	Personality string           `json:"personality,omitempty"`
}

// ChatResponse is the outbound envelope: exactly one per ChatRequest.
type ChatResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JobDoneEvent is pushed when an async reply job finishes.
type JobDoneEvent struct {
	Type      string `json:"type"`
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	MessageID uint64 `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
