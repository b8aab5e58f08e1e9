package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/mindharbor/wellness-platform/internal/ai"
	"gorm.io/gorm"
)

type recordingProvider struct {
	last []ai.Message
}

func (p *recordingProvider) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	_ = ctx
	// copy to avoid mutations
	p.last = append([]ai.Message(nil), messages...)
	return "ok", nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Session{}, &Message{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func fakeRegistry(prov ai.Provider) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return prov, nil
	})
	return reg
}

func TestSendMessage_WritesUserAndAssistant(t *testing.T) {
	db := openTestDB(t)

	repo := NewRepo(db)
	prov := &recordingProvider{}
	svc := NewService(repo, fakeRegistry(prov), 20)

	sess := &Session{
		SessionID:   "01TESTSESSIONID00000000000000",
		UserID:      1,
		Provider:    "fake",
		Model:       "default",
		Personality: "supportive",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	reply, assistantID, err := svc.SendMessage(context.Background(), 1, sess.SessionID, "Hello")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if assistantID == 0 {
		t.Fatalf("expected assistant message id to be set")
	}

	msgs, err := repo.ListRecentMessagesDesc(context.Background(), 1, sess.SessionID, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 stored messages, got %d", len(msgs))
	}
	if msgs[0].Role != "assistant" || msgs[1].Role != "user" {
		t.Fatalf("unexpected roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestSendMessage_PrependsPersonalitySystemPrompt(t *testing.T) {
	db := openTestDB(t)

	repo := NewRepo(db)
	prov := &recordingProvider{}
	svc := NewService(repo, fakeRegistry(prov), 20)

	sess := &Session{
		SessionID:   "01TESTSESSIONID00000000000002",
		UserID:      3,
		Provider:    "fake",
		Model:       "default",
		Personality: "coach",
	}
	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, _, err := svc.SendMessage(context.Background(), 3, sess.SessionID, "hi"); err != nil {
		t.Fatalf("send message: %v", err)
	}

	if len(prov.last) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(prov.last))
	}
	if prov.last[0].Role != ai.RoleSystem || prov.last[0].Content != PersonalityPrompt("coach") {
		t.Fatalf("expected coach system prompt first, got role=%q", prov.last[0].Role)
	}
	if prov.last[1].Role != ai.RoleUser || prov.last[1].Content != "hi" {
		t.Fatalf("expected user message last, got role=%q content=%q", prov.last[1].Role, prov.last[1].Content)
	}
}

func TestSendMessage_ContextWindowLimitsHistory(t *testing.T) {
	db := openTestDB(t)

	repo := NewRepo(db)
	prov := &recordingProvider{}

	window := 3
	svc := NewService(repo, fakeRegistry(prov), window)

	sess := &Session{
		SessionID:   "01TESTSESSIONID00000000000001",
		UserID:      2,
		Provider:    "fake",
		Model:       "default",
		Personality: "supportive",
	}
	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// seed messages: 5 messages already in history
	for i := 0; i < 5; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		if err := repo.InsertMessage(context.Background(), &Message{
			SessionID: sess.SessionID,
			UserID:    2,
			Role:      role,
			Content:   "seed",
		}); err != nil {
			t.Fatalf("seed msg %d: %v", i, err)
		}
	}

	// sending a new message: history grows, but the provider should get only
	// the `window` most recent messages plus the system prompt.
	_, _, err := svc.SendMessage(context.Background(), 2, sess.SessionID, "new")
	if err != nil {
		t.Fatalf("send message: %v", err)
	}

	if len(prov.last) != window+1 {
		t.Fatalf("expected provider to receive %d messages, got %d", window+1, len(prov.last))
	}
	if prov.last[0].Role != ai.RoleSystem {
		t.Fatalf("expected system prompt first, got role=%q", prov.last[0].Role)
	}
	// The newest message in provider input should be the user message we just sent.
	last := prov.last[len(prov.last)-1]
	if last.Role != "user" || last.Content != "new" {
		t.Fatalf("expected last provider msg to be new user msg, got role=%q content=%q",
			last.Role, last.Content)
	}
}

func TestSendMessage_OtherUsersSessionHidden(t *testing.T) {
	db := openTestDB(t)

	repo := NewRepo(db)
	svc := NewService(repo, fakeRegistry(&recordingProvider{}), 20)

	sess := &Session{
		SessionID: "01TESTSESSIONID00000000000003",
		UserID:    7,
		Provider:  "fake",
		Model:     "default",
	}
	if err := repo.CreateSession(context.Background(), sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	_, _, err := svc.SendMessage(context.Background(), 8, sess.SessionID, "hi")
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound for foreign session, got %v", err)
	}
}
