package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/mindharbor/wellness-platform/internal/ai"
	"gorm.io/gorm"
)

type Service struct {
	repo              *Repo
	registry          *ai.Registry
	contextWindowSize int
}

func NewService(repo *Repo, registry *ai.Registry, contextWindowSize int) *Service {
	if contextWindowSize <= 0 || contextWindowSize > 100 {
		contextWindowSize = 20
	}
	return &Service{repo: repo, registry: registry, contextWindowSize: contextWindowSize}
}

const (
	defaultProvider = "ollama"
	defaultModel    = "llama3:latest"
)

func (s *Service) CreateSession(ctx context.Context, userID uint64, provider, model, personality string) (*Session, error) {
	if provider == "" {
		provider = defaultProvider
	}
	if model == "" {
		model = defaultModel
	}
	if personality == "" || !ValidPersonality(personality) {
		personality = DefaultPersonality
	}

	sid, err := NewSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		SessionID:   sid,
		UserID:      userID,
		Provider:    provider,
		Model:       model,
		Personality: personality,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) providerForSession(ctx context.Context, sess *Session) (ai.Provider, error) {
	p := sess.Provider
	m := sess.Model
	if p == "" {
		p = defaultProvider
	}
	if m == "" {
		m = defaultModel
	}
	return s.registry.Get(ctx, p, m)
}

// ownedSession loads a session and hides its existence from other users.
func (s *Service) ownedSession(ctx context.Context, userID uint64, sessionID string) (*Session, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return sess, nil
}

// buildProviderMessages loads the recent window, reverses it to ASC order
// and prepends the session personality as a system message.
func (s *Service) buildProviderMessages(ctx context.Context, sess *Session) ([]ai.Message, error) {
	recentDesc, err := s.repo.ListRecentMessagesDesc(ctx, sess.UserID, sess.SessionID, s.contextWindowSize)
	if err != nil {
		return nil, err
	}
	msgs := make([]ai.Message, 0, len(recentDesc))
	for i := len(recentDesc) - 1; i >= 0; i-- {
		m := recentDesc[i]
		msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
	}
	return ai.WithSystemPrompt(PersonalityPrompt(sess.Personality), msgs), nil
}

func (s *Service) SendMessage(ctx context.Context, userID uint64, sessionID string, content string) (reply string, assistantMsgID uint64, err error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return "", 0, err
	}

	provider, err := s.providerForSession(ctx, session)
	if err != nil {
		return "", 0, err
	}

	// store user message first (strong consistency)
	userMsg := &Message{
		SessionID: sessionID,
		UserID:    userID,
		Role:      ai.RoleUser,
		Content:   content,
	}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return "", 0, err
	}

	providerMsgs, err := s.buildProviderMessages(ctx, session)
	if err != nil {
		return "", 0, err
	}

	reply, err = provider.Chat(ctx, providerMsgs)
	if err != nil {
		return "", 0, err
	}

	assistantMsg := &Message{
		SessionID: sessionID,
		UserID:    userID,
		Role:      ai.RoleAssistant,
		Content:   reply,
	}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return "", 0, err
	}

	return reply, assistantMsg.ID, nil
}

func (s *Service) ListMessages(ctx context.Context, userID uint64, sessionID string, limit int, beforeID uint64) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListMessages(ctx, userID, sessionID, limit, beforeID)
}

// SendMessageStream stores the user message immediately, streams assistant chunks,
// and finally stores the assistant message after streaming completes.
func (s *Service) SendMessageStream(ctx context.Context, userID uint64, sessionID string, content string) (chunks <-chan string, done <-chan struct{}, assistantMsgID <-chan uint64, errs <-chan error) {
	outChunks := make(chan string, 16)
	outDone := make(chan struct{})
	outMsgID := make(chan uint64, 1)
	outErrs := make(chan error, 1)

	go func() {
		defer close(outChunks)
		defer close(outDone)
		defer close(outMsgID)
		defer close(outErrs)

		sess, err := s.ownedSession(ctx, userID, sessionID)
		if err != nil {
			outErrs <- err
			return
		}

		provider, err := s.providerForSession(ctx, sess)
		if err != nil {
			outErrs <- err
			return
		}

		userMsg := &Message{
			SessionID: sessionID,
			UserID:    userID,
			Role:      ai.RoleUser,
			Content:   content,
		}
		if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
			outErrs <- err
			return
		}

		providerMsgs, err := s.buildProviderMessages(ctx, sess)
		if err != nil {
			outErrs <- err
			return
		}

		sp, ok := provider.(ai.StreamProvider)
		if !ok {
			outErrs <- errors.New("provider does not support streaming")
			return
		}

		pChunks, pErrs := sp.StreamChat(ctx, providerMsgs)

		var b strings.Builder
		for c := range pChunks {
			b.WriteString(c)
			outChunks <- c
		}

		select {
		case err := <-pErrs:
			if err != nil {
				outErrs <- err
				return
			}
		default:
			// no error sent
		}

		assistantMsg := &Message{
			SessionID: sessionID,
			UserID:    userID,
			Role:      ai.RoleAssistant,
			Content:   b.String(),
		}
		if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
			outErrs <- err
			return
		}

		outMsgID <- assistantMsg.ID
	}()

	return outChunks, outDone, outMsgID, outErrs
}

func (s *Service) ValidateSessionOwner(ctx context.Context, userID uint64, sessionID string) error {
	_, err := s.ownedSession(ctx, userID, sessionID)
	return err
}

func (s *Service) InsertUserMessage(ctx context.Context, userID uint64, sessionID string, content string) error {
	if err := s.ValidateSessionOwner(ctx, userID, sessionID); err != nil {
		return err
	}
	return s.repo.InsertMessage(ctx, &Message{
		SessionID: sessionID,
		UserID:    userID,
		Role:      ai.RoleUser,
		Content:   content,
	})
}

func (s *Service) CreateJob(ctx context.Context, job *Job) error {
	return s.repo.CreateJob(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// GenerateAssistantReplyAndInsert is the worker-side path: the user message
// is already stored, so it only generates and stores the assistant reply.
func (s *Service) GenerateAssistantReplyAndInsert(ctx context.Context, userID uint64, sessionID string) (string, uint64, error) {
	sess, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return "", 0, err
	}

	provider, err := s.providerForSession(ctx, sess)
	if err != nil {
		return "", 0, err
	}

	providerMsgs, err := s.buildProviderMessages(ctx, sess)
	if err != nil {
		return "", 0, err
	}

	reply, err := provider.Chat(ctx, providerMsgs)
	if err != nil {
		return "", 0, err
	}

	assistantMsg := &Message{
		SessionID: sessionID,
		UserID:    userID,
		Role:      ai.RoleAssistant,
		Content:   reply,
	}
	if err := s.repo.InsertMessage(ctx, assistantMsg); err != nil {
		return "", 0, err
	}
	return reply, assistantMsg.ID, nil
}

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

func (s *Service) InsertUserMessageOrGetExisting(ctx context.Context, userID uint64, sessionID string, content string, key *string) (*Message, bool, error) {
	if err := s.ValidateSessionOwner(ctx, userID, sessionID); err != nil {
		return nil, false, err
	}
	return s.repo.InsertUserMessageOrGetExisting(ctx, userID, sessionID, content, key)
}
