package handlers

import (
	"context"
	"strings"

	"github.com/mindharbor/wellness-platform/internal/ai"
	"github.com/mindharbor/wellness-platform/internal/chat"
	"github.com/mindharbor/wellness-platform/internal/config"
	"github.com/mindharbor/wellness-platform/internal/email"
	"github.com/mindharbor/wellness-platform/internal/mood"
	"github.com/mindharbor/wellness-platform/internal/screening"
	"github.com/mindharbor/wellness-platform/internal/store/rabbitmq"
	"github.com/mindharbor/wellness-platform/internal/store/redisstore"
	"github.com/mindharbor/wellness-platform/internal/ws"
	"gorm.io/gorm"
)

type Handler struct {
	DB           *gorm.DB
	Cfg          config.Config
	Redis        *redisstore.Store
	Rabbit       *rabbitmq.Publisher
	SMTPSetting  email.SMTPConfig
	ChatSvc      *chat.Service
	ScreeningSvc *screening.Service
	MoodSvc      *mood.Service
	Relay        *ws.Relay
}

// NewRegistry wires the configured AI providers. Shared by the API server
// and the reply worker.
func NewRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()

	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})

	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(
			cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName,
		), nil
	})

	return reg
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	reg := NewRegistry(cfg)
	chatSvc := chat.NewService(chat.NewRepo(db), reg, cfg.ChatContextWindowSize)

	return &Handler{
		DB:     db,
		Cfg:    cfg,
		Redis:  rds,
		Rabbit: rabbit,
		SMTPSetting: email.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			User: cfg.SMTPUser,
			Pass: cfg.SMTPPass,
			From: cfg.SMTPFrom,
		},
		ChatSvc:      chatSvc,
		ScreeningSvc: screening.NewService(screening.NewRepo(db)),
		MoodSvc:      mood.NewService(mood.NewRepo(db)),
		Relay:        ws.NewRelay(reg, cfg.AIProvider, ""),
	}
}
