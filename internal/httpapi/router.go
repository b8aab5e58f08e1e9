package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mindharbor/wellness-platform/internal/common"
	"github.com/mindharbor/wellness-platform/internal/config"
	"github.com/mindharbor/wellness-platform/internal/httpapi/handlers"
	"github.com/mindharbor/wellness-platform/internal/httpapi/middleware"
	"github.com/mindharbor/wellness-platform/internal/store/rabbitmq"
	"github.com/mindharbor/wellness-platform/internal/store/redisstore"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, rabbit *rabbitmq.Publisher) (*gin.Engine, *handlers.Handler) {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: false,
	}))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, rabbit)

	r.GET("/ping", h.Ping)

	// captcha
	r.POST("/captcha", h.SendCaptcha)

	// CRUD users register
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUserByID)

	// auth
	r.POST("/login", h.Login)
	authGroup := r.Group("/")
	authGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	authGroup.GET("/me", h.Me)

	// Chat (JWT required)
	authGroup.POST("/chat/sessions", h.CreateChatSession)
	authGroup.POST("/chat/messages", h.SendChatMessage)
	authGroup.GET("/chat/sessions/:session_id/messages", h.ListChatMessages)
	authGroup.POST("/chat/messages/stream", h.SendChatMessageStream)
	authGroup.POST("/chat/messages/async", h.SendChatMessageAsync)
	authGroup.GET("/chat/jobs/:job_id", h.GetChatJob)
	authGroup.GET("/chat/ws", h.ChatSocket)

	// Screenings (JWT required)
	authGroup.POST("/screenings", h.SubmitScreening)
	authGroup.GET("/screenings", h.ListScreenings)
	authGroup.GET("/screenings/latest", h.LatestScreening)

	// Mood journal + diary (JWT required)
	authGroup.POST("/moods", h.CreateMoodEntry)
	authGroup.GET("/moods", h.ListMoodEntries)
	authGroup.GET("/moods/by-date", h.MoodEntryByDate)
	authGroup.POST("/diary", h.CreateDiaryEntry)
	authGroup.GET("/diary", h.ListDiaryEntries)
	authGroup.PUT("/diary/:id", h.UpdateDiaryEntry)
	authGroup.DELETE("/diary/:id", h.DeleteDiaryEntry)

	return r, h
}
