package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mindharbor/wellness-platform/internal/common"
	"github.com/mindharbor/wellness-platform/internal/mood"
	"gorm.io/gorm"
)

type createMoodReq struct {
	MoodLevel int    `json:"mood_level" binding:"required"`
	Notes     string `json:"notes"`
	Date      string `json:"date"` // YYYY-MM-DD, defaults to today
}

func (h *Handler) CreateMoodEntry(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req createMoodReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	var date time.Time
	if req.Date != "" {
		d, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			common.Fail(c, http.StatusBadRequest, 10040, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	e, err := h.MoodSvc.Append(c.Request.Context(), uid, req.MoodLevel, req.Notes, date)
	if err != nil {
		if errors.Is(err, mood.ErrInvalidMood) {
			common.Fail(c, http.StatusBadRequest, 10041, "mood level must be 1-5")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to store entry")
		return
	}

	common.OK(c, gin.H{"entry": e})
}

func (h *Handler) ListMoodEntries(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	common.OK(c, gin.H{"entries": h.MoodSvc.History(c.Request.Context(), uid, limit)})
}

func (h *Handler) MoodEntryByDate(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	d, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10040, "invalid date, expected YYYY-MM-DD")
		return
	}

	e, err := h.MoodSvc.EntryForDate(c.Request.Context(), uid, d)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40404, "no entry for that day")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50005, "failed to load entry")
		return
	}

	common.OK(c, gin.H{"entry": e})
}

type diaryReq struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

func (h *Handler) CreateDiaryEntry(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req diaryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	e, err := h.MoodSvc.CreateDiary(c.Request.Context(), uid, req.Title, req.Content)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to store diary entry")
		return
	}
	common.OK(c, gin.H{"entry": e})
}

func (h *Handler) ListDiaryEntries(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(c.Query("limit"))
	common.OK(c, gin.H{"entries": h.MoodSvc.ListDiary(c.Request.Context(), uid, limit)})
}

func (h *Handler) UpdateDiaryEntry(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req diaryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	err := h.MoodSvc.UpdateDiary(c.Request.Context(), uid, c.Param("id"), req.Title, req.Content)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "diary entry not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to update diary entry")
		return
	}
	common.OK(c, gin.H{"updated": true})
}

func (h *Handler) DeleteDiaryEntry(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	err := h.MoodSvc.DeleteDiary(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "diary entry not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50006, "failed to delete diary entry")
		return
	}
	common.OK(c, gin.H{"deleted": true})
}
