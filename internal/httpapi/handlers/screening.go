package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mindharbor/wellness-platform/internal/common"
	"github.com/mindharbor/wellness-platform/internal/screening"
	"gorm.io/gorm"
)

type submitScreeningReq struct {
	Instrument string `json:"instrument" binding:"required"`
	Responses  []int  `json:"responses" binding:"required"`
}

func (h *Handler) SubmitScreening(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var req submitScreeningReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	inst, ok := screening.ParseInstrument(req.Instrument)
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10030, "unknown instrument")
		return
	}

	a, res, err := h.ScreeningSvc.Submit(c.Request.Context(), uid, inst, req.Responses)
	if err != nil {
		if errors.Is(err, screening.ErrInvalidResponses) {
			common.Fail(c, http.StatusBadRequest, 10031, "invalid responses")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50003, "failed to store assessment")
		return
	}

	common.OK(c, gin.H{
		"assessment_id":   a.ID,
		"instrument":      res.Instrument,
		"total_score":     res.TotalScore,
		"max_score":       res.MaxScore,
		"risk_level":      res.RiskLevel,
		"is_high_risk":    res.IsHighRisk,
		"is_crisis":       res.IsCrisis,
		"recommendations": res.Recommendations,
		"created_at":      a.CreatedAt,
	})
}

func (h *Handler) ListScreenings(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	var inst screening.Instrument
	if s := c.Query("instrument"); s != "" {
		parsed, ok := screening.ParseInstrument(s)
		if !ok {
			common.Fail(c, http.StatusBadRequest, 10030, "unknown instrument")
			return
		}
		inst = parsed
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	hist, err := h.ScreeningSvc.History(c.Request.Context(), uid, inst, limit)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to list assessments")
		return
	}

	common.OK(c, gin.H{"assessments": hist})
}

func (h *Handler) LatestScreening(c *gin.Context) {
	uid, ok := userIDFromContext(c)
	if !ok {
		common.Fail(c, http.StatusUnauthorized, 40101, "unauthorized")
		return
	}

	inst, ok := screening.ParseInstrument(c.Query("instrument"))
	if !ok {
		common.Fail(c, http.StatusBadRequest, 10030, "unknown instrument")
		return
	}

	a, err := h.ScreeningSvc.Latest(c.Request.Context(), uid, inst)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40403, "no assessment yet")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50004, "failed to load assessment")
		return
	}

	common.OK(c, gin.H{"assessment": a})
}
