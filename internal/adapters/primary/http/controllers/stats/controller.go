package stats

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Pelanglene/213bot/internal/adapters/primary/http/httpx"
	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/ports/service"
	"github.com/gin-gonic/gin"
)

const maxTopLimit = 100

type Controller struct {
	Ledger   service.IUsageStatsLedger
	Limiter  service.IRateLimiter
	TopLimit int
	Clock    clock.Clock
	Log      *slog.Logger
}

func New(ledger service.IUsageStatsLedger, limiter service.IRateLimiter, topLimit int, clk clock.Clock, log *slog.Logger) *Controller {
	return &Controller{
		Ledger:   ledger,
		Limiter:  limiter,
		TopLimit: topLimit,
		Clock:    clk,
		Log:      log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/usage", c.record)
	router.GET("/usage/:month/chats/:chat_id/top", c.top)
	router.DELETE("/usage/:month", c.clear)
}

type RecordUsageRequest struct {
	ChatID int64      `json:"chat_id" binding:"required"`
	UserID int64      `json:"user_id" binding:"required"`
	At     *time.Time `json:"at"`
}

func (c *Controller) record(ctx *gin.Context) {
	var req RecordUsageRequest
	if err := httpx.BindJSON(ctx, &req); err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	now := c.Clock.Now()
	if c.Limiter != nil && !c.Limiter.Allow(req.UserID, now) {
		retry := c.Limiter.Remaining(req.UserID, now)
		c.Log.Debug("usage throttled",
			"user_id", req.UserID,
			"retry_after", retry)
		ctx.JSON(http.StatusTooManyRequests, gin.H{
			"error":               "too many requests",
			"retry_after_seconds": int64((retry + time.Second - 1) / time.Second),
		})
		return
	}

	when := now
	if req.At != nil {
		when = *req.At
	}

	c.Ledger.RecordUsage(ctx.Request.Context(), req.ChatID, req.UserID, when)
	ctx.JSON(http.StatusCreated, gin.H{
		"month": c.Ledger.MonthKey(when),
	})
}

func (c *Controller) top(ctx *gin.Context) {
	monthKey, err := httpx.MonthKeyParam(ctx, "month", c.Clock.Location())
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}
	chatID, err := httpx.Int64Param(ctx, "chat_id")
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	limit := c.TopLimit
	if raw := ctx.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > maxTopLimit {
			httpx.Error(ctx, c.Log, domain.NewBusinessError("invalid limit %q: expected 1..%d", raw, maxTopLimit))
			return
		}
	}

	top := c.Ledger.GetTop(ctx.Request.Context(), monthKey, chatID, limit)
	if top == nil {
		top = []domain.UsageCount{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"month": monthKey,
		"top":   top,
	})
}

func (c *Controller) clear(ctx *gin.Context) {
	monthKey, err := httpx.MonthKeyParam(ctx, "month", c.Clock.Location())
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	c.Ledger.ClearMonth(ctx.Request.Context(), monthKey)
	ctx.Status(http.StatusNoContent)
}
