package dailyvote

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Pelanglene/213bot/internal/adapters/primary/http/httpx"
	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/ports/service"
	dailyvoteUsecase "github.com/Pelanglene/213bot/internal/usecases/dailyvote"
	"github.com/gin-gonic/gin"
)

// Controller приём фото дня и реакций на них, просмотр и очистка бакетов
type Controller struct {
	Votes     service.IDailyVoteAggregator
	Reactions service.IReactionScores
	Clock     clock.Clock
	Log       *slog.Logger
}

func New(votes service.IDailyVoteAggregator, reactions service.IReactionScores, clk clock.Clock, log *slog.Logger) *Controller {
	return &Controller{
		Votes:     votes,
		Reactions: reactions,
		Clock:     clk,
		Log:       log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/daily-vote")
	{
		group.POST("/entries", c.recordEntry)
		group.POST("/reactions", c.setReactions)
		group.GET("/:date/chats", c.listChats)
		group.GET("/:date/chats/:chat_id/entries", c.listEntries)
		group.GET("/:date/chats/:chat_id/winner", c.winner)
		group.DELETE("/:date", c.clear)
	}
}

type RecordEntryRequest struct {
	ChatID    int64      `json:"chat_id" binding:"required"`
	MessageID int64      `json:"message_id" binding:"required"`
	FileID    string     `json:"file_id" binding:"required"`
	SentAt    *time.Time `json:"sent_at"`
}

type SetReactionsRequest struct {
	ChatID    int64 `json:"chat_id" binding:"required"`
	MessageID int64 `json:"message_id" binding:"required"`
	Count     int   `json:"count"`
}

// EntryResponse фото дня с текущим счётом реакций
type EntryResponse struct {
	ChatID    int64     `json:"chat_id"`
	MessageID int64     `json:"message_id"`
	FileID    string    `json:"file_id"`
	SentAt    time.Time `json:"sent_at"`
	Score     int       `json:"score"`
}

func (c *Controller) recordEntry(ctx *gin.Context) {
	var req RecordEntryRequest
	if err := httpx.BindJSON(ctx, &req); err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	sentAt := c.Clock.Now()
	if req.SentAt != nil {
		sentAt = *req.SentAt
	}

	c.Votes.RecordEntry(ctx.Request.Context(), req.ChatID, req.MessageID, req.FileID, sentAt)

	ctx.JSON(http.StatusCreated, gin.H{
		"date": c.Votes.DateKey(sentAt),
	})
}

func (c *Controller) setReactions(ctx *gin.Context) {
	var req SetReactionsRequest
	if err := httpx.BindJSON(ctx, &req); err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	if err := c.Reactions.SetScore(ctx.Request.Context(), req.ChatID, req.MessageID, req.Count); err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *Controller) listChats(ctx *gin.Context) {
	dateKey, err := httpx.DateKeyParam(ctx, "date", c.Clock.Location())
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	chats := c.Votes.ListConversationsForDate(ctx.Request.Context(), dateKey)
	if chats == nil {
		chats = []int64{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"date":  dateKey,
		"chats": chats,
	})
}

func (c *Controller) scoredEntries(ctx *gin.Context) (string, []EntryResponse, error) {
	dateKey, err := httpx.DateKeyParam(ctx, "date", c.Clock.Location())
	if err != nil {
		return "", nil, err
	}
	chatID, err := httpx.Int64Param(ctx, "chat_id")
	if err != nil {
		return "", nil, err
	}

	entries := c.Votes.ListEntries(ctx.Request.Context(), dateKey, chatID)
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		score, err := c.Reactions.Score(ctx.Request.Context(), e.ChatID, e.MessageID)
		if err != nil {
			return "", nil, err
		}
		out = append(out, EntryResponse{
			ChatID:    e.ChatID,
			MessageID: e.MessageID,
			FileID:    e.FileID,
			SentAt:    e.SentAt,
			Score:     score,
		})
	}

	return dateKey, out, nil
}

func (c *Controller) listEntries(ctx *gin.Context) {
	dateKey, entries, err := c.scoredEntries(ctx)
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"date":    dateKey,
		"entries": entries,
	})
}

// winner текущий лидер дня без публикации и очистки
func (c *Controller) winner(ctx *gin.Context) {
	_, entries, err := c.scoredEntries(ctx)
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	photos := make([]domain.DailyPhotoEntry, len(entries))
	scores := make(map[int64]int, len(entries))
	for i, e := range entries {
		photos[i] = domain.DailyPhotoEntry{
			ChatID:    e.ChatID,
			MessageID: e.MessageID,
			FileID:    e.FileID,
			SentAt:    e.SentAt,
		}
		scores[e.MessageID] = e.Score
	}

	best, ok := dailyvoteUsecase.SelectWinner(photos, func(e domain.DailyPhotoEntry) int {
		return scores[e.MessageID]
	})
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "no entries for this date"})
		return
	}

	ctx.JSON(http.StatusOK, EntryResponse{
		ChatID:    best.ChatID,
		MessageID: best.MessageID,
		FileID:    best.FileID,
		SentAt:    best.SentAt,
		Score:     scores[best.MessageID],
	})
}

func (c *Controller) clear(ctx *gin.Context) {
	dateKey, err := httpx.DateKeyParam(ctx, "date", c.Clock.Location())
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	c.Votes.ClearDate(ctx.Request.Context(), dateKey)
	ctx.Status(http.StatusNoContent)
}
