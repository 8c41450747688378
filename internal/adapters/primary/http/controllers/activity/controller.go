package activity

import (
	"log/slog"
	"net/http"

	"github.com/Pelanglene/213bot/internal/adapters/primary/http/httpx"
	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/ports/service"
	"github.com/gin-gonic/gin"
)

// Controller приём событий активности чатов от шлюза чат-платформы
type Controller struct {
	Tracker service.IActivityTracker
	Policy  domain.InactivityPolicy
	Clock   clock.Clock
	Log     *slog.Logger
}

func New(tracker service.IActivityTracker, policy domain.InactivityPolicy, clk clock.Clock, log *slog.Logger) *Controller {
	return &Controller{
		Tracker: tracker,
		Policy:  policy,
		Clock:   clk,
		Log:     log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/activity")
	{
		group.GET("/inactive", c.inactive)
		group.POST("/:chat_id", c.record)
		group.POST("/:chat_id/ack", c.acknowledge)
	}
}

func (c *Controller) record(ctx *gin.Context) {
	chatID, err := httpx.Int64Param(ctx, "chat_id")
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	c.Tracker.RecordActivity(chatID, c.Clock.Now())
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *Controller) acknowledge(ctx *gin.Context) {
	chatID, err := httpx.Int64Param(ctx, "chat_id")
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	c.Tracker.AcknowledgeEngagement(chatID, c.Clock.Now())
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (c *Controller) inactive(ctx *gin.Context) {
	chats := c.Tracker.GetInactiveConversations(c.Clock.Now(), c.Policy)
	if chats == nil {
		chats = []int64{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"chats":   chats,
		"tracked": c.Tracker.Tracked(),
	})
}
