package cooldown

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Pelanglene/213bot/internal/adapters/primary/http/httpx"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/ports/service"
	cooldownUsecase "github.com/Pelanglene/213bot/internal/usecases/cooldown"
	"github.com/gin-gonic/gin"
)

// Controller проверка и фиксация кулдаунов команд
type Controller struct {
	Gate            service.ICooldownGate
	DefaultCooldown time.Duration
	Clock           clock.Clock
	Log             *slog.Logger
}

func New(gate service.ICooldownGate, defaultCooldown time.Duration, clk clock.Clock, log *slog.Logger) *Controller {
	return &Controller{
		Gate:            gate,
		DefaultCooldown: defaultCooldown,
		Clock:           clk,
		Log:             log,
	}
}

func (c *Controller) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/cooldowns")
	{
		group.GET("/:action", c.check)
		group.POST("/:action/use", c.use)
	}
}

// CheckResponse ответ на проверку кулдауна
type CheckResponse struct {
	Key              string `json:"key"`
	Allowed          bool   `json:"allowed"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	RemainingText    string `json:"remaining_text,omitempty"`
}

func (c *Controller) key(ctx *gin.Context) (string, error) {
	chatID, err := httpx.OptionalInt64Query(ctx, "chat_id")
	if err != nil {
		return "", err
	}
	return cooldownUsecase.Key(ctx.Param("action"), chatID), nil
}

func (c *Controller) check(ctx *gin.Context) {
	key, err := c.key(ctx)
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	d, err := httpx.DurationQuery(ctx, "duration", c.DefaultCooldown)
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	allowed, remaining := c.Gate.CanProceed(key, d, c.Clock.Now())

	resp := CheckResponse{
		Key:              key,
		Allowed:          allowed,
		RemainingSeconds: int64(remaining.Round(time.Second) / time.Second),
	}
	if !allowed {
		resp.RemainingText = cooldownUsecase.FormatRemaining(remaining)
	}

	ctx.JSON(http.StatusOK, resp)
}

func (c *Controller) use(ctx *gin.Context) {
	key, err := c.key(ctx)
	if err != nil {
		httpx.Error(ctx, c.Log, err)
		return
	}

	c.Gate.MarkUsed(key, c.Clock.Now())
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "key": key})
}
