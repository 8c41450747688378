package healthcheckController

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const checkTimeout = 2 * time.Second

// Check проверка готовности одной внешней зависимости (хранилище, кэш)
type Check func(ctx context.Context) error

type HealthCheckController struct {
	checks   map[string]Check
	registry *prometheus.Registry
	log      *slog.Logger
}

// New checks может быть пустым: без внешних зависимостей сервис готов всегда
func New(checks map[string]Check, registry *prometheus.Registry, log *slog.Logger) *HealthCheckController {
	return &HealthCheckController{
		checks:   checks,
		registry: registry,
		log:      log,
	}
}

func (c *HealthCheckController) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", c.health)
	r.GET("/ready", c.ready)
	if c.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})))
	}
}

// health базовая проверка (всегда возвращает 200)
func (c *HealthCheckController) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "engagement-bot",
	})
}

// ready проверяет все зависимости и перечисляет упавшие
func (c *HealthCheckController) ready(ctx *gin.Context) {
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), checkTimeout)
		err := c.checks[name](checkCtx)
		cancel()

		if err != nil {
			c.log.Error("dependency not ready", "dependency", name, "error", err)
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
