// Package httpx общие для контроллеров разбор параметров и ответы об ошибках
package httpx

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/gin-gonic/gin"
)

// Int64Param целочисленный path-параметр
func Int64Param(ctx *gin.Context, name string) (int64, error) {
	raw := ctx.Param(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewBusinessError("invalid %s %q: must be an integer", name, raw)
	}
	return v, nil
}

// OptionalInt64Query query-параметр; nil, если не передан
func OptionalInt64Query(ctx *gin.Context, name string) (*int64, error) {
	raw, ok := ctx.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewBusinessError("invalid %s %q: must be an integer", name, raw)
	}
	return &v, nil
}

// DurationQuery длительность в формате Go ("24h", "90m"); def, если не передана
func DurationQuery(ctx *gin.Context, name string, def time.Duration) (time.Duration, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, domain.NewBusinessError("invalid %s %q: expected a non-negative duration like 24h", name, raw)
	}
	return d, nil
}

// DateKeyParam ключ дня YYYY-MM-DD
func DateKeyParam(ctx *gin.Context, name string, loc *time.Location) (string, error) {
	raw := ctx.Param(name)
	if _, err := clock.ParseDateKey(raw, loc); err != nil {
		return "", domain.NewBusinessError("invalid %s %q: expected YYYY-MM-DD", name, raw)
	}
	return raw, nil
}

// MonthKeyParam ключ месяца YYYY-MM
func MonthKeyParam(ctx *gin.Context, name string, loc *time.Location) (string, error) {
	raw := ctx.Param(name)
	if _, err := clock.ParseMonthKey(raw, loc); err != nil {
		return "", domain.NewBusinessError("invalid %s %q: expected YYYY-MM", name, raw)
	}
	return raw, nil
}

// Error отвечает 400 на BusinessError и 500 на всё остальное
func Error(ctx *gin.Context, log *slog.Logger, err error) {
	if domain.IsBusinessError(err) {
		log.Warn("bad request",
			"path", ctx.FullPath(),
			"error", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	log.Error("request failed",
		"path", ctx.FullPath(),
		"error", err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// BindJSON разбирает тело запроса; ошибка разбора - BusinessError
func BindJSON(ctx *gin.Context, dest any) error {
	if err := ctx.ShouldBindJSON(dest); err != nil {
		return domain.NewBusinessError("invalid request body: %v", err)
	}
	return nil
}
