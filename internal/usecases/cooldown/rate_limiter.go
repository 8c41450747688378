package cooldown

import (
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// RateLimiter минимальный интервал между запросами одного пользователя (антиспам).
// В отличие от Gate, время сдвигается только разрешёнными запросами
type RateLimiter struct {
	interval    time.Duration
	lastRequest *xsync.MapOf[int64, time.Time]
	log         *slog.Logger
}

func NewRateLimiter(interval time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		interval:    interval,
		lastRequest: xsync.NewMapOf[int64, time.Time](),
		log:         log,
	}
}

// Allow первый запрос пользователя всегда разрешён. Проверка и сдвиг времени атомарны
func (r *RateLimiter) Allow(userID int64, now time.Time) bool {
	var remaining time.Duration
	r.lastRequest.Compute(userID, func(last time.Time, loaded bool) (time.Time, bool) {
		if loaded {
			if since := now.Sub(last); since < r.interval {
				remaining = r.interval - since
				return last, false
			}
		}
		return now, false
	})

	if remaining > 0 {
		r.log.Warn("rate limit hit",
			"user_id", userID,
			"remaining", remaining)
		return false
	}
	return true
}

// Remaining сколько осталось ждать пользователю, 0 если можно
func (r *RateLimiter) Remaining(userID int64, now time.Time) time.Duration {
	last, ok := r.lastRequest.Load(userID)
	if !ok {
		return 0
	}
	if since := now.Sub(last); since < r.interval {
		return r.interval - since
	}
	return 0
}

func (r *RateLimiter) Reset(userID int64) {
	if _, ok := r.lastRequest.LoadAndDelete(userID); ok {
		r.log.Info("rate limit reset", "user_id", userID)
	}
}
