package cooldown

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Gate хранит время последнего использования по ключу действия.
// Ключ - имя действия (глобальный кулдаун) или имя:chat_id (кулдаун в чате)
type Gate struct {
	lastUsed *xsync.MapOf[string, time.Time]
	Log      *slog.Logger
}

// New создаёт новый сервис кулдаунов
func New(log *slog.Logger) *Gate {
	return &Gate{
		lastUsed: xsync.NewMapOf[string, time.Time](),
		Log:      log,
	}
}

// Key ключ кулдауна: без чата - глобальный, с чатом - свой для каждого чата
func Key(action string, chatID *int64) string {
	if chatID == nil {
		return action
	}
	return fmt.Sprintf("%s:%d", action, *chatID)
}

// CanProceed разрешает действие, если записи нет или прошло не меньше cooldown.
// Иначе возвращает оставшееся время
func (g *Gate) CanProceed(key string, cooldown time.Duration, now time.Time) (bool, time.Duration) {
	last, ok := g.lastUsed.Load(key)
	if !ok {
		return true, 0
	}

	elapsed := now.Sub(last)
	if elapsed >= cooldown {
		return true, 0
	}

	return false, cooldown - elapsed
}

// Remaining оставшееся время кулдауна, 0 если действие разрешено
func (g *Gate) Remaining(key string, cooldown time.Duration, now time.Time) time.Duration {
	_, remaining := g.CanProceed(key, cooldown, now)
	return remaining
}

// MarkUsed безусловно отмечает использование; проверку CanProceed делает вызывающий
func (g *Gate) MarkUsed(key string, now time.Time) {
	g.lastUsed.Store(key, now)
	g.Log.Info("cooldown action used",
		"key", key,
		"at", now.Format(time.DateTime))
}
