package activity

import (
	"log/slog"
	"sort"
	"time"

	"github.com/Pelanglene/213bot/internal/domain"
	"github.com/puzpuzpuz/xsync/v3"
)

// Tracker хранит время последней активности по чатам и определяет "мёртвые" чаты.
// Состояние только в памяти, растёт по числу различных чатов
type Tracker struct {
	lastActivity *xsync.MapOf[int64, time.Time]
	loc          *time.Location
	Log          *slog.Logger
}

// New создаёт трекер активности чатов; активные часы считаются в таймзоне loc
func New(loc *time.Location, log *slog.Logger) *Tracker {
	if loc == nil {
		loc = time.UTC
	}
	return &Tracker{
		lastActivity: xsync.NewMapOf[int64, time.Time](),
		loc:          loc,
		Log:          log,
	}
}

// RecordActivity безусловно выставляет время последней активности
func (t *Tracker) RecordActivity(chatID int64, now time.Time) {
	t.lastActivity.Store(chatID, now)
	t.Log.Debug("chat activity updated",
		"chat_id", chatID,
		"at", now.In(t.loc).Format(time.TimeOnly))
}

// IsInactive true, если по чату есть запись, now попадает в активное окно
// и с последней активности прошло не меньше порога
func (t *Tracker) IsInactive(chatID int64, now time.Time, policy domain.InactivityPolicy) bool {
	last, ok := t.lastActivity.Load(chatID)
	if !ok {
		return false
	}

	if !policy.Window.Contains(now.In(t.loc)) {
		return false
	}

	return now.Sub(last) >= policy.Threshold
}

// GetInactiveConversations все отслеживаемые чаты, подходящие под IsInactive, по возрастанию ID
func (t *Tracker) GetInactiveConversations(now time.Time, policy domain.InactivityPolicy) []int64 {
	if !policy.Window.Contains(now.In(t.loc)) {
		return nil
	}

	var inactive []int64
	t.lastActivity.Range(func(chatID int64, last time.Time) bool {
		if now.Sub(last) >= policy.Threshold {
			inactive = append(inactive, chatID)
		}
		return true
	})

	sort.Slice(inactive, func(i, j int) bool { return inactive[i] < inactive[j] })

	t.Log.Debug("checked tracked chats for inactivity",
		"tracked", t.lastActivity.Size(),
		"inactive", len(inactive))

	return inactive
}

// AcknowledgeEngagement сбрасывает таймер после отправленного "dead chat",
// так что следующее уведомление возможно не раньше чем через порог
func (t *Tracker) AcknowledgeEngagement(chatID int64, now time.Time) {
	t.lastActivity.Store(chatID, now)
	t.Log.Info("dead chat acknowledged",
		"chat_id", chatID,
		"at", now.In(t.loc).Format(time.TimeOnly))
}

// Tracked количество отслеживаемых чатов
func (t *Tracker) Tracked() int {
	return t.lastActivity.Size()
}
