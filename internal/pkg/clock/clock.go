package clock

import (
	"fmt"
	"sync"
	"time"
)

const (
	dateKeyLayout  = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// Clock бизнес-часы: текущее время и фиксированная таймзона,
// в которой считаются границы дня, месяца и активных часов
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Wall реальные часы в бизнес-таймзоне
type Wall struct {
	loc *time.Location
}

// New создаёт часы для указанной таймзоны (nil = UTC)
func New(loc *time.Location) *Wall {
	if loc == nil {
		loc = time.UTC
	}
	return &Wall{loc: loc}
}

// Load создаёт часы по имени таймзоны IANA.
// Если таймзона не найдена - возвращает часы в UTC вместе с ошибкой
func Load(name string) (*Wall, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return New(time.UTC), fmt.Errorf("failed to load location %q: %w", name, err)
	}
	return New(loc), nil
}

func (w *Wall) Now() time.Time {
	return time.Now().In(w.loc)
}

func (w *Wall) Location() *time.Location {
	return w.loc
}

// Frozen часы для тестов, время двигается только вручную
type Frozen struct {
	mu  sync.Mutex
	now time.Time
	loc *time.Location
}

func NewFrozen(now time.Time, loc *time.Location) *Frozen {
	if loc == nil {
		loc = time.UTC
	}
	return &Frozen{now: now.In(loc), loc: loc}
}

func (f *Frozen) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Frozen) Location() *time.Location {
	return f.loc
}

func (f *Frozen) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now.In(f.loc)
}

func (f *Frozen) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// DateKey календарная дата YYYY-MM-DD в таймзоне loc
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}

// MonthKey год-месяц YYYY-MM в таймзоне loc
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthKeyLayout)
}

// PreviousDateKey ключ календарного дня, предшествующего t
func PreviousDateKey(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return local.AddDate(0, 0, -1).Format(dateKeyLayout)
}

// ParseDateKey проверяет формат ключа даты
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateKeyLayout, key, loc)
}

// ParseMonthKey проверяет формат ключа месяца
func ParseMonthKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(monthKeyLayout, key, loc)
}
