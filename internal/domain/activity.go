package domain

import (
	"fmt"
	"time"
)

// ActiveWindow - диапазон часов [StartHour, EndHour) в бизнес-таймзоне,
// в котором вообще проверяется неактивность чата.
// StartHour > EndHour - окно через полночь, StartHour == EndHour - весь день
type ActiveWindow struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// DefaultActiveWindow 9:00-21:00
var DefaultActiveWindow = ActiveWindow{StartHour: 9, EndHour: 21}

// Contains проверяет час t (t должно быть уже в бизнес-таймзоне)
func (w ActiveWindow) Contains(t time.Time) bool {
	hour := t.Hour()
	switch {
	case w.StartHour == w.EndHour:
		return true
	case w.StartHour < w.EndHour:
		return w.StartHour <= hour && hour < w.EndHour
	default:
		return hour >= w.StartHour || hour < w.EndHour
	}
}

func (w ActiveWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > 24 || w.EndHour < 0 || w.EndHour > 24 {
		return fmt.Errorf("active window hours must be in 0..24, got [%d,%d)", w.StartHour, w.EndHour)
	}
	return nil
}

// InactivityPolicy порог тишины и окно, в котором он проверяется
type InactivityPolicy struct {
	Threshold time.Duration
	Window    ActiveWindow
}
