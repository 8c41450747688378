package cooldown

import (
	"fmt"
	"time"
)

// FormatRemaining человекочитаемое оставшееся время: "23ч 45м" или "30м", секунды отбрасываются
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dч %dм", hours, minutes)
	}
	return fmt.Sprintf("%dм", minutes)
}
