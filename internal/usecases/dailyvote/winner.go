package dailyvote

import "github.com/Pelanglene/213bot/internal/domain"

// SelectWinner фото с максимальным счётом; при равенстве побеждает более раннее,
// при полном совпадении - первое во входном списке. false для пустого списка
func SelectWinner(entries []domain.DailyPhotoEntry, score func(domain.DailyPhotoEntry) int) (domain.DailyPhotoEntry, bool) {
	if len(entries) == 0 {
		return domain.DailyPhotoEntry{}, false
	}

	best := entries[0]
	bestScore := score(best)

	for _, e := range entries[1:] {
		s := score(e)
		if s > bestScore || (s == bestScore && e.SentAt.Before(best.SentAt)) {
			best, bestScore = e, s
		}
	}

	return best, true
}
