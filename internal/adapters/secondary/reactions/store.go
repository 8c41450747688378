package reactions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Pelanglene/213bot/internal/ports/cache"
)

// DefaultTTL сколько хранить счётчик реакций: голосование за фото дня закрывается на следующие сутки
const DefaultTTL = 72 * time.Hour

// Store счётчики реакций на сообщения поверх cache.Cache
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{cache: c, ttl: ttl}
}

func key(chatID, messageID int64) string {
	return fmt.Sprintf("reactions:%d:%d", chatID, messageID)
}

// SetScore запоминает текущее число реакций на сообщение
func (s *Store) SetScore(ctx context.Context, chatID, messageID int64, count int) error {
	if count < 0 {
		count = 0
	}
	if err := s.cache.Set(ctx, key(chatID, messageID), strconv.Itoa(count), s.ttl); err != nil {
		return fmt.Errorf("failed to store reactions for %d/%d: %w", chatID, messageID, err)
	}
	return nil
}

// Score число реакций на сообщение; 0, если реакций не было или счётчик истёк
func (s *Store) Score(ctx context.Context, chatID, messageID int64) (int, error) {
	raw, err := s.cache.Get(ctx, key(chatID, messageID))
	if errors.Is(err, cache.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read reactions for %d/%d: %w", chatID, messageID, err)
	}

	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid reactions value %q for %d/%d: %w", raw, chatID, messageID, err)
	}
	return count, nil
}
