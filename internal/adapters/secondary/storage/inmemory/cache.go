package inmemory

import (
	"context"
	"errors"
	"time"

	"github.com/Pelanglene/213bot/internal/ports/cache"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheSize предел ключей in-memory кэша, старые вытесняются первыми
const DefaultCacheSize = 100_000

type cacheItem struct {
	value     string
	expiresAt time.Time // zero - живёт до общего TTL кэша
}

// Cache in-memory реализация cache.Cache, когда Redis не настроен.
// Ключи живут не дольше общего ttl кэша (его соблюдает expirable.LRU, в том числе
// для ключей, которые никто не читает); более короткий ttl из Set проверяется при чтении
type Cache struct {
	data *expirable.LRU[string, cacheItem]
	now  func() time.Time
}

// NewCache size <= 0 - DefaultCacheSize, ttl <= 0 - без общего TTL
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{
		data: expirable.NewLRU[string, cacheItem](size, nil, ttl),
		now:  time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	item, ok := c.data.Get(key)
	if !ok {
		return "", cache.ErrNotFound
	}
	// просроченный ключ не удаляем: его вытеснит LRU, а конкурентный Set не потеряется
	if !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt) {
		return "", cache.ErrNotFound
	}
	return item.value, nil
}

func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	item := cacheItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}
	c.data.Add(key, item)
	return nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.data.Remove(key)
	return nil
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Len количество ключей, ещё не вытесненных LRU
func (c *Cache) Len() int {
	return c.data.Len()
}

func (c *Cache) Close() error {
	c.data.Purge()
	return nil
}
