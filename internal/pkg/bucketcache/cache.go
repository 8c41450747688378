// Package bucketcache кэш "загрузи при первом обращении и держи до явной очистки"
// для бакетов, привязанных к ключу даты или месяца.
//
// Каждый бакет защищён своим мьютексом: операции над одним ключом сериализуются
// (включая запись в хранилище внутри Do), разные ключи друг другу не мешают.
package bucketcache

import (
	"context"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry[T any] struct {
	mu      sync.Mutex
	loaded  bool
	dropped bool
	value   T
}

// Cache кэш бакетов без вытеснения: запись живёт до вызова Drop
type Cache[T any] struct {
	entries *xsync.MapOf[string, *entry[T]]
	fetch   func(ctx context.Context, key string) T
}

// New создаёт кэш; fetch вызывается один раз на ключ под мьютексом бакета
func New[T any](fetch func(ctx context.Context, key string) T) *Cache[T] {
	return &Cache[T]{
		entries: xsync.NewMapOf[string, *entry[T]](),
		fetch:   fetch,
	}
}

// Do выполняет fn с эксклюзивным доступом к бакету key, загружая его при необходимости
func (c *Cache[T]) Do(ctx context.Context, key string, fn func(value *T)) {
	for {
		e, _ := c.entries.LoadOrCompute(key, func() *entry[T] {
			return &entry[T]{}
		})

		e.mu.Lock()
		if e.dropped {
			// бакет удалили, пока мы ждали мьютекс - берём свежую запись
			e.mu.Unlock()
			continue
		}
		if !e.loaded {
			e.value = c.fetch(ctx, key)
			e.loaded = true
		}
		fn(&e.value)
		e.mu.Unlock()
		return
	}
}

// Drop под мьютексом бакета выполняет fn (например, удаление из хранилища) и вытесняет бакет.
// Если fn вернула ошибку, бакет остаётся в кэше пустым: иначе следующая загрузка
// подняла бы из хранилища неудалённые данные. Для отсутствующего ключа fn всё равно выполняется
func (c *Cache[T]) Drop(key string, fn func() error) error {
	for {
		e, _ := c.entries.LoadOrCompute(key, func() *entry[T] {
			return &entry[T]{}
		})

		e.mu.Lock()
		if e.dropped {
			e.mu.Unlock()
			continue
		}
		// пока запись не помечена dropped, в мапе под key лежит именно она
		var err error
		if fn != nil {
			err = fn()
		}
		if err != nil {
			var zero T
			e.value = zero
			e.loaded = true
			e.mu.Unlock()
			return err
		}
		e.dropped = true
		c.entries.Delete(key)
		e.mu.Unlock()
		return nil
	}
}

// Cached сообщает, загружен ли бакет в память
func (c *Cache[T]) Cached(key string) bool {
	e, ok := c.entries.Load(key)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded && !e.dropped
}

// Len количество ключей в кэше
func (c *Cache[T]) Len() int {
	return c.entries.Size()
}
