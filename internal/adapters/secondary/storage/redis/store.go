package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pelanglene/213bot/internal/ports/storage"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "engagement:"

// BucketStore хранит бакеты строками Redis без TTL. SET заменяет значение атомарно
type BucketStore struct {
	client *redis.Client
	prefix string
}

// NewBucketStore создаёт хранилище; пустой prefix заменяется на "engagement:"
func NewBucketStore(client *redis.Client, prefix string) *BucketStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &BucketStore{client: client, prefix: prefix}
}

func (s *BucketStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *BucketStore) Save(ctx context.Context, key string, data []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *BucketStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
