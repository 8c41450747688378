package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pelanglene/213bot/internal/ports/persistence"
	"github.com/Pelanglene/213bot/internal/ports/storage"
)

// BucketStore хранит бакеты в таблице engagement_buckets, по строке на ключ
type BucketStore struct {
	db persistence.Persistence
}

func NewBucketStore(db persistence.Persistence) *BucketStore {
	return &BucketStore{db: db}
}

func (s *BucketStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.Get(ctx, &payload, `SELECT payload FROM engagement_buckets WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select bucket %s: %w", key, err)
	}
	return payload, nil
}

// Save заменяет бакет целиком одним upsert
func (s *BucketStore) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO engagement_buckets (key, payload, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	if err := s.db.Exec(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("upsert bucket %s: %w", key, err)
	}
	return nil
}

func (s *BucketStore) Delete(ctx context.Context, key string) error {
	if err := s.db.Exec(ctx, `DELETE FROM engagement_buckets WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete bucket %s: %w", key, err)
	}
	return nil
}
