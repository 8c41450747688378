package boltdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Pelanglene/213bot/internal/ports/storage"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("engagement")

const openTimeout = 2 * time.Second

// BucketStore все бакеты в одном файле BoltDB, по ключу на бакет.
// Каждая запись - отдельная Update-транзакция
type BucketStore struct {
	db *bolt.DB
}

// Open открывает (или создаёт) файл базы и бакет engagement
func Open(path string) (*BucketStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create bolt dir: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bolt bucket: %w", err)
	}

	return &BucketStore{db: db}, nil
}

func (s *BucketStore) Load(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return storage.ErrNotFound
		}
		// значение валидно только внутри транзакции
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BucketStore) Save(_ context.Context, key string, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
}

func (s *BucketStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

func (s *BucketStore) Close() error {
	return s.db.Close()
}
