package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Pelanglene/213bot/internal/ports/storage"
	"github.com/minio/minio-go/v7"
)

const contentTypeJSON = "application/json"

// BucketStore хранит бакеты объектами <prefix><key>.json в S3-бакете.
// PutObject заменяет объект целиком, частично записанных объектов не бывает
type BucketStore struct {
	client *minio.Client
	bucket string
	prefix string
	log    *slog.Logger
}

// NewBucketStore создаёт хранилище бакетов поверх MinIO/S3 клиента
func NewBucketStore(client *minio.Client, bucket, prefix string, log *slog.Logger) *BucketStore {
	return &BucketStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log,
	}
}

func (s *BucketStore) objectName(key string) string {
	return s.prefix + key + ".json"
}

// Load читает объект целиком. GetObject ленивый, отсутствие объекта видно только при чтении
func (s *BucketStore) Load(ctx context.Context, key string) ([]byte, error) {
	name := s.objectName(key)

	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}

	return data, nil
}

func (s *BucketStore) Save(ctx context.Context, key string, data []byte) error {
	name := s.objectName(key)

	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeJSON})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", name, err)
	}

	s.log.Debug("bucket object saved", "object", name, "size", len(data))
	return nil
}

// Delete удаление отсутствующего объекта в S3 не ошибка
func (s *BucketStore) Delete(ctx context.Context, key string) error {
	name := s.objectName(key)

	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove object %s: %w", name, err)
	}
	return nil
}

func isNotFound(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
