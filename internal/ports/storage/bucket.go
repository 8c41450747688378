package storage

import (
	"context"
	"errors"
)

// ErrNotFound бакета с таким ключом нет в хранилище
var ErrNotFound = errors.New("bucket not found")

// IBucketStore долговременное хранилище бакетов: один ключ - один JSON-документ.
// Save должен заменять документ целиком: прерванная запись оставляет прежнюю версию
type IBucketStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	// Delete идемпотентен: отсутствующий ключ - не ошибка
	Delete(ctx context.Context, key string) error
}
