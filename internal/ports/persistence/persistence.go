package persistence

import "context"

// Persistence минимальный набор операций над SQL-базой, нужный адаптерам хранения
type Persistence interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
}
