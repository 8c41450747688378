package metrics

import (
	"context"
	"errors"

	"github.com/Pelanglene/213bot/internal/ports/storage"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "engagement_bot"

// Metrics метрики приложения на собственном реестре (без глобального состояния между тестами).
// Все методы безопасны для nil-получателя
type Metrics struct {
	Registry            *prometheus.Registry
	StorageOperations   *prometheus.CounterVec
	BucketLoadFallbacks *prometheus.CounterVec
	JobRuns             *prometheus.CounterVec
	InactiveChats       prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StorageOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Bucket store operations by backend, operation and result.",
		}, []string{"store", "op", "result"}),
		BucketLoadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "load_fallbacks_total",
			Help:      "Buckets that could not be read or decoded and were treated as empty.",
		}, []string{"ledger"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		InactiveChats: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "activity",
			Name:      "inactive_chats",
			Help:      "Chats reported inactive by the last dead chat scan.",
		}),
	}

	m.Registry.MustRegister(
		m.StorageOperations,
		m.BucketLoadFallbacks,
		m.JobRuns,
		m.InactiveChats,
	)

	return m
}

func (m *Metrics) BucketFallback(ledger string) {
	if m == nil {
		return
	}
	m.BucketLoadFallbacks.WithLabelValues(ledger).Inc()
}

func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, result(err)).Inc()
}

func (m *Metrics) SetInactiveChats(n int) {
	if m == nil {
		return
	}
	m.InactiveChats.Set(float64(n))
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// instrumentedStore декоратор хранилища бакетов со счётчиками операций
type instrumentedStore struct {
	next storage.IBucketStore
	name string
	ops  *prometheus.CounterVec
}

// InstrumentStore оборачивает store счётчиками; с nil-метриками возвращает store как есть
func InstrumentStore(store storage.IBucketStore, name string, m *Metrics) storage.IBucketStore {
	if m == nil || store == nil {
		return store
	}
	return &instrumentedStore{next: store, name: name, ops: m.StorageOperations}
}

func (s *instrumentedStore) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.next.Load(ctx, key)
	s.ops.WithLabelValues(s.name, "load", result(err)).Inc()
	return data, err
}

func (s *instrumentedStore) Save(ctx context.Context, key string, data []byte) error {
	err := s.next.Save(ctx, key, data)
	s.ops.WithLabelValues(s.name, "save", result(err)).Inc()
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) error {
	err := s.next.Delete(ctx, key)
	s.ops.WithLabelValues(s.name, "delete", result(err)).Inc()
	return err
}
