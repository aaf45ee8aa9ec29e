package catalog

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opLoad  = "load"
	opFlush = "flush"
	opPing  = "ping"

	resultOK    = "ok"
	resultError = "error"
)

type StoreMetrics struct {
	Operations *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_operations_total",
				Help: "Durable store operations by backend, operation and result",
			},
			[]string{"backend", "op", "result"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "catalog_store_operation_duration_seconds",
				Help: "Durable store operation latency",
			},
			[]string{"backend", "op"},
		),
	}

	reg.MustRegister(m.Operations, m.Latency)
	return m
}

type instrumentedStore struct {
	next    Store
	backend string
	m       *StoreMetrics
}

// Instrument wraps st so every call is counted and timed under the given backend label.
func Instrument(st Store, backend string, m *StoreMetrics) Store {
	if m == nil {
		return st
	}
	return &instrumentedStore{next: st, backend: backend, m: m}
}

func (s *instrumentedStore) Load(ctx context.Context) (Document, error) {
	start := time.Now()
	doc, err := s.next.Load(ctx)
	s.observe(opLoad, start, err)
	return doc, err
}

func (s *instrumentedStore) Flush(ctx context.Context, doc Document) error {
	start := time.Now()
	err := s.next.Flush(ctx, doc)
	s.observe(opFlush, start, err)
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.observe(opPing, start, err)
	return err
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	s.m.Latency.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
	s.m.Operations.WithLabelValues(s.backend, op, result).Inc()
}
