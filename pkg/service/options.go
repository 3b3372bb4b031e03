package service

import (
	"log/slog"
	"time"

	"github.com/aretw0/forestml/internal/logging"
	"github.com/aretw0/forestml/pkg/codec"
	"github.com/aretw0/forestml/pkg/observability"
	"github.com/aretw0/forestml/pkg/ports"
)

type settings struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	locker  ports.DistributedLocker
	lockTTL time.Duration
	log     ports.ExecutionLog
	encoder *codec.Encoder
	now     func() time.Time
}

func newSettings(opts []Option) settings {
	s := settings{
		logger:  logging.NewNop(),
		lockTTL: 30 * time.Second,
		encoder: codec.NewEncoder(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a Publisher or a Scorer.
type Option func(*settings)

// WithLogger sets the logger for service events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithMetrics records publish and score outcomes.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithLocker serializes publishes of one model key across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(s *settings) {
		s.locker = locker
	}
}

// WithLockTTL bounds how long a crashed publisher can hold a model key.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.lockTTL = ttl
	}
}

// WithExecutionLog records every successful score call.
func WithExecutionLog(log ports.ExecutionLog) Option {
	return func(s *settings) {
		s.log = log
	}
}

// WithEncoder replaces the default encoder, e.g. to fix generated keys.
func WithEncoder(enc *codec.Encoder) Option {
	return func(s *settings) {
		s.encoder = enc
	}
}

// WithClock replaces time.Now for creation times and durations.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.now = now
	}
}
