package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Config event dispatch configuration
type Config struct {
	// PoolSize listener goroutine pool size (default 16)
	PoolSize int `mapstructure:"pool_size"`

	// Kafka publishing (optional)
	KafkaEnabled bool     `mapstructure:"kafka_enabled"`
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
	KafkaTopic   string   `mapstructure:"kafka_topic"`
}

// ApplyDefaults fills zero values
func (c *Config) ApplyDefaults() {
	if c.PoolSize == 0 {
		c.PoolSize = 16
	}
	if c.KafkaTopic == "" {
		c.KafkaTopic = "clubport.ranking.changed"
	}
}

// Dispatcher fans ranking-changed events out to registered listeners on a
// shared worker pool. It satisfies ranking.Notifier.
type Dispatcher struct {
	pool      *ants.Pool
	logger    *zap.Logger
	mu        sync.RWMutex
	listeners []Listener
}

// NewDispatcher creates the dispatcher with its worker pool.
func NewDispatcher(cfg Config, log *zap.Logger) (*Dispatcher, error) {
	cfg.ApplyDefaults()

	pool, err := ants.NewPool(cfg.PoolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("create event pool failed: %w", err)
	}

	return &Dispatcher{
		pool:   pool,
		logger: log,
	}, nil
}

// Subscribe registers a listener. Not safe to call concurrently with
// itself, safe with RankingChanged.
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// RankingChanged implements ranking.Notifier. It never blocks: when the
// pool is saturated the event is dropped with a warning rather than
// stalling the mutation path.
func (d *Dispatcher) RankingChanged(_ context.Context, memberID string, newScore, newRank int64) {
	ev := RankingChanged{
		MemberID:   memberID,
		NewScore:   newScore,
		NewRank:    newRank,
		OccurredAt: time.Now(),
	}

	d.mu.RLock()
	listeners := make([]Listener, len(d.listeners))
	copy(listeners, d.listeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		l := l
		err := d.pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error("event listener panicked",
						zap.String("member_id", ev.MemberID),
						zap.Any("panic", r))
				}
			}()
			l.OnRankingChanged(ev)
		})
		if err != nil {
			d.logger.Warn("event dropped, pool saturated",
				zap.String("member_id", ev.MemberID),
				zap.Error(err))
		}
	}
}

// Close releases the worker pool after pending listeners finish.
func (d *Dispatcher) Close() error {
	d.pool.Release()
	return nil
}
