package report

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"piview/internal/supervisor/model"
	"piview/pkg/infra"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultEventBuffer = 256
	writeTimeout       = 5 * time.Second
)

// Publisher accepts fleet events. Publish never blocks the caller.
type Publisher interface {
	Publish(ev model.Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(model.Event) {}

// Reporter ships events to kafka and keeps a presence key with the latest
// snapshot in redis. Both sinks are optional; a kiosk without a fleet backend
// only logs.
type Reporter struct {
	writer    infra.KafkaWriter
	redis     redis.Cmdable
	keyPrefix string
	host      string
	runID     string
	logger    *zap.Logger

	events  chan model.Event
	dropped atomic.Int64

	mu          sync.Mutex
	pending     *model.HealthRecord
	pendingTTL  time.Duration
	snapshotSig chan struct{}
}

func NewReporter(writer infra.KafkaWriter, rdb redis.Cmdable, keyPrefix, host, runID string, logger *zap.Logger) *Reporter {
	return &Reporter{
		writer:      writer,
		redis:       rdb,
		keyPrefix:   keyPrefix,
		host:        host,
		runID:       runID,
		logger:      logger,
		events:      make(chan model.Event, defaultEventBuffer),
		snapshotSig: make(chan struct{}, 1),
	}
}

func (r *Reporter) Publish(ev model.Event) {
	if r.writer == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	ev.RunID = r.runID
	ev.Host = r.host
	select {
	case r.events <- ev:
	default:
		n := r.dropped.Add(1)
		r.logger.Debug("event buffer full, dropping event", zap.String("type", string(ev.Type)), zap.Int64("dropped", n))
	}
}

// Snapshot schedules rec to be written to the presence key. Only the latest
// pending snapshot is kept. The key expires after three check intervals so a
// dead kiosk disappears from the fleet view.
func (r *Reporter) Snapshot(rec model.HealthRecord, interval time.Duration) {
	if r.redis == nil {
		return
	}
	r.mu.Lock()
	r.pending = &rec
	r.pendingTTL = 3 * interval
	r.mu.Unlock()
	select {
	case r.snapshotSig <- struct{}{}:
	default:
	}
}

func (r *Reporter) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Reporter) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return nil
		case ev := <-r.events:
			r.writeEvent(ctx, ev)
		case <-r.snapshotSig:
			r.writeSnapshot(ctx)
		}
	}
}

func (r *Reporter) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	for {
		select {
		case ev := <-r.events:
			r.writeEvent(ctx, ev)
		default:
			return
		}
	}
}

func (r *Reporter) writeEvent(ctx context.Context, ev model.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("failed to marshal event", zap.Error(fmt.Errorf("Reporter.writeEvent: %w", err)))
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err = r.writer.WriteMessages(wctx, kafka.Message{
		Key:   []byte(r.host),
		Value: b,
	})
	if err != nil {
		r.logger.Warn("failed to publish event", zap.String("type", string(ev.Type)), zap.Error(fmt.Errorf("Reporter.writeEvent: %w", err)))
	}
}

func (r *Reporter) writeSnapshot(ctx context.Context) {
	r.mu.Lock()
	rec, ttl := r.pending, r.pendingTTL
	r.pending = nil
	r.mu.Unlock()
	if rec == nil {
		return
	}
	b, err := json.Marshal(rec)
	if err != nil {
		r.logger.Error("failed to marshal snapshot", zap.Error(fmt.Errorf("Reporter.writeSnapshot: %w", err)))
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err = r.redis.Set(wctx, r.keyPrefix+r.host, string(b), ttl).Err(); err != nil {
		r.logger.Warn("failed to write presence key", zap.Error(fmt.Errorf("Reporter.writeSnapshot: %w", err)))
	}
}
