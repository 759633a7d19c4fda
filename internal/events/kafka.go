package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupID prefixes the consumer group; each instance joins its own group
	// so every replica sees every event.
	GroupID    string
	InstanceID string
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBus writes events to a topic and feeds consumed messages to local handlers.
// Events this instance published are dispatched locally on publish and skipped
// when they come back from the topic.
type KafkaBus struct {
	local    *LocalBus
	writer   messageWriter
	reader   *kafka.Reader
	instance string
	log      *zap.Logger
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// NewInstanceID names this process for consumer groups and event sources.
func NewInstanceID() string {
	host, err := os.Hostname()
	if err != nil || strings.TrimSpace(host) == "" {
		host = "storefront"
	}
	return strings.ToLower(strings.TrimSpace(host)) + "-" + strings.ToLower(ulid.Make().String())
}

// InstanceGroupID is the consumer group of one instance.
func InstanceGroupID(prefix, instance string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return instance
	}
	return prefix + "-" + instance
}

func NewKafkaBus(cfg KafkaConfig, log *zap.Logger, metrics *obsmetrics.Metrics) (*KafkaBus, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	instance := strings.TrimSpace(cfg.InstanceID)
	if instance == "" {
		instance = NewInstanceID()
	}
	log = log.Named("events.kafka").With(zap.String("instance", instance))

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 200 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     InstanceGroupID(cfg.GroupID, instance),
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    1 << 20,
	})

	return &KafkaBus{
		local:    NewLocalBus(log, metrics),
		writer:   writer,
		reader:   reader,
		instance: instance,
		log:      log,
	}, nil
}

func (b *KafkaBus) Subscribe(h Handler) {
	b.local.Subscribe(h)
}

func (b *KafkaBus) Publish(ctx context.Context, evt Event) error {
	evt.Source = b.instance
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.ProductID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	b.local.metrics.RecordCatalogEvent(ctx, evt.Type, "published")
	b.local.dispatch(ctx, evt)
	return nil
}

// Start runs the consumer loop until Stop is called.
func (b *KafkaBus) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consume(ctx)
	}()
}

func (b *KafkaBus) consume(ctx context.Context) {
	b.log.Info("catalog event consumer started")
	for {
		msg, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				b.log.Info("catalog event consumer stopped")
				return
			}
			b.log.Error("read kafka message failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		b.handleMessage(ctx, msg)
	}
}

func (b *KafkaBus) handleMessage(ctx context.Context, msg kafka.Message) {
	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		b.log.Warn("discarding malformed event",
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		return
	}
	if evt.Source != "" && evt.Source == b.instance {
		return
	}
	b.local.dispatch(ctx, evt)
}

func (b *KafkaBus) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	var readerErr error
	if b.reader != nil {
		readerErr = b.reader.Close()
	}
	return errors.Join(readerErr, b.writer.Close())
}
