package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
)

// Handler is the telemetry entry point the consumer feeds. It never owns
// connection state; classification and dispatch live behind it.
type Handler interface {
	Handle(ctx context.Context, topic string, payload []byte) error
}

// Config Kafka 消费配置
type Config struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// DefaultTopics lists every telemetry topic the pipeline consumes.
func DefaultTopics() []string {
	return []string{
		model.TopicVehicleEvents,
		model.TopicVehicleStatus,
		model.TopicVehicleLocation,
		model.TopicSensorData,
		model.TopicMaintenanceEvents,
	}
}

// Consumer runs one reader goroutine per topic. Producers key messages by
// vehicle id, so readings for one vehicle arrive in order on one
// partition; across partitions no ordering is assumed.
type Consumer struct {
	readers []*kafka.Reader
	handler Handler
	wg      sync.WaitGroup
}

// Start wires a reader for each topic and begins consuming. Shutdown is
// driven by ctx: in-flight handling finishes and offsets are committed
// before the readers close.
func Start(ctx context.Context, cfg Config, handler Handler) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	if handler == nil {
		return nil, fmt.Errorf("handler must not be nil")
	}
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = DefaultTopics()
	}

	c := &Consumer{handler: handler}
	for _, topic := range topics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.GroupID,
			Topic:       topic,
			StartOffset: kafka.FirstOffset,
			MinBytes:    1,
			MaxBytes:    10e6,
		})
		c.readers = append(c.readers, reader)
		c.wg.Add(1)
		go func(reader *kafka.Reader, topic string) {
			defer c.wg.Done()
			c.run(ctx, reader, topic)
		}(reader, topic)
	}
	log.Printf("[Ingest] Consuming %d topics as group %s", len(topics), cfg.GroupID)
	return c, nil
}

// Wait blocks until every reader goroutine has drained and closed.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) run(ctx context.Context, reader *kafka.Reader, topic string) {
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("[Ingest] Failed to close reader for %s: %v", topic, err)
		}
	}()
	log.Printf("[Ingest] Consumer started for topic %s", topic)

	backoff := time.Second
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				log.Printf("[Ingest] Consumer for %s stopping", topic)
				return
			}
			log.Printf("[Ingest] Fetch failed on %s: %v", topic, err)
			select {
			case <-time.After(backoff):
				if backoff < 10*time.Second {
					backoff *= 2
				}
				continue
			case <-ctx.Done():
				return
			}
		}
		backoff = time.Second

		if !c.process(ctx, topic, msg) {
			return
		}

		// Commit with a background context so a shutdown mid-commit
		// cannot drop an already-persisted message's offset.
		commitCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := reader.CommitMessages(commitCtx, msg); err != nil {
			log.Printf("[Ingest] Commit failed on %s: %v", topic, err)
		}
		cancel()
	}
}

// process retries the handler until it succeeds or shutdown wins. Handler
// errors are storage errors by contract; malformed events are swallowed
// inside the handler and never surface here.
func (c *Consumer) process(ctx context.Context, topic string, msg kafka.Message) bool {
	backoff := 500 * time.Millisecond
	for {
		err := c.handler.Handle(ctx, topic, msg.Value)
		if err == nil {
			return true
		}
		log.Printf("[Ingest] Handle failed on %s offset %d, retrying: %v", topic, msg.Offset, err)
		select {
		case <-time.After(backoff):
			if backoff < 30*time.Second {
				backoff *= 2
			}
		case <-ctx.Done():
			// Not committed; the transport redelivers after restart.
			return false
		}
	}
}
