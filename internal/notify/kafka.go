package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaQueue publishes jobs to a Kafka topic keyed by booking id.
type KafkaQueue struct {
	writer *kafka.Writer
}

func NewKafkaQueue(brokers []string, topic string) *KafkaQueue {
	return &KafkaQueue{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.BookingID),
		Value: payload,
		Time:  job.EnqueuedAt,
	})
}

func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

// KafkaConsumer reads jobs with a consumer group and commits each offset
// after the job is handled.
type KafkaConsumer struct {
	reader  *kafka.Reader
	handler Handler
	logger  *log.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, handler Handler, logger *log.Logger) *KafkaConsumer {
	if logger == nil {
		logger = log.Default()
	}
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1,
			MaxBytes: 10e6,
			MaxWait:  time.Second,
		}),
		handler: handler,
		logger:  logger,
	}
}

func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	c.logger.Printf("kafka consumer started topic=%s", c.reader.Config().Topic)
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var job Job
		if err := json.Unmarshal(m.Value, &job); err != nil {
			c.logger.Printf("kafka bad message offset=%d err=%v", m.Offset, err)
		} else if err := c.handler.Handle(ctx, job); err != nil {
			c.logger.Printf("notify job failed booking_id=%s err=%v", job.BookingID, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
