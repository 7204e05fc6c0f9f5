package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPQueue publishes jobs to a durable RabbitMQ queue.
type AMQPQueue struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func DialAMQPQueue(url, queue string) (*AMQPQueue, error) {
	conn, ch, err := openAMQP(url, queue)
	if err != nil {
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch, queue: queue}, nil
}

func (q *AMQPQueue) Enqueue(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.TxRef,
		Timestamp:    job.EnqueuedAt,
		Body:         payload,
	})
}

func (q *AMQPQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	_ = q.ch.Close()
	return q.conn.Close()
}

// AMQPConsumer handles one delivery at a time and acks it once handled.
type AMQPConsumer struct {
	url     string
	queue   string
	handler Handler
	logger  *log.Logger
}

func NewAMQPConsumer(url, queue string, handler Handler, logger *log.Logger) *AMQPConsumer {
	if logger == nil {
		logger = log.Default()
	}
	return &AMQPConsumer{url: url, queue: queue, handler: handler, logger: logger}
}

func (c *AMQPConsumer) Run(ctx context.Context) error {
	conn, ch, err := openAMQP(c.url, c.queue)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("amqp qos: %w", err)
	}
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume %s: %w", c.queue, err)
	}

	c.logger.Printf("amqp consumer started queue=%s", c.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			c.process(ctx, d.Body, d)
		}
	}
}

// acknowledger is the part of amqp.Delivery the consumer settles with.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// process handles one delivery. A handler interrupted by shutdown leaves the
// message requeued for the next consumer.
func (c *AMQPConsumer) process(ctx context.Context, body []byte, d acknowledger) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		c.logger.Printf("amqp bad message err=%v", err)
		_ = d.Nack(false, false)
		return
	}
	err := c.handler.Handle(ctx, job)
	if ctx.Err() != nil {
		c.logger.Printf("amqp job requeued on shutdown booking_id=%s", job.BookingID)
		if err := d.Nack(false, true); err != nil {
			c.logger.Printf("amqp nack failed booking_id=%s err=%v", job.BookingID, err)
		}
		return
	}
	if err != nil {
		c.logger.Printf("notify job failed booking_id=%s err=%v", job.BookingID, err)
	}
	if err := d.Ack(false); err != nil {
		c.logger.Printf("amqp ack failed booking_id=%s err=%v", job.BookingID, err)
	}
}

func openAMQP(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}
	return conn, ch, nil
}
