package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
)

// Publisher sends TicketReservedEvents to RabbitMQ.  The connection is
// opened on first use and reopened after a failure.
type Publisher struct {
	url string
	log *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *logger.Logger) *Publisher {
	return &Publisher{url: url, log: log}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(TicketReservedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// PublishTicketReserved publishes ev as a persistent JSON message on the
// default exchange.
func (p *Publisher) PublishTicketReserved(ctx context.Context, ev TicketReservedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.log.LogQueueError("connect_failed", TicketReservedQueue, err)
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReservationID.String(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", TicketReservedQueue, false, false, pub); err != nil {
		p.reset()
		p.log.LogQueueError("publish_failed", TicketReservedQueue, err)
		return fmt.Errorf("publish: %w", err)
	}
	p.log.LogQueue("published", TicketReservedQueue, ev.ReservationID.String())
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
