package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/cinema-showtime-reservation/internal/logger"
)

// StartTicketConsumer consumes the ticket.reserved queue and appends one
// line per event to the audit file at auditPath.  It reconnects with
// exponential backoff and returns only when ctx is cancelled.  Messages
// that cannot be handled are rejected without requeue.
func StartTicketConsumer(ctx context.Context, url, auditPath string, log *logger.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("QUEUE", fmt.Sprintf("[dial_failed] %s - %v; retrying in %s", TicketReservedQueue, err, backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, auditPath, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("QUEUE", fmt.Sprintf("[reconnect] %s - %v", TicketReservedQueue, err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, auditPath string, log *logger.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.LogQueueError("qos_failed", TicketReservedQueue, err)
	}
	if _, err := ch.QueueDeclare(TicketReservedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, TicketReservedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := AppendAudit(auditPath, d.Body); err != nil {
			log.LogQueueError("handle_failed", TicketReservedQueue, err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// AppendAudit decodes a TicketReservedEvent and appends its audit line to
// path, creating parent directories as needed.  Seats are printed
// one-based, as customers see them.
func AppendAudit(path string, body []byte) error {
	var ev TicketReservedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] Ticket reserved | reservation_id=%s | user_id=%s | showtime_id=%s | hall=%q | movie=%q | at=%s | seat=R%dC%d\n",
		ev.ReservedAt.UTC().Format(time.RFC3339), ev.ReservationID, ev.UserID, ev.ShowtimeID,
		ev.HallName, ev.MovieTitle, ev.At.UTC().Format(time.RFC3339), ev.Row+1, ev.Column+1)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit: %w", err)
	}
	return nil
}
