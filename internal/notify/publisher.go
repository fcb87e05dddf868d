package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/MrJamesThe3rd/coinbag/internal/syncstore"
)

const (
	publishTimeout = 5 * time.Second
	pendingEvents  = 16
)

// channel is the subset of *amqp091.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher forwards store commits to the broker. Observe never blocks the commit
// path; events are queued and written by Run.
type Publisher struct {
	ch       channel
	exchange string
	logger   *slog.Logger
	now      func() time.Time
	events   chan SnapshotChanged
}

func NewPublisher(ch channel, exchange string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger.With("component", "notify"),
		now:      time.Now,
		events:   make(chan SnapshotChanged, pendingEvents),
	}
}

// Observe is a syncstore.Observer.
func (p *Publisher) Observe(snap syncstore.Snapshot) {
	msg := NewSnapshotChanged(snap, p.now())

	select {
	case p.events <- msg:
	default:
		p.logger.Warn("dropping snapshot event, publisher is behind", "version", msg.Version)
	}
}

// Run publishes queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-p.events:
			if err := p.publish(ctx, msg); err != nil {
				p.logger.ErrorContext(ctx, "failed to publish snapshot event", "version", msg.Version, "error", err)
			}
		}
	}
}

func (p *Publisher) publish(ctx context.Context, msg SnapshotChanged) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,             // exchange
		RoutingSnapshotChanged, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	p.logger.DebugContext(ctx, "published snapshot event", "version", msg.Version, "count", msg.Count)

	return nil
}
