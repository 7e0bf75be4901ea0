// Package amqphook publishes RentHouse lifecycle events to a RabbitMQ
// exchange as JSON messages, one routing key per event kind.
//
// Register it as a plugin:
//
//	pub, err := amqphook.New(amqpURL, "renthouse.events")
//	rh := renthouse.New(store, renthouse.WithPlugin(pub))
package amqphook

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/booking"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/escrow"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/id"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/plugin"
	"github.com/IbrahimGhasia/Decentralized-Renting-House-Backend/property"
)

// Routing keys, one per event kind.
const (
	KeyPropertyListed      = "property.listed"
	KeyPropertyDeactivated = "property.deactivated"
	KeyBookingCreated      = "booking.created"
	KeyWithdrawalCompleted = "withdrawal.completed"
	KeyTransferFailed      = "transfer.failed"
)

const publishTimeout = 10 * time.Second

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Publisher)(nil)
	_ plugin.OnShutdown            = (*Publisher)(nil)
	_ plugin.OnPropertyListed      = (*Publisher)(nil)
	_ plugin.OnPropertyDeactivated = (*Publisher)(nil)
	_ plugin.OnBookingCreated      = (*Publisher)(nil)
	_ plugin.OnWithdrawalCompleted = (*Publisher)(nil)
	_ plugin.OnTransferFailed      = (*Publisher)(nil)
)

// Event is the JSON envelope published for every message.
type Event struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher publishes lifecycle events to a topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

// New dials the broker at amqpURL and declares a durable topic exchange.
func New(amqpURL, exchange string, opts ...Option) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("amqp_hook: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp_hook: open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp_hook: declare exchange %s: %w", exchange, err)
	}

	p := &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "amqp-publisher" }

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}

// OnPropertyListed implements plugin.OnPropertyListed.
func (p *Publisher) OnPropertyListed(ctx context.Context, prop interface{}) error {
	pr, ok := prop.(*property.Property)
	if !ok {
		return nil
	}
	return p.publish(ctx, KeyPropertyListed, map[string]any{
		"property_id":     pr.ID,
		"owner":           pr.Owner,
		"name":            pr.Name,
		"price_per_night": pr.PricePerNight,
	})
}

// OnPropertyDeactivated implements plugin.OnPropertyDeactivated.
func (p *Publisher) OnPropertyDeactivated(ctx context.Context, propertyID int64) error {
	return p.publish(ctx, KeyPropertyDeactivated, map[string]any{
		"property_id": propertyID,
	})
}

// OnBookingCreated implements plugin.OnBookingCreated.
func (p *Publisher) OnBookingCreated(ctx context.Context, bkg interface{}) error {
	b, ok := bkg.(*booking.Booking)
	if !ok {
		return nil
	}
	return p.publish(ctx, KeyBookingCreated, map[string]any{
		"booking_id":  b.ID,
		"property_id": b.PropertyID,
		"renter":      b.Renter,
		"checkin":     b.CheckinDate,
		"checkout":    b.CheckoutDate,
		"amount_paid": b.AmountPaid,
	})
}

// OnWithdrawalCompleted implements plugin.OnWithdrawalCompleted.
func (p *Publisher) OnWithdrawalCompleted(ctx context.Context, receipt interface{}) error {
	r, ok := receipt.(*escrow.Receipt)
	if !ok {
		return nil
	}
	return p.publish(ctx, KeyWithdrawalCompleted, map[string]any{
		"receipt_id":  r.ID.String(),
		"property_id": r.PropertyID,
		"recipient":   r.Recipient,
		"amount":      r.Amount,
		"booking_ids": r.BookingIDs,
	})
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (p *Publisher) OnTransferFailed(ctx context.Context, propertyID int64, recipient string, cause error) error {
	return p.publish(ctx, KeyTransferFailed, map[string]any{
		"property_id": propertyID,
		"recipient":   recipient,
		"error":       cause.Error(),
	})
}

func (p *Publisher) publish(ctx context.Context, key string, payload any) error {
	evt := Event{
		ID:         id.NewEventID().String(),
		Kind:       key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("amqp_hook: marshal %s event: %w", key, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.OccurredAt,
		MessageId:    evt.ID,
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.channel.PublishWithContext(publishCtx, p.exchange, key, false, false, msg); err != nil {
		p.logger.Error("amqp_hook: publish failed",
			"routing_key", key,
			"event_id", evt.ID,
			"error", err,
		)
		return fmt.Errorf("amqp_hook: publish %s: %w", key, err)
	}
	return nil
}
