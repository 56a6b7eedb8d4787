package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/domain"
	"github.com/JoeShih716/go-devweek-bank/internal/app/bank/usecase"
)

// MovementEvent is the message body published for every committed movement.
type MovementEvent struct {
	TransactionID string          `json:"transaction_id"`
	Type          string          `json:"type"`
	FromUserID    int64           `json:"from_user_id,omitempty"`
	ToUserID      int64           `json:"to_user_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	FromBalance   decimal.Decimal `json:"from_balance"`
	ToBalance     decimal.Decimal `json:"to_balance"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewMovementEvent converts a receipt into its event body.
func NewMovementEvent(r domain.Receipt) MovementEvent {
	return MovementEvent{
		TransactionID: r.Transaction.Reference(),
		Type:          r.Transaction.Type.String(),
		FromUserID:    r.Transaction.From,
		ToUserID:      r.Transaction.To,
		Amount:        r.Transaction.Amount,
		FromBalance:   r.FromBalance,
		ToBalance:     r.ToBalance,
		Timestamp:     r.Transaction.CreatedAt,
	}
}

// RoutingKey is "ledger.<type>", e.g. "ledger.transfer".
func RoutingKey(t domain.TransactionType) string {
	return "ledger." + t.String()
}

// channel is the part of *amqp091.Channel the publisher uses
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher sends movement events to a durable topic exchange.
type Publisher struct {
	exchange string
	conn     *amqp091.Connection
	open     func() (channel, error)
	log      zerolog.Logger

	mu sync.Mutex
	ch channel
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(amqpURL, exchange string, log zerolog.Logger) (*Publisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial timeout so startup does not hang
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	p, err := newPublisher(exchange, func() (channel, error) { return conn.Channel() }, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newPublisher(exchange string, open func() (channel, error), log zerolog.Logger) (*Publisher, error) {
	p := &Publisher{
		exchange: exchange,
		open:     open,
		log:      log.With().Str("component", "rabbitmq_publisher").Logger(),
	}
	if err := p.reopen(); err != nil {
		return nil, err
	}
	return p, nil
}

// reopen replaces the channel and re-declares the exchange. Callers hold mu or own p exclusively.
func (p *Publisher) reopen() error {
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // autoDelete
		false,      // internal
		false,      // noWait
		nil,        // args
	); err != nil {
		_ = ch.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	p.ch = ch
	return nil
}

// Publish sends the receipt. A failed publish reopens the channel and retries once.
func (p *Publisher) Publish(ctx context.Context, receipt domain.Receipt) error {
	body, err := json.Marshal(NewMovementEvent(receipt))
	if err != nil {
		return fmt.Errorf("failed to marshal movement event: %w", err)
	}
	key := RoutingKey(receipt.Transaction.Type)
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    receipt.Transaction.Reference(),
		Timestamp:    time.Now(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if err == nil {
		return nil
	}
	p.log.Warn().Err(err).Str("routing_key", key).Msg("publish failed, reopening channel")
	if reopenErr := p.reopen(); reopenErr != nil {
		return errors.Join(err, reopenErr)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
}

func (p *Publisher) Name() string {
	return "rabbitmq"
}

// Close closes the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// sanitizeAMQPURL trims quotes and stray characters left by env files.
func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

var _ usecase.EventSink = (*Publisher)(nil)
