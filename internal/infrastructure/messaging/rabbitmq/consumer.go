package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
)

const (
	deadLetterExchange = "auth.events.dlx"
	deadLetterKey      = "auth.email.otp.dead"
)

type ConsumerConfig struct {
	RabbitURL string
	Exchange  string
	Queue     string
	Prefetch  int
	Tag       string
}

// Consumer drains the OTP mail queue into an auth.Notifier (normally SMTP).
//
// Outcomes per delivery:
//   - sent: ack
//   - bad payload or permanent failure: nack without requeue (dead-lettered)
//   - temporary failure: requeue once, dead-letter on the redelivery
type Consumer struct {
	url      string
	exchange string
	queue    string
	prefetch int
	tag      string

	lg     zerolog.Logger
	sender auth.Notifier

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(cfg ConsumerConfig, sender auth.Notifier, lg zerolog.Logger) *Consumer {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Consumer{
		url:      cfg.RabbitURL,
		exchange: exchange,
		queue:    cfg.Queue,
		prefetch: prefetch,
		tag:      cfg.Tag,
		sender:   sender,
		lg:       lg.With().Str("component", "rabbitmq_consumer").Logger(),
	}
}

// Run consumes until ctx is cancelled, reconnecting with backoff when the
// broker drops the connection.
func (c *Consumer) Run(ctx context.Context) error {
	if c.sender == nil {
		return fmt.Errorf("nil sender")
	}

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		deliveries, err := c.connectAndDeclare()
		if err != nil {
			c.lg.Error().Err(err).Dur("backoff", backoff).Msg("connect failed; retrying")
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		c.consumeLoop(ctx, deliveries)
		c.closeConn()

		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consumer exiting")
			return nil
		default:
		}

		c.lg.Warn().Dur("backoff", backoff).Msg("deliveries closed; reconnecting")
		if !sleepOrDone(ctx, backoff) {
			return nil
		}
	}
}

func (c *Consumer) connectAndDeclare() (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	fail := func(err error) (<-chan amqp.Delivery, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	if err := declareExchange(ch, c.exchange); err != nil {
		return fail(err)
	}
	if err := declareExchange(ch, deadLetterExchange); err != nil {
		return fail(err)
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    deadLetterExchange,
		"x-dead-letter-routing-key": deadLetterKey,
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, args); err != nil {
		return fail(fmt.Errorf("queue declare: %w", err))
	}
	if err := ch.QueueBind(c.queue, RoutingKeyOTPRequested, c.exchange, false, nil); err != nil {
		return fail(fmt.Errorf("queue bind: %w", err))
	}

	dlq := c.queue + ".dlq"
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("dlq declare: %w", err))
	}
	if err := ch.QueueBind(dlq, deadLetterKey, deadLetterExchange, false, nil); err != nil {
		return fail(fmt.Errorf("dlq bind: %w", err))
	}

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fail(fmt.Errorf("qos: %w", err))
	}

	dlv, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume: %w", err))
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()

	c.lg.Info().
		Str("exchange", c.exchange).
		Str("queue", c.queue).
		Int("prefetch", c.prefetch).
		Msg("rabbitmq consumer ready")
	return dlv, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.handleDelivery(ctx, d)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	start := time.Now()
	rk := strings.TrimSpace(d.RoutingKey)

	if rk != RoutingKeyOTPRequested {
		// unknown keys are dropped so they cannot block the queue
		_ = d.Ack(false)
		c.lg.Warn().Str("routing_key", truncate(rk, 100)).Msg("unknown routing key; dropped")
		return
	}

	var msg auth.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil || msg.To == "" {
		_ = d.Nack(false, false)
		c.lg.Error().Err(err).Msg("bad payload; dead-lettered")
		return
	}

	err := c.sender.Send(ctx, msg)
	switch {
	case err == nil:
		_ = d.Ack(false)
		c.lg.Info().Str("to", msg.To).Dur("took", time.Since(start)).Msg("otp email sent")
	case isPermanent(err) || d.Redelivered:
		_ = d.Nack(false, false)
		c.lg.Error().Err(err).Str("to", msg.To).Bool("redelivered", d.Redelivered).Msg("send failed; dead-lettered")
	default:
		_ = d.Nack(false, true)
		c.lg.Warn().Err(err).Str("to", msg.To).Msg("send failed; requeued")
	}
}

func isPermanent(err error) bool {
	var per interface{ Permanent() bool }
	return errors.As(err, &per) && per.Permanent()
}

func (c *Consumer) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
