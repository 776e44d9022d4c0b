package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/baechuer/otp-auth-service/internal/application/auth"
)

const (
	DefaultExchange = "auth.events"

	// RoutingKeyOTPRequested carries an auth.Message for the mailer.
	RoutingKeyOTPRequested = "auth.email.otp.requested"

	// upper bound on waiting for Return / Confirm
	publishWait = 2 * time.Second
)

// Publisher implements auth.Notifier by handing messages to the broker with
// publisher confirms and mandatory routing, so an unbound key is a failure.
type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetConn()
	return nil
}

// ---- auth.Notifier ----

func (p *Publisher) Send(ctx context.Context, msg auth.Message) error {
	return p.publishJSON(ctx, RoutingKeyOTPRequested, msg)
}

// ---- internal ----

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	p.conn = conn

	if err := p.openChannel(); err != nil {
		_ = conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

// openChannel opens a confirm-mode channel on the current connection.
func (p *Publisher) openChannel() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := declareExchange(ch, p.exchange); err != nil {
		_ = ch.Close()
		return err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	p.ch = ch
	return nil
}

// ensureConnected reopens whatever the broker closed. A channel-level
// exception closes only the channel, so a live connection is reused.
func (p *Publisher) ensureConnected() error {
	connAlive := p.conn != nil && !p.conn.IsClosed()
	if connAlive && p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	if connAlive {
		p.dropChannel()
		return p.openChannel()
	}
	p.resetConn()
	return p.connect()
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureConnected(); err != nil {
		return err
	}

	// drop stale confirms/returns from an earlier timed-out publish
drain:
	for {
		select {
		case _, ok := <-p.confirmCh:
			if !ok {
				p.dropChannel()
				return errChannelClosed(routingKey)
			}
		case _, ok := <-p.returnCh:
			if !ok {
				p.dropChannel()
				return errChannelClosed(routingKey)
			}
		default:
			break drain
		}
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		p.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	// The broker sends basic.return before basic.ack for an unroutable
	// mandatory message, so a Return always wins when both are present.
	select {
	case ret, ok := <-p.returnCh:
		if !ok {
			p.dropChannel()
			return errChannelClosed(routingKey)
		}
		<-waitConfirm(p.confirmCh, publishWait)
		return unroutable(routingKey, ret)

	case conf, ok := <-p.confirmCh:
		if !ok {
			p.dropChannel()
			return errChannelClosed(routingKey)
		}
		select {
		case ret, ok := <-p.returnCh:
			if ok {
				return unroutable(routingKey, ret)
			}
		default:
		}
		if !conf.Ack {
			return fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		return nil

	case <-time.After(publishWait):
		p.resetConn()
		return fmt.Errorf("rabbitmq publish timeout: key=%s", routingKey)

	case <-ctx.Done():
		p.resetConn()
		return ctx.Err()
	}
}

func waitConfirm(ch <-chan amqp.Confirmation, d time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ch:
		case <-time.After(d):
		}
	}()
	return done
}

func unroutable(routingKey string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)
}

func errChannelClosed(routingKey string) error {
	return fmt.Errorf("rabbitmq channel closed: key=%s", routingKey)
}

// dropChannel forgets a channel the broker already closed. Its notify
// channels are closed too, so they must not be selected on again.
func (p *Publisher) dropChannel() {
	p.ch = nil
	p.confirmCh = nil
	p.returnCh = nil
}

func (p *Publisher) resetConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.confirmCh = nil
	p.returnCh = nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(
		name,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}
