// Package events publishes lead integration events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

// EventLeadCreated is the type and default routing key of new-lead events.
const EventLeadCreated = "lead.created"

// LeadCreatedEvent is the JSON body published for every stored lead.
type LeadCreatedEvent struct {
	Type              string           `json:"type"`
	LeadID            string           `json:"leadId"`
	Name              string           `json:"name"`
	Phone             string           `json:"phone"`
	RevisionTypeID    int              `json:"revisionTypeId"`
	RevisionTypeTitle string           `json:"revisionTypeTitle"`
	Status            string           `json:"status"`
	Referrer          *string          `json:"referrer,omitempty"`
	UTM               domain.UTMParams `json:"utm"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// NewLeadCreatedEvent builds the event body for lead.
func NewLeadCreatedEvent(lead domain.Lead) LeadCreatedEvent {
	return LeadCreatedEvent{
		Type:              EventLeadCreated,
		LeadID:            lead.ID,
		Name:              lead.Name,
		Phone:             lead.Phone,
		RevisionTypeID:    lead.RevisionTypeID,
		RevisionTypeTitle: lead.RevisionTypeTitle,
		Status:            lead.Status,
		Referrer:          lead.Referrer,
		UTM:               lead.UTM,
		CreatedAt:         lead.CreatedAt,
	}
}

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialFunc opens a channel ready for publishing and reports connection loss on the
// returned notification channel.
type dialFunc func() (amqpChannel, <-chan *amqp.Error, error)

const (
	defaultRedialInterval = 30 * time.Second
	dialTimeout           = 5 * time.Second
)

// RabbitConfig configures the broker connection.
type RabbitConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
}

// RabbitPublisher publishes lead events to a durable direct exchange. A lost
// connection is redialed on the next publish, at most once per redial interval.
type RabbitPublisher struct {
	mu             sync.Mutex
	channel        amqpChannel
	dial           dialFunc
	closed         bool
	lastDial       time.Time
	redialInterval time.Duration
	now            func() time.Time

	exchange   string
	routingKey string
	logger     *log.Logger
}

// brokerSession owns one connection and its publishing channel.
type brokerSession struct {
	conn *amqp.Connection
	*amqp.Channel
}

func (s *brokerSession) Close() error {
	var errs []error
	if err := s.Channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
	}
	return errors.Join(errs...)
}

// DialRabbit connects to the broker and declares the exchange.
func DialRabbit(cfg RabbitConfig, logger *log.Logger) (*RabbitPublisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is empty")
	}

	p := newRabbitPublisher(nil, cfg.Exchange, cfg.RoutingKey, logger)
	p.dial = func() (amqpChannel, <-chan *amqp.Error, error) { return dialSession(cfg) }

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func dialSession(cfg RabbitConfig) (amqpChannel, <-chan *amqp.Error, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeDirect,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	lost := conn.NotifyClose(make(chan *amqp.Error, 1))
	return &brokerSession{conn: conn, Channel: channel}, lost, nil
}

func newRabbitPublisher(channel amqpChannel, exchange, routingKey string, logger *log.Logger) *RabbitPublisher {
	if routingKey == "" {
		routingKey = EventLeadCreated
	}
	return &RabbitPublisher{
		channel:        channel,
		exchange:       exchange,
		routingKey:     routingKey,
		logger:         logger,
		redialInterval: defaultRedialInterval,
		now:            time.Now,
	}
}

// PublishLeadCreated sends a persistent lead.created message.
func (p *RabbitPublisher) PublishLeadCreated(ctx context.Context, lead domain.Lead) error {
	body, err := json.Marshal(NewLeadCreatedEvent(lead))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", EventLeadCreated, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    lead.ID,
		Timestamp:    lead.CreatedAt,
		Type:         EventLeadCreated,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("rabbitmq publisher is closed")
	}
	if p.channel == nil {
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("publish %s: %w", EventLeadCreated, err)
		}
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.dropLocked(p.channel)
		if cerr := p.connectLocked(); cerr == nil {
			err = p.channel.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg)
		}
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventLeadCreated, err)
	}
	return nil
}

// connectLocked dials a new session. Callers hold p.mu.
func (p *RabbitPublisher) connectLocked() error {
	if p.dial == nil {
		return errors.New("rabbitmq connection lost")
	}
	now := p.now()
	if !p.lastDial.IsZero() && now.Sub(p.lastDial) < p.redialInterval {
		return errors.New("rabbitmq connection lost, waiting to redial")
	}
	p.lastDial = now

	channel, lost, err := p.dial()
	if err != nil {
		p.logf("[RABBITMQ] - redial failed: %v", err)
		return err
	}
	p.channel = channel
	if lost != nil {
		go p.watch(channel, lost)
	}
	p.logf("[RABBITMQ] - connected (exchange=%s)", p.exchange)
	return nil
}

// watch forgets channel once its connection reports closure.
func (p *RabbitPublisher) watch(channel amqpChannel, lost <-chan *amqp.Error) {
	reason, ok := <-lost
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != channel {
		return
	}
	p.dropLocked(channel)
	if ok && reason != nil {
		p.logf("[RABBITMQ] - connection lost, redialing on next publish: %v", reason)
	}
}

func (p *RabbitPublisher) dropLocked(channel amqpChannel) {
	if p.channel == channel {
		p.channel = nil
	}
	_ = channel.Close()
}

// Close closes the channel and connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var err error
	if p.channel != nil {
		err = p.channel.Close()
		p.channel = nil
	}
	if err == nil {
		p.logf("[RABBITMQ] - publisher closed")
	}
	return err
}

func (p *RabbitPublisher) logf(format string, args ...any) {
	if p.logger != nil {
		p.logger.Printf(format, args...)
	}
}
