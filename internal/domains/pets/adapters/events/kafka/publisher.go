// Package kafka publishes pet registry events to a Kafka topic as CloudEvents.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
)

const (
	// DefaultTopic receives every pet registry event.
	DefaultTopic = "petfinder.pets"
	// DefaultSource identifies this service in the CloudEvent source attribute.
	DefaultSource = "petfinder/registry"
	// DefaultPublishTimeout bounds how long a mutation waits on the broker.
	DefaultPublishTimeout = 2 * time.Second
)

var _ ports.EventPublisher = (*Publisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// CloudEvent is the envelope written as the message value.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// Publisher writes events keyed by pet id so one pet's events stay ordered within a partition.
type Publisher struct {
	writer  messageWriter
	source  string
	timeout time.Duration
	newID   func() string
}

type Option func(*Publisher)

// WithPublishTimeout overrides DefaultPublishTimeout. Zero waits for the writer.
func WithPublishTimeout(timeout time.Duration) Option {
	return func(p *Publisher) {
		if timeout >= 0 {
			p.timeout = timeout
		}
	}
}

// WithSource overrides the CloudEvent source attribute.
func WithSource(source string) Option {
	return func(p *Publisher) {
		if source != "" {
			p.source = source
		}
	}
}

// NewPublisher builds a publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           DefaultPublishTimeout,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, opts...), nil
}

func newPublisher(writer messageWriter, opts ...Option) *Publisher {
	p := &Publisher{
		writer:  writer,
		source:  DefaultSource,
		timeout: DefaultPublishTimeout,
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Publish writes all events in one batch, giving up once the publish timeout elapses.
func (p *Publisher) Publish(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(events))
	for _, evt := range events {
		msg, err := p.encode(evt)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish pet events: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) encode(evt domain.Event) (kafkago.Message, error) {
	data, err := json.Marshal(payloadOf(evt))
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode %s: %w", evt.EventName(), err)
	}
	subject := strconv.FormatUint(evt.AggregateID(), 10)
	value, err := json.Marshal(CloudEvent{
		SpecVersion:     "1.0",
		ID:              p.newID(),
		Source:          p.source,
		Type:            evt.EventName(),
		Subject:         subject,
		Time:            evt.OccurredAt().UTC(),
		DataContentType: "application/json",
		Data:            data,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode %s: %w", evt.EventName(), err)
	}
	return kafkago.Message{
		Key:   []byte(subject),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "ce_type", Value: []byte(evt.EventName())},
		},
	}, nil
}

type registeredPayload struct {
	PetID uint64 `json:"petId"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Breed string `json:"breed"`
}

type updatedPayload struct {
	PetID uint64 `json:"petId"`
	Name  string `json:"name"`
}

type reportedLostPayload struct {
	PetID        uint64 `json:"petId"`
	LostLocation string `json:"lostLocation"`
}

type reportedFoundPayload struct {
	PetID         uint64 `json:"petId"`
	FinderName    string `json:"finderName"`
	FoundLocation string `json:"foundLocation"`
}

type petPayload struct {
	PetID uint64 `json:"petId"`
	Name  string `json:"name,omitempty"`
}

func payloadOf(evt domain.Event) any {
	switch e := evt.(type) {
	case domain.PetRegistered:
		return registeredPayload{PetID: e.PetID, Owner: e.Owner, Name: e.Name, Breed: e.Breed}
	case domain.PetUpdated:
		return updatedPayload{PetID: e.PetID, Name: e.Name}
	case domain.PetReportedLost:
		return reportedLostPayload{PetID: e.PetID, LostLocation: e.LostLocation}
	case domain.PetReportedFound:
		return reportedFoundPayload{PetID: e.PetID, FinderName: e.FinderName, FoundLocation: e.FoundLocation}
	case domain.PetDeleted:
		return petPayload{PetID: e.PetID, Name: e.Name}
	default:
		return petPayload{PetID: evt.AggregateID()}
	}
}
