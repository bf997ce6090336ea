// Package events publishes sightings on a NATS subject so other services can
// follow what the nearest-aircraft service answers.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/unklstewy/nearest-aircraft/internal/sightings"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "aircraft.nearest"

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
	Close()
}

// Publisher publishes sightings as JSON.
// It implements sightings.Sink.
type Publisher struct {
	conn    Conn
	subject string
}

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("nearest-aircraft"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewPublisher(nc, subject), nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

// Subject returns the subject sightings are published on.
func (p *Publisher) Subject() string {
	return p.subject
}

// Record publishes s.
func (p *Publisher) Record(ctx context.Context, s sightings.Sighting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal sighting: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish sighting: %w", err)
	}
	return nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// Subscription delivers published sightings.
type Subscription struct {
	conn *nats.Conn
	sub  *nats.Subscription
}

// Subscribe calls handler for every sighting published on subject. Messages
// that are not sightings are passed to onError and skipped.
func Subscribe(url, subject string, handler func(sightings.Sighting), onError func(error)) (*Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}

	nc, err := nats.Connect(url, nats.Name("nearest-aircraft-watch"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var s sightings.Sighting
		if err := json.Unmarshal(msg.Data, &s); err != nil {
			if onError != nil {
				onError(fmt.Errorf("failed to decode sighting: %w", err))
			}
			return
		}
		handler(s)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	return &Subscription{conn: nc, sub: sub}, nil
}

// Close unsubscribes and closes the connection.
func (s *Subscription) Close() error {
	if s == nil {
		return nil
	}
	err := s.sub.Unsubscribe()
	s.conn.Close()
	return err
}

var _ sightings.Sink = (*Publisher)(nil)
