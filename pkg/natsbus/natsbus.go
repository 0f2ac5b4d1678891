// Package natsbus carries cache invalidations between processes over a
// NATS subject.
package natsbus

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/restcrud/internal/constants"
	"github.com/fivetwenty-io/restcrud/pkg/crud"
	"github.com/nats-io/nats.go"
)

// Static errors for err113 compliance.
var (
	ErrConnRequired = errors.New("NATS connection required")
	ErrURLRequired  = errors.New("NATS URL required")
)

// Config configures a Bus created with Connect.
type Config struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222")
	URL string

	// Subject carries the invalidations. Defaults to restcrud.invalidations.
	Subject string

	// Name identifies the connection on the server
	Name string

	// Options are passed to nats.Connect
	Options []nats.Option
}

// Bus implements crud.InvalidationBus on a NATS subject.
type Bus struct {
	conn     *nats.Conn
	subject  string
	ownsConn bool
}

var _ crud.InvalidationBus = (*Bus)(nil)

// New creates a bus on an existing connection. The connection is not
// closed by Close.
func New(conn *nats.Conn, subject string) (*Bus, error) {
	if conn == nil {
		return nil, ErrConnRequired
	}

	if subject == "" {
		subject = constants.DefaultInvalidationSubject
	}

	return &Bus{conn: conn, subject: subject}, nil
}

// Connect dials NATS and creates a bus that owns the connection.
func Connect(config *Config) (*Bus, error) {
	if config == nil || config.URL == "" {
		return nil, ErrURLRequired
	}

	opts := config.Options
	if config.Name != "" {
		opts = append([]nats.Option{nats.Name(config.Name)}, opts...)
	}

	conn, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	bus, err := New(conn, config.Subject)
	if err != nil {
		conn.Close()

		return nil, err
	}

	bus.ownsConn = true

	return bus, nil
}

// Subject returns the subject invalidations are published on.
func (b *Bus) Subject() string {
	return b.subject
}

// Publish implements crud.InvalidationBus.
func (b *Bus) Publish(inv crud.Invalidation) error {
	data, err := Encode(inv)
	if err != nil {
		return err
	}

	err = b.conn.Publish(b.subject, data)
	if err != nil {
		return fmt.Errorf("publishing invalidation: %w", err)
	}

	return nil
}

// Subscribe implements crud.InvalidationBus. Messages that do not decode
// are dropped.
func (b *Bus) Subscribe(handler func(crud.Invalidation)) (func() error, error) {
	sub, err := b.conn.Subscribe(b.subject, func(msg *nats.Msg) {
		inv, err := Decode(msg.Data)
		if err != nil {
			return
		}

		handler(inv)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", b.subject, err)
	}

	return sub.Unsubscribe, nil
}

// Flush waits until the server has processed everything published so far.
func (b *Bus) Flush() error {
	err := b.conn.Flush()
	if err != nil {
		return fmt.Errorf("flushing NATS connection: %w", err)
	}

	return nil
}

// Close drains the connection when the bus owns it.
func (b *Bus) Close() error {
	if !b.ownsConn {
		return nil
	}

	err := b.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining NATS connection: %w", err)
	}

	return nil
}

// Encode serializes an invalidation message.
func Encode(inv crud.Invalidation) ([]byte, error) {
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encoding invalidation: %w", err)
	}

	return data, nil
}

// Decode parses an invalidation message.
func Decode(data []byte) (crud.Invalidation, error) {
	var inv crud.Invalidation

	err := json.Unmarshal(data, &inv)
	if err != nil {
		return inv, fmt.Errorf("decoding invalidation: %w", err)
	}

	if inv.Resource == "" {
		return inv, fmt.Errorf("decoding invalidation: %w", crud.ErrEmptyName)
	}

	return inv, nil
}
