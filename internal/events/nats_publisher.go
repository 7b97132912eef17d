package events

import (
	"context"
	"encoding/json"
	"fmt"

	natspkg "github.com/nats-io/nats.go"
)

const subjectPrefix = "auth."

// msgPublisher is the part of *nats.Conn the publisher needs
type msgPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher sends each event as JSON on subject "auth.<type>"
type NATSPublisher struct {
	conn msgPublisher
	nc   *natspkg.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

func Connect(url string) (*NATSPublisher, error) {
	nc, err := natspkg.Connect(url, natspkg.Name("mealplan-session-events"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, nc: nc}, nil
}

func newNATSPublisher(conn msgPublisher) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(subjectPrefix+string(event.Type), data); err != nil {
		return fmt.Errorf("nats publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *NATSPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.Status() == natspkg.CONNECTED
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	_ = p.nc.Drain()
}
