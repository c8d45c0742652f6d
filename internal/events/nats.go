package events

import (
	"context"

	"github.com/nats-io/nats.go"
)

// NatsPublisher publishes to "<prefix>.<event type>".
type NatsPublisher struct {
	nc     *nats.Conn
	prefix string
}

func NewNatsPublisher(url, prefix string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("chaincapture"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{nc: nc, prefix: prefix}, nil
}

func (p *NatsPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

func (p *NatsPublisher) Publish(_ context.Context, ev Event) error {
	if p == nil || p.nc == nil {
		return nil
	}
	b, err := ev.Encode()
	if err != nil {
		return err
	}
	return p.nc.Publish(p.Subject(ev.Type), b)
}

func (p *NatsPublisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
