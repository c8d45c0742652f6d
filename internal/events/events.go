package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	TypeRegistered      = "ip.registered"
	TypeLicenseAttached = "ip.license_attached"
	TypeRemixCompleted  = "remix.completed"
)

// Event is the envelope published for every completed pipeline step.
// Address is the wallet the activity belongs to.
type Event struct {
	Type    string         `json:"type"`
	Address string         `json:"address"`
	IPID    string         `json:"ipId,omitempty"`
	TxHash  string         `json:"txHash,omitempty"`
	TraceID string         `json:"traceId,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	At      time.Time      `json:"at"`
}

func (e Event) Encode() ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Multi fans an event out to every publisher. All are tried; errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
