package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	closed bool
}

func (r *recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Close() error { r.closed = true; return nil }

func TestMultiPublishesToAll(t *testing.T) {
	a := &recorder{}
	b := &recorder{err: errors.New("broker down")}
	c := &recorder{}
	m := Multi{a, b, c}

	err := m.Publish(context.Background(), Event{Type: TypeRegistered, Address: "0xabc"})
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, a.events, 1)
	assert.Len(t, c.events, 1)
	assert.False(t, a.events[0].At.IsZero())

	require.NoError(t, m.Close())
	assert.True(t, a.closed && b.closed && c.closed)
}

func TestEncode(t *testing.T) {
	b, err := Event{Type: TypeRemixCompleted, Address: "0xabc", TraceID: "t1"}.Encode()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, "remix.completed", out["type"])
	assert.Equal(t, "t1", out["traceId"])
	assert.NotEmpty(t, out["at"])
	assert.NotContains(t, out, "ipId")
}

func TestNatsSubject(t *testing.T) {
	p := &NatsPublisher{prefix: "chaincapture.events"}
	assert.Equal(t, "chaincapture.events.ip.registered", p.Subject(TypeRegistered))
	assert.Equal(t, "ip.registered", (&NatsPublisher{}).Subject(TypeRegistered))

	var nilPub *NatsPublisher
	assert.NoError(t, nilPub.Publish(context.Background(), Event{}))
}
