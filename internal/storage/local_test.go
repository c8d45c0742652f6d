package storage

import (
	"context"
	"testing"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	l := NewLocalStore()
	c, err := l.PutFile(context.Background(), "a.jpg", "image/jpeg", []byte("hello"))
	require.NoError(t, err)

	// CIDv1 raw sha2-256 of "hello"
	assert.Equal(t, "bafkreibm6jg3ux5qumhcn2b3flc3tyu6dmlb4xa7u5bf44yegnrjhc4yeq", c)

	data, ct, err := l.Get(c)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/jpeg", ct)
}

func TestLocalStore_SameContentSameCID(t *testing.T) {
	l := NewLocalStore()
	a, err := l.PutJSON(context.Background(), "m1", []byte(`{"a":1}`))
	require.NoError(t, err)
	b, err := l.PutJSON(context.Background(), "m2", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestLocalStore_Missing(t *testing.T) {
	_, _, err := NewLocalStore().Get("bafkmissing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}
