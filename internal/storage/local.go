package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/emarc99/chaincapture/internal/utils"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

type localObject struct {
	contentType string
	data        []byte
}

// LocalStore keeps content in memory under CIDv1 (raw codec, sha2-256), the
// same identifier an IPFS node would assign to a single-block raw object.
type LocalStore struct {
	mu      sync.RWMutex
	objects map[string]localObject
}

func NewLocalStore() *LocalStore {
	return &LocalStore{objects: make(map[string]localObject)}
}

func (l *LocalStore) Name() string { return "local" }

func (l *LocalStore) PutFile(_ context.Context, _ string, contentType string, data []byte) (string, error) {
	return l.put(contentType, data)
}

func (l *LocalStore) PutJSON(_ context.Context, _ string, doc []byte) (string, error) {
	return l.put("application/json", doc)
}

func (l *LocalStore) put(contentType string, data []byte) (string, error) {
	c, err := ComputeCID(data)
	if err != nil {
		return "", err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	l.mu.Lock()
	l.objects[c] = localObject{contentType: contentType, data: buf}
	l.mu.Unlock()
	return c, nil
}

// Get returns a stored object and its content type.
func (l *LocalStore) Get(c string) ([]byte, string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	obj, ok := l.objects[c]
	if !ok {
		return nil, "", fmt.Errorf("cid %s: %w", c, utils.ErrNotFound)
	}
	return obj.data, obj.contentType, nil
}

func ComputeCID(data []byte) (string, error) {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}
