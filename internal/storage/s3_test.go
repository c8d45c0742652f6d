package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCID = "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku"

// fakeBucket answers PutObject and HeadObject the way an IPFS-backed S3
// gateway does: the CID of a stored object comes back as x-amz-meta-cid.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	withCID bool
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[r.URL.Path] = data
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		data, ok := b.objects[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if b.withCID && len(data) > 0 {
			w.Header().Set("x-amz-meta-cid", testCID)
		}
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestS3(t *testing.T, bucket *fakeBucket) *S3Store {
	t.Helper()
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)
	s, err := NewS3Store(context.Background(), S3Options{
		Region:    "us-east-1",
		Bucket:    "captures",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	return s
}

func TestS3Store_PutFileReadsCIDMetadata(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}, withCID: true}
	s := newTestS3(t, bucket)
	s.now = func() time.Time { return time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC) }

	data := []byte("jpeg bytes")
	cid, err := s.PutFile(context.Background(), "sunset photo.jpg", "image/jpeg", data)
	require.NoError(t, err)

	assert.Equal(t, testCID, cid)

	require.Len(t, bucket.objects, 1)
	for path, stored := range bucket.objects {
		assert.True(t, strings.HasPrefix(path, "/captures/2026/10/19/"), path)
		assert.True(t, strings.HasSuffix(path, "_sunset-photo.jpg"), path)
		assert.Contains(t, string(stored), string(data))
	}
}

func TestS3Store_KeyUsesUploadDate(t *testing.T) {
	s := newTestS3(t, &fakeBucket{objects: map[string][]byte{}})
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return day }
	assert.True(t, strings.HasPrefix(s.key("a.json"), "2026/10/19/"))

	day = day.Add(24 * time.Hour)
	assert.True(t, strings.HasPrefix(s.key("a.json"), "2026/10/20/"))
}

func TestS3Store_MissingCID(t *testing.T) {
	s := newTestS3(t, &fakeBucket{objects: map[string][]byte{}})
	_, err := s.PutJSON(context.Background(), "meta.json", []byte(`{"title":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no cid metadata")
}

func TestS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Options{Region: "us-east-1"})
	assert.Error(t, err)
}
