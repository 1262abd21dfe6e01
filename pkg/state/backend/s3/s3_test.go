package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/architect-io/stackhost/pkg/state/backend"
)

// mockS3Server simulates the S3 API for testing.
type mockS3Server struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func newMockS3Server() *mockS3Server {
	return &mockS3Server{
		objects: make(map[string][]byte),
	}
}

func (m *mockS3Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Path-style addressing: /bucket/key
	path := strings.TrimPrefix(r.URL.Path, "/")
	parts := strings.SplitN(path, "/", 2)

	if len(parts) < 1 || parts[0] == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}

	if key == "" && r.URL.Query().Get("list-type") == "2" {
		m.handleListObjects(w, r, bucket)
		return
	}

	fullKey := bucket + "/" + key

	switch r.Method {
	case http.MethodGet:
		m.handleGet(w, fullKey)
	case http.MethodPut:
		m.handlePut(w, r, fullKey)
	case http.MethodDelete:
		m.handleDelete(w, fullKey)
	case http.MethodHead:
		m.handleHead(w, fullKey)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (m *mockS3Server) handleGet(w http.ResponseWriter, key string) {
	data, ok := m.objects[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code></Error>`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (m *mockS3Server) handlePut(w http.ResponseWriter, r *http.Request, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	m.objects[key] = data
	w.WriteHeader(http.StatusOK)
}

func (m *mockS3Server) handleDelete(w http.ResponseWriter, key string) {
	delete(m.objects, key)
	w.WriteHeader(http.StatusNoContent)
}

func (m *mockS3Server) handleHead(w http.ResponseWriter, key string) {
	if _, ok := m.objects[key]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (m *mockS3Server) handleListObjects(w http.ResponseWriter, r *http.Request, bucket string) {
	prefix := r.URL.Query().Get("prefix")

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, bucket+"/") {
			objectKey := strings.TrimPrefix(key, bucket+"/")
			if prefix == "" || strings.HasPrefix(objectKey, prefix) {
				keys = append(keys, objectKey)
			}
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)

	response := `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><Name>` + bucket + `</Name>`
	for _, key := range keys {
		response += `<Contents><Key>` + key + `</Key></Contents>`
	}
	response += `</ListBucketResult>`
	_, _ = w.Write([]byte(response))
}

// newTestBackend starts a mock server and creates a backend against it.
func newTestBackend(t *testing.T, extra map[string]string) backend.Backend {
	t.Helper()

	mock := newMockS3Server()
	server := httptest.NewServer(mock)
	t.Cleanup(server.Close)

	settings := map[string]string{
		"bucket":           "test-bucket",
		"endpoint":         server.URL,
		"access_key":       "test-key",
		"secret_key":       "test-secret",
		"force_path_style": "true",
	}
	for k, v := range extra {
		settings[k] = v
	}

	b, err := NewBackend(settings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return b
}

func TestNewBackend_MissingBucket(t *testing.T) {
	for _, settings := range []map[string]string{
		{"region": "us-east-1"},
		{"bucket": "", "region": "us-east-1"},
	} {
		_, err := NewBackend(settings)
		if err == nil {
			t.Error("expected error for missing bucket")
		} else if !strings.Contains(err.Error(), "bucket") {
			t.Errorf("expected error message to mention bucket, got: %v", err)
		}
	}
}

func TestNewBackend_DefaultRegion(t *testing.T) {
	b := newTestBackend(t, nil)

	s3b := b.(*Backend)
	if s3b.region != "us-east-1" {
		t.Errorf("expected default region 'us-east-1', got %q", s3b.region)
	}
}

func TestNewBackend_WithRegionAndPrefix(t *testing.T) {
	b := newTestBackend(t, map[string]string{
		"region": "us-west-2",
		"key":    "stackhost/state",
	})

	s3b := b.(*Backend)
	if s3b.region != "us-west-2" {
		t.Errorf("expected region 'us-west-2', got %q", s3b.region)
	}
	if s3b.prefix != "stackhost/state" {
		t.Errorf("expected prefix 'stackhost/state', got %q", s3b.prefix)
	}
}

func TestBackend_Type(t *testing.T) {
	b := newTestBackend(t, nil)
	if b.Type() != "s3" {
		t.Errorf("expected type 's3', got %q", b.Type())
	}
}

func TestBackend_fullPath(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		path     string
		expected string
	}{
		{
			name:     "no prefix",
			prefix:   "",
			path:     "apps/shop/stacks/dev.json",
			expected: "apps/shop/stacks/dev.json",
		},
		{
			name:     "with prefix",
			prefix:   "stackhost",
			path:     "apps/shop/stacks/dev.json",
			expected: "stackhost/apps/shop/stacks/dev.json",
		},
		{
			name:     "nested prefix",
			prefix:   "team/staging",
			path:     "dev.json",
			expected: "team/staging/dev.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Backend{prefix: tt.prefix}
			result := b.fullPath(tt.path)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestBackend_WriteReadRoundTrip(t *testing.T) {
	b := newTestBackend(t, nil)
	ctx := context.Background()

	data := []byte(`{"app":"shop","stack":"dev"}`)
	if err := b.Write(ctx, "apps/shop/stacks/dev.json", bytes.NewReader(data)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	rc, err := b.Read(ctx, "apps/shop/stacks/dev.json")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read body failed: %v", err)
	}
	if !bytes.Equal(content, data) {
		t.Errorf("expected %s, got %s", data, content)
	}
}

func TestBackend_ReadMissing(t *testing.T) {
	b := newTestBackend(t, nil)

	_, err := b.Read(context.Background(), "apps/shop/stacks/missing.json")
	if err != backend.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBackend_ExistsAndDelete(t *testing.T) {
	b := newTestBackend(t, nil)
	ctx := context.Background()

	if err := b.Write(ctx, "dev.json", bytes.NewReader([]byte("{}"))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	exists, err := b.Exists(ctx, "dev.json")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Error("expected object to exist")
	}

	if err := b.Delete(ctx, "dev.json"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	exists, err = b.Exists(ctx, "dev.json")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Error("expected object to be deleted")
	}

	// Deleting a missing object is idempotent
	if err := b.Delete(ctx, "dev.json"); err != nil {
		t.Errorf("expected idempotent delete, got %v", err)
	}
}

func TestBackend_List(t *testing.T) {
	b := newTestBackend(t, nil)
	ctx := context.Background()

	objects := []string{
		"apps/shop/stacks/dev.json",
		"apps/shop/stacks/cache.json",
		"apps/other/stacks/prod.json",
	}
	for _, obj := range objects {
		if err := b.Write(ctx, obj, bytes.NewReader([]byte("{}"))); err != nil {
			t.Fatalf("write %s failed: %v", obj, err)
		}
	}

	paths, err := b.List(ctx, "apps/shop")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !strings.HasPrefix(p, "apps/shop/stacks/") {
			t.Errorf("unexpected path %q", p)
		}
	}
}

func TestBackend_ListWithPrefix(t *testing.T) {
	b := newTestBackend(t, map[string]string{"key": "stackhost"})
	ctx := context.Background()

	if err := b.Write(ctx, "apps/shop/stacks/dev.json", bytes.NewReader([]byte("{}"))); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// Listed paths come back relative to the backend prefix.
	paths, err := b.List(ctx, "apps/shop")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(paths) != 1 || paths[0] != "apps/shop/stacks/dev.json" {
		t.Errorf("expected prefix-relative path, got %v", paths)
	}
}
