package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/quantum-vault/internal/domain/vulns"
	"github.com/bryanwahyu/quantum-vault/internal/middleware"
)

const catalogBody = "vulnerabilities: []\n"

// fakeS3 answers the two calls the store makes: HEAD bucket and GET object.
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && strings.TrimSuffix(r.URL.Path, "/") == "/vault":
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet && r.URL.Path == "/vault/catalog.yaml":
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte(catalogBody))
		case r.Method == http.MethodGet:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing.yaml</Key><BucketName>vault</BucketName></Error>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStoreFetch(t *testing.T) {
	srv := fakeS3(t)
	endpoint := strings.TrimPrefix(srv.URL, "http://")

	s, err := New(context.Background(), endpoint, "us-east-1", "vault", "access", "secret", false)
	require.NoError(t, err)

	data, err := s.Fetch(context.Background(), "catalog.yaml")
	require.NoError(t, err)
	assert.Equal(t, catalogBody, string(data))

	_, err = s.Fetch(context.Background(), "missing.yaml")
	assert.ErrorIs(t, err, vulns.ErrNotFound)
}

func TestNewFailsForMissingBucket(t *testing.T) {
	srv := fakeS3(t)
	endpoint := strings.TrimPrefix(srv.URL, "http://")

	_, err := New(context.Background(), endpoint, "us-east-1", "other", "access", "secret", false)
	assert.Error(t, err)
}

func TestBucketHealthReportsRemovedBucket(t *testing.T) {
	var gone atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && !gone.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s, err := New(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "us-east-1", "vault", "access", "secret", false)
	require.NoError(t, err)
	require.NoError(t, s.Check(context.Background()))

	gone.Store(true)
	rec := httptest.NewRecorder()
	middleware.HealthHandler(map[string]middleware.HealthChecker{"bucket": s})(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "bucket vault does not exist")
}
