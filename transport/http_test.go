package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
	"upstack/config"
	"upstack/file_io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseUrl string) *config.Config {
	return &config.Config{
		Server: &config.Server{
			BaseUrl:    baseUrl,
			UploadPath: "/api/v1/files",
			AuthToken:  "secret-token",
		},
		MaxConcurrent:            3,
		DefaultRetryAfterSeconds: 30,
	}
}

func testSource() *file_io.Source {
	return file_io.NewSource("kitchen.jpg", "image/jpeg", []byte("not really a jpeg but long enough to move progress"))
}

func testMeta() Metadata {
	return Metadata{
		EntityType: config.ENTITY_PROPERTY,
		EntityId:   "prop_42",
		Category:   config.CATEGORY_PHOTO,
		FileType:   "image",
	}
}

func TestUploadSuccess(t *testing.T) {
	var gotAuth, gotEntityType, gotEntityId, gotCategory, gotFileName string
	var gotFileBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		gotEntityType = r.FormValue("entityType")
		gotEntityId = r.FormValue("entityId")
		gotCategory = r.FormValue("category")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotFileBytes, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"file":{"url":"https://cdn.example.com/abc.jpg","key":"abc"}}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	src := testSource()
	result, err := h.Upload(context.Background(), src, testMeta(), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/abc.jpg", result.Url)
	assert.Equal(t, "abc", result.Key)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "property", gotEntityType)
	assert.Equal(t, "prop_42", gotEntityId)
	assert.Equal(t, "photo", gotCategory)
	assert.Equal(t, "kitchen.jpg", gotFileName)
	assert.Equal(t, src.Data, gotFileBytes)
}

func TestUploadProgressReachesHundred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.Write([]byte(`{"file":{"url":"u","key":"k"}}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []int
	_, err = h.Upload(context.Background(), testSource(), testMeta(), func(percent int) {
		mu.Lock()
		seen = append(seen, percent)
		mu.Unlock()
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	for _, p := range seen {
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestUploadRateLimitedRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "17")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down","retryAfterSeconds":99}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	_, err = h.Upload(context.Background(), testSource(), testMeta(), nil)
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, STATUS_RATE_LIMITED, transportErr.Category)
	assert.Equal(t, http.StatusTooManyRequests, transportErr.StatusCode)
	// the header wins over the body field
	assert.Equal(t, 17*time.Second, transportErr.RetryAfter)
}

func TestUploadRateLimitedRetryAfterBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"slow down","retryAfterSeconds":9}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	_, err = h.Upload(context.Background(), testSource(), testMeta(), nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 9*time.Second, transportErr.RetryAfter)
}

func TestUploadRateLimitedDefaultRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	_, err = h.Upload(context.Background(), testSource(), testMeta(), nil)
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 30*time.Second, transportErr.RetryAfter)
}

func TestUploadErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCat     StatusCategory
	}{
		{"json message", http.StatusBadRequest, `{"message":"file too large"}`, "file too large", STATUS_CLIENT_ERROR},
		{"raw body", http.StatusForbidden, "access denied", "access denied", STATUS_CLIENT_ERROR},
		{"empty body", http.StatusBadGateway, "", "Bad Gateway", STATUS_SERVER_ERROR},
		{"server json", http.StatusInternalServerError, `{"message":"boom"}`, "boom", STATUS_SERVER_ERROR},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			h, err := NewHttpTransport(testConfig(server.URL))
			require.NoError(t, err)

			_, err = h.Upload(context.Background(), testSource(), testMeta(), nil)
			var transportErr *TransportError
			require.ErrorAs(t, err, &transportErr)
			assert.Equal(t, tt.wantCat, transportErr.Category)
			assert.Equal(t, tt.status, transportErr.StatusCode)
			assert.Equal(t, tt.wantMessage, transportErr.Message)
		})
	}
}

func TestUploadCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		// The server only detects a client disconnect (and cancels
		// r.Context()) once the request body has been consumed.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = h.Upload(ctx, testSource(), testMeta(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestUploadOmitsEmptyOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseMultipartForm(1 << 20)
		require.NoError(t, err)
		_, hasCategory := r.MultipartForm.Value["category"]
		_, hasFileType := r.MultipartForm.Value["fileType"]
		assert.False(t, hasCategory)
		assert.False(t, hasFileType)
		w.Write([]byte(`{"file":{"url":"u","key":"k"}}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	meta := Metadata{EntityType: config.ENTITY_UNIT, EntityId: "unit_7"}
	_, err = h.Upload(context.Background(), testSource(), meta, nil)
	require.NoError(t, err)
}

func TestUploadMalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"file":{}}`))
	}))
	defer server.Close()

	h, err := NewHttpTransport(testConfig(server.URL))
	require.NoError(t, err)

	_, err = h.Upload(context.Background(), testSource(), testMeta(), nil)
	assert.ErrorContains(t, err, "missing file url or key")
}
