package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/listing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{BaseURL: srv.URL, User: "admin", Password: "secret", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"http", "http://localhost:8080", false},
		{"https with path", "https://store.example.com/prefix/", false},
		{"no scheme", "localhost:8080", true},
		{"ftp", "ftp://example.com", true},
		{"no host", "http://", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{BaseURL: tt.url})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBaseURL)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBucketFetcher(t *testing.T) {
	var got dto.PageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/bucket/pagelist", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "admin", user)
		assert.Equal(t, "secret", pass)

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		writeJSON(t, w, http.StatusOK, dto.NewResult(dto.BucketPage{
			Total:   42,
			Offset:  40,
			Limit:   10,
			Buckets: []dto.Bucket{{Name: "a", Size: 1}, {Name: "b", Size: 2}},
		}))
	})

	page, err := c.Buckets().Fetch(context.Background(), listing.Query{Limit: 10, Offset: 40, Pattern: "*"})
	require.NoError(t, err)
	assert.Equal(t, dto.PageRequest{Limit: 10, Offset: 40, Pattern: "*"}, got)
	assert.Equal(t, 42, page.Total)
	assert.Equal(t, 40, page.Offset)
	assert.Len(t, page.Items, 2)
}

func TestFileFetcherSendsBucket(t *testing.T) {
	modTime := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/file/pagelist", r.URL.Path)
		var pr dto.PageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&pr))
		assert.Equal(t, "photos", pr.Bucket)

		writeJSON(t, w, http.StatusOK, dto.NewResult(dto.FilePage{
			Total:  1,
			Limit:  25,
			Bucket: pr.Bucket,
			Files:  []dto.File{{Name: "cat.jpg", Size: 2048, ModTime: modTime}},
		}))
	})

	page, err := c.Files().Fetch(context.Background(), listing.Query{Limit: 25, Pattern: "*.jpg", Scope: "photos"})
	require.NoError(t, err)
	assert.Equal(t, "photos", page.Scope)
	require.Len(t, page.Items, 1)
	assert.True(t, modTime.Equal(page.Items[0].ModTime))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name            string
		handler         http.HandlerFunc
		wantTransport   bool
		wantApplication bool
	}{
		{
			name: "Backend error envelope",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, http.StatusBadRequest, dto.NewError("stat /store/nope: no such file or directory"))
			},
			wantApplication: true,
		},
		{
			name: "Missing result",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, http.StatusOK, dto.NewMessage("hello"))
			},
			wantApplication: true,
		},
		{
			name: "Negative total",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, http.StatusOK, dto.NewResult(dto.BucketPage{Total: -1, Limit: 10}))
			},
			wantApplication: true,
		},
		{
			name: "Zero limit",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(t, w, http.StatusOK, dto.NewResult(dto.BucketPage{Total: 3}))
			},
			wantApplication: true,
		},
		{
			name: "HTML error page",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = io.WriteString(w, "<html>bad gateway</html>")
			},
			wantTransport: true,
		},
		{
			name: "Object without result",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"total": 3}`)
			},
			wantApplication: true,
		},
		{
			name: "Null error without result",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"error": null}`)
			},
			wantApplication: true,
		},
		{
			name: "JSON array",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `[{"error": false}]`)
			},
			wantTransport: true,
		},
		{
			name: "JSON null",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `null`)
			},
			wantTransport: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.BucketPage(context.Background(), dto.PageRequest{Limit: 10, Pattern: "*"})
			require.Error(t, err)
			assert.Equal(t, tt.wantTransport, listing.IsTransport(err), "transport: %v", err)
			assert.Equal(t, tt.wantApplication, listing.IsApplication(err), "application: %v", err)
		})
	}
}

func TestSuccessEnvelopeWithoutErrorFlag(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"null error", `{"error":null,"result":{"buckets":[{"name":"a","size":1}],"total":1,"offset":0,"limit":10}}`},
		{"absent error", `{"result":{"buckets":[{"name":"a","size":1}],"total":1,"offset":0,"limit":10}}`},
		{"false error", `{"error":false,"result":{"buckets":[{"name":"a","size":1}],"total":1,"offset":0,"limit":10}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, tt.body)
			})

			ctrl := listing.New(listing.Config[dto.Bucket]{
				Resource: ResourceBucket,
				Defaults: listing.Preferences{Limit: 10, Pattern: "*"},
				Fetcher:  c.Buckets(),
			})
			ctx := context.Background()
			ctrl.Do(ctx, ctrl.Initialize(ctx, ""))

			s := ctrl.Snapshot()
			assert.Empty(t, s.ErrorMessage)
			assert.Equal(t, listing.StatusReady, s.Status)
			assert.Equal(t, 1, s.Total)
			require.Len(t, s.Items, 1)
			assert.Equal(t, "a", s.Items[0].Name)
		})
	}
}

func TestConnectionRefusedIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: baseURL, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.BucketPage(context.Background(), dto.PageRequest{Limit: 10})
	require.Error(t, err)
	assert.True(t, listing.IsTransport(err))
	assert.Equal(t, listing.MsgCommunicationError, listing.UserMessage(err))
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/hello", r.URL.Path)
		writeJSON(t, w, http.StatusOK, dto.NewMessage("hello"))
	})
	assert.NoError(t, c.Ping(context.Background()))
}
