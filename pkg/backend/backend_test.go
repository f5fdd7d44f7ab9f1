package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s2console/pkg/dto"
)

type fakeStorage struct {
	buckets []dto.Bucket
	files   map[string][]dto.File
	content map[string]string
}

func (f *fakeStorage) Buckets(context.Context) ([]dto.Bucket, error) {
	return f.buckets, nil
}

func (f *fakeStorage) Files(_ context.Context, bucket string) ([]dto.File, error) {
	files, ok := f.files[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBucketNotFound, bucket)
	}
	return files, nil
}

func (f *fakeStorage) Open(_ context.Context, bucket, name string) (io.ReadCloser, FileInfo, error) {
	c, ok := f.content[bucket+"/"+name]
	if !ok {
		return nil, FileInfo{}, ErrFileNotFound
	}
	return io.NopCloser(strings.NewReader(c)), FileInfo{Name: name, Size: int64(len(c))}, nil
}

func newFakeStorage() *fakeStorage {
	st := &fakeStorage{
		files:   map[string][]dto.File{},
		content: map[string]string{"photos/2024/cat.jpg": "meow"},
	}
	for i := 0; i < 42; i++ {
		st.buckets = append(st.buckets, dto.Bucket{Name: fmt.Sprintf("bucket-%02d", i), Size: int64(i)})
	}
	st.buckets = append(st.buckets, dto.Bucket{Name: "photos", Size: 1024})
	mod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	st.files["photos"] = []dto.File{
		{Name: "a.jpg", Size: 1, ModTime: mod},
		{Name: "b.png", Size: 2, ModTime: mod},
		{Name: "c.jpg", Size: 3, ModTime: mod},
	}
	return st
}

func postJSON(t *testing.T, h http.Handler, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) dto.Response[T] {
	t.Helper()
	var env dto.Response[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error, "envelope must carry the error field")
	return env
}

func TestBucketPageList(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()

	tests := []struct {
		name       string
		req        dto.PageRequest
		wantTotal  int
		wantOffset int
		wantLimit  int
		wantFirst  string
		wantLen    int
	}{
		{"First page", dto.PageRequest{Limit: 10, Pattern: "*"}, 43, 0, 10, "bucket-00", 10},
		{"Last page", dto.PageRequest{Limit: 10, Offset: 40, Pattern: "*"}, 43, 40, 10, "bucket-40", 3},
		{"Substring match", dto.PageRequest{Limit: 10, Pattern: "hot"}, 1, 0, 10, "photos", 1},
		{"Empty pattern matches all", dto.PageRequest{Limit: 5}, 43, 0, 5, "bucket-00", 5},
		{"Offset beyond total", dto.PageRequest{Limit: 10, Offset: 100, Pattern: "*"}, 43, 100, 10, "", 0},
		{"Negative offset", dto.PageRequest{Limit: 10, Offset: -7, Pattern: "*"}, 43, 0, 10, "bucket-00", 10},
		{"Zero limit", dto.PageRequest{Pattern: "*"}, 43, 0, DefaultLimit, "bucket-00", DefaultLimit},
		{"Huge limit", dto.PageRequest{Limit: 5000, Pattern: "*"}, 43, 0, MaxLimit, "bucket-00", 43},
		{"No match", dto.PageRequest{Limit: 10, Pattern: "zzz"}, 0, 0, 10, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/v1/bucket/pagelist", tt.req)
			require.Equal(t, http.StatusOK, rec.Code)

			env := decode[dto.BucketPage](t, rec)
			require.False(t, env.Failed())
			require.NotNil(t, env.Result)
			page := *env.Result
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantOffset, page.Offset)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Len(t, page.Buckets, tt.wantLen)
			assert.NotNil(t, page.Buckets)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Buckets[0].Name)
			}
		})
	}
}

func TestFilePageList(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()

	rec := postJSON(t, h, "/api/v1/file/pagelist", dto.PageRequest{Bucket: "photos", Limit: 10, Pattern: "*.jpg"})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[dto.FilePage](t, rec)
	require.NotNil(t, env.Result)
	assert.Equal(t, "photos", env.Result.Bucket)
	assert.Equal(t, 2, env.Result.Total)
	require.Len(t, env.Result.Files, 2)
	assert.Equal(t, "c.jpg", env.Result.Files[1].Name)

	rec = postJSON(t, h, "/api/v1/file/pagelist", dto.PageRequest{Bucket: "photos", Limit: 2, Offset: 2})
	env = decode[dto.FilePage](t, rec)
	require.NotNil(t, env.Result)
	assert.Equal(t, 3, env.Result.Total)
	assert.Len(t, env.Result.Files, 1)
}

func TestFilePageListErrors(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()

	tests := []struct {
		name    string
		req     dto.PageRequest
		message string
	}{
		{"Unknown bucket", dto.PageRequest{Bucket: "nope", Limit: 10}, "bucket not found"},
		{"Nested pattern", dto.PageRequest{Bucket: "photos", Limit: 10, Pattern: "a/*.jpg"}, "must not contain a path"},
		{"Invalid pattern", dto.PageRequest{Bucket: "photos", Limit: 10, Pattern: "[a"}, "invalid pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h, "/api/v1/file/pagelist", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			env := decode[struct{}](t, rec)
			assert.True(t, env.Failed())
			assert.Contains(t, env.Message, tt.message)
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bucket/pagelist", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, decode[struct{}](t, rec).Failed())
}

func TestHello(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode[struct{}](t, rec)
	assert.False(t, env.Failed())
	assert.Equal(t, "hello", env.Message)
}

func TestDownload(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/file/down/photos/2024/cat.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meow", rec.Body.String())
	assert.Equal(t, "4", rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `"cat.jpg"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/file/down/photos/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/file/down/cat.jpg", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	h := New(newFakeStorage(), Options{Users: map[string]string{"admin": "secret"}}).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.True(t, decode[struct{}](t, rec).Failed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := New(newFakeStorage(), Options{RateLimit: 0.001, Burst: 2}).Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/hello", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestUnknownRoute(t *testing.T) {
	h := New(newFakeStorage(), Options{}).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, decode[struct{}](t, rec).Failed())
}
