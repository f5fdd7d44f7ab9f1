package views

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestStaticHandler verifies that the StaticHandler serves embedded assets correctly.
func TestStaticHandler(t *testing.T) {
	tests := []struct {
		name            string
		path            string
		expectedStatus  int
		contentContains string
		contentType     string
	}{
		{
			name:            "Serve app.css",
			path:            "/static/app.css",
			expectedStatus:  http.StatusOK,
			contentContains: ".pager",
			contentType:     "text/css",
		},
		{
			name:            "Serve icons.svg",
			path:            "/static/icons.svg",
			expectedStatus:  http.StatusOK,
			contentContains: "<svg",
			contentType:     "image/svg+xml",
		},
		{
			name:           "Non-existent file returns 404",
			path:           "/static/nonexistent.css",
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			StaticHandler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			assert.NotZero(t, w.Body.Len())
			assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			assert.Contains(t, w.Body.String(), tt.contentContains)
		})
	}
}

// TestStaticHandlerBasicHeaders verifies that basic HTTP headers are set correctly.
func TestStaticHandlerBasicHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/static/app.css", nil)
	w := httptest.NewRecorder()

	StaticHandler.ServeHTTP(w, req)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/css")
	assert.NotEmpty(t, w.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
}

func TestFaviconHandler(t *testing.T) {
	w := httptest.NewRecorder()
	FaviconHandler(w, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "<svg")
}
