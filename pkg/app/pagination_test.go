package app

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgaunet/s2console/pkg/listing"
)

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		name      string
		queryURL  string
		wantPage  int
		wantError bool
	}{
		{name: "Valid page 1", queryURL: "/?page=1", wantPage: 1},
		{name: "Valid page 5", queryURL: "/?page=5", wantPage: 5},
		{name: "Valid large page number", queryURL: "/?page=9999", wantPage: 9999},
		{name: "Missing page parameter", queryURL: "/", wantPage: 1},
		{name: "Empty page parameter", queryURL: "/?page=", wantPage: 1},
		{name: "Page zero", queryURL: "/?page=0", wantError: true},
		{name: "Negative page", queryURL: "/?page=-5", wantError: true},
		{name: "Non-numeric page", queryURL: "/?page=abc", wantError: true},
		{name: "Decimal page number", queryURL: "/?page=1.5", wantError: true},
		{name: "Page with special characters", queryURL: "/?page=1@", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.queryURL, nil)
			gotPage, err := ParsePaginationParams(req)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantPage, gotPage)
		})
	}
}

func TestParsePaginationParamsSentinels(t *testing.T) {
	_, err := ParsePaginationParams(httptest.NewRequest(http.MethodGet, "/?page=abc", nil))
	assert.ErrorIs(t, err, ErrInvalidPageFormat)

	_, err = ParsePaginationParams(httptest.NewRequest(http.MethodGet, "/?page=0", nil))
	assert.ErrorIs(t, err, ErrInvalidPageValue)
}

func TestValidatePageNumber(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		maxPages int
		want     int
	}{
		{name: "Page within range (middle)", page: 3, maxPages: 10, want: 3},
		{name: "Page at start of range", page: 1, maxPages: 10, want: 1},
		{name: "Page at end of range", page: 10, maxPages: 10, want: 10},
		{name: "Single page scenario", page: 1, maxPages: 1, want: 1},
		{name: "Page zero", page: 0, maxPages: 10, want: 1},
		{name: "Negative page", page: -5, maxPages: 10, want: 1},
		{name: "Page above max", page: 15, maxPages: 10, want: 1},
		{name: "Stale bookmark", page: 50, maxPages: 5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePageNumber(tt.page, tt.maxPages))
		})
	}
}

func TestParseListingParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/files/logs?pattern="+url.QueryEscape("*.log")+"&limit=25&offset=40&refresh", nil)
	a, err := ParseListingParams(req)
	require.NoError(t, err)
	require.NotNil(t, a.Pattern)
	require.NotNil(t, a.Limit)
	require.NotNil(t, a.Offset)
	assert.Equal(t, "*.log", *a.Pattern)
	assert.Equal(t, 25, *a.Limit)
	assert.Equal(t, 40, *a.Offset)
	assert.True(t, a.Refresh)
	assert.False(t, a.Empty())

	a, err = ParseListingParams(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, a.Empty())

	a, err = ParseListingParams(httptest.NewRequest(http.MethodGet, "/?pattern=", nil))
	require.NoError(t, err)
	require.NotNil(t, a.Pattern, "an empty pattern is an action")
	assert.Empty(t, *a.Pattern)

	a, err = ParseListingParams(httptest.NewRequest(http.MethodGet, "/?page=3", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Page)
}

func TestParseListingParamsErrors(t *testing.T) {
	tests := []struct {
		query string
		field string
		err   error
	}{
		{query: "limit=ten", field: "limit", err: listing.ErrInvalidLimit},
		{query: "offset=1.5", field: "offset", err: listing.ErrInvalidOffset},
		{query: "page=0", field: "page", err: ErrInvalidPageValue},
		{query: "page=x", field: "page", err: ErrInvalidPageFormat},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			_, err := ParseListingParams(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			require.Error(t, err)
			var ve *listing.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
