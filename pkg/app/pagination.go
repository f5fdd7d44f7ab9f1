package app

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sgaunet/s2console/pkg/listing"
)

var (
	// ErrInvalidPageFormat is returned when the page parameter cannot be parsed as a number.
	ErrInvalidPageFormat = errors.New("invalid page parameter: must be a number")

	// ErrInvalidPageValue is returned when the page parameter is less than 1.
	ErrInvalidPageValue = errors.New("invalid page parameter: must be >= 1")
)

// Actions are the listing actions carried by the query string of a view.
// Nil fields were not requested.
type Actions struct {
	Pattern *string
	Limit   *int
	Offset  *int
	// Page is the 1-indexed page to show, 0 when absent.
	Page    int
	Refresh bool
}

// Empty reports whether no action was requested.
func (a Actions) Empty() bool {
	return a.Pattern == nil && a.Limit == nil && a.Offset == nil && a.Page == 0 && !a.Refresh
}

// ParseListingParams extracts the listing actions from the query string.
// Numbers that cannot be parsed are reported as *listing.ValidationError.
//
// Behavior:
//   - pattern: used verbatim, even when empty
//   - limit: any integer; the controller rejects non-positive values
//   - offset: any integer; the backend clamps it
//   - page: see ParsePaginationParams
//   - refresh: present means refresh
func ParseListingParams(r *http.Request) (Actions, error) {
	q := r.URL.Query()
	var a Actions

	if q.Has("pattern") {
		p := q.Get("pattern")
		a.Pattern = &p
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Actions{}, &listing.ValidationError{Field: "limit", Value: v, Err: listing.ErrInvalidLimit}
		}
		a.Limit = &n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Actions{}, &listing.ValidationError{Field: "offset", Value: v, Err: listing.ErrInvalidOffset}
		}
		a.Offset = &n
	}
	if q.Get("page") != "" {
		page, err := ParsePaginationParams(r)
		if err != nil {
			return Actions{}, &listing.ValidationError{Field: "page", Value: q.Get("page"), Err: err}
		}
		a.Page = page
	}
	a.Refresh = q.Has("refresh")
	return a, nil
}

// ParsePaginationParams extracts and validates the page number from HTTP request query parameters.
// It returns the page number (1-indexed) or an error if parsing fails.
//
// Behavior:
//   - Missing parameter: Returns page=1, no error
//   - Empty parameter: Returns page=1, no error
//   - Valid number >= 1: Returns the number, no error
//   - Invalid format (non-numeric): Returns 0, error
//   - Number < 1: Returns 0, error
func ParsePaginationParams(r *http.Request) (int, error) {
	pageStr := r.URL.Query().Get("page")

	if pageStr == "" {
		return 1, nil
	}

	page, err := strconv.Atoi(pageStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPageFormat, err)
	}

	if page < 1 {
		return 0, ErrInvalidPageValue
	}

	return page, nil
}

// ValidatePageNumber ensures a page number is within valid bounds.
// It returns a safe page number, auto-correcting out-of-bounds values to 1.
func ValidatePageNumber(page, maxPages int) int {
	if page < 1 || page > maxPages {
		return 1
	}
	return page
}
