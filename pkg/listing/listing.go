// Package listing implements the paginated remote-listing controller shared by
// the bucket and file views of the console.
//
// A Controller owns the pagination state of one mounted view. Every operation
// that changes what should be displayed returns a Request; the host executes it
// with Fetch (off its event loop if it has one) and hands the Result back to
// Apply. Results are applied in arrival order, except that a result older than
// one already applied is discarded.
package listing

import (
	"context"
)

// DefaultPattern is the filter used when no preference has been stored.
const DefaultPattern = "*"

// Query is the page window and filter sent to the listing service.
type Query struct {
	Limit   int
	Offset  int
	Pattern string
	Scope   string
}

// Page is one page of items as reported by the listing service.
// Total, Offset, Limit and Scope are the server's authoritative echo.
type Page[T any] struct {
	Items  []T
	Total  int
	Offset int
	Limit  int
	Scope  string
}

// Fetcher retrieves one page from the listing service.
type Fetcher[T any] interface {
	Fetch(ctx context.Context, q Query) (Page[T], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

// Fetch calls f(ctx, q).
func (f FetcherFunc[T]) Fetch(ctx context.Context, q Query) (Page[T], error) {
	return f(ctx, q)
}

// Preferences are the pagination settings remembered between mounts.
type Preferences struct {
	Limit   int
	Pattern string
}

// PreferenceStore holds the last used Preferences per resource key.
// Get reports false when nothing has been stored for the key.
type PreferenceStore interface {
	Get(ctx context.Context, resource string) (Preferences, bool, error)
	Set(ctx context.Context, resource string, p Preferences) error
}

// SessionGuard is invoked once per mount, before the first fetch. It has side
// effects only (typically a redirect) and never blocks the mount.
type SessionGuard interface {
	CheckLogin(level string)
}

// GuardFunc adapts a function to the SessionGuard interface.
type GuardFunc func(level string)

// CheckLogin calls f(level).
func (f GuardFunc) CheckLogin(level string) { f(level) }

// AllowAll is a SessionGuard that never redirects.
var AllowAll SessionGuard = GuardFunc(func(string) {})

// Status is the position of a controller in its load cycle.
type Status int

const (
	// StatusUninitialized is the state before Initialize.
	StatusUninitialized Status = iota
	// StatusLoading means at least one issued request has not completed.
	StatusLoading
	// StatusReady means the last completed request succeeded.
	StatusReady
	// StatusError means the last completed request failed; the previous
	// page is still displayed.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

// State is a point-in-time copy of a controller's view state.
type State[T any] struct {
	Items        []T
	Offset       int
	Limit        int
	Total        int
	Pattern      string
	Scope        string
	ErrorMessage string
	Status       Status
}

// Request is a fetch issued by the controller. Seq orders requests of the
// same controller; a higher Seq was issued later.
type Request struct {
	Seq   uint64
	Query Query
}

// Result is the outcome of executing a Request.
type Result[T any] struct {
	Seq  uint64
	Page Page[T]
	Err  error
}
