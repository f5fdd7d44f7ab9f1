package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// Config wires a Controller to its collaborators.
type Config[T any] struct {
	// Resource is the preference key of the listed resource type ("bucket", "file").
	Resource string

	// Limits are the page sizes offered by the limit selector.
	Limits []int

	// Defaults seed the state when the store has nothing for Resource.
	Defaults Preferences

	// Level is passed to Guard.CheckLogin on mount.
	Level string

	Fetcher Fetcher[T]
	Store   PreferenceStore
	Guard   SessionGuard
	Logger  *slog.Logger
}

// Controller keeps the listing state of one mounted view consistent with user
// intent and with what the backend last reported.
type Controller[T any] struct {
	mu sync.Mutex

	resource string
	limits   []int
	defaults Preferences
	level    string
	fetcher  Fetcher[T]
	store    PreferenceStore
	guard    SessionGuard
	log      *slog.Logger

	state   State[T]
	scope   string // from the route; sent with every request
	mounted bool

	issued    uint64 // highest sequence handed out
	completed uint64 // highest sequence applied, successful or not
	epoch     uint64 // sequences up to epoch belong to an earlier mount
}

// New creates an unmounted controller.
func New[T any](cfg Config[T]) *Controller[T] {
	c := &Controller[T]{
		resource: cfg.Resource,
		limits:   append([]int(nil), cfg.Limits...),
		defaults: cfg.Defaults,
		level:    cfg.Level,
		fetcher:  cfg.Fetcher,
		store:    cfg.Store,
		guard:    cfg.Guard,
		log:      cfg.Logger,
	}
	if c.defaults.Limit <= 0 {
		c.defaults.Limit = firstOr(c.limits, 10)
	}
	if c.defaults.Pattern == "" {
		c.defaults.Pattern = DefaultPattern
	}
	if c.guard == nil {
		c.guard = AllowAll
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	c.state = State[T]{
		Limit:   c.defaults.Limit,
		Pattern: c.defaults.Pattern,
		Status:  StatusUninitialized,
	}
	return c
}

// Resource returns the preference key of the controller.
func (c *Controller[T]) Resource() string {
	return c.resource
}

// Limits returns the page sizes offered for this resource.
func (c *Controller[T]) Limits() []int {
	return append([]int(nil), c.limits...)
}

// Initialize mounts the controller: it runs the session guard, restores the
// stored preferences and returns the first request. Offset and total start at 0.
func (c *Controller[T]) Initialize(ctx context.Context, scope string) Request {
	c.guard.CheckLogin(c.level)

	prefs := c.loadPreferences(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.mounted = true
	c.scope = scope
	c.epoch = c.issued
	c.completed = c.issued
	c.state = State[T]{
		Items:   nil,
		Offset:  0,
		Limit:   prefs.Limit,
		Total:   0,
		Pattern: prefs.Pattern,
		Scope:   scope,
		Status:  StatusUninitialized,
	}
	c.log.Debug("listing mounted",
		slog.String("resource", c.resource),
		slog.String("scope", scope),
		slog.Int("limit", prefs.Limit),
		slog.String("pattern", prefs.Pattern))
	return c.issueLocked()
}

func (c *Controller[T]) loadPreferences(ctx context.Context) Preferences {
	prefs := c.defaults
	if c.store == nil {
		return prefs
	}
	stored, ok, err := c.store.Get(ctx, c.resource)
	if err != nil {
		c.log.Warn("cannot read listing preferences, using defaults",
			slog.String("resource", c.resource),
			slog.String("error", err.Error()))
		return prefs
	}
	if !ok {
		return prefs
	}
	if stored.Limit > 0 {
		prefs.Limit = stored.Limit
	}
	prefs.Pattern = stored.Pattern
	return prefs
}

// Refresh re-issues the current query. Used for the manual refresh affordance.
func (c *Controller[T]) Refresh() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.issueLocked()
}

// SetLimit changes the page size. The offset is moved to the start of the
// page that contains the current leading item.
func (c *Controller[T]) SetLimit(limit int) (Request, error) {
	if limit <= 0 {
		return Request{}, &ValidationError{Field: "limit", Value: strconv.Itoa(limit), Err: ErrInvalidLimit}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Offset = AlignOffset(c.state.Offset, limit)
	c.state.Limit = limit
	return c.issueLocked(), nil
}

// SetPattern replaces the filter verbatim. The offset is left unchanged; the
// server clamps it if the filtered set became smaller.
func (c *Controller[T]) SetPattern(pattern string) Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Pattern = pattern
	return c.issueLocked()
}

// SetOffset moves the page window. No bounds are checked client-side.
func (c *Controller[T]) SetOffset(offset int) Request {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Offset = offset
	return c.issueLocked()
}

func (c *Controller[T]) issueLocked() Request {
	c.issued++
	c.state.Status = StatusLoading
	return Request{
		Seq: c.issued,
		Query: Query{
			Limit:   c.state.Limit,
			Offset:  c.state.Offset,
			Pattern: c.state.Pattern,
			Scope:   c.scope,
		},
	}
}

// Fetch executes req against the listing service. It does not touch the
// controller state and may run on any goroutine.
func (c *Controller[T]) Fetch(ctx context.Context, req Request) (res Result[T]) {
	res.Seq = req.Seq
	defer func() {
		if r := recover(); r != nil {
			res.Err = &TransportError{Op: c.resource + " pagelist", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	res.Page, res.Err = c.fetcher.Fetch(ctx, req.Query)
	return res
}

// Apply reconciles a fetch result into the state. It reports false when the
// result was discarded because a newer one has already been applied or the
// controller has been torn down.
func (c *Controller[T]) Apply(res Result[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.mounted {
		return false
	}
	if res.Seq <= c.epoch || res.Seq < c.completed {
		c.log.Debug("discarding stale listing response",
			slog.String("resource", c.resource),
			slog.Uint64("seq", res.Seq),
			slog.Uint64("applied", c.completed))
		return false
	}
	c.completed = res.Seq

	if res.Err != nil {
		c.state.ErrorMessage = UserMessage(res.Err)
		c.log.Warn("listing fetch failed",
			slog.String("resource", c.resource),
			slog.Uint64("seq", res.Seq),
			slog.String("error", res.Err.Error()))
		c.settleLocked(StatusError)
		return true
	}

	page := res.Page
	items := page.Items
	if page.Limit > 0 && len(items) > page.Limit {
		c.log.Warn("backend returned more items than the page size",
			slog.String("resource", c.resource),
			slog.Int("items", len(items)),
			slog.Int("limit", page.Limit))
		items = items[:page.Limit]
	}
	c.state.Items = append([]T(nil), items...)
	c.state.Total = page.Total
	c.state.Offset = page.Offset
	if page.Limit > 0 {
		c.state.Limit = page.Limit
	}
	c.state.Scope = page.Scope
	if c.state.Scope == "" {
		c.state.Scope = c.scope
	}
	c.state.ErrorMessage = ""
	c.settleLocked(StatusReady)
	return true
}

func (c *Controller[T]) settleLocked(done Status) {
	if c.completed < c.issued {
		c.state.Status = StatusLoading
		return
	}
	c.state.Status = done
}

// Do executes req and applies its result. It is the synchronous form used by
// hosts without an event loop.
func (c *Controller[T]) Do(ctx context.Context, req Request) State[T] {
	c.Apply(c.Fetch(ctx, req))
	return c.Snapshot()
}

// Teardown unmounts the controller and writes the page size and filter back
// to the preference store. The offset is not remembered.
func (c *Controller[T]) Teardown(ctx context.Context) error {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return ErrNotMounted
	}
	c.mounted = false
	prefs := Preferences{Limit: c.state.Limit, Pattern: c.state.Pattern}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.Set(ctx, c.resource, prefs); err != nil {
		return fmt.Errorf("cannot save %s preferences: %w", c.resource, err)
	}
	c.log.Debug("listing unmounted",
		slog.String("resource", c.resource),
		slog.Int("limit", prefs.Limit),
		slog.String("pattern", prefs.Pattern))
	return nil
}

// Mounted reports whether Initialize has run and Teardown has not.
func (c *Controller[T]) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mounted
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	return s
}

// Pager returns the pager view of the current state. OnOffsetChange is bound
// to this controller.
func (c *Controller[T]) Pager() Pager {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pager{
		Total:          c.state.Total,
		Limit:          c.state.Limit,
		Offset:         c.state.Offset,
		OnOffsetChange: c.SetOffset,
	}
}

// AlignOffset moves offset down to the nearest multiple of limit.
func AlignOffset(offset, limit int) int {
	if limit <= 0 {
		return offset
	}
	if offset < 0 {
		return 0
	}
	return (offset / limit) * limit
}

func firstOr(v []int, def int) int {
	for _, n := range v {
		if n > 0 {
			return n
		}
	}
	return def
}
