// Package tui is the terminal console: the bucket and file listings driven
// from the keyboard.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sgaunet/s2console/pkg/config"
	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/listing"
	"github.com/sgaunet/s2console/pkg/prefs"
	"github.com/sgaunet/s2console/pkg/remote"
)

// Backend provides the fetchers of the two listings.
type Backend interface {
	Buckets() listing.Fetcher[dto.Bucket]
	Files() listing.Fetcher[dto.File]
}

// Options configure the terminal console.
type Options struct {
	Buckets config.ListingConfig
	Files   config.ListingConfig
	Backend Backend
	// Preferences are stored under User. Nil means in-memory preferences.
	Preferences listing.PreferenceStore
	User        string
	Logger      *slog.Logger
}

type screen int

const (
	screenBuckets screen = iota
	screenFiles
)

// Messages carrying fetch results back to the event loop.
type bucketsFetchedMsg struct{ res listing.Result[dto.Bucket] }

type filesFetchedMsg struct{ res listing.Result[dto.File] }

// Model is the bubbletea model of the console. The bucket listing stays
// mounted for the whole session; the file listing is mounted when a bucket
// is opened and torn down when going back.
type Model struct {
	ctx     context.Context
	buckets *listing.Controller[dto.Bucket]
	files   *listing.Controller[dto.File]
	screen  screen
	cursor  int
	filter  textinput.Model
	editing bool
	notice  string
	width   int
	height  int
	log     *slog.Logger
}

// New creates the console model. ctx bounds every fetch.
func New(ctx context.Context, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	var store listing.PreferenceStore = prefs.NewMemory()
	if opts.Preferences != nil {
		store = opts.Preferences
	}
	store = prefs.NewScoped(store, opts.User)

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "pattern"
	ti.CharLimit = 256

	return Model{
		ctx: ctx,
		buckets: listing.New(listing.Config[dto.Bucket]{
			Resource: remote.ResourceBucket,
			Limits:   opts.Buckets.Limits,
			Defaults: listing.Preferences{Limit: opts.Buckets.Limit, Pattern: opts.Buckets.Pattern},
			Level:    opts.Buckets.Level,
			Fetcher:  opts.Backend.Buckets(),
			Store:    store,
			Logger:   log,
		}),
		files: listing.New(listing.Config[dto.File]{
			Resource: remote.ResourceFile,
			Limits:   opts.Files.Limits,
			Defaults: listing.Preferences{Limit: opts.Files.Limit, Pattern: opts.Files.Pattern},
			Level:    opts.Files.Level,
			Fetcher:  opts.Backend.Files(),
			Store:    store,
			Logger:   log,
		}),
		filter: ti,
		log:    log,
	}
}

// Run starts the console on the terminal and saves the listing preferences
// when it exits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		err = errors.Join(err, m.Close(context.WithoutCancel(ctx)))
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init mounts the bucket listing.
func (m Model) Init() tea.Cmd {
	return m.fetchBuckets(m.buckets.Initialize(m.ctx, ""))
}

// Close tears down the mounted listings, saving their preferences.
func (m Model) Close(ctx context.Context) error {
	var errs []error
	for _, c := range []interface{ Teardown(context.Context) error }{m.files, m.buckets} {
		if err := c.Teardown(ctx); err != nil && !errors.Is(err, listing.ErrNotMounted) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Model) fetchBuckets(req listing.Request) tea.Cmd {
	ctx, c := m.ctx, m.buckets
	return func() tea.Msg {
		return bucketsFetchedMsg{res: c.Fetch(ctx, req)}
	}
}

func (m Model) fetchFiles(req listing.Request) tea.Cmd {
	ctx, c := m.ctx, m.files
	return func() tea.Msg {
		return filesFetchedMsg{res: c.Fetch(ctx, req)}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case bucketsFetchedMsg:
		m.buckets.Apply(msg.res)
		m.clampCursor()
		return m, nil

	case filesFetchedMsg:
		m.files.Apply(msg.res)
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateFilter(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// updateFilter edits the pattern. Every change is sent to the backend at
// once; responses to earlier keystrokes are discarded by the listing.
func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.editing = false
		m.filter.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m.quit()
	}

	before := m.filter.Value()
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() == before {
		return m, cmd
	}
	m.cursor = 0
	return m, tea.Batch(cmd, m.setPattern(m.filter.Value()))
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.quit()

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < m.rows()-1 {
			m.cursor++
		}
		return m, nil

	case "left", "pgup":
		m.cursor = 0
		return m, m.page(listing.Pager.Previous)

	case "right", "pgdown":
		m.cursor = 0
		return m, m.page(listing.Pager.Next)

	case "home":
		m.cursor = 0
		return m, m.page(func(p listing.Pager) (listing.Request, bool) { return p.First(), true })

	case "end":
		m.cursor = 0
		return m, m.page(func(p listing.Pager) (listing.Request, bool) { return p.Last(), true })

	case "+":
		return m, m.cycleLimit(1)

	case "-":
		return m, m.cycleLimit(-1)

	case "/":
		m.editing = true
		m.filter.SetValue(m.pattern())
		m.filter.CursorEnd()
		return m, m.filter.Focus()

	case "r":
		if m.screen == screenFiles {
			return m, m.fetchFiles(m.files.Refresh())
		}
		return m, m.fetchBuckets(m.buckets.Refresh())

	case "enter":
		return m.openBucket()

	case "esc", "backspace":
		return m.back()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.Close(m.ctx); err != nil {
		m.log.Error("Cannot save preferences", slog.String("error", err.Error()))
	}
	return m, tea.Quit
}

// openBucket mounts the file listing of the selected bucket.
func (m Model) openBucket() (tea.Model, tea.Cmd) {
	if m.screen != screenBuckets {
		return m, nil
	}
	items := m.buckets.Snapshot().Items
	if m.cursor >= len(items) {
		return m, nil
	}
	bucket := items[m.cursor].Name
	m.screen = screenFiles
	m.cursor = 0
	m.notice = ""
	return m, m.fetchFiles(m.files.Initialize(m.ctx, bucket))
}

// back tears down the file listing and returns to the buckets.
func (m Model) back() (tea.Model, tea.Cmd) {
	if m.screen != screenFiles {
		return m, nil
	}
	if err := m.files.Teardown(m.ctx); err != nil {
		m.notice = err.Error()
		m.log.Warn("Cannot save file preferences", slog.String("error", err.Error()))
	}
	m.screen = screenBuckets
	m.cursor = 0
	return m, nil
}

func (m Model) page(move func(listing.Pager) (listing.Request, bool)) tea.Cmd {
	if m.screen == screenFiles {
		if req, ok := move(m.files.Pager()); ok {
			return m.fetchFiles(req)
		}
		return nil
	}
	if req, ok := move(m.buckets.Pager()); ok {
		return m.fetchBuckets(req)
	}
	return nil
}

func (m Model) setPattern(p string) tea.Cmd {
	if m.screen == screenFiles {
		return m.fetchFiles(m.files.SetPattern(p))
	}
	return m.fetchBuckets(m.buckets.SetPattern(p))
}

func (m Model) cycleLimit(dir int) tea.Cmd {
	if m.screen == screenFiles {
		req, err := m.files.SetLimit(nextLimit(m.files.Limits(), m.files.Snapshot().Limit, dir))
		if err != nil {
			return nil
		}
		return m.fetchFiles(req)
	}
	req, err := m.buckets.SetLimit(nextLimit(m.buckets.Limits(), m.buckets.Snapshot().Limit, dir))
	if err != nil {
		return nil
	}
	return m.fetchBuckets(req)
}

// nextLimit returns the page size after current in limits, wrapping around.
// A current size missing from limits moves to the first larger (or smaller)
// choice.
func nextLimit(limits []int, current, dir int) int {
	if len(limits) == 0 {
		return current
	}
	for i, l := range limits {
		if l == current {
			return limits[(i+dir+len(limits))%len(limits)]
		}
	}
	if dir > 0 {
		for _, l := range limits {
			if l > current {
				return l
			}
		}
		return limits[0]
	}
	for i := len(limits) - 1; i >= 0; i-- {
		if limits[i] < current {
			return limits[i]
		}
	}
	return limits[len(limits)-1]
}

func (m Model) pattern() string {
	if m.screen == screenFiles {
		return m.files.Snapshot().Pattern
	}
	return m.buckets.Snapshot().Pattern
}

func (m Model) rows() int {
	if m.screen == screenFiles {
		return len(m.files.Snapshot().Items)
	}
	return len(m.buckets.Snapshot().Items)
}

func (m *Model) clampCursor() {
	if n := m.rows(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

