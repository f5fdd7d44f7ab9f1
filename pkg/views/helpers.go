package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// TimeFormat is the layout of modification times in file tables.
const TimeFormat = "2006-01-02 15:04Z07:00"

// formatAge tells how long ago t was, relative to now. It is empty for the
// zero time.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// formatModTime formats a modification time for the file table.
func formatModTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimeFormat)
}

// formatSize renders a byte count with IEC units (KiB, MiB...).
func formatSize(size int64) string {
	if size < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(size))
}

// esc escapes s for use in HTML text and quoted attributes.
func esc(s string) string {
	return templ.EscapeString(s)
}

// withQuery appends key=value to the action path of a listing view.
func withQuery(action, key string, value int) string {
	return action + "?" + url.Values{key: {strconv.Itoa(value)}}.Encode()
}

// pathURL escapes each segment of p, keeping the slashes.
func pathURL(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// Icon renders an SVG icon from the sprite sheet.
func Icon(name string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<svg class="icon" aria-hidden="true"><use href="/static/icons.svg#%s"></use></svg>`,
			esc(name))
		return err
	})
}

// SkipToContent renders a skip to content link for accessibility.
// The link is visually hidden but becomes visible when focused via keyboard.
func SkipToContent() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprint(w,
			`<a href="#main-content" class="sr-only skip-link">Skip to main content</a>`)
		return err
	})
}

// Alert renders the error banner. Nothing is written for an empty message.
func Alert(message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if message == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div class="alert" role="alert">%s</div>`, esc(message))
		return err
	})
}
