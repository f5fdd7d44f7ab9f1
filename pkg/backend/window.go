package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sgaunet/s2console/pkg/dto"
)

const (
	// DefaultLimit replaces a missing or non-positive page size.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 1000
)

var (
	// ErrInvalidPattern is returned for a pattern doublestar cannot parse.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrNestedPattern is returned for a file pattern with more than one path element.
	ErrNestedPattern = errors.New("file pattern must not contain a path")
)

// normalize clamps the page window of a pagelist request.
func normalize(pr dto.PageRequest) dto.PageRequest {
	if pr.Offset < 0 {
		pr.Offset = 0
	}
	switch {
	case pr.Limit <= 0:
		pr.Limit = DefaultLimit
	case pr.Limit > MaxLimit:
		pr.Limit = MaxLimit
	}
	return pr
}

// paginate returns the window [offset, offset+limit) of items.
func paginate[T any](items []T, offset, limit int) []T {
	down, up := dto.Window(len(items), offset, limit)
	out := make([]T, up-down)
	copy(out, items[down:up])
	return out
}

// bucketPattern turns the user filter into a substring glob.
func bucketPattern(pattern string) (string, error) {
	glob := collapseStars("*" + pattern + "*")
	if !doublestar.ValidatePattern(glob) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return glob, nil
}

// filePattern validates a file filter. An empty filter matches everything.
func filePattern(pattern string) (string, error) {
	if pattern == "" {
		return "*", nil
	}
	if pathLength(pattern) > 1 {
		return "", fmt.Errorf("%w: %q", ErrNestedPattern, pattern)
	}
	if !doublestar.ValidatePattern(pattern) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return pattern, nil
}

// pathLength counts the non-empty elements of a slash separated path.
func pathLength(p string) int {
	n := 0
	for _, e := range strings.Split(p, "/") {
		if e != "" && e != "." {
			n++
		}
	}
	return n
}

// collapseStars folds runs of '*' so that "*" + "*" + "*" stays a single
// segment wildcard and never turns into "**".
func collapseStars(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	prevStar := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '\\' && i+1 < len(p) {
			b.WriteByte(c)
			b.WriteByte(p[i+1])
			i++
			prevStar = false
			continue
		}
		if c == '*' && prevStar {
			continue
		}
		prevStar = c == '*'
		b.WriteByte(c)
	}
	return b.String()
}

func match(glob, name string) bool {
	ok, err := doublestar.Match(glob, name)
	return err == nil && ok
}
