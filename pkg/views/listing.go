package views

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/sgaunet/s2console/pkg/dto"
	"github.com/sgaunet/s2console/pkg/listing"
)

// ListingPage is the data of a bucket or file listing view. Action is the
// path of the view; every control submits back to it.
type ListingPage[T any] struct {
	Title  string
	User   string
	Action string
	Limits []int
	State  listing.State[T]
}

// Info returns the pager metadata of the current state.
func (p ListingPage[T]) Info() dto.PaginationInfo {
	return dto.NewPaginationInfo(int64(p.State.Total), p.State.Limit, p.State.Offset)
}

// FilterBox renders the pattern input and the number of matches.
func FilterBox(action, pattern string, total int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<form class="filter" method="get" action="%s" role="search">
				<label for="pattern">%s <span class="sr-only">Filter</span></label>
				<input type="text" id="pattern" name="pattern" value="%s" placeholder="Filter">
				<button type="submit">Apply</button>
				<span class="muted">%d matching</span>
			</form>`,
			esc(action), renderString(ctx, Icon("search")), esc(pattern), total)
		return err
	})
}

// LimitSelector renders the page size choices. The current limit is selected
// even when it is not one of the choices.
func LimitSelector(action string, limits []int, current int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<form class="limit" method="get" action="%s">
				<label for="limit">Rows</label>
				<select id="limit" name="limit" onchange="this.form.submit()">`,
			esc(action)); err != nil {
			return err
		}
		found := false
		for _, l := range limits {
			selected := ""
			if l == current {
				selected = " selected"
				found = true
			}
			if _, err := fmt.Fprintf(w, `<option value="%d"%s>%d</option>`, l, selected, l); err != nil {
				return err
			}
		}
		if !found && current > 0 {
			if _, err := fmt.Fprintf(w, `<option value="%d" selected>%d</option>`, current, current); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(w, `</select><noscript><button type="submit">Set</button></noscript></form>`)
		return err
	})
}

// Pagination renders previous/next links around the page numbers. Pages far
// from the current one are elided.
func Pagination(action string, info dto.PaginationInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if info.TotalPages <= 1 {
			return nil
		}
		if _, err := fmt.Fprint(w, `<nav class="pager" aria-label="Pagination">`); err != nil {
			return err
		}

		if info.HasPrevious {
			if _, err := fmt.Fprintf(w, `<a href="%s" rel="prev">%s<span class="sr-only">Previous</span></a>`,
				esc(withQuery(action, "offset", info.PreviousOffset)), renderString(ctx, Icon("chevron-left"))); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, `<span class="disabled">%s</span>`, renderString(ctx, Icon("chevron-left"))); err != nil {
				return err
			}
		}

		for _, n := range pageNumbers(info.CurrentPage, info.TotalPages) {
			var err error
			switch {
			case n == 0:
				_, err = fmt.Fprint(w, `<span class="disabled">&hellip;</span>`)
			case n == info.CurrentPage:
				_, err = fmt.Fprintf(w, `<span class="current" aria-current="page">%d</span>`, n)
			default:
				_, err = fmt.Fprintf(w, `<a href="%s">%d</a>`,
					esc(withQuery(action, "offset", (n-1)*info.PageSize)), n)
			}
			if err != nil {
				return err
			}
		}

		if info.HasNext {
			if _, err := fmt.Fprintf(w, `<a href="%s" rel="next">%s<span class="sr-only">Next</span></a>`,
				esc(withQuery(action, "offset", info.NextOffset)), renderString(ctx, Icon("chevron-right"))); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintf(w, `<span class="disabled">%s</span>`, renderString(ctx, Icon("chevron-right"))); err != nil {
				return err
			}
		}

		_, err := fmt.Fprint(w, `</nav>`)
		return err
	})
}

// pageNumbers lists the pages to link to. Zero marks a gap.
func pageNumbers(current, total int) []int {
	const around = 2
	pages := make([]int, 0, 2*around+5)
	last := 0
	for n := 1; n <= total; n++ {
		if n != 1 && n != total && (n < current-around || n > current+around) {
			continue
		}
		if last != 0 && n > last+1 {
			pages = append(pages, 0)
		}
		pages = append(pages, n)
		last = n
	}
	return pages
}

// BucketTable renders one page of buckets. Rows are numbered from start+1.
func BucketTable(buckets []dto.Bucket, start int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprint(w,
			`<table><thead><tr><th class="num">#</th><th>Name</th><th class="num">Size</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for i, b := range buckets {
			if _, err := fmt.Fprintf(w,
				`<tr><td class="num">%d</td><td>%s <a href="%s">%s</a></td><td class="num">%s</td></tr>`,
				start+i+1, renderString(ctx, Icon("folder")), esc(pathURL("/files/"+b.Name)), esc(b.Name), formatSize(b.Size)); err != nil {
				return err
			}
		}
		if len(buckets) == 0 {
			if _, err := fmt.Fprint(w, `<tr><td colspan="3" class="muted">No bucket</td></tr>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(w, `</tbody></table>`)
		return err
	})
}

// FileTable renders one page of files. Rows are numbered from start+1.
func FileTable(files []dto.File, start int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprint(w,
			`<table><thead><tr><th class="num">#</th><th>Name</th><th class="num">Size</th><th>Modified</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for i, f := range files {
			if _, err := fmt.Fprintf(w,
				`<tr><td class="num">%d</td><td>%s %s</td><td class="num">%s</td><td title="%s">%s</td></tr>`,
				start+i+1, renderString(ctx, Icon("file")), esc(f.Name), formatSize(f.Size),
				esc(formatAge(f.ModTime, time.Now())), esc(formatModTime(f.ModTime))); err != nil {
				return err
			}
		}
		if len(files) == 0 {
			if _, err := fmt.Fprint(w, `<tr><td colspan="4" class="muted">No file</td></tr>`); err != nil {
				return err
			}
		}
		_, err := fmt.Fprint(w, `</tbody></table>`)
		return err
	})
}

// BucketsPage renders the bucket listing view.
func BucketsPage(p ListingPage[dto.Bucket]) templ.Component {
	return Layout(p.Title, p.User, listingBody(p, BucketTable(p.State.Items, p.State.Offset)))
}

// FilesPage renders the file listing view of one bucket.
func FilesPage(p ListingPage[dto.File]) templ.Component {
	return Layout(p.Title, p.User, listingBody(p, FileTable(p.State.Items, p.State.Offset)))
}

func listingBody[T any](p ListingPage[T], table templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "card"
		if p.State.Status == listing.StatusLoading {
			class += " loading"
		}
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`, esc(p.Title)); err != nil {
			return err
		}
		if err := Alert(p.State.ErrorMessage).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<section class="%s" data-status="%s"><div class="toolbar">`,
			class, p.State.Status); err != nil {
			return err
		}
		if err := FilterBox(p.Action, p.State.Pattern, p.State.Total).Render(ctx, w); err != nil {
			return err
		}
		if err := LimitSelector(p.Action, p.Limits, p.State.Limit).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<a href="%s" title="Refresh">%s<span class="sr-only">Refresh</span></a></div>`,
			esc(p.Action+"?refresh=1"), renderString(ctx, Icon("refresh"))); err != nil {
			return err
		}
		if err := table.Render(ctx, w); err != nil {
			return err
		}
		if err := Pagination(p.Action, p.Info()).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, `</section>`)
		return err
	})
}
