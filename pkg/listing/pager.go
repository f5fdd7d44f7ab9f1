package listing

import "github.com/sgaunet/s2console/pkg/dto"

// Pager is what the controller exposes to a pager widget.
type Pager struct {
	Total  int
	Limit  int
	Offset int

	// OnOffsetChange moves the controller to newOffset and returns the
	// request to execute.
	OnOffsetChange func(newOffset int) Request
}

// Info derives page numbers and neighbour offsets for rendering.
func (p Pager) Info() dto.PaginationInfo {
	return dto.NewPaginationInfo(int64(p.Total), p.Limit, p.Offset)
}

// Page returns the request for the 1-indexed page n.
func (p Pager) Page(n int) Request {
	if n < 1 {
		n = 1
	}
	return p.OnOffsetChange((n - 1) * p.Limit)
}

// Next returns the request for the following page, or false on the last page.
func (p Pager) Next() (Request, bool) {
	info := p.Info()
	if !info.HasNext {
		return Request{}, false
	}
	return p.OnOffsetChange(info.NextOffset), true
}

// Previous returns the request for the preceding page, or false on the first page.
func (p Pager) Previous() (Request, bool) {
	info := p.Info()
	if !info.HasPrevious {
		return Request{}, false
	}
	return p.OnOffsetChange(info.PreviousOffset), true
}

// First returns the request for the first page.
func (p Pager) First() Request {
	return p.OnOffsetChange(0)
}

// Last returns the request for the last page.
func (p Pager) Last() Request {
	return p.OnOffsetChange(p.Info().LastOffset)
}
