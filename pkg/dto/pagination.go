package dto

// PaginationInfo holds pager metadata derived from an offset/limit window.
// Page numbers are 1-indexed, offsets and indexes are 0-indexed.
type PaginationInfo struct {
	// CurrentPage is the page containing Offset (1-indexed), capped at TotalPages.
	CurrentPage int `json:"currentPage"`

	// TotalPages is the number of pages needed for TotalItems. Never less than 1.
	TotalPages int `json:"totalPages"`

	// TotalItems is the total number of items matching the filter.
	TotalItems int64 `json:"totalItems"`

	// PageSize is the maximum number of items per page.
	PageSize int `json:"pageSize"`

	// Offset is the window start as reported by the server.
	Offset int `json:"offset"`

	// HasPrevious indicates if there is a previous page available.
	HasPrevious bool `json:"hasPrevious"`

	// HasNext indicates if there is a next page available.
	HasNext bool `json:"hasNext"`

	// PreviousOffset is the offset of the previous page (0 on the first page).
	PreviousOffset int `json:"previousOffset"`

	// NextOffset is the offset of the next page (Offset when there is none).
	NextOffset int `json:"nextOffset"`

	// LastOffset is the offset of the last page.
	LastOffset int `json:"lastOffset"`

	// StartIndex is the 0-indexed position of the first item of the window,
	// clamped to TotalItems.
	StartIndex int `json:"startIndex"`

	// EndIndex is the exclusive end of the window, clamped to TotalItems.
	// Use it with StartIndex like items[StartIndex:EndIndex].
	EndIndex int `json:"endIndex"`
}

// NewPaginationInfo creates a PaginationInfo and calculates all derived fields.
// Parameters:
//   - totalItems: Total number of items across all pages
//   - pageSize: Maximum number of items per page
//   - offset: Window start (0-indexed)
//
// Special cases: when totalItems is 0, totalPages is 1; a non-positive pageSize
// is treated as a single page holding everything.
func NewPaginationInfo(totalItems int64, pageSize, offset int) PaginationInfo {
	if offset < 0 {
		offset = 0
	}

	totalPages := 1
	if totalItems > 0 && pageSize > 0 {
		totalPages = int(totalItems / int64(pageSize))
		if totalItems%int64(pageSize) != 0 {
			totalPages++
		}
	}

	currentPage := 1
	if pageSize > 0 {
		currentPage = offset/pageSize + 1
	}
	if currentPage > totalPages {
		currentPage = totalPages
	}

	lastOffset := 0
	if pageSize > 0 {
		lastOffset = (totalPages - 1) * pageSize
	}

	previousOffset := 0
	if pageSize > 0 && offset > pageSize {
		previousOffset = offset - pageSize
	}

	// Compared without adding to offset, which may be close to MaxInt.
	hasNext := pageSize > 0 && int64(offset) < totalItems-int64(pageSize)
	nextOffset := offset
	if hasNext {
		nextOffset = offset + pageSize
	}

	startIndex := int(min(int64(offset), totalItems))
	endIndex := int(totalItems)
	if pageSize > 0 {
		endIndex = startIndex + int(min(int64(pageSize), totalItems-int64(startIndex)))
	}

	return PaginationInfo{
		CurrentPage:    currentPage,
		TotalPages:     totalPages,
		TotalItems:     totalItems,
		PageSize:       pageSize,
		Offset:         offset,
		HasPrevious:    offset > 0,
		HasNext:        hasNext,
		PreviousOffset: previousOffset,
		NextOffset:     nextOffset,
		LastOffset:     lastOffset,
		StartIndex:     startIndex,
		EndIndex:       endIndex,
	}
}

// Window clamps an offset/limit request against a list of n items and
// returns the slice bounds [down, up).
func Window(n, offset, limit int) (down, up int) {
	down = max(offset, 0)
	down = min(down, n)
	up = down + min(max(limit, 0), n-down)
	return down, up
}
