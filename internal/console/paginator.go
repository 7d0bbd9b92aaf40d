package console

// Page sizes used by the admin screens.
const (
	DefaultPageSize = 20
	ActionLogSize   = 50
)

// Page tracks the current page of a fixed-size paginated collection.
type Page struct {
	Index      int
	Size       int
	TotalCount int
}

// NewPage returns page 1 of an empty collection.
func NewPage(size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Page{Index: 1, Size: size}
}

// TotalPages is ceil(TotalCount/Size), never less than 1.
func (p Page) TotalPages() int {
	if p.Size <= 0 || p.TotalCount <= 0 {
		return 1
	}
	return (p.TotalCount + p.Size - 1) / p.Size
}

// SetPage moves to n clamped to [1, TotalPages].
func (p Page) SetPage(n int) Page {
	if n < 1 {
		n = 1
	}
	if last := p.TotalPages(); n > last {
		n = last
	}
	p.Index = n
	return p
}

// Next moves forward one page, stopping at the last.
func (p Page) Next() Page { return p.SetPage(p.Index + 1) }

// Prev moves back one page, stopping at the first.
func (p Page) Prev() Page { return p.SetPage(p.Index - 1) }

// OnFilterChanged returns to the first page.
func (p Page) OnFilterChanged() Page {
	p.Index = 1
	return p
}

// OnFetchSucceeded records the server's total. When the current page no
// longer exists it clamps down and reports that the page must be re-fetched.
func (p Page) OnFetchSucceeded(count int) (Page, bool) {
	if count < 0 {
		count = 0
	}
	p.TotalCount = count
	if last := p.TotalPages(); p.Index > last {
		p.Index = last
		return p, true
	}
	return p, false
}

// Range returns the 1-based positions of the first and last rows shown.
func (p Page) Range(rows int) (first, last int) {
	if rows <= 0 {
		return 0, 0
	}
	first = (p.Index-1)*p.Size + 1
	return first, first + rows - 1
}
