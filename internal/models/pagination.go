package models

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Normalize applies the default page and size and clamps the size to max.
func (p *Pagination) Normalize(defaultSize, max int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultSize
	}
	if max > 0 && p.PageSize > max {
		p.PageSize = max
	}
}

// Window returns the [start, end) slice bounds for a collection of n items.
func (p Pagination) Window(n int) (int, int) {
	start := (p.Page - 1) * p.PageSize
	if start > n {
		start = n
	}
	end := start + p.PageSize
	if end > n {
		end = n
	}
	return start, end
}
