package view

// PrevPage returns the page before page, clamped at 1.
func PrevPage(page int) int {
	if page > 1 {
		return page - 1
	}
	return 1
}

// NextPage returns the page after page, clamped at totalPages.
// With no pages at all it stays on 1.
func NextPage(page, totalPages int) int {
	if page < totalPages {
		return page + 1
	}
	return max(totalPages, 1)
}

// HasPrev reports whether a Prev control should be enabled.
func HasPrev(page int) bool {
	return page > 1
}

// HasNext reports whether a Next control should be enabled.
func HasNext(page, totalPages int) bool {
	return page < totalPages
}
