// Package paginate slices ordered record lists into fixed-size pages.
//
// Page resolution is forgiving the way the listing pages need it to be:
// a missing or malformed page parameter means page 1, and a page number past
// the end clamps to the last page instead of erroring.
package paginate

import "strconv"

// Page describes one resolved page of a listing.
type Page struct {
	Number   int // 1-based, after clamping
	NumPages int
	Count    int // total records across all pages
	Offset   int // slice/query offset of the first record on this page
	Limit    int // page size
	HasPrev  bool
	HasNext  bool
}

// Resolve computes the page for a total record count, a page size and the raw
// page query parameter. size must be positive. An empty listing still has one
// (empty) page.
func Resolve(count, size int, rawPage string) Page {
	number := 1
	if n, err := strconv.Atoi(rawPage); err == nil && n > 1 {
		number = n
	}

	numPages := (count + size - 1) / size
	if numPages < 1 {
		numPages = 1
	}
	if number > numPages {
		number = numPages
	}

	return Page{
		Number:   number,
		NumPages: numPages,
		Count:    count,
		Offset:   (number - 1) * size,
		Limit:    size,
		HasPrev:  number > 1,
		HasNext:  number < numPages,
	}
}

// PrevNumber returns the previous page number, for template links.
func (p Page) PrevNumber() int {
	if p.HasPrev {
		return p.Number - 1
	}
	return p.Number
}

// NextNumber returns the next page number, for template links.
func (p Page) NextNumber() int {
	if p.HasNext {
		return p.Number + 1
	}
	return p.Number
}
