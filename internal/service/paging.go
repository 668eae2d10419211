package service

import (
	"errors"
	"math"
)

// Pagination defaults for task listings.
const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ErrPageTooLarge is returned when a page number would overflow the row
// offset.
var ErrPageTooLarge = errors.New("page is too large")

// pageWindow normalizes a 1-based page and a limit and returns the row
// offset of the page.
func pageWindow(page, limit int) (normPage, normLimit, offset int, err error) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageLimit
	case limit > MaxPageLimit:
		limit = MaxPageLimit
	}
	if page-1 > math.MaxInt/limit {
		return 0, 0, 0, invalidInput(ErrPageTooLarge)
	}
	return page, limit, (page - 1) * limit, nil
}
