package services

import (
	"errors"

	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// Service-level errors
var (
	ErrCountryNotFound    = errors.New("country not found")
	ErrCurrencyNotFound   = errors.New("currency not found")
	ErrPincodeNotFound    = errors.New("pincode not found")
	ErrZoneNotFound       = errors.New("zone not found")
	ErrDuplicateCountry   = errors.New("a country with this iso2 code already exists")
	ErrDuplicatePincode   = errors.New("pincode already exists for this country")
	ErrDuplicateZoneCode  = errors.New("zone code already exists")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidZoneCode    = errors.New("zone code must contain at least one letter or digit")
	ErrSyncUnavailable    = errors.New("sync is temporarily unavailable")
)

// Page is one page of a list result.
type Page[T any] struct {
	Items   []T
	Total   int64
	Page    int
	PerPage int
}

// LastPage returns the number of the final page, at least 1.
func (p Page[T]) LastPage() int {
	if p.PerPage < 1 || p.Total == 0 {
		return 1
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func newPage[T any](items []T, total int64, params repository.ListParams) Page[T] {
	return Page[T]{Items: items, Total: total, Page: params.Page, PerPage: params.PerPage}
}
