package models

import "strings"

// CurrencyRow is the canonical currency produced by the importer.
type CurrencyRow struct {
	Symbol *string
	Meta   JSONMap
	Code   string `validate:"len=3,alpha"`
	Name   string `validate:"required,max=255"`
}

// CountryRow is the canonical country produced by the importer, whatever the
// upstream shape. Currency is written first and referenced by id.
type CountryRow struct {
	Currency *CurrencyRow
	Timezone *string
	Locale   *string
	Meta     JSONMap
	ISO2     string `validate:"len=2,alpha"`
	ISO3     string `validate:"len=3,alpha"`
	Name     string `validate:"required,max=255"`
}

// PincodeRow is the canonical pincode produced by the importer. Latitude and
// Longitude are either both set or both nil.
type PincodeRow struct {
	City      *string
	State     *string
	Latitude  *float64
	Longitude *float64
	Meta      JSONMap
	Pincode   string
}

// Key returns the natural key of the row within a single country.
func (r PincodeRow) Key() string {
	return strings.TrimSpace(r.Pincode)
}
