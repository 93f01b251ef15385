package models

import "time"

// Country is keyed by its upper-cased ISO 3166-1 alpha-2 code.
// Nullable columns use pointers to distinguish between zero values and NULL.
type Country struct {
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	ISO3       *string          `json:"iso3"`
	CurrencyID *int64           `json:"currency_id"`
	Timezone   *string          `json:"timezone"`
	Locale     *string          `json:"locale"`
	Currency   *CurrencySummary `json:"currency,omitempty"`
	TaxRules   JSONMap          `json:"tax_rules,omitempty"`
	Meta       JSONMap          `json:"meta,omitempty"`
	Name       string           `json:"name"`
	ISO2       string           `json:"iso2"`
	ID         int64            `json:"id"`
	Active     bool             `json:"active"`
}

// CountrySummary is the slice of a country embedded in pincode listings.
type CountrySummary struct {
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
	ID   int64  `json:"id"`
}
