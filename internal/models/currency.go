package models

import "time"

// Currency is an ISO 4217 currency referenced by countries.
type Currency struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Symbol    *string   `json:"symbol"`
	Meta      JSONMap   `json:"meta,omitempty"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	Decimals  int16     `json:"decimals"`
	Active    bool      `json:"active"`
}

// CurrencySummary is the slice of a currency embedded in country listings.
type CurrencySummary struct {
	Symbol *string `json:"symbol"`
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	ID     int64   `json:"id"`
}
