package models

import "time"

// Pincode is a postal code within a country; (Pincode, CountryID) is unique.
type Pincode struct {
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	City      *string         `json:"city"`
	State     *string         `json:"state"`
	Latitude  *float64        `json:"latitude"`
	Longitude *float64        `json:"longitude"`
	Country   *CountrySummary `json:"country,omitempty"`
	Meta      JSONMap         `json:"meta,omitempty"`
	Pincode   string          `json:"pincode"`
	ID        int64           `json:"id"`
	CountryID int64           `json:"country_id"`
	Active    bool            `json:"active"`
}
