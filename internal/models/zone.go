package models

import "time"

// Zone is a named delivery region. Zones are soft-deleted via DeletedAt.
type Zone struct {
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CountryID     *int64     `json:"country_id"`
	Lat           *float64   `json:"lat"`
	Lng           *float64   `json:"lng"`
	RadiusKM      *float64   `json:"radius_km"`
	LaunchDate    *time.Time `json:"launch_date"`
	CapacityLimit *int32     `json:"capacity_limit"`
	DeletedAt     *time.Time `json:"-"`
	Meta          JSONMap    `json:"meta,omitempty"`
	Name          string     `json:"name"`
	Code          string     `json:"code"`
	PincodeIDs    []int64    `json:"pincode_ids,omitempty"`
	ID            int64      `json:"id"`
	Active        bool       `json:"active"`
}

// IsLaunched reports whether the zone has no launch date or it has passed.
func (z Zone) IsLaunched(now time.Time) bool {
	return z.LaunchDate == nil || !z.LaunchDate.After(now)
}
