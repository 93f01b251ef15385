package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/stwalsh4118/laundry/api/internal/models"
)

// Meta keys written for every pincode.
const (
	MetaOfficeName     = "office_name"
	MetaOfficeType     = "office_type"
	MetaDeliveryStatus = "delivery_status"
	MetaDivision       = "division"
	MetaRegion         = "region"
	MetaCircle         = "circle"
)

// PincodeAliases lists, per logical field, the lower-cased source column
// names accepted for it. The first alias present in a record wins.
type PincodeAliases struct {
	Pincode        []string
	OfficeName     []string
	District       []string
	State          []string
	Division       []string
	Region         []string
	Circle         []string
	OfficeType     []string
	DeliveryStatus []string
	Latitude       []string
	Longitude      []string
}

// CSVAliases covers the column spellings seen in government CSV exports.
var CSVAliases = PincodeAliases{
	Pincode:        []string{"pincode", "pin", "postalcode", "postoffice", "post_office"},
	OfficeName:     []string{"officename", "office_name"},
	District:       []string{"districtname", "district", "district_name"},
	State:          []string{"statename", "state", "state_name"},
	Division:       []string{"divisionname", "division", "division_name"},
	Region:         []string{"regionname", "region", "region_name"},
	Circle:         []string{"circlename", "circle", "circle_name"},
	OfficeType:     []string{"officetype", "office_type", "type"},
	DeliveryStatus: []string{"deliverystatus", "delivery"},
	Latitude:       []string{"latitude", "lat"},
	Longitude:      []string{"longitude", "lon", "lng"},
}

// APIAliases covers the field names of the data.gov.in pincode resource.
var APIAliases = PincodeAliases{
	Pincode:        []string{"pincode", "pin"},
	OfficeName:     []string{"officename"},
	District:       []string{"districtname", "district"},
	State:          []string{"statename", "state"},
	Division:       []string{"divisionname"},
	Region:         []string{"regionname"},
	Circle:         []string{"circlename"},
	OfficeType:     []string{"officetype"},
	DeliveryStatus: []string{"deliverystatus", "delivery"},
	Latitude:       []string{"latitude", "lat"},
	Longitude:      []string{"longitude", "lng", "lon"},
}

// HasPincode reports whether header contains any pincode alias.
func (a PincodeAliases) HasPincode(header []string) bool {
	for _, h := range header {
		for _, alias := range a.Pincode {
			if h == alias {
				return true
			}
		}
	}
	return false
}

// NormalizePincode maps a record with lower-cased keys onto a canonical row.
// A record without a pincode returns ErrUnusableRecord.
func NormalizePincode(record map[string]string, aliases PincodeAliases) (models.PincodeRow, error) {
	pincode := strings.TrimSpace(lookup(record, aliases.Pincode))
	if pincode == "" {
		return models.PincodeRow{}, fmt.Errorf("%w: no pincode", ErrUnusableRecord)
	}

	row := models.PincodeRow{
		Pincode: pincode,
		City:    optional(lookup(record, aliases.District)),
		State:   optional(lookup(record, aliases.State)),
		Meta: models.JSONMap{
			MetaOfficeName:     nullable(lookup(record, aliases.OfficeName)),
			MetaOfficeType:     nullable(lookup(record, aliases.OfficeType)),
			MetaDeliveryStatus: nullable(lookup(record, aliases.DeliveryStatus)),
			MetaDivision:       nullable(lookup(record, aliases.Division)),
			MetaRegion:         nullable(lookup(record, aliases.Region)),
			MetaCircle:         nullable(lookup(record, aliases.Circle)),
		},
	}

	lat := ParseCoordinate(lookup(record, aliases.Latitude))
	lng := ParseCoordinate(lookup(record, aliases.Longitude))
	if lat != nil && lng != nil && models.ValidLatitude(*lat) && models.ValidLongitude(*lng) {
		row.Latitude, row.Longitude = lat, lng
	}

	return row, nil
}

// ParseCoordinate returns nil for empty, "NA", "N/A", non-numeric and
// non-finite values.
func ParseCoordinate(v string) *float64 {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "na") || strings.EqualFold(v, "n/a") {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func lookup(record map[string]string, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := record[alias]; ok {
			return v
		}
	}
	return ""
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func nullable(v string) interface{} {
	if p := optional(v); p != nil {
		return *p
	}
	return nil
}
