package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

// Country adapter names.
const (
	AdapterRestCountriesV3 = "restcountries-v3.1"
	AdapterRestCountriesV2 = "restcountries-v2"
)

var validate = validator.New()

// CountryAdapter maps one raw country record of a known upstream shape onto
// the canonical row. Records that cannot be mapped return ErrUnusableRecord.
type CountryAdapter interface {
	Name() string
	Normalize(raw json.RawMessage) (models.CountryRow, error)
}

// countryShape lists, per field, the upstream keys an adapter reads in order.
type countryShape struct {
	name          string
	iso2Keys      []string
	iso3Keys      []string
	currencyFirst currencyForm
}

type currencyForm int

const (
	currencyMap currencyForm = iota
	currencyList
)

// RestCountriesV3 reads the v3.1 shape: nested names, currencies keyed by code.
func RestCountriesV3() CountryAdapter {
	return countryShape{
		name:          AdapterRestCountriesV3,
		iso2Keys:      []string{"cca2", "alpha2Code"},
		iso3Keys:      []string{"cca3", "alpha3Code"},
		currencyFirst: currencyMap,
	}
}

// RestCountriesV2 reads the legacy v2 shape: plain names, currency lists.
func RestCountriesV2() CountryAdapter {
	return countryShape{
		name:          AdapterRestCountriesV2,
		iso2Keys:      []string{"alpha2Code", "cca2"},
		iso3Keys:      []string{"alpha3Code", "cca3"},
		currencyFirst: currencyList,
	}
}

func (s countryShape) Name() string { return s.name }

func (s countryShape) Normalize(raw json.RawMessage) (models.CountryRow, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.CountryRow{}, fmt.Errorf("%w: not an object: %v", ErrUnusableRecord, err)
	}

	row := models.CountryRow{
		ISO2: strings.ToUpper(firstString(fields, s.iso2Keys...)),
		ISO3: strings.ToUpper(firstString(fields, s.iso3Keys...)),
		Name: countryName(fields),
	}
	if row.ISO2 == "" || row.ISO3 == "" || row.Name == "" {
		return models.CountryRow{}, fmt.Errorf("%w: missing iso2, iso3 or name", ErrUnusableRecord)
	}
	if err := validate.Struct(row); err != nil {
		return models.CountryRow{}, fmt.Errorf("%w: %s: %v", ErrUnusableRecord, row.ISO2, err)
	}

	row.Currency = s.currency(fields["currencies"])
	if tz := firstTimezone(fields["timezones"]); tz != "" {
		row.Timezone = &tz
	}
	row.Locale = locale(fields)
	row.Meta = models.JSONMap{
		"flag":      flag(fields),
		"region":    nullableString(fields, "region"),
		"subregion": nullableString(fields, "subregion"),
	}

	return row, nil
}

func (s countryShape) currency(raw json.RawMessage) *models.CurrencyRow {
	readers := []func(json.RawMessage) *models.CurrencyRow{firstMappedCurrency, firstListedCurrency}
	if s.currencyFirst == currencyList {
		readers[0], readers[1] = readers[1], readers[0]
	}
	for _, read := range readers {
		if c := read(raw); c != nil {
			if err := validate.Struct(c); err != nil {
				return nil
			}
			return c
		}
	}
	return nil
}

// firstMappedCurrency reads {"INR": {...}, ...} and returns the first entry in
// document order.
func firstMappedCurrency(raw json.RawMessage) *models.CurrencyRow {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	if !dec.More() {
		return nil
	}
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	code, ok := tok.(string)
	if !ok || strings.TrimSpace(code) == "" {
		return nil
	}
	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil {
		return nil
	}
	return currencyRow(code, body)
}

// firstListedCurrency reads [{"code": "INR", ...}, ...]. Only the first element
// is considered.
func firstListedCurrency(raw json.RawMessage) *models.CurrencyRow {
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return nil
	}
	code, _ := list[0]["code"].(string)
	if strings.TrimSpace(code) == "" {
		return nil
	}
	return currencyRow(code, list[0])
}

func currencyRow(code string, body map[string]interface{}) *models.CurrencyRow {
	code = strings.ToUpper(strings.TrimSpace(code))
	row := &models.CurrencyRow{Code: code, Name: code, Meta: models.JSONMap(body)}
	for _, key := range []string{"name", "fullName"} {
		if name, _ := body[key].(string); strings.TrimSpace(name) != "" {
			row.Name = strings.TrimSpace(name)
			break
		}
	}
	if symbol, _ := body["symbol"].(string); symbol != "" {
		row.Symbol = &symbol
	}
	return row
}

// countryName prefers name.common, then a plain string name, then the English
// translation.
func countryName(fields map[string]json.RawMessage) string {
	var nested struct {
		Common string `json:"common"`
	}
	if json.Unmarshal(fields["name"], &nested) == nil && strings.TrimSpace(nested.Common) != "" {
		return strings.TrimSpace(nested.Common)
	}
	if name := firstString(fields, "name"); name != "" {
		return name
	}
	var translations map[string]struct {
		Common string `json:"common"`
	}
	if json.Unmarshal(fields["translations"], &translations) == nil {
		return strings.TrimSpace(translations["eng"].Common)
	}
	return ""
}

func firstTimezone(raw json.RawMessage) string {
	var zones []string
	if err := json.Unmarshal(raw, &zones); err != nil || len(zones) == 0 {
		return ""
	}
	return strings.TrimSpace(zones[0])
}

// locale keeps the languages payload verbatim, falling back to a legacy
// locale value.
func locale(fields map[string]json.RawMessage) *string {
	if raw, ok := present(fields, "languages"); ok {
		s := compact(raw)
		return &s
	}
	raw, ok := present(fields, "locale")
	if !ok {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return &s
	}
	s = compact(raw)
	return &s
}

func flag(fields map[string]json.RawMessage) interface{} {
	var flags struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	}
	if json.Unmarshal(fields["flags"], &flags) == nil {
		if flags.PNG != "" {
			return flags.PNG
		}
		if flags.SVG != "" {
			return flags.SVG
		}
	}
	return nullableString(fields, "flag")
}

// present returns the raw value of key unless it is absent or JSON null.
func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// firstString returns the first non-empty string value among keys.
func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		var s string
		if json.Unmarshal(fields[key], &s) == nil && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func nullableString(fields map[string]json.RawMessage, key string) interface{} {
	if s := firstString(fields, key); s != "" {
		return s
	}
	return nil
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
