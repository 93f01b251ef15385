package importer

import "errors"

// Importer errors. Callers test with errors.Is.
var (
	// ErrAllEndpointsFailed means no country endpoint produced a usable payload.
	ErrAllEndpointsFailed = errors.New("all country endpoints failed")

	// ErrMissingConfig means a required option such as the API URL is empty.
	ErrMissingConfig = errors.New("missing required configuration")

	// ErrCountryNotFound means the country pincodes attach to has not been imported.
	ErrCountryNotFound = errors.New("country not found")

	// ErrUpstream means a remote source answered with a non-success status
	// or a body that could not be decoded.
	ErrUpstream = errors.New("upstream returned an unusable response")

	// ErrInvalidHeader means a CSV source has no usable header row.
	ErrInvalidHeader = errors.New("invalid csv header")

	// ErrSourceNotFound means the local CSV file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrUnusableRecord marks a raw record that cannot be normalized. It is
	// counted as skipped and never fails a run.
	ErrUnusableRecord = errors.New("unusable record")
)
