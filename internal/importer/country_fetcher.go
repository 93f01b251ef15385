package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stwalsh4118/laundry/api/internal/logger"
)

// CountrySource is one candidate country endpoint and the adapter that reads it.
type CountrySource struct {
	Adapter CountryAdapter
	URL     string
}

// DefaultCountrySources returns the REST Countries endpoints in preference order.
func DefaultCountrySources() []CountrySource {
	return []CountrySource{
		{
			URL:     "https://restcountries.com/v3.1/all?fields=name,cca2,cca3,currencies,timezones,flags,latlng,region,subregion,languages",
			Adapter: RestCountriesV3(),
		},
		{
			URL:     "https://restcountries.com/v2/all?fields=name,alpha2Code,alpha3Code,currencies,timezones,flag,latlng,region,subregion,languages",
			Adapter: RestCountriesV2(),
		},
	}
}

// CountryPayload is the decoded response of the endpoint that succeeded.
type CountryPayload struct {
	Source  CountrySource
	Records []json.RawMessage
}

// CountryFetcher tries each source in order and keeps the first usable payload.
type CountryFetcher struct {
	client    *http.Client
	log       *logger.Logger
	userAgent string
	sources   []CountrySource
}

// NewCountryFetcher creates a fetcher over sources. client carries the
// per-request timeout.
func NewCountryFetcher(client *http.Client, userAgent string, sources []CountrySource, log *logger.Logger) *CountryFetcher {
	return &CountryFetcher{
		client:    client,
		userAgent: userAgent,
		sources:   sources,
		log:       log,
	}
}

// Fetch returns the first payload that has a 2xx status, a JSON content type
// and a JSON array body. Every request is recorded in the returned attempts.
// When no source qualifies the error wraps ErrAllEndpointsFailed.
func (f *CountryFetcher) Fetch(ctx context.Context) (*CountryPayload, []Attempt, error) {
	attempts := make([]Attempt, 0, len(f.sources))
	header := http.Header{
		"Accept":     []string{"application/json"},
		"User-Agent": []string{f.userAgent},
	}

	for _, src := range f.sources {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}

		attempt := Attempt{Source: src.Adapter.Name(), URL: src.URL}
		res, err := get(ctx, f.client, src.URL, header)
		if err != nil {
			attempt.Err = err
			attempts = append(attempts, attempt)
			f.log.Error("Country endpoint request failed", err, attempt.Fields())
			continue
		}

		attempt.Status = res.status
		attempt.BodySnippet = snippet(res.body)

		if !res.ok() || !res.hasContentType("application/json") {
			attempt.Err = fmt.Errorf("%w: status %d, content type %q", ErrUpstream, res.status, res.contentType)
			attempts = append(attempts, attempt)
			f.log.Warn("Country endpoint returned unexpected response", attempt.Fields())
			continue
		}

		var records []json.RawMessage
		if err := json.Unmarshal(res.body, &records); err != nil {
			attempt.Err = fmt.Errorf("%w: body is not a JSON array: %v", ErrUpstream, err)
			attempts = append(attempts, attempt)
			f.log.Warn("Country endpoint returned undecodable body", attempt.Fields())
			continue
		}

		attempts = append(attempts, attempt)
		f.log.Info("Country endpoint OK", logger.Fields{
			"source":  attempt.Source,
			"url":     attempt.URL,
			"status":  attempt.Status,
			"records": len(records),
		})
		return &CountryPayload{Source: src, Records: records}, attempts, nil
	}

	if len(attempts) == 0 {
		return nil, attempts, fmt.Errorf("%w: no endpoints configured", ErrAllEndpointsFailed)
	}
	last := attempts[len(attempts)-1]
	return nil, attempts, fmt.Errorf("%w: last attempt %s status %d: %v",
		ErrAllEndpointsFailed, last.URL, last.Status, last.Err)
}
