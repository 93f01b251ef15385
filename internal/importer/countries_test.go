package importer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

func newCountryServer(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "test-agent/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestFetcher(sources ...CountrySource) *CountryFetcher {
	return NewCountryFetcher(&http.Client{Timeout: 5 * time.Second}, "test-agent/1.0", sources, logger.Nop())
}

func TestCountryFetcher_FallsBackToSecondEndpoint(t *testing.T) {
	// Arrange
	primary := newCountryServer(t, http.StatusServiceUnavailable, "text/html", "<html>"+strings.Repeat("x", 500)+"</html>")
	secondary := newCountryServer(t, http.StatusOK, "application/json; charset=utf-8", "["+v2India+"]")
	fetcher := newTestFetcher(
		CountrySource{URL: primary.URL, Adapter: RestCountriesV3()},
		CountrySource{URL: secondary.URL, Adapter: RestCountriesV2()},
	)

	// Act
	payload, attempts, err := fetcher.Fetch(context.Background())

	// Assert
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, AdapterRestCountriesV2, payload.Source.Adapter.Name())
	assert.Len(t, payload.Records, 1)

	require.Len(t, attempts, 2)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].Status)
	assert.ErrorIs(t, attempts[0].Err, ErrUpstream)
	assert.Len(t, attempts[0].BodySnippet, bodySnippetLimit)
	assert.NoError(t, attempts[1].Err)
}

func TestCountryFetcher_RejectsNonJSONContentType(t *testing.T) {
	srv := newCountryServer(t, http.StatusOK, "text/plain", "["+v3India+"]")
	fetcher := newTestFetcher(CountrySource{URL: srv.URL, Adapter: RestCountriesV3()})

	payload, attempts, err := fetcher.Fetch(context.Background())

	assert.Nil(t, payload)
	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	require.Len(t, attempts, 1)
	assert.Equal(t, http.StatusOK, attempts[0].Status)
}

func TestCountryFetcher_RejectsNonArrayBody(t *testing.T) {
	srv := newCountryServer(t, http.StatusOK, "application/json", `{"status":404,"message":"Not Found"}`)
	fetcher := newTestFetcher(CountrySource{URL: srv.URL, Adapter: RestCountriesV3()})

	_, _, err := fetcher.Fetch(context.Background())

	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
}

func TestCountryFetcher_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	fetcher := newTestFetcher(CountrySource{URL: url, Adapter: RestCountriesV3()})

	_, attempts, err := fetcher.Fetch(context.Background())

	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	require.Len(t, attempts, 1)
	assert.Error(t, attempts[0].Err)
	assert.Zero(t, attempts[0].Status)
}

func TestCountryImporter_WritesCurrencyBeforeCountry(t *testing.T) {
	// Arrange
	body := "[" + v3India + `, {"name": {"common": "Nowhere"}, "cca3": "NOW"}]`
	srv := newCountryServer(t, http.StatusOK, "application/json", body)
	repo := new(MockImportRepository)

	var order []string
	repo.On("InTx", mock.Anything).Once()
	repo.On("UpsertCurrency", mock.Anything, mock.MatchedBy(func(c models.CurrencyRow) bool { return c.Code == "INR" })).
		Run(func(mock.Arguments) { order = append(order, "currency") }).
		Return(int64(7), nil).Once()
	repo.On("UpsertCountry", mock.Anything, mock.MatchedBy(func(c models.CountryRow) bool { return c.ISO2 == "IN" }), int64Ptr(7)).
		Run(func(mock.Arguments) { order = append(order, "country") }).
		Return(int64(1), nil).Once()

	imp := NewCountryImporter(newTestFetcher(CountrySource{URL: srv.URL, Adapter: RestCountriesV3()}), repo, nil, logger.Nop())

	// Act
	summary, err := imp.Run(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"currency", "country"}, order)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, AdapterRestCountriesV3, summary.Endpoint)
	repo.AssertExpectations(t)
}

func TestCountryImporter_WriteErrorFailsRun(t *testing.T) {
	srv := newCountryServer(t, http.StatusOK, "application/json", "["+v3India+"]")
	repo := new(MockImportRepository)
	boom := errors.New("value too long")

	repo.On("InTx", mock.Anything).Once()
	repo.On("UpsertCurrency", mock.Anything, mock.Anything).Return(int64(7), nil)
	repo.On("UpsertCountry", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), boom)

	imp := NewCountryImporter(newTestFetcher(CountrySource{URL: srv.URL, Adapter: RestCountriesV3()}), repo, nil, logger.Nop())

	summary, err := imp.Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, summary.Imported)
}

func TestCountryImporter_NoWritesWhenAllEndpointsFail(t *testing.T) {
	srv := newCountryServer(t, http.StatusBadGateway, "application/json", "[]")
	repo := new(MockImportRepository)

	imp := NewCountryImporter(newTestFetcher(CountrySource{URL: srv.URL, Adapter: RestCountriesV3()}), repo, nil, logger.Nop())

	_, err := imp.Run(context.Background())

	assert.ErrorIs(t, err, ErrAllEndpointsFailed)
	repo.AssertNotCalled(t, "InTx", mock.Anything)
}

func TestDefaultCountrySources(t *testing.T) {
	sources := DefaultCountrySources()
	require.Len(t, sources, 2)
	assert.Equal(t, AdapterRestCountriesV3, sources[0].Adapter.Name())
	assert.Contains(t, sources[0].URL, "/v3.1/all")
	assert.Equal(t, AdapterRestCountriesV2, sources[1].Adapter.Name())
}
