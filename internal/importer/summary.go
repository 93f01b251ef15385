package importer

import (
	"fmt"
	"time"

	"github.com/stwalsh4118/laundry/api/internal/logger"
)

// Source names, used in logs, metrics and summaries.
const (
	SourceCountries   = "countries"
	SourcePincodesAPI = "pincodes-api"
	SourcePincodesCSV = "pincodes-csv"
)

// Summary reports the outcome of one import run.
type Summary struct {
	Source string
	// Endpoint is the country adapter or URL/path that served the data.
	Endpoint string
	// Fetched counts raw records read from the source.
	Fetched int
	// Imported counts rows inserted or updated.
	Imported int
	// Skipped counts records that could not be normalized.
	Skipped int
	// Failed counts rows the writer could not persist.
	Failed   int
	Pages    int
	Duration time.Duration
}

// String renders the one-line summary printed by the CLI.
func (s Summary) String() string {
	return fmt.Sprintf("%s: fetched=%d imported=%d skipped=%d failed=%d pages=%d duration=%s",
		s.Source, s.Fetched, s.Imported, s.Skipped, s.Failed, s.Pages, s.Duration.Round(time.Millisecond))
}

// Fields returns the summary as structured log fields.
func (s Summary) Fields() logger.Fields {
	return logger.Fields{
		"source":      s.Source,
		"endpoint":    s.Endpoint,
		"fetched":     s.Fetched,
		"imported":    s.Imported,
		"skipped":     s.Skipped,
		"failed":      s.Failed,
		"pages":       s.Pages,
		"duration_ms": s.Duration.Milliseconds(),
	}
}

func (s *Summary) add(r WriteResult) {
	s.Imported += r.Written
	s.Failed += r.Failed
}
