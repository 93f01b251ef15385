package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// PincodeCountryISO2 is the country every imported pincode belongs to.
const PincodeCountryISO2 = "IN"

// DefaultChunk is the write batch size when none is configured.
const DefaultChunk = 1000

// PincodeAPIOptions configures one paginated API run.
type PincodeAPIOptions struct {
	URL         string
	APIKey      string
	Format      string
	Limit       int
	StartOffset int
	Sleep       time.Duration
}

// PincodeAPIImporter pages through the pincode API and upserts every page.
type PincodeAPIImporter struct {
	client  *PincodeAPIClient
	repo    repository.ImportRepository
	writer  *Writer
	metrics *metrics.ImportMetrics
	log     *logger.Logger
	opts    PincodeAPIOptions
}

// NewPincodeAPIImporter creates a new PincodeAPIImporter.
func NewPincodeAPIImporter(client *PincodeAPIClient, repo repository.ImportRepository, opts PincodeAPIOptions, m *metrics.ImportMetrics, log *logger.Logger) *PincodeAPIImporter {
	log = log.WithComponent("importer.pincodes_api")
	return &PincodeAPIImporter{
		client:  client,
		repo:    repo,
		writer:  NewWriter(repo, SourcePincodesAPI, m, log),
		metrics: m,
		log:     log,
		opts:    opts,
	}
}

// Run imports pages until the API runs dry. A failed page aborts the run;
// pages written before it stay committed.
func (imp *PincodeAPIImporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{Source: SourcePincodesAPI, Endpoint: imp.opts.URL}

	err := imp.run(ctx, &summary)
	return finish(imp.log, imp.metrics, summary, start, err)
}

func (imp *PincodeAPIImporter) run(ctx context.Context, summary *Summary) error {
	if strings.TrimSpace(imp.opts.URL) == "" {
		return fmt.Errorf("%w: PINCODE_GOV_API_URL not configured (or pass --url)", ErrMissingConfig)
	}
	if imp.opts.Limit < 1 {
		return fmt.Errorf("%w: page size must be positive", ErrMissingConfig)
	}
	if imp.opts.APIKey == "" {
		imp.log.Warn("No API key provided; requests may be rejected or rate limited", nil)
	}

	countryID, err := resolveCountry(ctx, imp.repo)
	if err != nil {
		return err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if imp.opts.Sleep > 0 {
		limiter = rate.NewLimiter(rate.Every(imp.opts.Sleep), 1)
	}

	imp.log.Info("Pincode API import started", logger.Fields{
		"url":    imp.opts.URL,
		"format": imp.opts.Format,
		"limit":  imp.opts.Limit,
		"offset": imp.opts.StartOffset,
	})

	offset := imp.opts.StartOffset
	for {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		page, attempt, err := imp.client.FetchPage(ctx, offset, imp.opts.Limit)
		if err != nil {
			imp.log.Error("Pincode API page failed", err, attempt.Fields())
			return err
		}
		summary.Pages++
		summary.Fetched += page.Raw

		if page.Raw == 0 {
			imp.log.Info("No more rows returned", logger.Fields{"offset": offset})
			return nil
		}

		rows, skipped := normalizeAll(page.Records, APIAliases)
		summary.Skipped += skipped + page.Raw - len(page.Records)
		imp.log.Info("Fetched page", logger.Fields{"offset": offset, "fetched": page.Raw, "usable": len(rows)})

		if len(rows) == 0 {
			imp.log.Info("Page had no usable rows", logger.Fields{"offset": offset})
			return nil
		}

		if err := writeChunks(ctx, imp.writer, countryID, rows, DefaultChunk, summary); err != nil {
			return err
		}
		imp.log.Info("Page written", logger.Fields{"offset": offset, "imported_total": summary.Imported})

		// Entries the normalizer rejected still count towards a full page.
		if page.Raw < imp.opts.Limit {
			imp.log.Info("Short page, assuming end of dataset", logger.Fields{
				"offset":  offset,
				"fetched": page.Raw,
				"limit":   imp.opts.Limit,
			})
			return nil
		}
		offset += imp.opts.Limit
	}
}

// PincodeCSVOptions configures one CSV run.
type PincodeCSVOptions struct {
	Path  string
	Chunk int
}

// PincodeCSVImporter streams a local CSV file and upserts it in chunks.
type PincodeCSVImporter struct {
	repo    repository.ImportRepository
	writer  *Writer
	metrics *metrics.ImportMetrics
	log     *logger.Logger
	opts    PincodeCSVOptions
}

// NewPincodeCSVImporter creates a new PincodeCSVImporter. opts.Path must
// already be resolved against the storage directory.
func NewPincodeCSVImporter(repo repository.ImportRepository, opts PincodeCSVOptions, m *metrics.ImportMetrics, log *logger.Logger) *PincodeCSVImporter {
	if opts.Chunk < 1 {
		opts.Chunk = DefaultChunk
	}
	log = log.WithComponent("importer.pincodes_csv")
	return &PincodeCSVImporter{
		repo:    repo,
		writer:  NewWriter(repo, SourcePincodesCSV, m, log),
		metrics: m,
		log:     log,
		opts:    opts,
	}
}

// Run imports the whole file. Fetched reports scanned data rows.
func (imp *PincodeCSVImporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{Source: SourcePincodesCSV, Endpoint: imp.opts.Path}

	err := imp.run(ctx, &summary)
	return finish(imp.log, imp.metrics, summary, start, err)
}

func (imp *PincodeCSVImporter) run(ctx context.Context, summary *Summary) error {
	if err := CheckSourceFile(imp.opts.Path); err != nil {
		return err
	}

	countryID, err := resolveCountry(ctx, imp.repo)
	if err != nil {
		return err
	}

	file, err := OpenCSVFile(imp.opts.Path, CSVAliases)
	if err != nil {
		return err
	}
	defer file.Close()

	imp.log.Info("Pincode CSV import started", logger.Fields{"path": imp.opts.Path, "chunk": imp.opts.Chunk})

	flush := func(rows []models.PincodeRow) error {
		if len(rows) == 0 {
			return nil
		}
		if err := writeChunks(ctx, imp.writer, countryID, rows, imp.opts.Chunk, summary); err != nil {
			return err
		}
		imp.log.Info("Imported rows so far", logger.Fields{"imported": summary.Imported, "scanned": summary.Fetched})
		return nil
	}

	batch := make([]models.PincodeRow, 0, imp.opts.Chunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := file.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		summary.Fetched++

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			summary.Skipped++
			imp.log.Warn("Skipping malformed CSV line", logger.Fields{"line": parseErr.Line, "error": parseErr.Error()})
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", imp.opts.Path, err)
		}

		row, err := NormalizePincode(record, CSVAliases)
		if err != nil {
			summary.Skipped++
			continue
		}
		batch = append(batch, row)

		if len(batch) >= imp.opts.Chunk {
			if err := flush(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	return flush(batch)
}

func resolveCountry(ctx context.Context, repo repository.ImportRepository) (int64, error) {
	id, err := repo.FindCountryIDByISO2(ctx, PincodeCountryISO2)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, fmt.Errorf("%w: iso2=%s, run the country import first", ErrCountryNotFound, PincodeCountryISO2)
	}
	return *id, nil
}

func normalizeAll(records []map[string]string, aliases PincodeAliases) ([]models.PincodeRow, int) {
	rows := make([]models.PincodeRow, 0, len(records))
	skipped := 0
	for _, record := range records {
		row, err := NormalizePincode(record, aliases)
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, skipped
}

func writeChunks(ctx context.Context, w *Writer, countryID int64, rows []models.PincodeRow, chunk int, summary *Summary) error {
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		result, err := w.Write(ctx, countryID, rows[start:end])
		summary.add(result)
		if err != nil {
			return err
		}
	}
	return nil
}

func finish(log *logger.Logger, m *metrics.ImportMetrics, summary Summary, start time.Time, err error) (Summary, error) {
	summary.Duration = time.Since(start)

	status := metrics.StatusSuccess
	if err != nil {
		status = metrics.StatusFailure
		log.Error("Pincode import failed", err, summary.Fields())
	} else {
		log.Info("Pincode import finished", summary.Fields())
	}
	m.ObserveRun(summary.Source, status, summary.Duration)
	m.AddRows(summary.Source, metrics.OutcomeImported, summary.Imported)
	m.AddRows(summary.Source, metrics.OutcomeSkipped, summary.Skipped)
	m.AddRows(summary.Source, metrics.OutcomeFailed, summary.Failed)

	return summary, err
}
