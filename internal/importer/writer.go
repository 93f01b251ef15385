package importer

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/models"
	"github.com/stwalsh4118/laundry/api/internal/repository"
)

// WriteResult reports what happened to one batch.
type WriteResult struct {
	Written  int
	Failed   int
	FellBack bool
}

// Writer upserts pincode batches, falling back to row-by-row writes when the
// bulk statement is rejected.
type Writer struct {
	repo    repository.ImportRepository
	metrics *metrics.ImportMetrics
	log     *logger.Logger
	source  string
}

// NewWriter creates a Writer that labels its logs and metrics with source.
func NewWriter(repo repository.ImportRepository, source string, m *metrics.ImportMetrics, log *logger.Logger) *Writer {
	return &Writer{
		repo:    repo,
		source:  source,
		metrics: m,
		log:     log,
	}
}

// Write persists rows for countryID. Row failures are logged and counted,
// never returned; the only error is cancellation of ctx.
func (w *Writer) Write(ctx context.Context, countryID int64, rows []models.PincodeRow) (WriteResult, error) {
	batch := Dedupe(rows)
	if len(batch) == 0 {
		return WriteResult{}, nil
	}

	_, err := w.repo.BulkUpsertPincodes(ctx, countryID, batch)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		w.log.Warn("Bulk upsert hit a transient error, retrying", logger.Fields{
			"source":  w.source,
			"rows":    len(batch),
			"pg_code": repository.PgCode(err),
		})
		_, err = w.repo.BulkUpsertPincodes(ctx, countryID, batch)
	}
	if err == nil {
		return WriteResult{Written: len(batch)}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return WriteResult{}, ctxErr
	}

	fields := logger.Fields{"source": w.source, "rows": len(batch)}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields["pg_code"] = pgErr.Code
		fields["pg_detail"] = pgErr.Detail
		fields["pg_constraint"] = pgErr.ConstraintName
	}
	w.log.Error("Bulk upsert failed, falling back to row-by-row", err, fields)
	w.metrics.IncBulkFallback(w.source, err)

	result := WriteResult{FellBack: true}
	for _, row := range batch {
		if err := w.repo.UpsertPincode(ctx, countryID, row); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Failed++
			w.log.Error("Row upsert failed", err, logger.Fields{
				"source":  w.source,
				"pincode": row.Key(),
				"pg_code": repository.PgCode(err),
			})
			continue
		}
		result.Written++
	}
	return result, nil
}

// Dedupe collapses rows sharing a natural key to the last occurrence, keeping
// the position of the first. A single upsert statement cannot touch the same
// key twice.
func Dedupe(rows []models.PincodeRow) []models.PincodeRow {
	index := make(map[string]int, len(rows))
	out := make([]models.PincodeRow, 0, len(rows))
	for _, row := range rows {
		key := row.Key()
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

func isTransient(err error) bool {
	switch repository.PgCode(err) {
	case repository.CodeSerializationFailure, repository.CodeDeadlockDetected, repository.CodeLockNotAvailable:
		return true
	}
	return false
}
