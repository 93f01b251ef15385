package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/laundry/api/internal/logger"
	"github.com/stwalsh4118/laundry/api/internal/metrics"
	"github.com/stwalsh4118/laundry/api/internal/models"
)

func pincodeRows(codes ...string) []models.PincodeRow {
	rows := make([]models.PincodeRow, len(codes))
	for i, code := range codes {
		rows[i] = models.PincodeRow{Pincode: code}
	}
	return rows
}

func TestWriter_BulkPath(t *testing.T) {
	// Arrange
	repo := new(MockImportRepository)
	repo.On("BulkUpsertPincodes", mock.Anything, int64(1), mock.Anything).Return(int64(2), nil).Once()
	writer := NewWriter(repo, SourcePincodesCSV, nil, logger.Nop())

	// Act
	result, err := writer.Write(context.Background(), 1, pincodeRows("110001", "400001", "110001"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Written: 2}, result)
	require.Len(t, bulkRows(repo), 1)
	assert.Len(t, bulkRows(repo)[0], 2)
	repo.AssertNotCalled(t, "UpsertPincode", mock.Anything, mock.Anything, mock.Anything)
}

func TestWriter_FallsBackRowByRow(t *testing.T) {
	// Arrange
	repo := new(MockImportRepository)
	bulkErr := fmt.Errorf("failed to bulk upsert: %w", &pgconn.PgError{Code: "22001", Message: "value too long"})
	repo.On("BulkUpsertPincodes", mock.Anything, int64(1), mock.Anything).Return(int64(0), bulkErr).Once()
	repo.On("UpsertPincode", mock.Anything, int64(1), models.PincodeRow{Pincode: "110001"}).Return(nil).Once()
	repo.On("UpsertPincode", mock.Anything, int64(1), models.PincodeRow{Pincode: "BAD-PINCODE-THAT-IS-TOO-LONG"}).
		Return(errors.New("value too long")).Once()
	repo.On("UpsertPincode", mock.Anything, int64(1), models.PincodeRow{Pincode: "400001"}).Return(nil).Once()

	registry := prometheus.NewRegistry()
	m := metrics.NewImportMetrics(registry)
	writer := NewWriter(repo, SourcePincodesCSV, m, logger.Nop())

	// Act
	result, err := writer.Write(context.Background(), 1, pincodeRows("110001", "BAD-PINCODE-THAT-IS-TOO-LONG", "400001"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, WriteResult{Written: 2, Failed: 1, FellBack: true}, result)
	repo.AssertExpectations(t)

	count, err := testutil.GatherAndCount(registry, "laundry_import_bulk_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWriter_RetriesTransientBulkErrorOnce(t *testing.T) {
	repo := new(MockImportRepository)
	deadlock := &pgconn.PgError{Code: "40P01"}
	repo.On("BulkUpsertPincodes", mock.Anything, int64(1), mock.Anything).Return(int64(0), deadlock).Once()
	repo.On("BulkUpsertPincodes", mock.Anything, int64(1), mock.Anything).Return(int64(1), nil).Once()
	writer := NewWriter(repo, SourcePincodesAPI, nil, logger.Nop())

	result, err := writer.Write(context.Background(), 1, pincodeRows("110001"))

	require.NoError(t, err)
	assert.Equal(t, WriteResult{Written: 1}, result)
	repo.AssertNumberOfCalls(t, "BulkUpsertPincodes", 2)
}

func TestWriter_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := new(MockImportRepository)
	repo.On("BulkUpsertPincodes", mock.Anything, int64(1), mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(int64(0), context.Canceled).Once()
	writer := NewWriter(repo, SourcePincodesAPI, nil, logger.Nop())

	_, err := writer.Write(ctx, 1, pincodeRows("110001", "400001"))

	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertNotCalled(t, "UpsertPincode", mock.Anything, mock.Anything, mock.Anything)
}

func TestWriter_EmptyBatch(t *testing.T) {
	repo := new(MockImportRepository)
	writer := NewWriter(repo, SourcePincodesAPI, nil, logger.Nop())

	result, err := writer.Write(context.Background(), 1, nil)

	require.NoError(t, err)
	assert.Equal(t, WriteResult{}, result)
	repo.AssertNotCalled(t, "BulkUpsertPincodes", mock.Anything, mock.Anything, mock.Anything)
}
