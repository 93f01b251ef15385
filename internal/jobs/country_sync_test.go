package jobs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/laundry/api/internal/importer"
	"github.com/stwalsh4118/laundry/api/internal/logger"
)

type MockCountryRunner struct {
	mock.Mock
}

func (m *MockCountryRunner) Run(ctx context.Context) (importer.Summary, error) {
	args := m.Called(ctx)
	return args.Get(0).(importer.Summary), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockLocker) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

func TestCountrySyncJob_RunsWithoutLocker(t *testing.T) {
	runner := new(MockCountryRunner)
	runner.On("Run", mock.Anything).Return(importer.Summary{Source: importer.SourceCountries, Imported: 250}, nil).Once()
	job := NewCountrySyncJob(runner, nil, logger.Nop())

	err := job.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, CountrySyncJobName, job.Name())
	runner.AssertExpectations(t)
}

func TestCountrySyncJob_HoldsLockForRun(t *testing.T) {
	runner := new(MockCountryRunner)
	locker := new(MockLocker)
	locker.On("TryLock", mock.Anything, CountrySyncLockKey, CountrySyncLockTTL).Return("token-1", true, nil).Once()
	runner.On("Run", mock.Anything).Return(importer.Summary{}, errors.New("all endpoints failed")).Once()
	locker.On("Release", mock.Anything, CountrySyncLockKey, "token-1").Return(nil).Once()
	job := NewCountrySyncJob(runner, locker, logger.Nop())

	err := job.Run(context.Background())

	assert.EqualError(t, err, "all endpoints failed")
	runner.AssertExpectations(t)
	locker.AssertExpectations(t)
}

func TestCountrySyncJob_SkipsWhenLockHeld(t *testing.T) {
	runner := new(MockCountryRunner)
	locker := new(MockLocker)
	locker.On("TryLock", mock.Anything, CountrySyncLockKey, CountrySyncLockTTL).Return("", false, nil).Once()
	job := NewCountrySyncJob(runner, locker, logger.Nop())

	err := job.Run(context.Background())

	assert.ErrorIs(t, err, ErrSkipped)
	runner.AssertNotCalled(t, "Run", mock.Anything)
	locker.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestCountrySyncJob_LockErrorIsRetryable(t *testing.T) {
	runner := new(MockCountryRunner)
	locker := new(MockLocker)
	locker.On("TryLock", mock.Anything, CountrySyncLockKey, CountrySyncLockTTL).Return("", false, errors.New("connection refused")).Once()
	job := NewCountrySyncJob(runner, locker, logger.Nop())

	err := job.Run(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSkipped)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}

func TestNewRedisLocker_NilClient(t *testing.T) {
	assert.Nil(t, NewRedisLocker(nil))

	var l *RedisLocker
	_, _, err := l.TryLock(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.NoError(t, l.Release(context.Background(), "k", "t"))
}

func TestRedisLocker_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	key := "laundry:test:lock:" + t.Name()
	locker := NewRedisLocker(client)
	t.Cleanup(func() { client.Del(ctx, key) })

	token, ok, err := locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second acquire must fail while the lease is held")

	// A foreign token does not release the lease.
	require.NoError(t, locker.Release(ctx, key, "someone-else"))
	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)

	require.NoError(t, locker.Release(ctx, key, token))
	_, ok, err = locker.TryLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
