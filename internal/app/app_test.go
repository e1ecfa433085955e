package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgersync/internal/config"
	"ledgersync/internal/lock"
	"ledgersync/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		ProviderBaseURL:  "http://provider.invalid",
		ProviderBankCode: "REVOLUT",
		ProviderTimeout:  time.Second,
		LockExpiry:       15 * time.Second,
		PaymentLeadDays:  2,
	}
}

func TestNewServices_LocalLocks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	s, err := NewServices(context.Background(), testConfig(), db)
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &lock.LocalLocker{}, s.Locker)
	assert.NotNil(t, s.Ledger)
	assert.NotNil(t, s.Webhooks)
	assert.NotNil(t, s.PaymentDrafts)
}

func TestNewServices_RedisLocks(t *testing.T) {
	mr := miniredis.RunT(t)
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	cfg := testConfig()
	cfg.RedisURL = "redis://" + mr.Addr()
	s, err := NewServices(context.Background(), cfg, db)
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &lock.RedisLocker{}, s.Locker)
	ran := false
	err = s.Locker.WithLock(context.Background(), lock.Key("test", "1"), func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestNewServices_UnreachableRedis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:1"
	_, err := NewServices(context.Background(), cfg, db)
	assert.Error(t, err)
}

func TestNewServices_LockMustOutliveProviderCall(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	cfg := testConfig()
	cfg.ProviderTimeout = 30 * time.Second
	cfg.LockExpiry = 30 * time.Second
	_, err := NewServices(context.Background(), cfg, db)
	assert.Error(t, err)
}
