package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// CONNECT RETRY
// ============================================================================

func TestConnectWithRetry_ReturnsFirstLiveHandle(t *testing.T) {
	want := &sqlx.DB{}
	attempts := 0
	connect := func() (*sqlx.DB, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("connection refused")
		}
		return want, nil
	}

	db := connectWithRetry(time.Millisecond, connect)

	require.NotNil(t, db)
	assert.Same(t, want, db, "the handle handed to wiring is the one that connected")
	assert.Equal(t, 3, attempts)
}

func TestConnectWithRetry_NoWaitOnImmediateSuccess(t *testing.T) {
	attempts := 0
	connect := func() (*sqlx.DB, error) {
		attempts++
		return &sqlx.DB{}, nil
	}

	start := time.Now()
	db := connectWithRetry(time.Second, connect)

	require.NotNil(t, db)
	assert.Equal(t, 1, attempts)
	assert.Less(t, time.Since(start), time.Second, "success skips the backoff sleep")
}
