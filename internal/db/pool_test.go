package db

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRejectsBadConnString(t *testing.T) {
	_, err := Connect(context.Background(), "://not-a-dsn", 0, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse connection string")
}

func TestPoolSatisfiedByPgxmock(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	var _ Pool = mock
}
