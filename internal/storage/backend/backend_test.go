package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/storage/orm"
	"github.com/aanand-mishra/students-api/internal/storage/sqlite"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Storage{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLite{}, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, config.Storage{Driver: config.DriverGorm, Path: filepath.Join(t.TempDir(), "b.db")})
	require.NoError(t, err)
	assert.IsType(t, &orm.Store{}, s)
	require.NoError(t, s.Close())
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.Storage{Driver: "mongo"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotSupported))
}
