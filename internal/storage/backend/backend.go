// Package backend picks the storage.Storage implementation named in the
// configuration.
package backend

import (
	"context"

	"github.com/juju/errors"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/orm"
	"github.com/aanand-mishra/students-api/internal/storage/sqlite"
)

// Open connects to the configured database and makes sure the students
// table exists. The caller owns the returned Storage and must Close it.
func Open(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, errors.Annotatef(err, "sqlite %q", cfg.Path)
		}
		return s, nil
	case config.DriverGorm:
		s, err := orm.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, errors.Annotatef(err, "gorm sqlite %q", cfg.Path)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := orm.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, errors.Annotate(err, "gorm postgres")
		}
		return s, nil
	default:
		return nil, errors.NotSupportedf("storage driver %q", cfg.Driver)
	}
}
