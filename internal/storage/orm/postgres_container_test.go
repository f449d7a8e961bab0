//go:build container
// +build container

package orm

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
)

// startPostgres runs a throwaway PostgreSQL server and returns its DSN.
func startPostgres(t *testing.T, ctx context.Context) string {
	t.Helper()

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "students",
			"POSTGRES_PASSWORD": "students",
			"POSTGRES_DB":       "students",
		},
		// The entrypoint restarts the server once after init, so the
		// message shows up twice before it really accepts connections.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	ctr, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	return fmt.Sprintf("host=%s port=%s user=students password=students dbname=students sslmode=disable",
		host, port.Port())
}

// dropStudents removes the table so the next Store starts empty and its id
// sequence starts again at 1.
func dropStudents(t *testing.T, dsn string) {
	t.Helper()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Migrator().DropTable(&studentRecord{}); err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	_ = sqlDB.Close()
}

func TestPostgresStorage(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t, ctx)

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		dropStudents(t, dsn)
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			t.Fatal(err)
		}
		return s
	})
}
