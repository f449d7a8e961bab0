// Package orm implements storage.Storage on top of gorm, so the same code
// serves a local SQLite file and a PostgreSQL server. The dialector passed
// to New decides which one.
package orm

import (
	"context"

	"github.com/juju/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aanand-mishra/students-api/internal/storage"
	sqlitestore "github.com/aanand-mishra/students-api/internal/storage/sqlite"
	"github.com/aanand-mishra/students-api/internal/types"
)

// studentRecord is the row mapping. The autoIncrement tag makes the sqlite
// migrator emit AUTOINCREMENT so ids of deleted rows are not reused.
type studentRecord struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"not null"`
	Age  int    `gorm:"not null"`
}

func (studentRecord) TableName() string { return "students" }

func (r studentRecord) toStudent() types.Student {
	return types.Student{ID: r.ID, Name: r.Name, Age: r.Age}
}

// Store is the gorm implementation of storage.Storage.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// OpenSQLite opens a Store backed by the SQLite file at path.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	return New(ctx, sqlite.Open(sqlitestore.DSN(path)))
}

// OpenPostgres opens a Store backed by the PostgreSQL server at dsn.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	return New(ctx, postgres.Open(dsn))
}

// New opens a gorm session with dialector and migrates the students table.
func New(ctx context.Context, dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Annotate(err, "open db")
	}

	if err := db.WithContext(ctx).AutoMigrate(&studentRecord{}); err != nil {
		return nil, errors.Annotate(err, "migrate")
	}
	return &Store{db: db}, nil
}

// Close closes the connection pool underneath gorm.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Trace(err)
	}
	return sqlDB.Close()
}

// session is the per-call scoped session: a transaction bound to ctx.
func (s *Store) session(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Store) CreateStudent(ctx context.Context, name string, age int) (types.Student, error) {
	rec := studentRecord{Name: name, Age: age}
	err := s.session(ctx, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return types.Student{}, errors.Annotate(err, "CreateStudent")
	}
	return rec.toStudent(), nil
}

func (s *Store) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	var rec studentRecord
	err := s.session(ctx, func(tx *gorm.DB) error {
		return find(tx, id, &rec)
	})
	if err != nil {
		return types.Student{}, errors.Annotate(err, "GetStudentByID")
	}
	return rec.toStudent(), nil
}

func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	var recs []studentRecord
	err := s.session(ctx, func(tx *gorm.DB) error {
		return tx.Order("id").Find(&recs).Error
	})
	if err != nil {
		return nil, errors.Annotate(err, "GetStudents")
	}

	students := make([]types.Student, 0, len(recs))
	for _, rec := range recs {
		students = append(students, rec.toStudent())
	}
	return students, nil
}

func (s *Store) UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error) {
	var rec studentRecord
	err := s.session(ctx, func(tx *gorm.DB) error {
		if err := find(tx, id, &rec); err != nil {
			return err
		}

		if patch.Empty() {
			return nil
		}

		// Both columns are written from the patched view, so an explicit
		// zero age is stored and an absent field keeps its loaded value.
		patched := patch.Apply(rec.toStudent())
		rec.Name, rec.Age = patched.Name, patched.Age
		updates := map[string]any{"name": rec.Name, "age": rec.Age}
		return tx.Model(&studentRecord{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		return types.Student{}, errors.Annotate(err, "UpdateStudentByID")
	}
	return rec.toStudent(), nil
}

func (s *Store) DeleteStudentByID(ctx context.Context, id int64) error {
	err := s.session(ctx, func(tx *gorm.DB) error {
		res := tx.Delete(&studentRecord{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.StudentNotFound(id)
		}
		return nil
	})
	return errors.Annotate(err, "DeleteStudentByID")
}

func find(tx *gorm.DB, id int64, rec *studentRecord) error {
	err := tx.First(rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.StudentNotFound(id)
	}
	return err
}
