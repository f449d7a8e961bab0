// Package storage defines the Storage interface that every database
// backend satisfies.
//
// WHO DEPENDS ON WHAT
// ───────────────────
// Handlers see only this interface. The concrete backend is chosen once
// at startup by backend.Open from the storage.driver setting and injected
// into the router:
//
//	sqlite    hand-written SQL over database/sql (package sqlite)
//	gorm      gorm with the sqlite dialector   (package orm)
//	postgres  gorm with the postgres dialector (package orm)
//
// Handler tests pass an in-memory fake instead, and every real backend
// runs the storagetest suite.
//
// ERRORS
// ──────
// A missing id is reported as a juju/errors NotFound built by
// StudentNotFound. Callers test for it with IsNotFound, which sees through
// any Annotate or Trace wrapping added on the way up. Everything else is
// an internal failure.
package storage

import (
	"context"

	"github.com/juju/errors"

	"github.com/aanand-mishra/students-api/internal/types"
)

// Storage is the database contract.
//
// Each call runs in its own transaction, committed or rolled back before
// the call returns. Implementations keep no per-record state between calls.
type Storage interface {
	// CreateStudent inserts a new student and returns it with the id
	// assigned by the database.
	CreateStudent(ctx context.Context, name string, age int) (types.Student, error)

	// GetStudentByID returns a NotFound error if no student has that id.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// GetStudents returns every student in storage order. The slice is
	// empty, not nil, when there are none.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByID writes the present fields of patch and returns the
	// stored record. It returns a NotFound error if no student has that id.
	UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error)

	// DeleteStudentByID returns a NotFound error if no student has that id.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Close releases the underlying database handle.
	Close() error
}

// StudentNotFound returns the error backends use for a missing id.
func StudentNotFound(id int64) error {
	return errors.NotFoundf("student %d", id)
}

// IsNotFound reports whether err, or anything it wraps, is a NotFound error.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.NotFound)
}
