// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using hand-written SQL over database/sql.
//
// The blank import below registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/juju/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/types"
)

// AUTOINCREMENT keeps SQLite from handing out the id of a deleted row
// again, even when it was the highest one.
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT    NOT NULL,
		age  INTEGER NOT NULL
	)
`

// DSN adds the connection options the backend relies on to a plain file
// path. Write transactions take the lock up front so that concurrent
// read-modify-write updates wait on the busy timeout instead of failing.
func DSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_txlock=immediate"
}

// SQLite is the database/sql implementation of storage.Storage.
// The *sql.DB is a connection pool and is safe for concurrent use.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database file at path and creates the students
// table if it does not already exist.
func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, errors.Annotate(err, "open db")
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "create table")
	}

	return &SQLite{Db: db}, nil
}

// Close closes the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// inTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Annotate(err, "begin")
	}
	// Rollback after a successful Commit is a no-op returning ErrTxDone.
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Annotate(tx.Commit(), "commit")
}

// CreateStudent inserts a row and reads it back in the same transaction.
func (s *SQLite) CreateStudent(ctx context.Context, name string, age int) (types.Student, error) {
	var student types.Student
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO students (name, age) VALUES (?, ?)", name, age)
		if err != nil {
			return errors.Annotate(err, "insert")
		}

		id, err := result.LastInsertId()
		if err != nil {
			return errors.Annotate(err, "last insert id")
		}

		student, err = getByID(ctx, tx, id)
		return errors.Trace(err)
	})
	if err != nil {
		return types.Student{}, errors.Annotate(err, "CreateStudent")
	}
	return student, nil
}

// GetStudentByID fetches exactly one row matched by primary key.
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	student, err := getByID(ctx, s.Db, id)
	if err != nil {
		return types.Student{}, errors.Annotate(err, "GetStudentByID")
	}
	return student, nil
}

// GetStudents returns all rows ordered by id.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	rows, err := s.Db.QueryContext(ctx, "SELECT id, name, age FROM students ORDER BY id")
	if err != nil {
		return nil, errors.Annotate(err, "GetStudents: query")
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Age); err != nil {
			return nil, errors.Annotate(err, "GetStudents: scan row")
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Annotate(err, "GetStudents: rows iteration")
	}

	return students, nil
}

// UpdateStudentByID loads the row, applies the patch and writes both
// columns back. An empty patch skips the write.
func (s *SQLite) UpdateStudentByID(ctx context.Context, id int64, patch types.StudentPatch) (types.Student, error) {
	var student types.Student
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := getByID(ctx, tx, id)
		if err != nil {
			return errors.Trace(err)
		}

		student = patch.Apply(current)
		if patch.Empty() {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE students SET name = ?, age = ? WHERE id = ?",
			student.Name, student.Age, id)
		return errors.Annotate(err, "update")
	})
	if err != nil {
		return types.Student{}, errors.Annotate(err, "UpdateStudentByID")
	}
	return student, nil
}

// DeleteStudentByID removes a row by primary key.
func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id)
		if err != nil {
			return errors.Annotate(err, "delete")
		}

		n, err := result.RowsAffected()
		if err != nil {
			return errors.Annotate(err, "rows affected")
		}
		if n == 0 {
			return storage.StudentNotFound(id)
		}
		return nil
	})
	return errors.Annotate(err, "DeleteStudentByID")
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q querier, id int64) (types.Student, error) {
	var student types.Student
	err := q.QueryRowContext(ctx,
		"SELECT id, name, age FROM students WHERE id = ? LIMIT 1", id,
	).Scan(&student.ID, &student.Name, &student.Age)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.StudentNotFound(id)
	}
	if err != nil {
		return types.Student{}, errors.Annotate(err, "scan")
	}
	return student, nil
}
