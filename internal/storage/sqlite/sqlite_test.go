package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, err := New(context.Background(), filepath.Join(t.TempDir(), "students.db"))
		require.NoError(t, err)
		return s
	})
}

func TestNewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "students.db")

	s, err := New(ctx, path)
	require.NoError(t, err)
	created, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "a.db?_busy_timeout=5000&_txlock=immediate", DSN("a.db"))
	assert.Equal(t, "file:a.db?mode=ro", DSN("file:a.db?mode=ro"))
}

func TestCanceledContext(t *testing.T) {
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.CreateStudent(ctx, "Ana", 20)
	require.Error(t, err)
	assert.False(t, storage.IsNotFound(err))

	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}
