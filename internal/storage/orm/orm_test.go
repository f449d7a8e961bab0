package orm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/storage/storagetest"
	"github.com/aanand-mishra/students-api/internal/types"
)

func TestStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "students.db"))
		require.NoError(t, err)
		return s
	})
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "students.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	created, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, created, students[0])
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "students", studentRecord{}.TableName())
}

func TestUpdateWritesPatchedView(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	defer s.Close()

	created, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{
		Name: types.Some("Bo"),
		Age:  types.Some(0),
	})
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: created.ID, Name: "Bo", Age: 0}, updated)

	var rec studentRecord
	require.NoError(t, s.db.First(&rec, created.ID).Error)
	assert.Equal(t, studentRecord{ID: created.ID, Name: "Bo", Age: 0}, rec)
}
