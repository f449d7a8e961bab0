// Package storagetest holds behaviour tests that every storage.Storage
// implementation must pass. Backends call Run from their own _test files.
package storagetest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/types"
)

// Factory returns a fresh, empty Storage. It is called once per subtest.
type Factory func(t *testing.T) storage.Storage

// Run executes the suite against the Storage returned by newStorage.
func Run(t *testing.T, newStorage Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateThenGet", testCreateThenGet},
		{"ListEmpty", testListEmpty},
		{"UnknownID", testUnknownID},
		{"PartialUpdate", testPartialUpdate},
		{"EmptyUpdate", testEmptyUpdate},
		{"DeleteRemoves", testDeleteRemoves},
		{"IDsNotReused", testIDsNotReused},
		{"ListCount", testListCount},
		{"Scenario", testScenario},
		{"ConcurrentCreates", testConcurrentCreates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func testCreateThenGet(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	for _, in := range []struct {
		name string
		age  int
	}{
		{"Ana", 20},
		{"José Ñúñez", 0},
		{"O'Brien; DROP TABLE students", 99},
	} {
		created, err := s.CreateStudent(ctx, in.name, in.age)
		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, in.name, created.Name)
		assert.Equal(t, in.age, created.Age)

		got, err := s.GetStudentByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	}
}

func testListEmpty(t *testing.T, s storage.Storage) {
	students, err := s.GetStudents(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func testUnknownID(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.GetStudentByID(ctx, 42)
	assert.True(t, storage.IsNotFound(err), "get: %v", err)

	_, err = s.UpdateStudentByID(ctx, 42, types.StudentPatch{Name: types.Some("x")})
	assert.True(t, storage.IsNotFound(err), "update: %v", err)

	_, err = s.UpdateStudentByID(ctx, 42, types.StudentPatch{})
	assert.True(t, storage.IsNotFound(err), "empty update: %v", err)

	err = s.DeleteStudentByID(ctx, 42)
	assert.True(t, storage.IsNotFound(err), "delete: %v", err)
}

func testPartialUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{Name: types.Some("Ann")})
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: created.ID, Name: "Ann", Age: 20}, updated)

	updated, err = s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{Age: types.Some(0)})
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: created.ID, Name: "Ann", Age: 0}, updated)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func testEmptyUpdate(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentPatch{})
	require.NoError(t, err)
	assert.Equal(t, created, updated)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func testDeleteRemoves(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	a, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)
	b, err := s.CreateStudent(ctx, "Luis", 22)
	require.NoError(t, err)

	require.NoError(t, s.DeleteStudentByID(ctx, a.ID))

	_, err = s.GetStudentByID(ctx, a.ID)
	assert.True(t, storage.IsNotFound(err))

	err = s.DeleteStudentByID(ctx, a.ID)
	assert.True(t, storage.IsNotFound(err))

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Student{b}, students)
}

func testIDsNotReused(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	a, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)
	require.NoError(t, s.DeleteStudentByID(ctx, a.ID))

	b, err := s.CreateStudent(ctx, "Luis", 22)
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
}

func testListCount(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		st, err := s.CreateStudent(ctx, "student", 18+i)
		require.NoError(t, err)
		ids = append(ids, st.ID)
	}
	require.NoError(t, s.DeleteStudentByID(ctx, ids[1]))
	require.NoError(t, s.DeleteStudentByID(ctx, ids[3]))

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 3)
}

func testScenario(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	ana, err := s.CreateStudent(ctx, "Ana", 20)
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: 1, Name: "Ana", Age: 20}, ana)

	luis, err := s.CreateStudent(ctx, "Luis", 22)
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: 2, Name: "Luis", Age: 22}, luis)

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []types.Student{ana, luis}, students)

	updated, err := s.UpdateStudentByID(ctx, 1, types.StudentPatch{Age: types.Some(21)})
	require.NoError(t, err)
	assert.Equal(t, types.Student{ID: 1, Name: "Ana", Age: 21}, updated)

	require.NoError(t, s.DeleteStudentByID(ctx, 2))

	_, err = s.GetStudentByID(ctx, 2)
	assert.True(t, storage.IsNotFound(err))
}

func testConcurrentCreates(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	const n = 10

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateStudent(ctx, "student", 20)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	students, err := s.GetStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, n)

	seen := map[int64]bool{}
	for _, st := range students {
		assert.False(t, seen[st.ID], "duplicate id %d", st.ID)
		seen[st.ID] = true
	}
}
