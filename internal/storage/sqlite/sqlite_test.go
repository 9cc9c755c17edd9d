package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/storagetest"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := New(&config.Config{Storage: config.Storage{
		Backend: config.BackendSQLite,
		Path:    filepath.Join(t.TempDir(), "students.db"),
	}})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close(context.Background())) })

	return s
}

func TestSQLite(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		return newTestSQLite(t)
	})
}

func TestNewRejectsInvalidTableName(t *testing.T) {
	_, err := New(&config.Config{Storage: config.Storage{
		Path:       filepath.Join(t.TempDir(), "students.db"),
		Collection: "students; DROP TABLE x",
	}})
	assert.Error(t, err)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	var expected []string
	for _, name := range []string{"c", "a", "b"} {
		id, err := s.CreateStudent(ctx, types.Student{
			Name:    name,
			Age:     20,
			Address: types.Address{City: "Pune", Country: "IN"},
		})
		require.NoError(t, err)
		expected = append(expected, id)
	}

	students, err := s.GetStudents(ctx, types.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, students, 3)
	for i, st := range students {
		assert.Equal(t, expected[i], st.ID.Hex())
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.Storage{
		Path: filepath.Join(t.TempDir(), "students.db"),
	}}

	s, err := New(cfg)
	require.NoError(t, err)
	hex, err := s.CreateStudent(ctx, types.Student{Name: "Asha", Age: 20})
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	s, err = New(cfg)
	require.NoError(t, err)
	defer s.Close(ctx)

	id, err := types.ParseID(hex)
	require.NoError(t, err)
	got, err := s.GetStudentByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
}
