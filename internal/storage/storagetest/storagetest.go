// Package storagetest holds a conformance suite that every storage.Storage
// implementation must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Factory returns an empty, ready to use Storage. Cleanup is the
// factory's responsibility (t.Cleanup).
type Factory func(t *testing.T) storage.Storage

func ptr[T any](v T) *T { return &v }

func student(name string, age int, city, country string) types.Student {
	return types.Student{
		Name:    name,
		Age:     age,
		Address: types.Address{City: city, Country: country},
	}
}

func create(t *testing.T, s storage.Storage, st types.Student) primitive.ObjectID {
	t.Helper()
	hex, err := s.CreateStudent(context.Background(), st)
	require.NoError(t, err)
	id, err := types.ParseID(hex)
	require.NoError(t, err)
	return id
}

// Run exercises newStorage against the storage.Storage contract.
func Run(t *testing.T, newStorage Factory) {
	ctx := context.Background()

	t.Run("CreateThenGet", func(t *testing.T) {
		s := newStorage(t)

		hex, err := s.CreateStudent(ctx, student("Asha", 20, "Pune", "IN"))
		require.NoError(t, err)
		assert.Len(t, hex, 24)

		id, err := types.ParseID(hex)
		require.NoError(t, err)

		got, err := s.GetStudentByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "Asha", got.Name)
		assert.Equal(t, 20, got.Age)
		assert.Equal(t, types.Address{City: "Pune", Country: "IN"}, got.Address)
	})

	t.Run("CreateIgnoresCallerID", func(t *testing.T) {
		s := newStorage(t)

		st := student("Asha", 20, "Pune", "IN")
		st.ID = primitive.NewObjectID()

		hex, err := s.CreateStudent(ctx, st)
		require.NoError(t, err)
		assert.NotEqual(t, st.ID.Hex(), hex)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStorage(t)

		_, err := s.GetStudentByID(ctx, primitive.NewObjectID())
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListEmpty", func(t *testing.T) {
		s := newStorage(t)

		students, err := s.GetStudents(ctx, types.StudentFilter{})
		require.NoError(t, err)
		assert.NotNil(t, students)
		assert.Empty(t, students)
	})

	t.Run("ListFilters", func(t *testing.T) {
		s := newStorage(t)

		usYoung := create(t, s, student("a", 18, "NYC", "US"))
		usOld := create(t, s, student("b", 20, "LA", "US"))
		frYoung := create(t, s, student("c", 18, "Paris", "FR"))
		frOld := create(t, s, student("d", 20, "Lyon", "FR"))

		for name, test := range map[string]struct {
			filter   types.StudentFilter
			expected []primitive.ObjectID
		}{
			"All":             {filter: types.StudentFilter{}, expected: []primitive.ObjectID{usYoung, usOld, frYoung, frOld}},
			"Country":         {filter: types.StudentFilter{Country: "US"}, expected: []primitive.ObjectID{usYoung, usOld}},
			"MinAge":          {filter: types.StudentFilter{MinAge: ptr(19)}, expected: []primitive.ObjectID{usOld, frOld}},
			"MinAgeInclusive": {filter: types.StudentFilter{MinAge: ptr(18)}, expected: []primitive.ObjectID{usYoung, usOld, frYoung, frOld}},
			"Both":            {filter: types.StudentFilter{Country: "US", MinAge: ptr(19)}, expected: []primitive.ObjectID{usOld}},
			"NoMatch":         {filter: types.StudentFilter{Country: "DE"}, expected: []primitive.ObjectID{}},
		} {
			t.Run(name, func(t *testing.T) {
				students, err := s.GetStudents(ctx, test.filter)
				require.NoError(t, err)

				ids := make([]primitive.ObjectID, 0, len(students))
				for _, st := range students {
					ids = append(ids, st.ID)
				}
				assert.ElementsMatch(t, test.expected, ids)
			})
		}
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		s := newStorage(t)
		id := create(t, s, student("Asha", 20, "Pune", "IN"))

		modified, err := s.UpdateStudentByID(ctx, id, types.StudentPatch{Age: ptr(21)})
		require.NoError(t, err)
		assert.EqualValues(t, 1, modified)

		got, err := s.GetStudentByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 21, got.Age)
		assert.Equal(t, "Asha", got.Name)
		assert.Equal(t, types.Address{City: "Pune", Country: "IN"}, got.Address)
	})

	t.Run("UpdateNestedAddressField", func(t *testing.T) {
		s := newStorage(t)
		id := create(t, s, student("Asha", 20, "Pune", "IN"))

		modified, err := s.UpdateStudentByID(ctx, id, types.StudentPatch{
			Address: &types.AddressPatch{City: ptr("Mumbai")},
		})
		require.NoError(t, err)
		assert.EqualValues(t, 1, modified)

		got, err := s.GetStudentByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, types.Address{City: "Mumbai", Country: "IN"}, got.Address)
	})

	t.Run("UpdateNoOp", func(t *testing.T) {
		s := newStorage(t)
		id := create(t, s, student("Asha", 20, "Pune", "IN"))

		modified, err := s.UpdateStudentByID(ctx, id, types.StudentPatch{Age: ptr(20)})
		require.NoError(t, err)
		assert.EqualValues(t, 0, modified)

		modified, err = s.UpdateStudentByID(ctx, id, types.StudentPatch{})
		require.NoError(t, err)
		assert.EqualValues(t, 0, modified)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStorage(t)

		modified, err := s.UpdateStudentByID(ctx, primitive.NewObjectID(), types.StudentPatch{Name: ptr("x")})
		require.NoError(t, err)
		assert.EqualValues(t, 0, modified)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStorage(t)
		id := create(t, s, student("Asha", 20, "Pune", "IN"))

		deleted, err := s.DeleteStudentByID(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, deleted)

		deleted, err = s.DeleteStudentByID(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 0, deleted)

		_, err = s.GetStudentByID(ctx, id)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStorage(t)
		assert.NoError(t, s.Ping(ctx))
	})
}
