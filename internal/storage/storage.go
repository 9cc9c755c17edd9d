// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// Handlers (HTTP layer) depend only on this interface. The concrete
// backend is built once in main and injected into every handler factory,
// so tests can hand the handlers any implementation they like.
//
// Two backends exist:
//
//   - mongodb: the production document store
//   - sqlite:  a single-file store for local development and tests
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by GetStudentByID when no document matches.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
type Storage interface {
	// CreateStudent inserts a new student document and returns the
	// storage-assigned identifier in its hex form.
	CreateStudent(ctx context.Context, student types.Student) (string, error)

	// GetStudents returns every student matching filter, in storage
	// order. Returns an empty slice (not nil) if nothing matches.
	GetStudents(ctx context.Context, filter types.StudentFilter) ([]types.Student, error)

	// GetStudentByID fetches a single student. Returns ErrNotFound on
	// a miss.
	GetStudentByID(ctx context.Context, id primitive.ObjectID) (types.Student, error)

	// UpdateStudentByID applies the non-nil fields of patch to the
	// student and returns how many documents were actually modified.
	// Zero means either no such student or the patch changed nothing.
	UpdateStudentByID(ctx context.Context, id primitive.ObjectID, patch types.StudentPatch) (int64, error)

	// DeleteStudentByID removes a student and returns how many
	// documents were deleted (0 or 1).
	DeleteStudentByID(ctx context.Context, id primitive.ObjectID) (int64, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection(s).
	Close(ctx context.Context) error
}
