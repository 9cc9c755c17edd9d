// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidID is returned by ParseID when a path segment is not a
// well-formed student identifier.
var ErrInvalidID = errors.New("invalid student id")

// Address is embedded inside a Student document. It is replaced or
// patched field by field, never addressed on its own.
type Address struct {
	City    string `json:"city"    bson:"city"    validate:"required"`
	Country string `json:"country" bson:"country" validate:"required"`
}

// Student represents a student record in our system.
//
// ID is assigned by storage when the document is inserted. It is a
// 12-byte ObjectID which encodes to JSON as a 24-character hex string,
// so the same struct doubles as the response shape.
type Student struct {
	ID      primitive.ObjectID `json:"id"      bson:"_id,omitempty"`
	Name    string             `json:"name"    bson:"name"`
	Age     int                `json:"age"     bson:"age"`
	Address Address            `json:"address" bson:"address"`
}

// CreateStudentRequest is the POST /students body.
//
// Age and Address are pointers so that "missing" can be told apart from
// the zero value: a student aged 0 is valid, a body without "age" is not.
type CreateStudentRequest struct {
	Name    string   `json:"name"    validate:"required"`
	Age     *int     `json:"age"     validate:"required,gte=0"`
	Address *Address `json:"address" validate:"required"`
}

// Student converts a validated request into the document to insert.
// It must only be called after validation, otherwise it panics on a nil
// Age or Address.
func (r CreateStudentRequest) Student() Student {
	return Student{
		Name:    r.Name,
		Age:     *r.Age,
		Address: *r.Address,
	}
}

// AddressPatch holds the optional address fields of a StudentPatch.
type AddressPatch struct {
	City    *string `json:"city"`
	Country *string `json:"country"`
}

// StudentPatch is the PATCH /students/{id} body.
//
// Every field is optional. A nil pointer means the key was absent or
// explicitly null and the stored value is left untouched. The ID is not
// patchable.
type StudentPatch struct {
	Name    *string       `json:"name"`
	Age     *int          `json:"age"     validate:"omitempty,gte=0"`
	Address *AddressPatch `json:"address"`
}

// Fields returns the fields to set, keyed by their dotted document path
// ("name", "age", "address.city", "address.country"). Nil fields are
// skipped, so an all-nil patch yields an empty map.
func (p StudentPatch) Fields() map[string]any {
	fields := make(map[string]any)

	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	if p.Address != nil {
		if p.Address.City != nil {
			fields["address.city"] = *p.Address.City
		}
		if p.Address.Country != nil {
			fields["address.country"] = *p.Address.Country
		}
	}

	return fields
}

// IsEmpty reports whether applying the patch would change nothing.
func (p StudentPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// StudentFilter selects students for GET /students.
// A zero StudentFilter matches every student.
type StudentFilter struct {
	// Country matches address.country exactly when non-empty.
	Country string
	// MinAge matches age >= *MinAge when non-nil.
	MinAge *int
}

// ParseID converts the hex form of an identifier into an ObjectID.
// Any malformed input yields ErrInvalidID so callers can branch on it
// with errors.Is.
func ParseID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return id, nil
}
