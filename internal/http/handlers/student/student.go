// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives the storage backend
// and returns the http.HandlerFunc the router needs. The returned closure
// keeps a reference to storage, so nothing here reaches for a global
// connection:
//
//	router.HandleFunc("POST /students", student.New(store))
//
// New(store) runs once at startup; the returned func runs per request.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies; students are tiny documents.
const maxBodyBytes = 1 << 20

// validate caches struct metadata, so one instance is shared by all
// handlers. It is safe for concurrent use.
var validate = validator.New()

// Register wires every student route onto router.
//
// Route table:
//
//	POST   /students        → create a new student
//	GET    /students        → list students (?country=&age=)
//	GET    /students/{id}   → get one student
//	PATCH  /students/{id}   → partially update a student
//	DELETE /students/{id}   → delete a student
func Register(router *http.ServeMux, store storage.Storage) {
	router.HandleFunc("POST /students", New(store))
	router.HandleFunc("GET /students", GetList(store))
	router.HandleFunc("GET /students/{id}", GetByID(store))
	router.HandleFunc("PATCH /students/{id}", Update(store))
	router.HandleFunc("DELETE /students/{id}", Delete(store))
}

// writeValidationError answers 422 for a struct that failed validation.
func writeValidationError(w http.ResponseWriter, err error) {
	var validateErrs validator.ValidationErrors
	if errors.As(err, &validateErrs) {
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.ValidationError(validateErrs))
		return
	}
	response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
}

// writeNotFound answers 404. Malformed ids, missing students and no-op
// updates all land here; only the message differs.
func writeNotFound(w http.ResponseWriter, err error) {
	response.WriteJSON(w, http.StatusNotFound, response.GeneralError(err))
}

func writeInternalError(w http.ResponseWriter, msg string, id string, err error) {
	slog.Error(msg, slog.String("id", id), slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}

// New handles POST /students.
//
// Request body:
//
//	{ "name": "Asha", "age": 20, "address": { "city": "Pune", "country": "IN" } }
//
// Success (201): { "id": "65f1c2..." }
// Errors: 422 for an empty or malformed body, a missing field, or a
// negative age. Nothing is written to storage in that case.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudentRequest

		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusUnprocessableEntity,
				response.GeneralError(errors.New("request body is empty")))
			return
		}
		if err != nil {
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			return
		}

		if err := validate.Struct(req); err != nil {
			writeValidationError(w, err)
			return
		}

		id, err := store.CreateStudent(r.Context(), req.Student())
		if err != nil {
			writeInternalError(w, "error creating student", "", err)
			return
		}

		slog.Info("student created", slog.String("id", id))
		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": id})
	}
}

// parseFilter reads ?country= and ?age= into a StudentFilter. An empty
// country is ignored; a present but non-integer age is an error.
func parseFilter(r *http.Request) (types.StudentFilter, error) {
	query := r.URL.Query()

	filter := types.StudentFilter{Country: query.Get("country")}

	if query.Has("age") {
		age, err := strconv.Atoi(query.Get("age"))
		if err != nil {
			return types.StudentFilter{}, errors.New("query parameter age must be an integer")
		}
		filter.MinAge = &age
	}

	return filter, nil
}

// GetList handles GET /students.
//
// Optional query parameters:
//
//	country — exact match on address.country
//	age     — students whose age is >= the value
//
// Returns an empty array [] (not null) when nothing matches.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			return
		}

		slog.Info("listing students", slog.String("country", filter.Country))

		students, err := store.GetStudents(r.Context(), filter)
		if err != nil {
			writeInternalError(w, "error listing students", "", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// GetByID handles GET /students/{id}.
//
// Errors: 404 when the id is malformed or no such student exists.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a student", slog.String("id", id))

		objectID, err := types.ParseID(id)
		if err != nil {
			writeNotFound(w, err)
			return
		}

		student, err := store.GetStudentByID(r.Context(), objectID)
		if errors.Is(err, storage.ErrNotFound) {
			writeNotFound(w, err)
			return
		}
		if err != nil {
			writeInternalError(w, "error getting student", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Update handles PATCH /students/{id}.
//
// Only the fields present and non-null in the body are written:
//
//	{ "age": 21 }                       → sets age
//	{ "address": { "city": "Mumbai" } } → sets address.city only
//
// Unknown keys are rejected. Success is 204 with no body.
// Errors: 404 when the id is malformed, the student does not exist, or
// the patch would not change anything; 422 for a bad body.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a student", slog.String("id", id))

		objectID, err := types.ParseID(id)
		if err != nil {
			writeNotFound(w, err)
			return
		}

		var patch types.StudentPatch

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		// An empty body is an empty patch, which is reported as a no-op below.
		if err := dec.Decode(&patch); err != nil && !errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
			return
		}

		if err := validate.Struct(patch); err != nil {
			writeValidationError(w, err)
			return
		}

		if patch.IsEmpty() {
			writeNotFound(w, storage.ErrNotFound)
			return
		}

		modified, err := store.UpdateStudentByID(r.Context(), objectID, patch)
		if err != nil {
			writeInternalError(w, "error updating student", id, err)
			return
		}
		if modified == 0 {
			writeNotFound(w, storage.ErrNotFound)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.NoContent(w)
	}
}

// Delete handles DELETE /students/{id}.
//
// Success (200): {}
// Errors: 404 when the id is malformed or nothing was deleted.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a student", slog.String("id", id))

		objectID, err := types.ParseID(id)
		if err != nil {
			writeNotFound(w, err)
			return
		}

		deleted, err := store.DeleteStudentByID(r.Context(), objectID)
		if err != nil {
			writeInternalError(w, "error deleting student", id, err)
			return
		}
		if deleted == 0 {
			writeNotFound(w, storage.ErrNotFound)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, struct{}{})
	}
}
