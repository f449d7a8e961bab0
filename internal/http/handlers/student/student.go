// Package student contains the HTTP handlers for the Student resource.
//
// HANDLER FACTORIES
// ─────────────────
// Each exported function is a factory: it is called once at route
// registration with the storage dependency and returns the handler that
// runs on every request. The closure captures store, so handlers need no
// globals and tests can hand in a fake.
//
//	r.Post("/students/", student.New(store))
//
// STATUS CODES
// ────────────
//
//	400  empty, malformed or invalid body, or a non-integer {id}
//	404  no student has that {id}
//	500  anything else the storage layer returns
//
// Error bodies always use the response envelope:
//
//	{ "status": "error", "error": "student not found" }
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/students-api/internal/storage"
	"github.com/aanand-mishra/students-api/internal/types"
	"github.com/aanand-mishra/students-api/internal/utils/response"
)

var (
	errEmptyBody    = errors.New("request body is empty")
	errTrailingData = errors.New("request body must contain a single JSON object")
	errInvalidID    = errors.New("invalid id: must be an integer")
	errNotFound     = errors.New("student not found")
)

// validate reports fields under their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /students/
//
// Request body:
//
//	{ "name": "Ana", "age": 20 }
//
// Responds 201 with the created student, 400 on an empty, malformed or
// invalid body, 500 on a storage failure.
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// ── Step 1: Decode the JSON body ──────────────────────────────
		var req types.NewStudent
		if !decode(w, r, &req) {
			return
		}

		// ── Step 2: Validate, reporting fields by their JSON names ────
		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
				return
			}
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		// ── Step 3: Persist; the database assigns the id ───────────────
		student, err := store.CreateStudent(r.Context(), req.Name, *req.Age)
		if err != nil {
			internalError(w, r, "error creating student", err)
			return
		}

		// ── Step 4: Return 201 Created with the full record ───────────
		slog.InfoContext(r.Context(), "student created", slog.Int64("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /students/
//
// Responds 200 with a JSON array, [] when there are no students.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		students, err := store.GetStudents(r.Context())
		if err != nil {
			internalError(w, r, "error getting students", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /students/{id}
//
// Responds 200 with the student, 400 for a non-integer id, 404 when no
// student has that id.
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		student, err := store.GetStudentByID(r.Context(), id)
		if err != nil {
			storageError(w, r, "error getting student", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /students/{id}
//
// Every field is optional; the ones left out keep their stored value.
//
//	{ "age": 21 }
//
// Responds 200 with the updated student, 400 on a bad id or body, 404 when
// no student has that id.
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var patch types.StudentPatch
		if !decode(w, r, &patch) {
			return
		}
		if err := patch.Validate(); err != nil {
			response.WriteError(w, http.StatusBadRequest, err)
			return
		}

		student, err := store.UpdateStudentByID(r.Context(), id, patch)
		if err != nil {
			storageError(w, r, "error updating student", err)
			return
		}

		slog.InfoContext(r.Context(), "student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /students/{id}
//
// Responds 204 with no body, 400 for a non-integer id, 404 when no student
// has that id.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := store.DeleteStudentByID(r.Context(), id); err != nil {
			storageError(w, r, "error deleting student", err)
			return
		}

		slog.InfoContext(r.Context(), "student deleted", slog.Int64("id", id))
		response.WriteNoContent(w)
	}
}

// decode reads the JSON body into v. It writes a 400 and returns false when
// the body is empty, malformed, or carries anything after the first value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteError(w, http.StatusBadRequest, errEmptyBody)
		return false
	}
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		response.WriteError(w, http.StatusBadRequest, errTrailingData)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, errInvalidID)
		return 0, false
	}
	return id, true
}

// storageError maps NotFound to 404 and everything else to 500.
func storageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if storage.IsNotFound(err) {
		response.WriteError(w, http.StatusNotFound, errNotFound)
		return
	}
	internalError(w, r, msg, err)
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg,
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	response.WriteError(w, http.StatusInternalServerError, err)
}
