// Package student contains the HTTP handlers for the /mysql routes.
//
// HANDLER PATTERN: CLOSURE / FACTORY
// ────────────────────────────────────────────────────────────
// The router expects func(http.ResponseWriter, *http.Request). To inject
// the storage (and the worker pool, and the body format) each handler is
// built by a factory that is called ONCE at startup and returns the
// function that runs on EVERY request:
//
//	r.Get("/mysql", student.GetList(store, pool, format))
package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-webserver/internal/storage"
	"github.com/aanand-mishra/student-webserver/internal/types"
	"github.com/aanand-mishra/student-webserver/internal/utils/response"
	"github.com/aanand-mishra/student-webserver/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Fixed confirmation bodies.
const (
	MsgWritten = "Data Written"
	MsgUpdated = "Data updated"
)

// maxBodyBytes caps POST/PUT bodies.
const maxBodyBytes = 1 << 20

// validate reports fields by their JSON key ("firstName"), which is what
// the client sent.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /mysql
// Returns every student in the table.
//
// The query runs on the worker pool; this goroutine waits for the result
// and writes the response only once the rows are in hand.
//
// Responses:
//
//	200 OK          : list body in the configured format
//	500 Internal    : database error, as a {"status":"error"} JSON envelope
//
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage, pool *worker.Pool, format Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := worker.Do(r.Context(), pool,
			func(ctx context.Context) ([]types.Student, error) {
				return store.GetStudents(ctx)
			})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				slog.Warn("client went away before students were loaded")
				return
			}
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.ServerError(w, err)
			return
		}

		body, err := format.List(students)
		if err != nil {
			response.ServerError(w, err)
			return
		}
		response.Write(w, http.StatusOK, format.ContentType(), body)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /mysql/{id}
//
// Responses:
//
//	200 OK          : the record, or an EMPTY body when no row has that id
//	400 Bad Request : id does not fit in an int64
//	500 Internal    : database error, as a {"status":"error"} JSON envelope
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage, format Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := store.GetStudentByID(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.Write(w, http.StatusOK, format.ContentType(), nil)
			return
		}
		if err != nil {
			slog.Error("error getting student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.ServerError(w, err)
			return
		}

		body, err := format.Record(student)
		if err != nil {
			response.ServerError(w, err)
			return
		}
		response.Write(w, http.StatusOK, format.ContentType(), body)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /mysql
//
// Request body (JSON), every key required:
//
//	{ "firstName": "John", "lastName": "Smith", "dept": "Tech" }
//
// Responses:
//
//	200 OK          : "Data Written"
//	400 Bad Request : empty body, malformed JSON, or a missing key
//	500 Internal    : database error, as a {"status":"error"} JSON envelope
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		input, err := decodeInput(w, r)
		if err != nil {
			response.GeneralError(w, http.StatusBadRequest, err)
			return
		}

		if err := store.CreateStudent(r.Context(),
			*input.FirstName, *input.LastName, *input.Dept); err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.ServerError(w, err)
			return
		}

		slog.Info("student created",
			slog.String("firstname", *input.FirstName),
			slog.String("lastname", *input.LastName),
			slog.String("dept", *input.Dept))
		response.WriteText(w, http.StatusOK, MsgWritten)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /mysql/{id}
// Overwrites all three text columns. An id with no row is not an error
// and creates nothing.
//
// Responses:
//
//	200 OK          : "Data updated"
//	400 Bad Request : bad id, empty body, malformed JSON, or a missing key
//	500 Internal    : database error, as a {"status":"error"} JSON envelope
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		input, err := decodeInput(w, r)
		if err != nil {
			response.GeneralError(w, http.StatusBadRequest, err)
			return
		}

		if err := store.UpdateStudentByID(r.Context(), id,
			*input.FirstName, *input.LastName, *input.Dept); err != nil {
			slog.Error("error updating student",
				slog.Int64("id", id),
				slog.String("error", err.Error()))
			response.ServerError(w, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteText(w, http.StatusOK, MsgUpdated)
	}
}

// pathID parses the {id} segment. The route pattern only admits digits,
// so the one remaining failure is overflow; it writes the 400 itself.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		response.GeneralError(w, http.StatusBadRequest,
			fmt.Errorf("invalid id %q: must be an integer", raw))
		return 0, false
	}
	return id, true
}

// decodeInput reads and validates a StudentInput body. Trailing data
// after the object is a parse error.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.StudentInput, error) {
	var input types.StudentInput

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(&input)
	if errors.Is(err, io.EOF) {
		return input, errors.New("request body is empty")
	}
	if err != nil {
		return input, err
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return input, errors.New("invalid character after top-level value")
		}
		return input, fmt.Errorf("invalid character after top-level value: %w", err)
	}

	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return input, errors.New(response.ValidationError(verrs))
		}
		return input, err
	}
	return input, nil
}
