package student

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aanand-mishra/student-webserver/internal/storage"
	"github.com/aanand-mishra/student-webserver/internal/types"
	"github.com/aanand-mishra/student-webserver/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory storage.Storage.
type memStore struct {
	mu     sync.Mutex
	rows   []types.Student
	nextID int64
	err    error
}

func (m *memStore) GetStudents(context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.Student, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *memStore) GetStudentByID(_ context.Context, id int64) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Student{}, m.err
	}
	for _, s := range m.rows {
		if s.ID == id {
			return s, nil
		}
	}
	return types.Student{}, fmt.Errorf("id %d: %w", id, storage.ErrNotFound)
}

func (m *memStore) CreateStudent(_ context.Context, first, last, dept string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	m.rows = append(m.rows, types.Student{ID: m.nextID, FirstName: first, LastName: last, Dept: dept})
	return nil
}

func (m *memStore) UpdateStudentByID(_ context.Context, id int64, first, last, dept string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows[i] = types.Student{ID: id, FirstName: first, LastName: last, Dept: dept}
		}
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func newRouter(store storage.Storage, format Format) http.Handler {
	r := chi.NewRouter()
	r.Get("/mysql", GetList(store, worker.New(2), format))
	r.Get("/mysql/{id:[0-9]+}", GetByID(store, format))
	r.Post("/mysql", New(store))
	r.Put("/mysql/{id:[0-9]+}", Update(store))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestPostThenList(t *testing.T) {
	h := newRouter(&memStore{}, Format("json"))

	rr := do(t, h, http.MethodPost, "/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, MsgWritten, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/mysql", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"firstname":"John","lastname":"Smith","dept":"Tech"`)
	assert.Equal(t, fmt.Sprint(rr.Body.Len()), rr.Header().Get("Content-Length"))
}

func TestPostThenGetByID(t *testing.T) {
	h := newRouter(&memStore{}, Format("json"))

	do(t, h, http.MethodPost, "/mysql", `{"firstName":"Ada","lastName":"Lovelace","dept":"Math"}`)

	rr := do(t, h, http.MethodGet, "/mysql/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"firstname":"Ada","lastname":"Lovelace","dept":"Math"}`, rr.Body.String())
}

func TestGetByID_NotFoundIsEmpty200(t *testing.T) {
	for _, f := range []Format{"json", "legacy"} {
		t.Run(string(f), func(t *testing.T) {
			rr := do(t, newRouter(&memStore{}, f), http.MethodGet, "/mysql/7", "")
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, rr.Body.String())
			assert.Equal(t, "0", rr.Header().Get("Content-Length"))
		})
	}
}

func TestGetByID_NonNumericDoesNotMatch(t *testing.T) {
	rr := do(t, newRouter(&memStore{}, Format("json")), http.MethodGet, "/mysql/abc", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetByID_Overflow(t *testing.T) {
	rr := do(t, newRouter(&memStore{}, Format("json")), http.MethodGet, "/mysql/99999999999999999999", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid id")
}

func TestPost_BadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "request body is empty"},
		{"malformed", `{"firstName":`, "unexpected EOF"},
		{"missing firstName", `{"lastName":"Smith","dept":"Tech"}`, "field firstName is required"},
		{"missing two", `{"firstName":"John"}`, "field lastName is required, field dept is required"},
		{"wrong type", `{"firstName":1,"lastName":"Smith","dept":"Tech"}`, "cannot unmarshal"},
		{"trailing text", `{"firstName":"a","lastName":"b","dept":"c"} trailing`, "after top-level value"},
		{"two objects", `{"firstName":"a","lastName":"b","dept":"c"}{"firstName":"d","lastName":"e","dept":"f"}`, "after top-level value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			rr := do(t, newRouter(store, Format("json")), http.MethodPost, "/mysql", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, rr.Body.String())
			assert.Contains(t, rr.Body.String(), tt.want)
			assert.Empty(t, store.rows)
		})
	}
}

func TestPost_EmptyStringsAccepted(t *testing.T) {
	store := &memStore{}
	rr := do(t, newRouter(store, Format("json")), http.MethodPost, "/mysql", `{"firstName":"","lastName":"","dept":""}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, store.rows, 1)
}

func TestPut_UpdatesExisting(t *testing.T) {
	store := &memStore{}
	h := newRouter(store, Format("json"))
	do(t, h, http.MethodPost, "/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)

	rr := do(t, h, http.MethodPut, "/mysql/1", `{"firstName":"Jo","lastName":"Smyth","dept":"Arts"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, MsgUpdated, rr.Body.String())

	rr = do(t, h, http.MethodGet, "/mysql/1", "")
	assert.JSONEq(t, `{"id":1,"firstname":"Jo","lastname":"Smyth","dept":"Arts"}`, rr.Body.String())
}

func TestPut_MissingIDIsNoop(t *testing.T) {
	store := &memStore{}
	h := newRouter(store, Format("json"))

	rr := do(t, h, http.MethodPut, "/mysql/5", `{"firstName":"Jo","lastName":"Smyth","dept":"Arts"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, store.rows)
}

func TestPost_TrailingWhitespaceAccepted(t *testing.T) {
	store := &memStore{}
	rr := do(t, newRouter(store, Format("json")), http.MethodPost, "/mysql", "{\"firstName\":\"a\",\"lastName\":\"b\",\"dept\":\"c\"}\r\n")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, store.rows, 1)
}

func TestPut_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json`},
		{"trailing text", `{"firstName":"a","lastName":"b","dept":"c"} trailing`},
		{"two objects", `{"firstName":"a","lastName":"b","dept":"c"}{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			h := newRouter(store, Format("json"))
			do(t, h, http.MethodPost, "/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)

			rr := do(t, h, http.MethodPut, "/mysql/1", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, rr.Body.String())

			rr = do(t, h, http.MethodGet, "/mysql/1", "")
			assert.JSONEq(t, `{"id":1,"firstname":"John","lastname":"Smith","dept":"Tech"}`, rr.Body.String())
		})
	}
}

func TestStorageErrorsAre500(t *testing.T) {
	store := &memStore{err: errors.New("dial tcp 127.0.0.1:3306: connection refused")}
	h := newRouter(store, Format("json"))

	tests := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/mysql", ""},
		{http.MethodGet, "/mysql/1", ""},
		{http.MethodPost, "/mysql", `{"firstName":"a","lastName":"b","dept":"c"}`},
		{http.MethodPut, "/mysql/1", `{"firstName":"a","lastName":"b","dept":"c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.JSONEq(t,
				`{"status":"error","error":"dial tcp 127.0.0.1:3306: connection refused"}`,
				rr.Body.String())
		})
	}
}

func TestList_LegacyFormat(t *testing.T) {
	store := &memStore{}
	h := newRouter(store, Format("legacy"))
	do(t, h, http.MethodPost, "/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)

	rr := do(t, h, http.MethodGet, "/mysql", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t,
		"{\r\n{\"id\":1 ,\r\n\"firstname\":\"John\",\r\n\"lastname\":\"Smith\",\r\n\"dept\":\"Tech\"\r\n}}",
		rr.Body.String())
}
