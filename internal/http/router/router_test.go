package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aanand-mishra/student-webserver/internal/config"
	"github.com/aanand-mishra/student-webserver/internal/http/handlers/static"
	"github.com/aanand-mishra/student-webserver/internal/http/handlers/student"
	"github.com/aanand-mishra/student-webserver/internal/migrations"
	"github.com/aanand-mishra/student-webserver/internal/storage/sqlite"
	"github.com/aanand-mishra/student-webserver/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, format string) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, &config.Config{
		Storage: config.Storage{Driver: config.DriverSQLite, Path: sqlite.MemoryPath},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, migrations.Up(ctx, store.DB, config.DriverSQLite, nil))

	base := t.TempDir()
	web := filepath.Join(base, "web")
	require.NoError(t, os.MkdirAll(web, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(web, "index.html"), []byte("<h1>students</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "secret.txt"), []byte("top secret"), 0o644))
	files, err := static.New(web)
	require.NoError(t, err)

	srv := httptest.NewServer(New(Deps{
		Store:       store,
		Pool:        worker.New(2),
		Format:      student.ParseFormat(format),
		Static:      files,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry:    prometheus.NewRegistry(),
		MetricsPath: "/metrics",
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestScenario_PostThenList(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	code, body := call(t, http.MethodPost, srv.URL+"/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Data Written", body)

	code, body = call(t, http.MethodGet, srv.URL+"/mysql", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"firstname":"John","lastname":"Smith","dept":"Tech"`)

	code, body = call(t, http.MethodGet, srv.URL+"/mysql/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"id":1,"firstname":"John","lastname":"Smith","dept":"Tech"}`, body)
}

func TestScenario_UpdateAndMissing(t *testing.T) {
	srv := newServer(t, config.FormatJSON)
	call(t, http.MethodPost, srv.URL+"/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)

	code, body := call(t, http.MethodPut, srv.URL+"/mysql/1", `{"firstName":"Jane","lastName":"Roe","dept":"Law"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Data updated", body)

	_, body = call(t, http.MethodGet, srv.URL+"/mysql/1", "")
	assert.JSONEq(t, `{"id":1,"firstname":"Jane","lastname":"Roe","dept":"Law"}`, body)

	code, _ = call(t, http.MethodPut, srv.URL+"/mysql/42", `{"firstName":"X","lastName":"Y","dept":"Z"}`)
	assert.Equal(t, http.StatusOK, code)

	code, body = call(t, http.MethodGet, srv.URL+"/mysql/42", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, body)
}

func TestScenario_MissingKey(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	code, body := call(t, http.MethodPost, srv.URL+"/mysql", `{"lastName":"Smith","dept":"Tech"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "firstName")
}

func TestScenario_TrailingBodyRejected(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	code, body := call(t, http.MethodPost, srv.URL+"/mysql", `{"firstName":"a","lastName":"b","dept":"c"} trailing`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEqual(t, "Data Written", body)

	_, body = call(t, http.MethodGet, srv.URL+"/mysql", "")
	assert.JSONEq(t, `[]`, body)
}

func TestScenario_LegacyList(t *testing.T) {
	srv := newServer(t, config.FormatLegacy)
	call(t, http.MethodPost, srv.URL+"/mysql", `{"firstName":"John","lastName":"Smith","dept":"Tech"}`)

	_, body := call(t, http.MethodGet, srv.URL+"/mysql", "")
	assert.Equal(t,
		"{\r\n{\"id\":1 ,\r\n\"firstname\":\"John\",\r\n\"lastname\":\"Smith\",\r\n\"dept\":\"Tech\"\r\n}}",
		body)
}

func TestInfo(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/info", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test", "1")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "Request from 127.0.0.1 (")
	assert.Contains(t, string(data), "X-Test: 1")
	assert.Equal(t, int64(len(data)), resp.ContentLength)
}

func TestStaticFallback(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	code, body := call(t, http.MethodGet, srv.URL+"/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "<h1>students</h1>", body)

	code, body = call(t, http.MethodGet, srv.URL+"/missing.css", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Could not open path /missing.css", body)

	// non-numeric ids fall through to the file server
	code, _ = call(t, http.MethodGet, srv.URL+"/mysql/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStaticEscapeRejected(t *testing.T) {
	srv := newServer(t, config.FormatJSON)

	// raw request so the client does not clean the path
	req := httptest.NewRequest(http.MethodGet, "/../secret.txt", nil)
	rr := httptest.NewRecorder()
	srv.Config.Handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.NotContains(t, rr.Body.String(), "top secret")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t, config.FormatJSON)
	call(t, http.MethodGet, srv.URL+"/mysql", "")

	code, body := call(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `student_http_requests_total{method="GET",route="/mysql",status="200"} 1`)
}
