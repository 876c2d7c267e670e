package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMiddleware)
	r.Get("/companies/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/companies/{id}", "404"))

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/"+id, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/companies/{id}", "404"))
	if after-before != 3 {
		t.Errorf("counter grew by %v, want 3", after-before)
	}
}

func TestHTTPMiddleware_DefaultStatus(t *testing.T) {
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200"))

	if after-before != 1 {
		t.Errorf("counter grew by %v, want 1", after-before)
	}
}

func TestObserveRegistration(t *testing.T) {
	before := testutil.ToFloat64(RegistrationsTotal.WithLabelValues("DuplicateCompany"))
	ObserveRegistration("DuplicateCompany", 20*time.Millisecond)
	after := testutil.ToFloat64(RegistrationsTotal.WithLabelValues("DuplicateCompany"))

	if after-before != 1 {
		t.Errorf("RegistrationsTotal grew by %v, want 1", after-before)
	}
}

func TestFileStored(t *testing.T) {
	files := testutil.ToFloat64(FilesStoredTotal)
	bytes := testutil.ToFloat64(FileBytesStoredTotal)

	FileStored(2048)

	if got := testutil.ToFloat64(FilesStoredTotal) - files; got != 1 {
		t.Errorf("FilesStoredTotal grew by %v, want 1", got)
	}
	if got := testutil.ToFloat64(FileBytesStoredTotal) - bytes; got != 2048 {
		t.Errorf("FileBytesStoredTotal grew by %v, want 2048", got)
	}
}

type fakeStats struct{ total, acquired, idle, max int32 }

func (f fakeStats) TotalConns() int32    { return f.total }
func (f fakeStats) AcquiredConns() int32 { return f.acquired }
func (f fakeStats) IdleConns() int32     { return f.idle }
func (f fakeStats) MaxConns() int32      { return f.max }

func TestDBCollector(t *testing.T) {
	c := &DBCollector{stat: func() PoolStats { return fakeStats{total: 5, acquired: 2, idle: 3, max: 10} }}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx, time.Hour)

	if got := testutil.ToFloat64(DBConnectionsInUse); got != 2 {
		t.Errorf("DBConnectionsInUse = %v, want 2", got)
	}
	if got := testutil.ToFloat64(DBConnectionsMax); got != 10 {
		t.Errorf("DBConnectionsMax = %v, want 10", got)
	}
}

func TestHandler(t *testing.T) {
	FileCleanup("deleted")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "registrar_file_cleanup_total") {
		t.Error("exposition is missing registrar_file_cleanup_total")
	}
}
