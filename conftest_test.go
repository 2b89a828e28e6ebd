package solrq

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	mk := func(name string, kind FieldKind) Field {
		f, err := NewField(name, kind)
		if err != nil {
			t.Fatalf("NewField(%q): %v", name, err)
		}
		return f
	}
	tags, err := NewField("tags", KindText, MultiValued())
	if err != nil {
		t.Fatalf("NewField(tags): %v", err)
	}
	s, err := NewSchema([]Field{
		mk("id", KindText),
		mk("title", KindText),
		mk("price", KindDouble),
		mk("stock", KindInteger),
		mk("in_stock", KindBoolean),
		mk("created", KindDate),
		tags,
	}, "title", "id")
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

// fakeSolr records requests and answers with a fixed body.
type fakeSolr struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   map[string]string
	status   int
}

func newFakeSolr(t *testing.T) (*fakeSolr, *httptest.Server) {
	t.Helper()
	f := &fakeSolr{bodies: map[string]string{}, status: http.StatusOK}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.requests = append(f.requests, r)
		status := f.status
		body, ok := f.bodies[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			body = `{"responseHeader":{"status":0,"QTime":1}}`
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSolr) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}
