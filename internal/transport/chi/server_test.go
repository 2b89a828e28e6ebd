package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/schema"
	"github.com/kailas-cloud/solrq/internal/domain/schema/field"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
	healthuc "github.com/kailas-cloud/solrq/internal/usecase/health"
	searchuc "github.com/kailas-cloud/solrq/internal/usecase/search"
)

// --- Mocks ---

type mockSelecter struct {
	resp   *solr.Response
	err    error
	params url.Values
}

func (m *mockSelecter) Select(_ context.Context, params url.Values) (*solr.Response, error) {
	m.params = params
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// --- Helpers ---

type fixture struct {
	selecter *mockSelecter
	solr     *mockPinger
	handler  http.Handler
}

func newFixture(t *testing.T, keys ...string) *fixture {
	t.Helper()
	s, err := schema.New([]field.Field{
		field.Reconstruct("id", field.Text, field.Required()),
		field.Reconstruct("title", field.Text),
		field.Reconstruct("int_field", field.Integer),
	}, schema.WithDefaultField("title"), schema.WithUniqueKey("id"))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}

	f := &fixture{
		selecter: &mockSelecter{resp: &solr.Response{
			Header: solr.Header{QTime: 3},
			Response: &solr.DocList{
				NumFound: 1,
				Docs:     []map[string]any{{"id": "doc-1", "int_field": json.Number("7")}},
			},
		}},
		solr: &mockPinger{},
	}
	search := searchuc.New(s, f.selecter, nil, nil)
	health := healthuc.New(f.solr, nil)
	srv := NewServer(search, health, zap.NewNop())
	f.handler = NewRouter(srv, RouterConfig{APIKeys: keys}, zap.NewNop())
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthuc.Healthy || resp.Checks["solr"] != healthuc.CheckOK {
		t.Errorf("unexpected health response: %+v", resp)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}

	f.solr.err = errors.New("conn refused")
	if rr := f.do(t, http.MethodGet, "/health", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("solr down: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestGetSchema(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v1/schema", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}
	var doc schema.Document
	if err := json.NewDecoder(rr.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.DefaultField != "title" || doc.UniqueKey != "id" || len(doc.Fields) != 3 {
		t.Errorf("unexpected schema: %+v", doc)
	}
}

func TestCompile(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/compile",
		`{"query": {"values": ["hello"]}, "filter": [{"fields": {"int_field": 5}}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	var resp CompileResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Q != "hello" || len(resp.FQ) != 1 || resp.FQ[0] != "int_field:5" {
		t.Errorf("unexpected compile response: %+v", resp)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   ErrorCode
	}{
		{"unknown field", `{"query": {"fields": {"nope": 1}}}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"bad value", `{"query": {"fields": {"int_field": "x"}}}`, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"malformed json", `{"query":`, http.StatusBadRequest, ErrorCodeBadRequest},
		{"unknown key", `{"query": {}, "extra": 1}`, http.StatusBadRequest, ErrorCodeBadRequest},
		{"empty body", ``, http.StatusBadRequest, ErrorCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := httptest.NewRequest(http.MethodPost, "/v1/compile", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			f.handler.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d: %s", rr.Code, tt.status, rr.Body.String())
			}
			if resp := decodeError(t, rr); resp.Code != tt.code {
				t.Errorf("code: got %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestCompile_FieldNameInMessage(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/compile", `{"query": {"fields": {"nope": 1}}}`)
	resp := decodeError(t, rr)
	if !strings.Contains(resp.Message, `"nope"`) {
		t.Errorf("expected field name in message, got %q", resp.Message)
	}
}

func TestSelect(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/select?rows=5",
		`{"query": {"terms": {"title": "foo"}}, "start": 10, "rows": 50, "sort": ["-int_field"], "fl": ["id"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	p := f.selecter.params
	if p.Get("q") != "title:foo" || p.Get("start") != "10" || p.Get("rows") != "5" {
		t.Errorf("unexpected params: %v", p)
	}
	if p.Get("sort") != "int_field desc" || p.Get("fl") != "id" {
		t.Errorf("unexpected sort/fl: %v", p)
	}

	var resp struct {
		Response struct {
			NumFound int64            `json:"num_found"`
			Docs     []map[string]any `json:"docs"`
		} `json:"response"`
		QTime int `json:"qtime"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Response.NumFound != 1 || len(resp.Response.Docs) != 1 || resp.QTime != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Response.Docs[0]["int_field"] != float64(7) {
		t.Errorf("unexpected doc: %v", resp.Response.Docs[0])
	}
}

func TestSelect_Facets(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/select",
		`{"query": {}, "facets": [{"field": "int_field", "limit": 3, "min_count": 1}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	p := f.selecter.params
	if p.Get("q") != "*:*" || p.Get("facet.field") != "int_field" || p.Get("f.int_field.facet.limit") != "3" {
		t.Errorf("unexpected params: %v", p)
	}
	if p.Get("f.int_field.facet.mincount") != "1" {
		t.Errorf("expected mincount 1, got %q", p.Get("f.int_field.facet.mincount"))
	}
}

func TestSelect_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		err    error
		status int
		code   ErrorCode
	}{
		{"bad rows", "/v1/select?rows=abc", `{"query": {}}`, nil, http.StatusBadRequest, ErrorCodeBadRequest},
		{"negative rows", "/v1/select?rows=-1", `{"query": {}}`, nil, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"unknown sort", "/v1/select", `{"query": {}, "sort": ["nope"]}`, nil, http.StatusBadRequest, ErrorCodeValidationFailed},
		{"upstream", "/v1/select", `{"query": {}}`,
			&solr.StatusError{Op: "select", Code: 500, Message: "boom"}, http.StatusBadGateway, ErrorCodeUpstreamError},
		{"timeout", "/v1/select", `{"query": {}}`,
			context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeUpstreamTimeout},
		{"internal", "/v1/select", `{"query": {}}`, errors.New("boom"), http.StatusInternalServerError, ErrorCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.selecter.err = tt.err
			rr := f.do(t, http.MethodPost, tt.target, tt.body)

			if rr.Code != tt.status {
				t.Fatalf("got %d, want %d: %s", rr.Code, tt.status, rr.Body.String())
			}
			resp := decodeError(t, rr)
			if resp.Code != tt.code {
				t.Errorf("code: got %s, want %s", resp.Code, tt.code)
			}
			if tt.code == ErrorCodeUpstreamError && resp.Message != domain.ErrUpstream.Error() {
				t.Errorf("upstream message leaked details: %q", resp.Message)
			}
		})
	}
}

func TestSelectArgs(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v1/select?q=hello&fq=int_field=5&sort=-int_field&fl=id,score&rows=2", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	p := f.selecter.params
	if p.Get("q") != "hello" || p.Get("fq") != "int_field:5" {
		t.Errorf("unexpected q/fq: %v", p)
	}
	if p.Get("sort") != "int_field desc" || p.Get("fl") != "id,score" || p.Get("rows") != "2" {
		t.Errorf("unexpected params: %v", p)
	}
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v2/nothing", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorCodeNotFound {
		t.Errorf("code: got %s, want %s", resp.Code, ErrorCodeNotFound)
	}
}

func TestRouter_Auth(t *testing.T) {
	f := newFixture(t, "secret")

	if rr := f.do(t, http.MethodGet, "/v1/schema", ""); rr.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
	if rr := f.do(t, http.MethodGet, "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("health exempt: got %d, want %d", rr.Code, http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/schema", http.NoBody)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("valid token: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if resp := decodeError(t, rr); resp.Code != ErrorCodeInternalError {
		t.Errorf("code: got %s, want %s", resp.Code, ErrorCodeInternalError)
	}
}

func TestMaxBodyBytes(t *testing.T) {
	f := newFixture(t)
	srv := NewServer(searchuc.New(nil, f.selecter, nil, nil), healthuc.New(f.solr, nil), zap.NewNop()).
		WithMaxBodyBytes(8)

	req := httptest.NewRequest(http.MethodPost, "/v1/compile", strings.NewReader(`{"query": {"values": ["long"]}}`))
	rr := httptest.NewRecorder()
	srv.Compile(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("got %d, want %d", rr.Code, http.StatusRequestEntityTooLarge)
	}
}
