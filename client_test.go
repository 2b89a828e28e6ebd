package solrq

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const selectBody = `{
  "responseHeader": {"status": 0, "QTime": 3},
  "response": {"numFound": 2, "start": 0, "maxScore": 1.5, "docs": [
    {"id": "p1", "title": "Red shoe", "price": 19.5, "stock": 3, "in_stock": true,
     "created": "2024-03-01T10:00:00Z", "tags": ["sale", "shoes"], "score": 1.5},
    {"id": "p2", "title": "Blue shoe", "price": 25, "stock": 0, "in_stock": false,
     "created": "2024-03-02T10:00:00Z", "tags": ["shoes"], "score": 0.5}
  ]}
}`

func TestNew_NilSource(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil schema source")
	}
}

func TestNew_SchemaSourceError(t *testing.T) {
	_, err := New(context.Background(), SchemaFile("testdata/missing.xml"))
	if err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), FromSchema(testSchema(t)), WithURL("not a url", ""))
	if err == nil {
		t.Fatal("expected error for invalid url")
	}
}

func TestClient_Offline(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, FromSchema(testSchema(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	q, err := c.Query().Add(Fields{"title": "shoe"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := q.String(); got != "title:shoe" {
		t.Errorf("query = %q, want %q", got, "title:shoe")
	}

	if _, err := c.Select(ctx, c.Search()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Select err = %v, want ErrNotConnected", err)
	}
	if err := c.DeleteByQuery(ctx, q); !errors.Is(err, ErrNotConnected) {
		t.Errorf("DeleteByQuery err = %v, want ErrNotConnected", err)
	}
	if err := c.DeleteAll(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("DeleteAll err = %v, want ErrNotConnected", err)
	}
	if err := c.Ping(ctx); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Ping err = %v, want ErrNotConnected", err)
	}
	if err := c.InvalidateCache(ctx); err != nil {
		t.Errorf("InvalidateCache without cache: %v", err)
	}
}

func TestClient_QueryErrorsNameField(t *testing.T) {
	c, err := New(context.Background(), FromSchema(testSchema(t)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Query().Add(Fields{"stock": "many"})
	if !errors.Is(err, ErrValueType) {
		t.Fatalf("err = %v, want ErrValueType", err)
	}
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "stock" {
		t.Errorf("FieldError = %+v, want field stock", fe)
	}
}

func TestClient_Select(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeSolr(t)
	fake.bodies["/products/select"] = selectBody

	c, err := New(ctx, FromSchema(testSchema(t)), WithURL(srv.URL, "products"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	req, err := c.Search().Query(Fields{"title": "shoe"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	req, err = req.Filter(Fields{"in_stock": true})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	req, err = req.Paginate(0, 10)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}

	resp, err := c.Select(ctx, req)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	r := fake.last()
	if r == nil {
		t.Fatal("no request recorded")
	}
	if got := r.Form.Get("q"); got != "title:shoe" {
		t.Errorf("q = %q, want title:shoe", got)
	}
	if got := r.Form.Get("fq"); got != "in_stock:true" {
		t.Errorf("fq = %q, want in_stock:true", got)
	}
	if got := r.Form.Get("rows"); got != "10" {
		t.Errorf("rows = %q, want 10", got)
	}

	if resp.Page.NumFound != 2 || len(resp.Page.Docs) != 2 {
		t.Fatalf("page = %+v, want 2 docs", resp.Page)
	}
	if resp.QTime != 3 {
		t.Errorf("qtime = %d, want 3", resp.QTime)
	}
	price, _ := resp.Page.Docs[0].Get("price")
	if price != 19.5 {
		t.Errorf("price = %v, want 19.5", price)
	}
	stock, _ := resp.Page.Docs[0].Get("stock")
	if stock != int64(3) {
		t.Errorf("stock = %#v, want int64(3)", stock)
	}
}

func TestClient_Select_ForeignSchema(t *testing.T) {
	_, srv := newFakeSolr(t)
	c, err := New(context.Background(), FromSchema(testSchema(t)), WithURL(srv.URL, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Select(context.Background(), NewRequest(testSchema(t)))
	if !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestClient_Select_UpstreamError(t *testing.T) {
	fake, srv := newFakeSolr(t)
	fake.status = http.StatusBadRequest
	fake.bodies["/select"] = `{"error":{"msg":"undefined field foo","code":400}}`

	c, err := New(context.Background(), FromSchema(testSchema(t)), WithURL(srv.URL, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = c.Select(context.Background(), c.Search())
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadRequest {
		t.Errorf("StatusError = %+v, want code 400", se)
	}
}

func TestClient_DeleteByQuery(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeSolr(t)
	c, err := New(ctx, FromSchema(testSchema(t)), WithURL(srv.URL, "products"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q, err := c.Query().Add(Fields{"id": "p1"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.DeleteByQuery(ctx, q); err != nil {
		t.Fatalf("DeleteByQuery: %v", err)
	}
	r := fake.last()
	if r.Method != http.MethodPost || r.URL.Path != "/products/update" {
		t.Errorf("request = %s %s, want POST /products/update", r.Method, r.URL.Path)
	}
	if r.URL.Query().Get("commit") != "true" {
		t.Errorf("commit = %q, want true", r.URL.Query().Get("commit"))
	}

	if err := c.DeleteByQuery(ctx, c.Query()); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("empty query err = %v, want ErrInvalidRequest", err)
	}
}

func TestClient_Ping(t *testing.T) {
	fake, srv := newFakeSolr(t)
	fake.bodies["/admin/ping"] = `{"status":"OK"}`
	c, err := New(context.Background(), FromSchema(testSchema(t)), WithURL(srv.URL, ""))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestClient_WithPrometheus(t *testing.T) {
	ctx := context.Background()
	fake, srv := newFakeSolr(t)
	fake.bodies["/select"] = selectBody
	reg := prometheus.NewRegistry()

	c, err := New(ctx, FromSchema(testSchema(t)), WithURL(srv.URL, ""), WithPrometheus(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Select(ctx, c.Search()); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := c.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}

	const want = `
# HELP solrq_sdk_operations_total Total SDK operations by type and status.
# TYPE solrq_sdk_operations_total counter
solrq_sdk_operations_total{operation="delete_all",status="ok"} 1
solrq_sdk_operations_total{operation="select",status="ok"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(want), "solrq_sdk_operations_total"); err != nil {
		t.Error(err)
	}
}
