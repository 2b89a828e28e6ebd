package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kailas-cloud/solrq/internal/domain"
	"github.com/kailas-cloud/solrq/internal/domain/search/expr"
	"github.com/kailas-cloud/solrq/internal/domain/search/request"
	"github.com/kailas-cloud/solrq/internal/transport/solr"
)

func intPtr(v int) *int { return &v }

func TestCompile(t *testing.T) {
	svc := New(testSchema(t), &mockSelecter{}, nil, nil)

	got, err := svc.Compile(context.Background(),
		expr.Expr{Values: []any{"hello"}},
		[]expr.Expr{{Fields: map[string]any{"int_field": 5}}, {}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Q != "hello" {
		t.Errorf("expected q %q, got %q", "hello", got.Q)
	}
	if len(got.FQ) != 1 || got.FQ[0] != "int_field:5" {
		t.Errorf("expected fq [int_field:5], got %v", got.FQ)
	}
}

func TestCompile_Errors(t *testing.T) {
	svc := New(testSchema(t), &mockSelecter{}, nil, nil)
	tests := []struct {
		name    string
		main    expr.Expr
		filters []expr.Expr
		want    error
	}{
		{"unknown field", expr.Expr{Fields: map[string]any{"nope": 1}}, nil, domain.ErrUnknownField},
		{"unindexed field", expr.Expr{Fields: map[string]any{"body": "x"}}, nil, domain.ErrNotIndexed},
		{"bad filter value", expr.Expr{}, []expr.Expr{{Fields: map[string]any{"int_field": "abc"}}}, domain.ErrValueType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Compile(context.Background(), tt.main, tt.filters)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildRequest(t *testing.T) {
	svc := New(testSchema(t), &mockSelecter{}, nil, nil)

	req, err := svc.BuildRequest(&SelectInput{
		Query:   expr.Expr{Fields: map[string]any{"title": "foo"}},
		Filters: []expr.Expr{{Fields: map[string]any{"tags": "a"}}},
		Rows:    intPtr(5),
		Sort:    []string{"-int_field"},
		Fields:  []string{"id", "score"},
		Facets:  []FacetInput{{Field: "tags", Options: request.FacetOptions{Limit: 3}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := req.Params()
	checks := map[string]string{
		"q":                  "title:foo",
		"fq":                 "tags:a",
		"start":              "0",
		"rows":               "5",
		"sort":               "int_field desc",
		"fl":                 "id,score",
		"facet":              "true",
		"facet.field":        "tags",
		"f.tags.facet.limit": "3",
		"wt":                 "json",
	}
	for k, want := range checks {
		if got := p.Get(k); got != want {
			t.Errorf("param %s: expected %q, got %q", k, want, got)
		}
	}
}

func TestBuildRequest_Errors(t *testing.T) {
	svc := New(testSchema(t), &mockSelecter{}, nil, nil)
	tests := []struct {
		name string
		in   SelectInput
		want error
	}{
		{"negative rows", SelectInput{Rows: intPtr(-1)}, domain.ErrInvalidRequest},
		{"sort unknown", SelectInput{Sort: []string{"nope"}}, domain.ErrUnknownField},
		{"facet unindexed", SelectInput{Facets: []FacetInput{{Field: "body"}}}, domain.ErrNotIndexed},
		{"mlt qf outside fields", SelectInput{MoreLikeThis: &MoreLikeThisInput{
			Fields:      []string{"title"},
			QueryFields: map[string]float64{"tags": 1},
		}}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BuildRequest(&tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSelect_DecodesDocuments(t *testing.T) {
	maxScore := 1.5
	sel := &mockSelecter{resp: &solr.Response{
		Header: solr.Header{QTime: 7},
		Response: &solr.DocList{
			NumFound: 2,
			MaxScore: &maxScore,
			Docs: []map[string]any{
				{"id": "a", "int_field": json.Number("42"), "score": json.Number("1.5")},
				{"id": "b", "tags": []any{"x", "y"}},
			},
		},
		FacetCounts: &solr.FacetCounts{FacetFields: map[string][]any{
			"tags": {"x", json.Number("2"), "y", json.Number("1")},
		}},
	}}
	svc := New(testSchema(t), sel, nil, nil)

	res, err := svc.Select(context.Background(), &SelectInput{Query: expr.Expr{Values: []any{"foo"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.params) != 1 || sel.params[0].Get("q") != "foo" {
		t.Fatalf("unexpected params: %v", sel.params)
	}
	if res.QTime != 7 || res.Page.NumFound != 2 || len(res.Page.Docs) != 2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if v, _ := res.Page.Docs[0].Get("int_field"); v != int64(42) {
		t.Errorf("expected int64 42, got %#v", v)
	}
	if score, ok := res.Page.Docs[0].Score(); !ok || score != 1.5 {
		t.Errorf("expected score 1.5, got %v %v", score, ok)
	}
	if got := res.Facets["tags"]; len(got) != 2 || got[0].Value != "x" || got[0].Count != 2 {
		t.Errorf("unexpected facets: %+v", res.Facets)
	}
}

func TestExecute_BadDocument(t *testing.T) {
	sel := &mockSelecter{resp: &solr.Response{Response: &solr.DocList{
		Docs: []map[string]any{{"int_field": "not a number"}},
	}}}
	svc := New(testSchema(t), sel, nil, nil)

	_, err := svc.Execute(context.Background(), request.New(svc.Schema()))
	var fe *domain.FieldError
	if !errors.As(err, &fe) || fe.Field != "int_field" {
		t.Errorf("expected field error on int_field, got %v", err)
	}
}

func TestExecute_UpstreamError(t *testing.T) {
	sel := &mockSelecter{err: domain.ErrUpstream}
	svc := New(testSchema(t), sel, nil, nil)

	_, err := svc.Execute(context.Background(), request.New(svc.Schema()))
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	if sel.params[0].Get("q") != request.MatchAllQuery {
		t.Errorf("expected match-all query, got %q", sel.params[0].Get("q"))
	}
}

func TestDeleteByQuery_InvalidatesCache(t *testing.T) {
	del := &mockDeleter{}
	inv := &mockInvalidator{}
	svc := New(testSchema(t), &mockSelecter{}, del, inv)

	if err := svc.DeleteByQuery(context.Background(), expr.Expr{Fields: map[string]any{"id": "a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(del.queries) != 1 || del.queries[0] != "id:a" {
		t.Errorf("unexpected delete queries: %v", del.queries)
	}
	if inv.calls != 1 {
		t.Errorf("expected 1 invalidation, got %d", inv.calls)
	}
}

func TestDeleteAll_InvalidationFailureIsNotFatal(t *testing.T) {
	del := &mockDeleter{}
	inv := &mockInvalidator{err: errors.New("redis down")}
	svc := New(testSchema(t), &mockSelecter{}, del, inv)

	if err := svc.DeleteAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if del.all != 1 || inv.calls != 1 {
		t.Errorf("expected one delete and one invalidation, got %d and %d", del.all, inv.calls)
	}
}

func TestDelete_Errors(t *testing.T) {
	inv := &mockInvalidator{}
	svc := New(testSchema(t), &mockSelecter{}, &mockDeleter{err: domain.ErrUpstream}, inv)
	if err := svc.DeleteAll(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
	if inv.calls != 0 {
		t.Errorf("cache must not be invalidated on failed delete")
	}

	noDelete := New(testSchema(t), &mockSelecter{}, nil, nil)
	if err := noDelete.DeleteAll(context.Background()); !errors.Is(err, ErrDeleteDisabled) {
		t.Errorf("expected ErrDeleteDisabled, got %v", err)
	}
}
