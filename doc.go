// Package solrq builds Solr queries that are checked against the index
// schema, runs them over HTTP and decodes the hits back into Go values.
//
// Queries are persistent values: every builder call returns a new Query and
// leaves its receiver untouched, so partial queries can be shared and reused.
//
//	s, _ := solrq.LoadSchema("schema.xml")
//	client, _ := solrq.New(ctx, solrq.FromSchema(s),
//	    solrq.WithURL("http://localhost:8983/solr", "products"),
//	    solrq.WithCache("localhost:6379", "", time.Minute),
//	)
//	defer client.Close()
//
//	q, _ := client.Query().Add(solrq.Fields{"title": "running shoes", "price__lte": 100})
//	req, _ := client.Search().WithQuery(q)
//	req, _ = req.Paginate(0, 20)
//	resp, _ := client.Select(ctx, req)
//
// # Typed results
//
//	type Product struct {
//	    ID    string   `solrq:"id"`
//	    Title string   `solrq:"title"`
//	    Tags  []string `solrq:"tags"`
//	    Score float64  `solrq:"score"`
//	}
//
//	products, _ := solrq.Decode[Product](resp)
package solrq
