// Package facetdex is a Go client for faceted search over Elasticsearch or
// embedded bleve indexes.
//
// An entity maps facet names to backend fields. A search takes the user's
// facet selections and returns one page of records plus, for every facet, the
// options still available given the other selections.
//
//	products := facetdex.NewEntity("products", "products").
//	    Term("category", "cat", facetdex.Facet()).
//	    Terms("brand", "brand", facetdex.Facet(), facetdex.Or()).
//	    Match("q", "title").
//	    Range("price", "price").
//	    PerPage(20)
//
//	client, _ := facetdex.New(ctx,
//	    facetdex.WithElasticsearch([]string{"http://localhost:9200"}, "", ""),
//	    facetdex.WithEntities(products),
//	)
//	res, _ := client.Search(ctx, "products", facetdex.SearchRequest{
//	    Params: map[string]any{"category": "shoes", "price": map[string]any{"lte": 100}},
//	})
//	items, _ := facetdex.DecodeAll[Product](res.Records)
package facetdex
