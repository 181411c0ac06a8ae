package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"

	"github.com/kailas-cloud/facetdex/internal/db"
)

// Search encodes the compiled query and runs it against req.Index.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResponse, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req.Query); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("encode query: %w", err)}
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(req.Index),
		s.client.Search.WithBody(&buf),
		s.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	defer drain(res)

	if res.IsError() {
		return nil, responseError(db.OpSearch, res)
	}

	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	var body searchBody
	if err := dec.Decode(&body); err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("decode response: %w", err)}
	}
	return body.toResponse()
}

type searchBody struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string         `json:"_id"`
			Index  string         `json:"_index"`
			Score  *float64       `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []struct {
			Key         any    `json:"key"`
			KeyAsString string `json:"key_as_string"`
			DocCount    int64  `json:"doc_count"`
		} `json:"buckets"`
	} `json:"aggregations"`
}

func (b *searchBody) toResponse() (*db.SearchResponse, error) {
	total, err := decodeTotal(b.Hits.Total)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	out := &db.SearchResponse{
		Total: total,
		Hits:  make([]db.SearchHit, 0, len(b.Hits.Hits)),
	}
	for _, h := range b.Hits.Hits {
		hit := db.SearchHit{ID: h.ID, Index: h.Index, Source: h.Source}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}

	if len(b.Aggregations) > 0 {
		out.Aggregations = make(map[string][]db.AggregationBucket, len(b.Aggregations))
	}
	for name, agg := range b.Aggregations {
		buckets := make([]db.AggregationBucket, 0, len(agg.Buckets))
		for _, bk := range agg.Buckets {
			key := bk.KeyAsString
			if key == "" {
				key, err = cast.ToStringE(bk.Key)
				if err != nil {
					return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("aggregation %s: bucket key: %w", name, err)}
				}
			}
			buckets = append(buckets, db.AggregationBucket{Key: key, DocCount: bk.DocCount})
		}
		out.Aggregations[name] = buckets
	}
	return out, nil
}

// decodeTotal reads hits.total as a bare number or as {"value": n}.
func decodeTotal(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	if raw[0] == '{' {
		var obj struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return 0, fmt.Errorf("decode hits.total: %w", err)
		}
		return obj.Value, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode hits.total: %w", err)
	}
	return n, nil
}
