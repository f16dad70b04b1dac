package engine

import "encoding/json"

// SearchResponse is the decoded engine answer for a search request.
type SearchResponse struct {
	Total        int64
	Hits         []Hit
	Aggregations map[string]Aggregation
}

// Hit is one matched document with its engine-assigned score, raw source
// and optional highlight fragments keyed by field name.
type Hit struct {
	DocID     string
	Score     float64
	Source    json.RawMessage
	Highlight map[string][]string
}

// Aggregation is one named bucket list.
type Aggregation struct {
	Buckets []AggBucket
}

// AggBucket is one aggregation bucket. Key is a string or a number depending
// on the aggregation; date histograms additionally carry KeyAsString.
type AggBucket struct {
	Key         any    `json:"key"`
	KeyAsString string `json:"key_as_string"`
	DocCount    int64  `json:"doc_count"`
}

// BulkItemResult is the engine's per-item answer within a bulk response.
type BulkItemResult struct {
	DocID  string
	Status int
	Error  string
}

// BulkResult is the decoded engine answer for a bulk request.
type BulkResult struct {
	Errors bool
	Items  []BulkItemResult
}

// rawSearchResponse mirrors the engine's search response JSON.
type rawSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    json.RawMessage     `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []AggBucket `json:"buckets"`
	} `json:"aggregations"`
}

func (r *rawSearchResponse) decode() *SearchResponse {
	resp := &SearchResponse{Total: r.Hits.Total.Value}
	for _, h := range r.Hits.Hits {
		hit := Hit{
			DocID:     h.ID,
			Source:    h.Source,
			Highlight: h.Highlight,
		}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		resp.Hits = append(resp.Hits, hit)
	}
	if len(r.Aggregations) > 0 {
		resp.Aggregations = make(map[string]Aggregation, len(r.Aggregations))
		for name, agg := range r.Aggregations {
			resp.Aggregations[name] = Aggregation{Buckets: agg.Buckets}
		}
	}
	return resp
}

// rawBulkResponse mirrors the engine's bulk response JSON. Each item is a
// single-key object keyed by the action ("index", "delete").
type rawBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string          `json:"_id"`
		Status int             `json:"status"`
		Error  json.RawMessage `json:"error"`
	} `json:"items"`
}

func (r *rawBulkResponse) decode() *BulkResult {
	result := &BulkResult{Errors: r.Errors}
	for _, item := range r.Items {
		for _, v := range item {
			itemResult := BulkItemResult{DocID: v.ID, Status: v.Status}
			if len(v.Error) > 0 {
				itemResult.Error = string(v.Error)
			}
			result.Items = append(result.Items, itemResult)
		}
	}
	return result
}
