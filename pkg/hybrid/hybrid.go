// Package hybrid combines HelixDB's BM25 and vector search engines into
// one ranked result list: each runs independently over the same read
// transaction, scores are min-max normalized per result window, and the
// two normalized scores are fused with a weighted sum.
package hybrid

import (
	"sort"

	"github.com/helixdb/helix/pkg/bm25"
	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/kv"
	"github.com/helixdb/helix/pkg/vector"
)

// Result is one fused, ranked hit.
type Result struct {
	ID    codec.ID
	Score float64
}

// Search runs bm25.Search(text) and vector.Search(vec) independently,
// normalizes each to [0,1] within its own returned window, and fuses them
// as final = alpha*bm25Norm + (1-alpha)*vecNorm. An item present in only
// one result set contributes its normalized score against 0 for the
// other. Results are sorted by descending fused score, ties broken by
// ascending id.
func Search(r *kv.ReadTxn, bmCfg bm25.Config, vecCfg vector.Config, label, text string, vec []float64, alpha float64, k int) ([]Result, error) {
	bmResults, err := bm25.Search(r, bmCfg, text, 0)
	if err != nil {
		return nil, err
	}
	vecResults, err := vector.Search(r, vecCfg, label, vec, 0, vecCfg.EfSearchDefault, nil)
	if err != nil {
		return nil, err
	}

	bmNorm := normalizeBM25(bmResults)
	vecNorm := normalizeVector(vecResults)

	fused := make(map[codec.ID]float64, len(bmNorm)+len(vecNorm))
	for id, score := range bmNorm {
		fused[id] += alpha * score
	}
	for id, score := range vecNorm {
		fused[id] += (1 - alpha) * score
	}

	out := make([]Result, 0, len(fused))
	for id, score := range fused {
		out = append(out, Result{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return lessID(out[i].ID, out[j].ID)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func normalizeBM25(results []bm25.Result) map[codec.ID]float64 {
	out := make(map[codec.ID]float64, len(results))
	if len(results) == 0 {
		return out
	}
	lo, hi := results[0].Score, results[0].Score
	for _, r := range results {
		if r.Score < lo {
			lo = r.Score
		}
		if r.Score > hi {
			hi = r.Score
		}
	}
	span := hi - lo
	for _, r := range results {
		if span == 0 {
			out[r.DocID] = 1
			continue
		}
		out[r.DocID] = (r.Score - lo) / span
	}
	return out
}

func normalizeVector(results []vector.Result) map[codec.ID]float64 {
	out := make(map[codec.ID]float64, len(results))
	if len(results) == 0 {
		return out
	}
	// Vector results are distances: lower is better, so similarity is the
	// inverse of the normalized distance.
	lo, hi := results[0].Distance, results[0].Distance
	for _, r := range results {
		if r.Distance < lo {
			lo = r.Distance
		}
		if r.Distance > hi {
			hi = r.Distance
		}
	}
	span := hi - lo
	for _, r := range results {
		if span == 0 {
			out[r.ID] = 1
			continue
		}
		out[r.ID] = 1 - (r.Distance-lo)/span
	}
	return out
}

func lessID(a, b codec.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
