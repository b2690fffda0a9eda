// Package vector implements HelixDB's persisted HNSW (Hierarchical
// Navigable Small World) approximate nearest-neighbor index. Every vector,
// its per-layer adjacency lists and the per-label entry point live in the
// KV substrate, so a single write transaction observes a consistent
// snapshot across the graph, vector and full-text stores together.
package vector

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
	"github.com/helixdb/helix/pkg/vecmath"
)

// Config holds the HNSW construction/search parameters.
type Config struct {
	M               int
	MMax0           int
	EfConstruction  int
	EfSearchDefault int
}

// DefaultConfig returns the parameter defaults.
func DefaultConfig() Config {
	return Config{M: 16, MMax0: 32, EfConstruction: 200, EfSearchDefault: 50}
}

// capAt returns the neighbor-list cap for a layer: layer 0 uses MMax0,
// every layer above uses M.
func (c Config) capAt(level int) int {
	if level == 0 {
		return c.MMax0
	}
	return c.M
}

// Result is one ranked search hit.
type Result struct {
	ID       codec.ID
	Distance float64
}

type candidate struct {
	id   codec.ID
	dist float64
}

// Insert adds a vector under label with identifier id. The level is drawn
// as floor(-ln(U) * mL) with mL = 1/ln(M), matching the standard HNSW
// level-assignment distribution.
func Insert(w *kv.WriteTxn, cfg Config, label string, id codec.ID, data []float64) error {
	if vecmath.HasNaNOrInf(data) {
		return helixerr.New(helixerr.ValueError, "vector contains NaN or Inf").WithID(id.String())
	}
	m, exists, err := getMeta(&w.ReadTxn, label)
	if err != nil {
		return err
	}
	if exists && int(m.Dim) != len(data) {
		return helixerr.Newf(helixerr.SchemaError, "vector dimension mismatch: index has %d, got %d", m.Dim, len(data)).WithID(label)
	}

	norm := vecmath.Norm(data)
	mL := 1.0 / math.Log(float64(cfg.M))
	level := int(math.Floor(-math.Log(randUnit()) * mL))

	if err := w.Set(codec.VectorDataKey(label, id), encodeVector(data, norm, level)); err != nil {
		return err
	}

	if !exists {
		if err := putMeta(w, label, meta{EntryID: id, EntryLevel: level, Count: 1, Dim: uint32(len(data))}); err != nil {
			return err
		}
		return nil
	}

	cur := m.EntryID
	curData, curNorm, err := loadForDistance(&w.ReadTxn, label, cur)
	if err != nil {
		return err
	}
	curDist := vecmath.CosineDistance(data, curData, norm, curNorm)

	for l := m.EntryLevel; l > level; l-- {
		cur, curDist, err = greedyStep(&w.ReadTxn, label, l, cur, curDist, data, norm)
		if err != nil {
			return err
		}
	}

	top := level
	if m.EntryLevel < top {
		top = m.EntryLevel
	}
	for l := top; l >= 0; l-- {
		candidates, err := searchLayer(&w.ReadTxn, label, l, cur, data, norm, cfg.EfConstruction)
		if err != nil {
			return err
		}
		selected, err := selectNeighborsHeuristic(&w.ReadTxn, label, candidates, cfg.capAt(l))
		if err != nil {
			return err
		}
		selectedIDs := make([]codec.ID, len(selected))
		for i, c := range selected {
			selectedIDs[i] = c.id
		}
		if err := putNeighbors(w, label, l, id, selectedIDs); err != nil {
			return err
		}
		for _, nb := range selected {
			if err := addBackEdge(w, cfg, label, l, nb.id, id); err != nil {
				return err
			}
		}
		if len(candidates) > 0 {
			cur = candidates[0].id
		}
	}

	if level > m.EntryLevel {
		m.EntryID = id
		m.EntryLevel = level
	}
	m.Count++
	return putMeta(w, label, m)
}

func addBackEdge(w *kv.WriteTxn, cfg Config, label string, level int, neighborID, newID codec.ID) error {
	existing, err := getNeighbors(&w.ReadTxn, label, level, neighborID)
	if err != nil {
		return err
	}
	capacity := cfg.capAt(level)
	if len(existing) < capacity {
		return putNeighbors(w, label, level, neighborID, append(existing, newID))
	}
	// Over capacity: re-run the heuristic from the neighbor's own
	// perspective over its current neighbors plus the new candidate.
	nbData, nbNorm, err := loadForDistance(&w.ReadTxn, label, neighborID)
	if err != nil {
		return err
	}
	all := append(append([]codec.ID(nil), existing...), newID)
	cands := make([]candidate, 0, len(all))
	for _, cid := range all {
		cData, cNorm, err := loadForDistance(&w.ReadTxn, label, cid)
		if err != nil {
			return err
		}
		cands = append(cands, candidate{id: cid, dist: vecmath.CosineDistance(nbData, cData, nbNorm, cNorm)})
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	selected, err := selectNeighborsHeuristic(&w.ReadTxn, label, cands, capacity)
	if err != nil {
		return err
	}
	selectedIDs := make([]codec.ID, len(selected))
	for i, c := range selected {
		selectedIDs[i] = c.id
	}
	return putNeighbors(w, label, level, neighborID, selectedIDs)
}

func loadForDistance(r *kv.ReadTxn, label string, id codec.ID) ([]float64, float64, error) {
	v, err := getVector(r, label, id)
	if err != nil {
		return nil, 0, err
	}
	return v.Data, v.Norm, nil
}

func greedyStep(r *kv.ReadTxn, label string, level int, cur codec.ID, curDist float64, q []float64, qNorm float64) (codec.ID, float64, error) {
	for {
		neighbors, err := getNeighbors(r, label, level, cur)
		if err != nil {
			return cur, curDist, err
		}
		changed := false
		for _, nb := range neighbors {
			tomb, err := isTombstoned(r, label, nb)
			if err != nil {
				return cur, curDist, err
			}
			if tomb {
				continue
			}
			nbData, nbNorm, err := loadForDistance(r, label, nb)
			if err != nil {
				return cur, curDist, err
			}
			d := vecmath.CosineDistance(q, nbData, qNorm, nbNorm)
			if d < curDist {
				cur, curDist, changed = nb, d, true
			}
		}
		if !changed {
			return cur, curDist, nil
		}
	}
}

// searchLayer runs the bounded best-first search of the standard HNSW
// algorithm: a min-heap of unexplored candidates and a bounded max-heap
// of the best ef results seen so far, returning them sorted ascending by
// distance.
func searchLayer(r *kv.ReadTxn, label string, level int, entry codec.ID, q []float64, qNorm float64, ef int) ([]candidate, error) {
	visited := map[codec.ID]bool{entry: true}

	entryData, entryNorm, err := loadForDistance(r, label, entry)
	if err != nil {
		return nil, err
	}
	entryDist := vecmath.CosineDistance(q, entryData, qNorm, entryNorm)

	cand := &minHeap{{entry, entryDist}}
	heap.Init(cand)
	best := &maxHeap{{entry, entryDist}}
	heap.Init(best)

	for cand.Len() > 0 {
		closest := heap.Pop(cand).(candidate)
		if best.Len() >= ef && closest.dist > (*best)[0].dist {
			break
		}
		neighbors, err := getNeighbors(r, label, level, closest.id)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			tomb, err := isTombstoned(r, label, nb)
			if err != nil {
				return nil, err
			}
			if tomb {
				continue
			}
			nbData, nbNorm, err := loadForDistance(r, label, nb)
			if err != nil {
				return nil, err
			}
			d := vecmath.CosineDistance(q, nbData, qNorm, nbNorm)
			if best.Len() < ef || d < (*best)[0].dist {
				heap.Push(cand, candidate{nb, d})
				heap.Push(best, candidate{nb, d})
				if best.Len() > ef {
					heap.Pop(best)
				}
			}
		}
	}

	out := make([]candidate, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(candidate)
	}
	return out, nil
}

// selectNeighborsHeuristic keeps a candidate only if no already-selected
// neighbor lies strictly closer to it than the query does — the
// dominated-candidate pruning rule that keeps the graph's connectivity
// diverse instead of clustering neighbors on one side of the query.
func selectNeighborsHeuristic(r *kv.ReadTxn, label string, candidates []candidate, m int) ([]candidate, error) {
	sorted := append([]candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].dist < sorted[j].dist })

	selected := make([]candidate, 0, m)
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		cData, cNorm, err := loadForDistance(r, label, c.id)
		if err != nil {
			return nil, err
		}
		dominated := false
		for _, s := range selected {
			sData, sNorm, err := loadForDistance(r, label, s.id)
			if err != nil {
				return nil, err
			}
			if vecmath.CosineDistance(cData, sData, cNorm, sNorm) < c.dist {
				dominated = true
				break
			}
		}
		if !dominated {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// Search returns the k nearest neighbors of q within label, using a
// two-phase search: a greedy single-candidate descent through the upper
// layers, then a bounded best-first search at layer 0.
func Search(r *kv.ReadTxn, cfg Config, label string, q []float64, k, ef int, filter func(codec.ID) bool) ([]Result, error) {
	if vecmath.HasNaNOrInf(q) {
		return nil, helixerr.New(helixerr.ValueError, "query vector contains NaN or Inf")
	}
	if ef <= 0 {
		ef = cfg.EfSearchDefault
	}
	m, exists, err := getMeta(r, label)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	qNorm := vecmath.Norm(q)

	cur := m.EntryID
	curData, curNorm, err := loadForDistance(r, label, cur)
	if err != nil {
		return nil, err
	}
	curDist := vecmath.CosineDistance(q, curData, qNorm, curNorm)
	for l := m.EntryLevel; l > 0; l-- {
		cur, curDist, err = greedyStep(r, label, l, cur, curDist, q, qNorm)
		if err != nil {
			return nil, err
		}
	}

	candidates, err := searchLayer(r, label, 0, cur, q, qNorm, ef)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		tomb, err := isTombstoned(r, label, c.id)
		if err != nil {
			return nil, err
		}
		if tomb {
			continue
		}
		if filter != nil && !filter(c.id) {
			continue
		}
		results = append(results, Result{ID: c.id, Distance: c.dist})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return lessID(results[i].ID, results[j].ID)
	})
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func lessID(a, b codec.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Delete tombstones id within label; it remains physically present until
// Compact rebuilds the index.
func Delete(w *kv.WriteTxn, label string, id codec.ID) error {
	return w.Set(codec.VectorTombKey(label, id), nil)
}

func randUnit() float64 {
	r := rand.Float64()
	for r == 0 {
		r = rand.Float64()
	}
	return r
}

type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
