// Package bm25 implements HelixDB's persisted full-text index: an
// inverted index scored with Okapi BM25, split across four sub-stores
// (postings, document lengths, term document-frequencies and aggregate
// metadata) the same way the original HelixDB engine splits its four
// full-text databases.
package bm25

import (
	"encoding/binary"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/helixdb/helix/pkg/codec"
	"github.com/helixdb/helix/pkg/helixerr"
	"github.com/helixdb/helix/pkg/kv"
)

// maxTokenBytes bounds a single token's length; anything longer is
// dropped rather than indexed, per the storage design's tokenizer step.
const maxTokenBytes = 64

// Config holds the scoring parameters and stopword list.
type Config struct {
	K1        float64
	B         float64
	Stopwords map[string]struct{}
}

// DefaultConfig returns k1=1.2, b=0.75 and no stopwords.
func DefaultConfig() Config {
	return Config{K1: 1.2, B: 0.75, Stopwords: map[string]struct{}{}}
}

// Tokenize lowercases text, splits on non-letter/non-digit runes, and
// drops empty tokens, over-length tokens and configured stopwords.
func Tokenize(cfg Config, text string) []string {
	var tokens []string
	var sb strings.Builder
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		tok := sb.String()
		sb.Reset()
		if len(tok) > maxTokenBytes {
			return
		}
		if _, stop := cfg.Stopwords[tok]; stop {
			return
		}
		tokens = append(tokens, tok)
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// InsertDoc tokenizes text and writes its postings, document length,
// term document-frequency deltas and aggregate metadata in one write
// transaction.
func InsertDoc(w *kv.WriteTxn, cfg Config, docID codec.ID, text string) error {
	tokens := Tokenize(cfg, text)
	tf := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}

	for term, count := range tf {
		if err := w.Set(codec.BM25PostingKey(term, docID), encodeUint64(uint64(count))); err != nil {
			return err
		}
		if err := w.Set(codec.BM25DocTermsKey(docID, term), nil); err != nil {
			return err
		}
		df, err := getTermDF(&w.ReadTxn, term)
		if err != nil {
			return err
		}
		if err := putTermDF(w, term, df+1); err != nil {
			return err
		}
	}

	if err := w.Set(codec.BM25DocLenKey(docID), encodeUint64(uint64(len(tokens)))); err != nil {
		return err
	}

	totalDocs, sumLengths, err := getAggregate(&w.ReadTxn)
	if err != nil {
		return err
	}
	return putAggregate(w, totalDocs+1, sumLengths+uint64(len(tokens)))
}

// DeleteDoc removes every posting, term document-frequency contribution
// and length entry for docID. A missing docID is a no-op.
func DeleteDoc(w *kv.WriteTxn, docID codec.ID) error {
	lenData, err := w.Get(codec.BM25DocLenKey(docID))
	if err != nil {
		if helixerr.Is(err, helixerr.NotFound) {
			return nil
		}
		return err
	}
	docLen := decodeUint64(lenData)

	var terms []string
	if err := w.CursorKeysOnly(codec.BM25DocTermsPrefix(docID), func(key []byte) error {
		terms = append(terms, string(key[17:]))
		return nil
	}); err != nil {
		return err
	}

	for _, term := range terms {
		if err := w.Delete(codec.BM25PostingKey(term, docID)); err != nil {
			return err
		}
		if err := w.Delete(codec.BM25DocTermsKey(docID, term)); err != nil {
			return err
		}
		df, err := getTermDF(&w.ReadTxn, term)
		if err != nil {
			return err
		}
		if df <= 1 {
			if err := w.Delete(codec.BM25TermDFKey(term)); err != nil {
				return err
			}
		} else {
			if err := putTermDF(w, term, df-1); err != nil {
				return err
			}
		}
	}

	if err := w.Delete(codec.BM25DocLenKey(docID)); err != nil {
		return err
	}

	totalDocs, sumLengths, err := getAggregate(&w.ReadTxn)
	if err != nil {
		return err
	}
	if totalDocs == 0 {
		return nil
	}
	newSum := sumLengths
	if newSum >= docLen {
		newSum -= docLen
	} else {
		newSum = 0
	}
	return putAggregate(w, totalDocs-1, newSum)
}

// UpdateDoc replaces docID's indexed text.
func UpdateDoc(w *kv.WriteTxn, cfg Config, docID codec.ID, text string) error {
	if err := DeleteDoc(w, docID); err != nil {
		return err
	}
	return InsertDoc(w, cfg, docID, text)
}

// Result is one ranked search hit.
type Result struct {
	DocID codec.ID
	Score float64
}

// Search scores query against every document containing at least one
// query term, using Okapi BM25 with the configured k1/b, and returns the
// top limit results sorted by descending score (ties broken by ascending
// docID for determinism).
func Search(r *kv.ReadTxn, cfg Config, query string, limit int) ([]Result, error) {
	terms := Tokenize(cfg, query)
	if len(terms) == 0 {
		return nil, nil
	}
	totalDocs, sumLengths, err := getAggregate(r)
	if err != nil {
		return nil, err
	}
	if totalDocs == 0 {
		return nil, nil
	}
	avgDL := float64(sumLengths) / float64(totalDocs)

	scores := make(map[codec.ID]float64)
	seen := make(map[string]bool)
	for _, term := range terms {
		if seen[term] {
			continue
		}
		seen[term] = true

		df, err := getTermDF(r, term)
		if err != nil {
			return nil, err
		}
		if df == 0 {
			continue
		}
		idf := math.Log((float64(totalDocs)-float64(df)+0.5)/(float64(df)+0.5) + 1)

		if err := r.Cursor(codec.BM25TermPrefix(term), func(key, value []byte) error {
			var docID codec.ID
			copy(docID[:], key[len(key)-16:])
			tf := float64(decodeUint64(value))

			docLenData, err := r.Get(codec.BM25DocLenKey(docID))
			if err != nil {
				return err
			}
			docLen := float64(decodeUint64(docLenData))

			numerator := tf * (cfg.K1 + 1)
			denominator := tf + cfg.K1*(1-cfg.B+cfg.B*docLen/avgDL)
			scores[docID] += idf * numerator / denominator
			return nil
		}); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(scores))
	for id, score := range scores {
		results = append(results, Result{DocID: id, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return lessID(results[i].DocID, results[j].DocID)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DocCount returns the number of indexed documents.
func DocCount(r *kv.ReadTxn) (uint64, error) {
	total, _, err := getAggregate(r)
	return total, err
}

func lessID(a, b codec.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func getTermDF(r *kv.ReadTxn, term string) (uint64, error) {
	data, err := r.Get(codec.BM25TermDFKey(term))
	if err != nil {
		if helixerr.Is(err, helixerr.NotFound) {
			return 0, nil
		}
		return 0, err
	}
	return decodeUint64(data), nil
}

func putTermDF(w *kv.WriteTxn, term string, df uint64) error {
	return w.Set(codec.BM25TermDFKey(term), encodeUint64(df))
}

func getAggregate(r *kv.ReadTxn) (totalDocs, sumLengths uint64, err error) {
	data, err := r.Get(codec.BM25MetaTotalDocsKey())
	if err != nil {
		if !helixerr.Is(err, helixerr.NotFound) {
			return 0, 0, err
		}
	} else {
		totalDocs = decodeUint64(data)
	}
	data, err = r.Get(codec.BM25MetaSumLengthsKey())
	if err != nil {
		if !helixerr.Is(err, helixerr.NotFound) {
			return 0, 0, err
		}
	} else {
		sumLengths = decodeUint64(data)
	}
	return totalDocs, sumLengths, nil
}

func putAggregate(w *kv.WriteTxn, totalDocs, sumLengths uint64) error {
	if err := w.Set(codec.BM25MetaTotalDocsKey(), encodeUint64(totalDocs)); err != nil {
		return err
	}
	return w.Set(codec.BM25MetaSumLengthsKey(), encodeUint64(sumLengths))
}

func encodeUint64(v uint64) []byte {
	return binary.AppendUvarint(nil, v)
}

func decodeUint64(buf []byte) uint64 {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0
	}
	return v
}
