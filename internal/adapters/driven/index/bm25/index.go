// Package bm25 provides an in-memory lexical index using BM25 ranking.
// It serves as the keyword search path when no FTS-capable snapshot is
// available, and keeps lexical retrieval working in tests.
package bm25

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/keeva-labs/keeva/internal/core/domain"
	"github.com/keeva-labs/keeva/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// Okapi BM25 parameters, standard values.
const (
	k1 = 1.2
	b  = 0.75
)

// Index is an inverted index over chunk texts scored with BM25.
type Index struct {
	chunks    []domain.Chunk
	docLens   []int
	avgDocLen float64
	// postings maps a term to the chunks containing it and the term's
	// frequency in each.
	postings map[string]map[int]int
}

// New builds the index from chunks. Chunks without text are indexed
// with an empty posting set and simply never match.
func New(chunks []domain.Chunk) *Index {
	idx := &Index{
		chunks:   chunks,
		docLens:  make([]int, len(chunks)),
		postings: make(map[string]map[int]int),
	}

	var total int
	for i, c := range chunks {
		terms := tokenize(c.Text)
		idx.docLens[i] = len(terms)
		total += len(terms)
		for _, term := range terms {
			if idx.postings[term] == nil {
				idx.postings[term] = make(map[int]int)
			}
			idx.postings[term][i]++
		}
	}
	if len(chunks) > 0 {
		idx.avgDocLen = float64(total) / float64(len(chunks))
	}
	return idx
}

// Search returns the k best chunks for the query terms, best first.
// Chunks matching no term are omitted.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]domain.Hit, error) {
	if k <= 0 || len(idx.chunks) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scores := make(map[int]float64)
	n := float64(len(idx.chunks))
	for _, term := range tokenize(query) {
		posting := idx.postings[term]
		if len(posting) == 0 {
			continue
		}
		// Standard BM25 idf with +1 inside the log to keep it positive
		// for very common terms.
		df := float64(len(posting))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for doc, tf := range posting {
			norm := 1 - b + b*float64(idx.docLens[doc])/idx.avgDocLen
			scores[doc] += idf * float64(tf) * (k1 + 1) / (float64(tf) + k1*norm)
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	docs := make([]int, 0, len(scores))
	for doc := range scores {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(a, b int) bool {
		if scores[docs[a]] != scores[docs[b]] {
			return scores[docs[a]] > scores[docs[b]]
		}
		return docs[a] < docs[b]
	})

	if k > len(docs) {
		k = len(docs)
	}
	hits := make([]domain.Hit, k)
	for rank, doc := range docs[:k] {
		c := idx.chunks[doc]
		hits[rank] = domain.Hit{
			ID:    c.ID,
			Path:  c.Path,
			Text:  c.Text,
			Score: scores[doc],
			Rank:  rank + 1,
		}
	}
	return hits, nil
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
