package services

import (
	"sort"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// DefaultRRFConstant is the k constant from the RRF literature. Higher
// values flatten the influence of top-ranked items.
const DefaultRRFConstant = 60.0

// RRFMerge fuses multiple ranked hit lists into one ordered, deduplicated
// list using Reciprocal Rank Fusion: each occurrence at 1-based rank r
// contributes 1/(k+r) to the hit's accumulated score, keyed by
// domain.Hit.Key. RRF only needs rank order from each source, which makes
// it scale-free across incompatible score types (cosine similarity, BM25,
// keyword counts).
//
// When a key recurs across lists its attributes merge: the text is
// replaced only by a strictly longer occurrence and the path by any
// non-empty one, so the richest snippet survives. Hits fold in source
// list order, so earlier lists seed attributes on ties.
//
// Empty input lists contribute nothing; topK <= 0 returns an empty list.
func RRFMerge(lists [][]domain.Hit, topK int, kConst float64) []domain.Hit {
	if kConst <= 0 {
		kConst = DefaultRRFConstant
	}
	if topK <= 0 {
		return []domain.Hit{}
	}

	table := make(map[string]*domain.Hit)
	order := make([]string, 0)

	for _, hits := range lists {
		for i, h := range hits {
			rank := i + 1
			key := h.Key()
			if key == "" {
				continue
			}
			prev, ok := table[key]
			if !ok {
				merged := h
				merged.Score = 0
				merged.Rank = 0
				table[key] = &merged
				order = append(order, key)
				prev = &merged
			} else {
				if len(h.Text) > len(prev.Text) {
					prev.Text = h.Text
				}
				if h.Path != "" {
					prev.Path = h.Path
				}
			}
			prev.Score += 1.0 / (kConst + float64(rank))
		}
	}

	merged := make([]domain.Hit, 0, len(order))
	for _, key := range order {
		merged = append(merged, *table[key])
	}

	// Stable sort keeps first-seen order among equal scores, so the
	// output is deterministic for identical inputs.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}

// FilterByScore drops hits at or below the floor. The fusion relevance
// floor (default 0.01) removes candidates that appeared once deep in a
// single source list.
func FilterByScore(hits []domain.Hit, floor float64) []domain.Hit {
	out := make([]domain.Hit, 0, len(hits))
	for _, h := range hits {
		if h.Score > floor {
			out = append(out, h)
		}
	}
	return out
}
