// Package index holds the per-book vector indexes and the spoiler boundary
// predicate. The boundary is applied inside Search, before any ranking, so a
// chunk that comes back from the index is chapter-eligible by construction.
package index

import (
	"sort"

	"bookshield/internal/domain"
)

// IsSafe reports whether a chunk may be shown to a reader whose progress is
// maxChapter (inclusive). This is the sole spoiler predicate; chapter numbers
// are trusted to reflect narrative order.
func IsSafe(c domain.Chunk, maxChapter int) bool {
	return c.Chapter <= maxChapter
}

// SortResults orders results by descending score, breaking ties by chunk id
// ascending so that equal inputs always yield identical output order.
func SortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}
