// Package projection derives the render-ready entries of a list page from the
// store contents and the active filter set. Every function is pure.
package projection

import (
	"math"

	"github.com/louisbranch/boardkit/internal/listview/filter"
)

// Project returns the records matching set, in their original order.
func Project[T any](records []T, set filter.Set[T]) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if set.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Map projects records through set and derives one entry per match.
func Map[T, V any](records []T, set filter.Set[T], derive func(T) V) []V {
	out := make([]V, 0, len(records))
	for _, r := range records {
		if set.Matches(r) {
			out = append(out, derive(r))
		}
	}
	return out
}

// Percentages returns each count's whole-number share of the total, rounded
// half up. All shares are zero when the total is zero.
func Percentages(counts []int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([]int, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = (200*c + total) / (2 * total)
	}
	return out
}

// Ratio returns part as a percentage of total with one decimal, or zero when
// total is zero.
func Ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}

// Group is one column of a grouped projection.
type Group[K comparable, T any] struct {
	Key     K
	Records []T
	Count   int
	Total   float64
}

// GroupTotals buckets records by key into the fixed order given, with a count
// and a subtotal of value per bucket. Records whose key is not in order are
// left out; empty buckets are kept.
func GroupTotals[T any, K comparable](records []T, order []K, key func(T) K, value func(T) float64) []Group[K, T] {
	groups := make([]Group[K, T], len(order))
	index := make(map[K]int, len(order))
	for i, k := range order {
		groups[i] = Group[K, T]{Key: k, Records: []T{}}
		index[k] = i
	}
	for _, r := range records {
		i, ok := index[key(r)]
		if !ok {
			continue
		}
		groups[i].Records = append(groups[i].Records, r)
		groups[i].Count++
		if value != nil {
			groups[i].Total += value(r)
		}
	}
	return groups
}

// Sum adds value over records.
func Sum[T any](records []T, value func(T) float64) float64 {
	total := 0.0
	for _, r := range records {
		total += value(r)
	}
	return total
}

// Count returns how many records satisfy pred.
func Count[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}
