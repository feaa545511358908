package util

import (
	"cmp"
	"slices"
)

// Median returns the upper median of values without modifying them. Returns the zero value for an empty slice.
func Median[T cmp.Ordered](values []T) T {
	var zero T
	if len(values) == 0 {
		return zero
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return sorted[len(sorted)/2]
}
