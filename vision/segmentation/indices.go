package segmentation

import (
	"github.com/samber/lo"
)

// allIndices returns 0, 1, ..., size-1.
func allIndices(size int) []int {
	return lo.Range(size)
}

// SubtractSortedIndices returns the elements of residual that are not in remove, keeping
// their order. Both slices must be ascending. Neither input is modified.
func SubtractSortedIndices(residual, remove []int) []int {
	out := make([]int, 0, len(residual))
	j := 0
	for _, idx := range residual {
		for j < len(remove) && remove[j] < idx {
			j++
		}
		if j < len(remove) && remove[j] == idx {
			continue
		}
		out = append(out, idx)
	}
	return out
}
