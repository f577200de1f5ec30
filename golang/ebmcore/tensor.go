package ebmcore

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// SegmentedTensor is a piecewise-constant function over one or more discretized axes: per axis,
// a sorted set of cut positions, plus a dense value grid over the resulting regions. It is the
// output representation the pair splitter writes into, and the type the aggregate model
// accumulates round after round. Grounded on SegmentedRegion.h's SegmentedRegionCore.
type SegmentedTensor struct {
	Dims         []int // cStates per axis - the alphabet size, not the region count
	VectorLength int
	Expanded     bool
	Cuts         [][]int // per axis, strictly ascending, each in {1, ..., Dims[d]-1}
	Values       *mat.Dense
}

// NewSegmentedTensor allocates the constant-zero tensor over dims: zero cuts on every axis, a
// single region, VectorLength zero values. Always compact.
func NewSegmentedTensor(dims []int, vectorLength int) (*SegmentedTensor, error) {
	const op = "NewSegmentedTensor"
	if len(dims) == 0 {
		return nil, newError(op, InvalidInput, "at least one axis is required")
	}
	if vectorLength < 1 {
		return nil, newError(op, InvalidInput, "vectorLength must be >= 1")
	}
	cuts := make([][]int, len(dims))
	return &SegmentedTensor{
		Dims:         append([]int(nil), dims...),
		VectorLength: vectorLength,
		Cuts:         cuts,
		Values:       mat.NewDense(1, vectorLength, nil),
	}, nil
}

// NewSegmentedTensorWithCuts builds a tensor with explicit cuts and region values, validating
// that the region count implied by cuts matches len(values). Used by the splitter to emit its
// result and by tests to construct fixtures directly (e.g. Scenario 4/5's A and B).
func NewSegmentedTensorWithCuts(dims []int, vectorLength int, cuts [][]int, values [][]float64) (*SegmentedTensor, error) {
	t, err := NewSegmentedTensor(dims, vectorLength)
	if err != nil {
		return nil, err
	}
	if err := t.SetCuts(cuts); err != nil {
		return nil, err
	}
	if err := t.ensureValueCapacity(t.regionCount()); err != nil {
		return nil, err
	}
	if len(values) != t.regionCount() {
		return nil, newError("NewSegmentedTensorWithCuts", InvalidInput, "value row count does not match region count implied by cuts")
	}
	for r, row := range values {
		if len(row) != vectorLength {
			return nil, newError("NewSegmentedTensorWithCuts", InvalidInput, "value row width does not match vectorLength")
		}
		t.Values.SetRow(r, row)
	}
	return t, nil
}

func (t *SegmentedTensor) regionCounts() []int {
	counts := make([]int, len(t.Dims))
	for d := range t.Dims {
		counts[d] = len(t.Cuts[d]) + 1
	}
	return counts
}

func (t *SegmentedTensor) regionCount() int {
	n := 1
	for _, c := range t.regionCounts() {
		n *= c
	}
	return n
}

func (t *SegmentedTensor) strides() []int {
	counts := t.regionCounts()
	strides := make([]int, len(counts))
	mult := 1
	for d, c := range counts {
		strides[d] = mult
		mult *= c
	}
	return strides
}

// SetCuts grow-sets the per-axis cut arrays in one pass, reallocating the value grid to match
// the new region count. Used to build a tensor with known cuts directly (e.g. test fixtures);
// the general add/expand paths grow cuts incrementally as part of their own algorithms.
func (t *SegmentedTensor) SetCuts(cuts [][]int) error {
	const op = "SetCuts"
	if len(cuts) != len(t.Dims) {
		return newError(op, InvalidInput, "cut axis count mismatch")
	}
	for d, axisCuts := range cuts {
		for i, c := range axisCuts {
			if c < 1 || c > t.Dims[d]-1 {
				return newError(op, InvalidInput, "cut out of range")
			}
			if i > 0 && axisCuts[i-1] >= c {
				return newError(op, InvalidInput, "cuts must be strictly ascending")
			}
		}
		t.Cuts[d] = append([]int(nil), axisCuts...)
	}
	return t.ensureValueCapacity(t.regionCount())
}

// ensureValueCapacity grows the value grid to hold at least n regions, using a 1.5x amortized
// policy on growth (requested + requested/2) to match the source's realloc discipline. Existing
// rows are preserved at their current row index; callers that need rows relocated (expand, add)
// do that relocation themselves after the grow.
func (t *SegmentedTensor) ensureValueCapacity(n int) error {
	const op = "ensureValueCapacity"
	if IsMultiplyError(uint64(n), uint64(t.VectorLength)) {
		return newError(op, SizeOverflow, "value grid size overflows")
	}
	rows, _ := t.Values.Dims()
	if rows >= n {
		return nil
	}
	grown := n + n/2
	newValues := mat.NewDense(grown, t.VectorLength, nil)
	newValues.Copy(t.Values)
	t.Values = newValues.Slice(0, n, 0, t.VectorLength).(*mat.Dense)
	return nil
}

// Copy deep-copies cuts and values, preserving Expanded status. Grounded on
// SegmentedRegion.h's Copy.
func (t *SegmentedTensor) Copy() *SegmentedTensor {
	cuts := make([][]int, len(t.Cuts))
	for d, c := range t.Cuts {
		cuts[d] = append([]int(nil), c...)
	}
	return &SegmentedTensor{
		Dims:         append([]int(nil), t.Dims...),
		VectorLength: t.VectorLength,
		Expanded:     t.Expanded,
		Cuts:         cuts,
		Values:       mat.DenseCopyOf(t.Values),
	}
}

// Multiply scales every value in place; cuts are unchanged. Grounded on SegmentedRegion.h's
// Multiply.
func (t *SegmentedTensor) Multiply(scalar float64) {
	t.Values.Scale(scalar, t.Values)
}

// Reset collapses the tensor back to a single zero-valued region on every axis and clears the
// Expanded flag, ready for reuse as round-scoped scratch (the splitter may reuse one tensor
// object across candidate evaluations).
func (t *SegmentedTensor) Reset() {
	for d := range t.Cuts {
		t.Cuts[d] = nil
	}
	t.Expanded = false
	t.Values = mat.NewDense(1, t.VectorLength, nil)
}

// Dispose drops the tensor's buffers. The Go runtime reclaims them once unreferenced; Dispose
// exists to mark the point in the source's lifecycle where this would matter under manual
// memory management, and to make "this tensor is done" explicit at call sites.
func (t *SegmentedTensor) Dispose() {
	t.Cuts = nil
	t.Values = nil
}

// regionIndexForRaw returns, for axis d, the region index that raw bin value v falls into:
// the count of cuts on that axis that are <= v.
func regionIndexForRaw(cuts []int, v int) int {
	return sort.Search(len(cuts), func(i int) bool { return cuts[i] > v })
}

// ValueAt returns the prediction vector for the region containing raw point (one bin value per
// axis). Used by tests to evaluate a segmented tensor as a piecewise-constant function (spec
// Invariant 4).
func (t *SegmentedTensor) ValueAt(point []int) []float64 {
	strides := t.strides()
	flat := 0
	for d, v := range point {
		flat += regionIndexForRaw(t.Cuts[d], v) * strides[d]
	}
	row := make([]float64, t.VectorLength)
	mat.Row(row, flat, t.Values)
	return row
}

// Expand converts the tensor to its fully dense form: every axis gets the identity cut sequence
// 1, 2, ..., Dims[d]-1 (one region per raw bin value), and the value grid grows to match.
// Precondition: not already expanded. Grounded on SegmentedRegion.h's Expand; see DESIGN.md for
// why this builds the new grid into a fresh buffer rather than rewriting in place - the
// documented reverse-traversal trick only pays off under manual allocation, and getting its
// per-axis stack bookkeeping bit-exact without a test run was judged a worse risk than one extra
// allocation sized to the (always modest, since axes are discretized categorical features) full
// expansion.
func (t *SegmentedTensor) Expand() error {
	const op = "Expand"
	if t.Expanded {
		return newError(op, InvalidInput, "tensor is already expanded")
	}

	oldStrides := t.strides()
	newCuts := make([][]int, len(t.Dims))
	newCounts := make([]int, len(t.Dims))
	for d, n := range t.Dims {
		identity := make([]int, n-1)
		for i := range identity {
			identity[i] = i + 1
		}
		newCuts[d] = identity
		newCounts[d] = n
	}
	newStrides := make([]int, len(t.Dims))
	mult := 1
	for d, c := range newCounts {
		newStrides[d] = mult
		mult *= c
	}
	newTotal := mult

	if IsMultiplyError(uint64(newTotal), uint64(t.VectorLength)) {
		return newError(op, SizeOverflow, "expanded value grid size overflows")
	}

	newValues := mat.NewDense(newTotal, t.VectorLength, nil)
	point := make([]int, len(t.Dims))
	row := make([]float64, t.VectorLength)
	for newFlat := 0; newFlat < newTotal; newFlat++ {
		decomposeStrided(newFlat, newCounts, newStrides, point)
		oldFlat := 0
		for d, rawVal := range point {
			oldFlat += regionIndexForRaw(t.Cuts[d], rawVal) * oldStrides[d]
		}
		mat.Row(row, oldFlat, t.Values)
		newValues.SetRow(newFlat, row)
	}

	t.Cuts = newCuts
	t.Values = newValues
	t.Expanded = true
	return nil
}

func decomposeStrided(flat int, counts, strides, out []int) {
	for d := len(counts) - 1; d >= 0; d-- {
		out[d] = flat / strides[d] % counts[d]
	}
}

func unionCuts(a, b []int) []int {
	merged := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			merged = append(merged, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			merged = append(merged, b[j])
			j++
		default: // a[i] == b[j]
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	return merged
}

// Add returns a new tensor equal to the pointwise sum of t and other as piecewise-constant
// functions: per axis, the union of their cut sets, and per region, the sum of whichever region
// of each input contains it. Both inputs may be compact or expanded; the result is compact
// unless both inputs were expanded (in which case the union of two full identity cut sequences
// is itself the identity sequence, so the result comes out expanded for free).
//
// Grounded on SegmentedRegion.h's Add; see the Expand doc comment for why this builds the result
// into a fresh grid via per-axis index lookups rather than the source's in-place reverse merge.
func (t *SegmentedTensor) Add(other *SegmentedTensor) (*SegmentedTensor, error) {
	const op = "Add"
	if len(t.Dims) != len(other.Dims) {
		return nil, newError(op, InvalidInput, "dimensionality mismatch")
	}
	for d := range t.Dims {
		if t.Dims[d] != other.Dims[d] {
			return nil, newError(op, InvalidInput, "axis cardinality mismatch")
		}
	}
	if t.VectorLength != other.VectorLength {
		return nil, newError(op, InvalidInput, "vector length mismatch")
	}

	mergedCuts := make([][]int, len(t.Dims))
	mergedCounts := make([]int, len(t.Dims))
	selfRegionFor := make([][]int, len(t.Dims))  // mergedCuts[d] region index -> self region index
	otherRegionFor := make([][]int, len(t.Dims)) // mergedCuts[d] region index -> other region index

	for d := range t.Dims {
		mergedCuts[d] = unionCuts(t.Cuts[d], other.Cuts[d])
		mergedCounts[d] = len(mergedCuts[d]) + 1

		selfRegionFor[d] = make([]int, mergedCounts[d])
		otherRegionFor[d] = make([]int, mergedCounts[d])
		for r := 0; r < mergedCounts[d]; r++ {
			start := 0
			if r > 0 {
				start = mergedCuts[d][r-1]
			}
			selfRegionFor[d][r] = regionIndexForRaw(t.Cuts[d], start)
			otherRegionFor[d][r] = regionIndexForRaw(other.Cuts[d], start)
		}
	}

	mergedStrides := make([]int, len(t.Dims))
	mult := 1
	for d, c := range mergedCounts {
		mergedStrides[d] = mult
		mult *= c
	}
	newTotal := mult

	if IsMultiplyError(uint64(newTotal), uint64(t.VectorLength)) {
		return nil, newError(op, SizeOverflow, "merged value grid size overflows")
	}

	selfStrides := t.strides()
	otherStrides := other.strides()

	newValues := mat.NewDense(newTotal, t.VectorLength, nil)
	point := make([]int, len(t.Dims))
	selfRow := make([]float64, t.VectorLength)
	otherRow := make([]float64, t.VectorLength)
	for newFlat := 0; newFlat < newTotal; newFlat++ {
		decomposeStrided(newFlat, mergedCounts, mergedStrides, point)
		selfFlat, otherFlat := 0, 0
		for d, r := range point {
			selfFlat += selfRegionFor[d][r] * selfStrides[d]
			otherFlat += otherRegionFor[d][r] * otherStrides[d]
		}
		mat.Row(selfRow, selfFlat, t.Values)
		mat.Row(otherRow, otherFlat, other.Values)
		sum := make([]float64, t.VectorLength)
		for v := range sum {
			sum[v] = selfRow[v] + otherRow[v]
		}
		newValues.SetRow(newFlat, sum)
	}

	return &SegmentedTensor{
		Dims:         append([]int(nil), t.Dims...),
		VectorLength: t.VectorLength,
		Expanded:     t.Expanded && other.Expanded,
		Cuts:         mergedCuts,
		Values:       newValues,
	}, nil
}
