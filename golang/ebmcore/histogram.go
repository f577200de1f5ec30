package ebmcore

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Accumulator is a per-bin value: a weighted case count, a residual-sum vector, and - for
// classification - a per-class denominator (Hessian proxy) vector.
type Accumulator struct {
	Weight         float64
	ResidualSum    []float64
	DenominatorSum []float64 // nil for regression
}

// BucketHistogram is a dense array of B+1 per-bin accumulators over combo's grid, backed by a
// gorgonia tensor so the hot loops (Bin, FastTotals, RangeSum) can walk the raw backing slice
// instead of paying per-element At/SetAt overhead. The scratch slot at flat index B is never
// populated by Bin and must stay zero; FastTotals and RangeSum never address it either, but it
// exists so a caller-supplied running "previous" register (per the fast-totals contract) has a
// stable home without a second allocation.
type BucketHistogram struct {
	Combo          *FeatureCombination
	VectorLength   int
	Classification bool
	Width          int // floats per accumulator: 1 + VectorLength, or 1 + 2*VectorLength
	B              int // Combo.Cardinality()
	cube           *tensor.Dense

	// debugPreTotals holds a copy of the histogram's data as it stood immediately before
	// FastTotals transformed it in place, captured only under the ebmdebug build tag so RangeSum
	// can cross-check individual queries against a brute-force reference. Always nil otherwise.
	debugPreTotals []float64
}

// NewHistogram allocates a zeroed histogram for combo. vectorLength is cVectorLength from the
// data model; classification selects the wider (residual + denominator) accumulator layout.
func NewHistogram(combo *FeatureCombination, vectorLength int, classification bool) (*BucketHistogram, error) {
	const op = "NewHistogram"
	if vectorLength < 1 {
		return nil, newError(op, InvalidInput, "vectorLength must be >= 1")
	}

	b := combo.Cardinality()
	width := 1 + vectorLength
	if classification {
		width = 1 + 2*vectorLength
	}

	if IsMultiplyError(uint64(b+1), uint64(width)) {
		return nil, newError(op, SizeOverflow, "histogram size overflows")
	}

	cube := tensor.New(tensor.WithShape(b+1, width), tensor.Of(tensor.Float64))

	return &BucketHistogram{
		Combo:          combo,
		VectorLength:   vectorLength,
		Classification: classification,
		Width:          width,
		B:              b,
		cube:           cube,
	}, nil
}

// data exposes the histogram's flat backing slice: row-major, B+1 rows of Width floats each.
func (h *BucketHistogram) data() []float64 {
	return h.cube.Data().([]float64)
}

// at returns the mutable Width-float slice for flat bin index bin (0 <= bin <= h.B).
func (h *BucketHistogram) at(bin int) []float64 {
	d := h.data()
	return d[bin*h.Width : bin*h.Width+h.Width]
}

// Reset zeroes every accumulator, including the scratch slot, preparing the histogram for reuse
// across rounds (histograms are scratch buffers that never outlive a round).
func (h *BucketHistogram) Reset() {
	d := h.data()
	for i := range d {
		d[i] = 0
	}
}

// Bin adds every case's weighted residual (and, for classification, its weighted denominator)
// into the accumulator addressed by its tuple index. bag[i] == 0 skips the case entirely so a
// bootstrap sample that never drew case i contributes nothing.
func (h *BucketHistogram) Bin(block *InputBlock, bag []float64, residuals *mat.Dense, denominators *mat.Dense) error {
	const op = "Bin"
	if block.CCases != len(bag) {
		return newError(op, InvalidInput, "bag length does not match case count")
	}
	if h.Classification && denominators == nil {
		return newError(op, InvalidInput, "classification histogram requires denominators")
	}

	for i := 0; i < block.CCases; i++ {
		weight := bag[i]
		if weight == 0 {
			continue
		}
		tuple := block.TupleIndex(i)
		if tuple < 0 || tuple >= h.B {
			return newError(op, InvalidInput, "case tuple index out of range")
		}
		acc := h.at(tuple)
		acc[0] += weight
		for v := 0; v < h.VectorLength; v++ {
			acc[1+v] += weight * residuals.At(i, v)
		}
		if h.Classification {
			for v := 0; v < h.VectorLength; v++ {
				acc[1+h.VectorLength+v] += weight * denominators.At(i, v)
			}
		}
	}
	return nil
}

// accumulatorAt decodes the raw Width-float slice at bin into an Accumulator value.
func (h *BucketHistogram) accumulatorAt(bin int) Accumulator {
	raw := h.at(bin)
	acc := Accumulator{
		Weight:      raw[0],
		ResidualSum: append([]float64(nil), raw[1:1+h.VectorLength]...),
	}
	if h.Classification {
		acc.DenominatorSum = append([]float64(nil), raw[1+h.VectorLength:1+2*h.VectorLength]...)
	}
	return acc
}
