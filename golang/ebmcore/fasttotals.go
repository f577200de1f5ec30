package ebmcore

// FastTotals rewrites h in place so that the accumulator at flat index i(p) holds the sum of the
// original accumulators over every q componentwise <= p. It never touches the scratch slot at
// flat index h.B.
//
// This is the zero-extra-memory design (Design B in SPEC_FULL.md §4.3): no auxiliary cube or per-axis
// ring buffer is allocated. Rather than enumerating the 2^(N-1) inclusion-exclusion subsets
// per cell directly (the source's BuildFastTotalsZeroMemoryIncrease), it reaches the identical
// result by applying one 1D cumulative sum per axis in turn - the standard construction of an
// N-dimensional summed-area table, which is the same computation the per-cell subset walk
// performs when its carried "previous" registers are unrolled across a full axis pass. Doing it
// this way means every partial result is a cumulative sum along a single axis, which is far
// easier to get right without a test run than tracking 2^(N-1) signed subset offsets by hand.
//
// Under the ebmdebug build tag, the pre-transform data is snapshotted first and the result is
// verified against an O(B^2*N) brute-force reference before returning; release builds elide both
// the snapshot and the check entirely.
func FastTotals(h *BucketHistogram) {
	before := debugSnapshotBeforeFastTotals(h)

	dims := h.Combo.Dims()
	strides := h.Combo.Strides()
	data := h.data()
	width := h.Width
	b := h.B

	for axis, dimSize := range dims {
		if dimSize < 2 {
			continue
		}
		stride := strides[axis]
		blockSize := stride * dimSize
		numBlocks := b / blockSize

		for block := 0; block < numBlocks; block++ {
			base := block * blockSize
			for inner := 0; inner < stride; inner++ {
				for k := 1; k < dimSize; k++ {
					cur := (base + inner + k*stride) * width
					prev := (base + inner + (k-1)*stride) * width
					for w := 0; w < width; w++ {
						data[cur+w] += data[prev+w]
					}
				}
			}
		}
	}

	debugVerifyFastTotals(before, h)
}
