package ebmcore

import "math/bits"

// RangeSum reads, from an already fast-totalled histogram, the sum over the box whose axis-d
// extent is [0..point[d]] when the direction bit for axis d is 0, or (point[d]..cStates_d-1]
// when it is 1. It costs O(2^popcount(direction)) cube reads.
//
// Derivation: let F be the prefix cube (F[x] = sum of original accumulators over q <= x). For
// the k "high" axes (direction bit 1), the box sum is the inclusion-exclusion expansion
//
//	sum_{T subset of highAxes} (-1)^(k-|T|) F(x^T)
//
// where x^T_d = cStates_d-1 (the axis's last index) for d in T, x^T_d = point[d] otherwise - and
// every low axis (direction bit 0) is pinned at point[d] in every term. T = highAxes reads F with
// every high axis at its last index, with sign (-1)^0 = +1; T = empty recovers the ordinary prefix
// F(point), with sign (-1)^k. This is exactly
// Scenario 3's "totalSum - prefix axis-0 - prefix axis-1 + corner" pattern generalized to k axes.
//
// Under the ebmdebug build tag, every query is additionally re-checked by brute-force summation
// over the snapshot FastTotals took of h before transforming it; release builds elide the check.
func RangeSum(h *BucketHistogram, point []int, direction uint) Accumulator {
	dims := h.Combo.Dims()
	strides := h.Combo.Strides()

	var highAxes []int
	for d := range dims {
		if direction&(1<<uint(d)) != 0 {
			highAxes = append(highAxes, d)
		}
	}
	k := len(highAxes)

	result := make([]float64, h.Width)
	for mask := uint(0); mask < uint(1)<<uint(k); mask++ {
		flat := 0
		for d := range dims {
			x := point[d]
			flat += x * strides[d]
		}
		for bit, axis := range highAxes {
			if mask&(1<<uint(bit)) != 0 {
				// axis in T: use the high end instead of the pinned low point value.
				flat += (dims[axis] - 1 - point[axis]) * strides[axis]
			}
		}

		sign := 1.0
		if (k-bits.OnesCount(mask))%2 == 1 {
			sign = -1.0
		}

		raw := h.at(flat)
		for w := 0; w < h.Width; w++ {
			result[w] += sign * raw[w]
		}
	}

	acc := Accumulator{
		Weight:      result[0],
		ResidualSum: append([]float64(nil), result[1:1+h.VectorLength]...),
	}
	if h.Classification {
		acc.DenominatorSum = append([]float64(nil), result[1+h.VectorLength:1+2*h.VectorLength]...)
	}

	debugVerifyRangeSum(h, point, direction, acc)

	return acc
}
