//go:build !ebmdebug

package ebmcore

// debugSnapshotBeforeFastTotals is the release no-op: no snapshot is taken, so the O(B) copy
// FastTotals would otherwise pay for every call is elided entirely.
func debugSnapshotBeforeFastTotals(h *BucketHistogram) []float64 { return nil }

// debugVerifyFastTotals is the release no-op: FastTotals's output is trusted without the O(B^2*N)
// brute-force cross-check.
func debugVerifyFastTotals(before []float64, h *BucketHistogram) {}

// debugCheckFastTotals is the release stub callable directly from tests: it always reports
// agreement, since the real brute-force check only compiles in under the ebmdebug build tag.
func debugCheckFastTotals(before []float64, after *BucketHistogram) bool { return true }

// debugVerifyRangeSum is the release no-op: RangeSum's result is trusted without cross-checking
// it against a pre-transform snapshot.
func debugVerifyRangeSum(h *BucketHistogram, point []int, direction uint, got Accumulator) {}

// debugCheckRangeSum is the release stub callable directly from tests: it always reports
// agreement, since the real brute-force check only compiles in under the ebmdebug build tag.
func debugCheckRangeSum(before []float64, h *BucketHistogram, point []int, direction uint, got Accumulator) bool {
	return true
}
