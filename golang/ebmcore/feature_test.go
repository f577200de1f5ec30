package ebmcore

import "testing"

func TestFeatureCombinationDimsAndStrides(t *testing.T) {
	combo, err := NewFeatureCombination(
		Feature{CStates: 2, DataIndex: 0},
		Feature{CStates: 3, DataIndex: 1},
		Feature{CStates: 4, DataIndex: 2},
	)
	if err != nil {
		t.Fatal(err)
	}
	wantDims := []int{2, 3, 4}
	for i, d := range combo.Dims() {
		if d != wantDims[i] {
			t.Fatalf("dims = %v, want %v", combo.Dims(), wantDims)
		}
	}
	wantStrides := []int{1, 2, 6}
	for i, s := range combo.Strides() {
		if s != wantStrides[i] {
			t.Fatalf("strides = %v, want %v", combo.Strides(), wantStrides)
		}
	}
	if combo.Cardinality() != 24 {
		t.Fatalf("cardinality = %d, want 24", combo.Cardinality())
	}
}

func TestFeatureCombinationRejectsTooFewStates(t *testing.T) {
	if _, err := NewFeatureCombination(Feature{CStates: 1, DataIndex: 0}); err == nil {
		t.Fatal("expected an error for a single-state feature")
	}
}

func TestFeatureCombinationRejectsOverflow(t *testing.T) {
	big := Feature{CStates: 1 << 40, DataIndex: 0}
	_, err := NewFeatureCombination(big, big, big)
	if err == nil {
		t.Fatal("expected a size overflow error")
	}
	ebmErr, ok := err.(*Error)
	if !ok || ebmErr.Kind != SizeOverflow {
		t.Fatalf("got %v, want SizeOverflow", err)
	}
}

func TestFeatureCombinationBitsPerItemCoversCombinedCardinality(t *testing.T) {
	// Cardinality is 6 (needs 3 bits: values 0..5), even though the widest single axis (3
	// states) would only need 2.
	combo, err := NewFeatureCombination(
		Feature{CStates: 2, DataIndex: 0},
		Feature{CStates: 3, DataIndex: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	if combo.BitsPerItem < 3 {
		t.Fatalf("BitsPerItem = %d, want >= 3 to hold values up to %d", combo.BitsPerItem, combo.Cardinality()-1)
	}
}

func TestIsMultiplyError(t *testing.T) {
	if IsMultiplyError(0, 100) || IsMultiplyError(100, 0) {
		t.Fatal("zero operand should never overflow")
	}
	if IsMultiplyError(2, 3) {
		t.Fatal("2*3 should not overflow")
	}
	if !IsMultiplyError(^uint64(0), 2) {
		t.Fatal("max*2 should overflow")
	}
}
