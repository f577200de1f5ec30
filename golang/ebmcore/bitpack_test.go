package ebmcore

import "testing"

func TestBuildInputBlockRoundTripsSingleFeature(t *testing.T) {
	combo, err := NewFeatureCombination(Feature{CStates: 4, DataIndex: 0})
	if err != nil {
		t.Fatal(err)
	}
	values := []int{0, 3, 1, 2, 0, 3, 2}
	block, err := BuildInputBlock(combo, len(values), [][]int{values})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range values {
		if got := block.TupleIndex(i); got != want {
			t.Fatalf("case %d: got %d, want %d", i, got, want)
		}
	}
}

// Two features combine into a single flat tensor index: BitsPerItem must be wide enough for the
// whole combination's cardinality, not just the widest single axis.
func TestBuildInputBlockCombinesMultipleFeatures(t *testing.T) {
	combo, err := NewFeatureCombination(
		Feature{CStates: 2, DataIndex: 0},
		Feature{CStates: 3, DataIndex: 1},
	)
	if err != nil {
		t.Fatal(err)
	}
	if combo.Cardinality() != 6 {
		t.Fatalf("cardinality = %d, want 6", combo.Cardinality())
	}

	col0 := []int{0, 1, 0, 1, 0, 1}
	col1 := []int{0, 0, 1, 1, 2, 2}
	block, err := BuildInputBlock(combo, 6, [][]int{col0, col1})
	if err != nil {
		t.Fatal(err)
	}

	want := []int{0, 1, 2, 3, 4, 5}
	for i, w := range want {
		if got := block.TupleIndex(i); got != w {
			t.Fatalf("case %d: got %d, want %d", i, got, w)
		}
	}
}

// Force more cases than fit in one word so the final, possibly-partial word is exercised too.
func TestBuildInputBlockMultipleWords(t *testing.T) {
	combo, err := NewFeatureCombination(Feature{CStates: 2, DataIndex: 0})
	if err != nil {
		t.Fatal(err)
	}
	cCases := combo.ItemsPerWord*2 + 3
	values := make([]int, cCases)
	for i := range values {
		values[i] = i % 2
	}
	block, err := BuildInputBlock(combo, cCases, [][]int{values})
	if err != nil {
		t.Fatal(err)
	}
	if len(block.Words) != 3 {
		t.Fatalf("word count = %d, want 3", len(block.Words))
	}
	for i, want := range values {
		if got := block.TupleIndex(i); got != want {
			t.Fatalf("case %d: got %d, want %d", i, got, want)
		}
	}
}

func TestBuildInputBlockRejectsOutOfRangeBin(t *testing.T) {
	combo, err := NewFeatureCombination(Feature{CStates: 2, DataIndex: 0})
	if err != nil {
		t.Fatal(err)
	}
	_, err = BuildInputBlock(combo, 2, [][]int{{0, 2}})
	if err == nil {
		t.Fatal("expected an error for an out-of-range bin value")
	}
	if ebmErr, ok := err.(*Error); !ok || ebmErr.Kind != InvalidInput {
		t.Fatalf("got %v, want InvalidInput", err)
	}
}

func TestBuildInputBlockRejectsMismatchedColumns(t *testing.T) {
	combo, err := NewFeatureCombination(Feature{CStates: 2, DataIndex: 0}, Feature{CStates: 2, DataIndex: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BuildInputBlock(combo, 3, [][]int{{0, 1, 0}}); err == nil {
		t.Fatal("expected an error for a column count mismatch")
	}
}
