package ebmboost

import (
	"os"
	"testing"

	"github.com/tarstars/ebmcore/golang/ebmcore"
)

func TestAggregateModelSaveLoadRoundTrip(t *testing.T) {
	tensor, err := ebmcore.NewSegmentedTensorWithCuts([]int{5}, 1, [][]int{{2}}, [][]float64{{10}, {20}})
	if err != nil {
		t.Fatal(err)
	}
	model := &AggregateModel{
		Combos: []*ComboEntry{
			{Key: "0", Features: []ebmcore.Feature{{CStates: 5, DataIndex: 0}}, Tensor: tensor},
		},
		LearningCurveTitles: []string{"train"},
		LearningCurveRows:   [][]float64{{1.5}, {1.2}},
	}

	f, err := os.CreateTemp("", "ebmboost-model-*.json")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(f.Name())
	f.Close()

	model.Save(f.Name())
	loaded, err := LoadModel(f.Name())
	if err != nil {
		t.Fatal(err)
	}

	if len(loaded.Combos) != 1 {
		t.Fatalf("combo count = %d, want 1", len(loaded.Combos))
	}
	got := loaded.Combos[0].Tensor
	for state := 0; state < 5; state++ {
		want := tensor.ValueAt([]int{state})
		gotVal := got.ValueAt([]int{state})
		if gotVal[0] != want[0] {
			t.Fatalf("state %d: got %v, want %v", state, gotVal, want)
		}
	}
	if len(loaded.LearningCurveRows) != 2 || loaded.LearningCurveRows[0][0] != 1.5 {
		t.Fatalf("learning curve rows = %v", loaded.LearningCurveRows)
	}
}
