package ebmboost

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/ebmcore/golang/ebmcore"
)

func TestNewBoosterSingleComboOneStage(t *testing.T) {
	combo, err := ebmcore.NewFeatureCombination(
		Feature2(2, 0),
		Feature2(3, 1),
	)
	if err != nil {
		t.Fatal(err)
	}

	bin0 := []int{0, 1, 0, 1, 0, 1}
	bin1 := []int{0, 0, 1, 1, 2, 2}
	target := mat.NewDense(6, 1, []float64{-1, -1, -1, -1, 2, 2})

	train := &Dataset{BinColumns: [][]int{bin0, bin1}, Target: target}

	booster, err := NewBooster(BoosterParams{
		Combos:         []*ebmcore.FeatureCombination{combo},
		Train:          train,
		NStages:        1,
		LearningRate:   1.0,
		Classification: false,
		CVectorLength:  1,
		Loss:           MseLoss{},
		ThreadsNum:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(booster.Model.Combos) != 1 {
		t.Fatalf("combo count = %d, want 1", len(booster.Model.Combos))
	}

	prediction := booster.Model.PredictValue(train, 1)
	// The winning split fully separates the uniform columns, so the model's prediction should
	// exactly match the two distinct residual clusters (-1 and 2) up to the learning rate.
	for p := 0; p < 6; p++ {
		got := prediction.At(p, 0)
		want := target.At(p, 0)
		if got < want-1e-9 || got > want+1e-9 {
			t.Fatalf("case %d: prediction %v, want %v", p, got, want)
		}
	}
}

// Feature2 is a tiny constructor mirroring ebmcore.Feature's field order, kept local to this test
// file for readability at call sites with several features.
func Feature2(cStates, dataIndex int) ebmcore.Feature {
	return ebmcore.Feature{CStates: cStates, DataIndex: dataIndex}
}
