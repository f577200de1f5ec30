package ebmboost

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/ebmcore/golang/ebmcore"
	"github.com/tarstars/ebmcore/golang/ebmpool"
)

// BoosterParams collects everything NewBooster needs to run a training run, mirroring
// EBoosterParams - generalized from a single CART tree per stage to a
// best-of-many-pairs round per stage.
type BoosterParams struct {
	Combos         []*ebmcore.FeatureCombination
	Train          *Dataset
	PrintDatasets  []*Dataset
	NStages        int
	LearningRate   float64
	Classification bool
	CVectorLength  int
	Loss           Loss
	Bag            Bag // nil selects a fresh flat (all-ones) bag every round
	ThreadsNum     int
}

// Booster holds the aggregate model a training run produces.
type Booster struct {
	Model *AggregateModel
}

func comboKey(combo *ebmcore.FeatureCombination) string {
	key := ""
	for i, f := range combo.Features {
		if i > 0 {
			key += ","
		}
		key += fmt.Sprintf("%d", f.DataIndex)
	}
	return key
}

// roundCandidate is one combo's trainPair outcome for the current round, produced in parallel by
// the worker pool.
type roundCandidate struct {
	combo  *ebmcore.FeatureCombination
	result *ebmcore.Result
	err    error
}

func scoreCombo(train *Dataset, bag Bag, combo *ebmcore.FeatureCombination, vectorLength int, classification bool) roundCandidate {
	block, err := train.BuildInputBlock(combo)
	if err != nil {
		return roundCandidate{combo: combo, err: err}
	}
	hist, err := ebmcore.NewHistogram(combo, vectorLength, classification)
	if err != nil {
		return roundCandidate{combo: combo, err: err}
	}
	if err := hist.Bin(block, bag, train.Residuals, train.Denominators); err != nil {
		return roundCandidate{combo: combo, err: err}
	}
	ebmcore.FastTotals(hist)
	result, err := ebmcore.TrainPair(hist, classification)
	if err != nil {
		return roundCandidate{combo: combo, err: err}
	}
	return roundCandidate{combo: combo, result: result}
}

// NewBooster runs params.NStages rounds. Each round: draw (or reuse) a bag, run trainPair against
// every monitored combination, keep the best gain, fold its scaled tensor into the aggregate
// model, update residuals, and record the round's learning-curve value against every monitored
// dataset. Mirrors NewEBooster/OneTree.BuildTree/EMatrix.Message, generalized from a single CART
// split to a pair-splitter round.
func NewBooster(params BoosterParams) (*Booster, error) {
	if len(params.Combos) == 0 {
		return nil, fmt.Errorf("ebmboost: NewBooster: no feature combinations given")
	}

	params.Train.ResetResiduals(params.Loss, params.Classification, params.CVectorLength)
	trainRawScore := mat.NewDense(params.Train.cCases(), params.CVectorLength, nil)

	printRawScores := make([]*mat.Dense, len(params.PrintDatasets))
	for i, pd := range params.PrintDatasets {
		pd.ResetResiduals(params.Loss, params.Classification, params.CVectorLength)
		printRawScores[i] = mat.NewDense(pd.cCases(), params.CVectorLength, nil)
	}

	model := &AggregateModel{}
	for _, pd := range params.PrintDatasets {
		description := ""
		if pd.Description != nil {
			description = *pd.Description
		}
		model.LearningCurveTitles = append(model.LearningCurveTitles, description)
	}

	useLogloss := params.Classification

	for stage := 0; stage < params.NStages; stage++ {
		log.Printf("ebmboost: round %d\n", stage+1)

		bag := params.Bag
		if bag == nil {
			bag = GenerateFlatSamplingSet(params.Train.cCases())
		}

		candidates := make([]roundCandidate, len(params.Combos))
		if params.ThreadsNum <= 1 {
			for q, combo := range params.Combos {
				candidates[q] = scoreCombo(params.Train, bag, combo, params.CVectorLength, params.Classification)
			}
		} else {
			pool := ebmpool.NewPool(params.ThreadsNum)
			for q, combo := range params.Combos {
				localCombo := combo
				task := &ebmpool.IndexedTask[roundCandidate]{
					Results: candidates,
					Index:   q,
					Fn: func(int) roundCandidate {
						return scoreCombo(params.Train, bag, localCombo, params.CVectorLength, params.Classification)
					},
				}
				pool.AddTask(task)
			}
			pool.Close()
			pool.WaitAll()
		}

		var best *roundCandidate
		for i := range candidates {
			c := &candidates[i]
			if c.err != nil {
				return nil, c.err
			}
			if best == nil || c.result.Gain > best.result.Gain {
				best = c
			}
		}

		best.result.Tensor.Multiply(params.LearningRate)

		key := comboKey(best.combo)
		entry := model.entry(key)
		if entry == nil {
			zero, err := ebmcore.NewSegmentedTensor(best.combo.Dims(), params.CVectorLength)
			if err != nil {
				return nil, err
			}
			entry = &ComboEntry{Key: key, Features: best.combo.Features, Tensor: zero}
			model.Combos = append(model.Combos, entry)
		}
		merged, err := entry.Tensor.Add(best.result.Tensor)
		if err != nil {
			return nil, err
		}
		entry.Tensor = merged

		applyRoundDelta(params.Train, best.combo, best.result.Tensor, trainRawScore, params.Loss, params.Classification)

		row := make([]float64, len(params.PrintDatasets))
		for i, pd := range params.PrintDatasets {
			applyRoundDelta(pd, best.combo, best.result.Tensor, printRawScores[i], params.Loss, params.Classification)
			description := ""
			if pd.Description != nil {
				description = *pd.Description
			}
			var metric float64
			if useLogloss {
				metric = Logloss(pd.Target, printRawScores[i], true)
				log.Print("Logloss for ", description, " = ", metric)
			} else {
				metric = Rmse(pd.Target, printRawScores[i])
				log.Print("RMSE for ", description, " = ", metric)
			}
			row[i] = metric
		}
		model.LearningCurveRows = append(model.LearningCurveRows, row)
	}

	return &Booster{Model: model}, nil
}

// applyRoundDelta adds the round's scaled tensor prediction, evaluated per case through combo's
// feature bin columns, into rawScore, then re-derives residuals (and denominators) from the
// updated score.
func applyRoundDelta(d *Dataset, combo *ebmcore.FeatureCombination, tensor *ebmcore.SegmentedTensor, rawScore *mat.Dense, loss Loss, classification bool) {
	point := make([]int, len(combo.Features))
	h, w := rawScore.Dims()
	for p := 0; p < h; p++ {
		for axis, f := range combo.Features {
			point[axis] = d.BinColumns[f.DataIndex][p]
		}
		delta := tensor.ValueAt(point)
		for v := 0; v < w; v++ {
			rawScore.Set(p, v, rawScore.At(p, v)+delta[v])
		}
	}
	d.ApplyPrediction(loss, classification, rawScore)
}

// PredictValue evaluates the aggregate model against a dataset's bin columns, summing every
// combo's tensor contribution. Mirrors EBooster.PredictValue, generalized to the pair-tensor
// representation.
func (m *AggregateModel) PredictValue(d *Dataset, cVectorLength int) *mat.Dense {
	h := d.cCases()
	prediction := mat.NewDense(h, cVectorLength, nil)
	for _, entry := range m.Combos {
		point := make([]int, len(entry.Features))
		for p := 0; p < h; p++ {
			for axis, f := range entry.Features {
				point[axis] = d.BinColumns[f.DataIndex][p]
			}
			delta := entry.Tensor.ValueAt(point)
			for v := 0; v < cVectorLength; v++ {
				prediction.Set(p, v, prediction.At(p, v)+delta[v])
			}
		}
	}
	return prediction
}
