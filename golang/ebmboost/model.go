package ebmboost

import (
	"encoding/json"
	"os"

	"github.com/tarstars/ebmcore/golang/ebmcore"
)

// ComboEntry is one feature combination's long-lived contribution to the aggregate model: the
// features that make it up (enough to reconstruct a *ebmcore.FeatureCombination) and the
// additively-accumulated segmented tensor trained against it so far.
type ComboEntry struct {
	Key      string
	Features []ebmcore.Feature
	Tensor   *ebmcore.SegmentedTensor
}

// AggregateModel is the training-run analog of EBooster: the additively-updated collection of
// segmented tensors produced across all boosting rounds, plus a learning-curve history - one row
// per round, one column per monitored dataset.
type AggregateModel struct {
	Combos              []*ComboEntry
	LearningCurveTitles []string
	LearningCurveRows   [][]float64
}

func (m *AggregateModel) entry(key string) *ComboEntry {
	for _, c := range m.Combos {
		if c.Key == key {
			return c
		}
	}
	return nil
}

// tensorDTO is the JSON-friendly flattening of a *ebmcore.SegmentedTensor: mat.Dense does not
// round-trip through encoding/json on its own, so cuts and values are copied out into plain
// slices, mirroring how EBooster.Save leans on json.MarshalIndent for everything else in the
// model.
type tensorDTO struct {
	Dims         []int       `json:"dims"`
	VectorLength int         `json:"vectorLength"`
	Expanded     bool        `json:"expanded"`
	Cuts         [][]int     `json:"cuts"`
	Values       [][]float64 `json:"values"`
}

type comboDTO struct {
	Key      string            `json:"key"`
	Features []ebmcore.Feature `json:"features"`
	Tensor   tensorDTO         `json:"tensor"`
}

type modelDTO struct {
	Combos              []comboDTO  `json:"combos"`
	LearningCurveTitles []string    `json:"learningCurveTitles"`
	LearningCurveRows   [][]float64 `json:"learningCurveRows"`
}

func toTensorDTO(t *ebmcore.SegmentedTensor) tensorDTO {
	regionCount, vectorLength := t.Values.Dims()
	values := make([][]float64, regionCount)
	for r := 0; r < regionCount; r++ {
		row := make([]float64, vectorLength)
		for v := 0; v < vectorLength; v++ {
			row[v] = t.Values.At(r, v)
		}
		values[r] = row
	}
	cuts := make([][]int, len(t.Cuts))
	for axis, axisCuts := range t.Cuts {
		cuts[axis] = append([]int(nil), axisCuts...)
	}
	return tensorDTO{Dims: append([]int(nil), t.Dims...), VectorLength: t.VectorLength, Expanded: t.Expanded, Cuts: cuts, Values: values}
}

func fromTensorDTO(dto tensorDTO) (*ebmcore.SegmentedTensor, error) {
	t, err := ebmcore.NewSegmentedTensorWithCuts(dto.Dims, dto.VectorLength, dto.Cuts, dto.Values)
	if err != nil {
		return nil, err
	}
	if dto.Expanded {
		t.Expanded = true
	}
	return t, nil
}

// Save writes the aggregate model to filename as indented JSON, mirroring EBooster.Save.
func (m *AggregateModel) Save(filename string) {
	dest, err := os.Create(filename)
	HandleError(err)
	defer func() { HandleError(dest.Close()) }()

	dto := modelDTO{LearningCurveTitles: m.LearningCurveTitles, LearningCurveRows: m.LearningCurveRows}
	for _, c := range m.Combos {
		dto.Combos = append(dto.Combos, comboDTO{Key: c.Key, Features: c.Features, Tensor: toTensorDTO(c.Tensor)})
	}

	bytesOut, err := json.MarshalIndent(dto, "", "  ")
	HandleError(err)
	_, err = dest.Write(bytesOut)
	HandleError(err)
}

// LoadModel reads back a model written by Save, mirroring ebl.LoadModel.
func LoadModel(filename string) (*AggregateModel, error) {
	source, err := os.Open(filename)
	HandleError(err)
	defer func() { HandleError(source.Close()) }()

	var dto modelDTO
	decoder := json.NewDecoder(source)
	HandleError(decoder.Decode(&dto))

	m := &AggregateModel{LearningCurveTitles: dto.LearningCurveTitles, LearningCurveRows: dto.LearningCurveRows}
	for _, c := range dto.Combos {
		tensor, err := fromTensorDTO(c.Tensor)
		if err != nil {
			return nil, err
		}
		m.Combos = append(m.Combos, &ComboEntry{Key: c.Key, Features: c.Features, Tensor: tensor})
	}
	return m, nil
}

// DumpLearningCurves writes just the learning-curve history, mirroring
// EBooster.DumpLearningCurves.
func (m *AggregateModel) DumpLearningCurves(filename string) {
	dest, err := os.Create(filename)
	HandleError(err)
	defer func() { HandleError(dest.Close()) }()

	dump := struct {
		Titles []string    `json:"titles"`
		Values [][]float64 `json:"values"`
	}{Titles: m.LearningCurveTitles, Values: m.LearningCurveRows}

	bytesOut, err := json.MarshalIndent(dump, "", "  ")
	HandleError(err)
	_, err = dest.Write(bytesOut)
	HandleError(err)
}
