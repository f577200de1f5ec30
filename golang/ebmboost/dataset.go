package ebmboost

import (
	"log"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/ebmcore/golang/ebmcore"
)

// Dataset is the case-major training or evaluation set: one discretized bin-index column per
// feature (already binned, the way the core's bit-packed input store expects), the target, and -
// once a round has run - the running residual and (for classification) denominator matrices.
// Generalized from EMatrix's two dense feature blocks to the core's per-feature bin-index
// columns.
type Dataset struct {
	BinColumns   [][]int // one column per feature, case-major
	Target       *mat.Dense
	Residuals    *mat.Dense // cCases x cVectorLength
	Denominators *mat.Dense // cCases x cVectorLength, classification only
	RecordIds    []int
	Description  *string
}

// SetDescription labels a dataset for learning-curve reporting, mirroring EMatrix.SetDescription.
func (d *Dataset) SetDescription(description string) {
	d.Description = &description
}

func (d *Dataset) cCases() int {
	if d.Target != nil {
		h, _ := d.Target.Dims()
		return h
	}
	if len(d.BinColumns) > 0 {
		return len(d.BinColumns[0])
	}
	return 0
}

// ResetResiduals seeds Residuals (and, for classification, Denominators) from the loss evaluated
// against a flat zero prediction, the starting point of every boosting run.
func (d *Dataset) ResetResiduals(loss Loss, classification bool, cVectorLength int) {
	h := d.cCases()
	d.Residuals = mat.NewDense(h, cVectorLength, nil)
	if classification {
		d.Denominators = mat.NewDense(h, cVectorLength, nil)
	}
	for p := 0; p < h; p++ {
		target := d.Target.At(p, 0)
		for v := 0; v < cVectorLength; v++ {
			d.Residuals.Set(p, v, loss.LossDer1(target, 0))
			if classification {
				d.Denominators.Set(p, v, loss.LossDer2(target, 0))
			}
		}
	}
}

// ApplyPrediction folds a round's per-case prediction contribution into the running residual (and
// denominator) matrices: prediction is accumulated internally by the caller, so here we only need
// the updated raw score per case to re-evaluate the loss's derivatives.
func (d *Dataset) ApplyPrediction(loss Loss, classification bool, rawScore *mat.Dense) {
	h, w := d.Residuals.Dims()
	for p := 0; p < h; p++ {
		target := d.Target.At(p, 0)
		for v := 0; v < w; v++ {
			score := rawScore.At(p, v)
			d.Residuals.Set(p, v, loss.LossDer1(target, score))
			if classification {
				d.Denominators.Set(p, v, loss.LossDer2(target, score))
			}
		}
	}
}

// BuildInputBlock packs this dataset's bin columns for combo's features, looked up by each
// feature's DataIndex into BinColumns.
func (d *Dataset) BuildInputBlock(combo *ebmcore.FeatureCombination) (*ebmcore.InputBlock, error) {
	columns := make([][]int, len(combo.Features))
	for i, f := range combo.Features {
		columns[i] = d.BinColumns[f.DataIndex]
	}
	return ebmcore.BuildInputBlock(combo, d.cCases(), columns)
}

// ReadDataset loads a bin-index matrix, a target matrix, and (for classification) nothing extra -
// denominators are derived, not stored on disk - from .npy files, mirroring ReadEMatrix/ReadNpy.
// binIndexFile holds a cCases x cFeatures integer-valued matrix; targetFile holds cCases x 1.
func ReadDataset(binIndexFile, targetFile string) (*Dataset, error) {
	columns, recordIds := readBinColumns(binIndexFile)
	target := readNpy(targetFile)

	return &Dataset{BinColumns: columns, Target: target, RecordIds: recordIds}, nil
}

// ReadFeatureDataset loads only a bin-index matrix, for runs that evaluate a model without a
// known target (prediction against unlabeled cases).
func ReadFeatureDataset(binIndexFile string) (*Dataset, error) {
	columns, recordIds := readBinColumns(binIndexFile)
	return &Dataset{BinColumns: columns, RecordIds: recordIds}, nil
}

func readBinColumns(binIndexFile string) ([][]int, []int) {
	binMatrix := readNpy(binIndexFile)

	h, w := binMatrix.Dims()
	columns := make([][]int, w)
	for col := 0; col < w; col++ {
		columns[col] = make([]int, h)
		for row := 0; row < h; row++ {
			columns[col][row] = int(binMatrix.At(row, col))
		}
	}

	recordIds := make([]int, h)
	for p := range recordIds {
		recordIds[p] = p
	}
	return columns, recordIds
}

// readNpy reads a single .npy file into a dense matrix, mirroring ebl.ReadNpy's log.Fatal-on-open,
// HandleError-on-read idiom.
func readNpy(fileName string) *mat.Dense {
	f, err := os.Open(fileName)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { HandleError(f.Close()) }()

	r, err := npyio.NewReader(f)
	if err != nil {
		log.Fatal(err)
	}

	denseMat := &mat.Dense{}
	HandleError(r.Read(denseMat))
	return denseMat
}
