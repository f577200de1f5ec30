package ebmboost

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss is the per-case loss used to derive residuals (first derivative) and denominators (second
// derivative, the Hessian proxy the classification accumulator stores). Mirrors the shape of
// a SplitLoss-shaped interface (lossDer1/lossDer2), generalized to a public type since
// ebmboost, unlike ebl, hands the derivatives to a histogram rather than a single-feature scan.
type Loss interface {
	LossDer1(target, prediction float64) float64
	LossDer2(target, prediction float64) float64
}

// MseLoss is the regression loss: residual is target-prediction, denominator is always 1 (the
// pair splitter's regression score path never reads it).
type MseLoss struct{}

func (MseLoss) LossDer1(target, prediction float64) float64 { return target - prediction }
func (MseLoss) LossDer2(target, prediction float64) float64 { return 1 }

// LogLoss is the binary classification loss over a raw logit prediction: residual is
// target-sigmoid(prediction), denominator is the Bernoulli variance sigmoid(p)*(1-sigmoid(p)),
// the Hessian-proxy every classification accumulator in the histogram stores.
type LogLoss struct{}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func (LogLoss) LossDer1(target, prediction float64) float64 {
	return target - sigmoid(prediction)
}

func (LogLoss) LossDer2(target, prediction float64) float64 {
	p := sigmoid(prediction)
	return p * (1 - p)
}

// Rmse is the learning-curve metric for regression runs, grounded on EMatrix.Message's RMSE
// branch.
func Rmse(target, prediction *mat.Dense) float64 {
	h, w := target.Dims()
	sumSq := 0.0
	for p := 0; p < h; p++ {
		for q := 0; q < w; q++ {
			d := target.At(p, q) - prediction.At(p, q)
			sumSq += d * d
		}
	}
	return math.Sqrt(sumSq / float64(h*w))
}

// Logloss is the learning-curve metric for classification runs. When applySigmoid is true,
// prediction holds raw logits and is converted to a probability first, mirroring
// EMatrix.Message's "testBiases accumulates raw logits F(x)" comment.
func Logloss(target, prediction *mat.Dense, applySigmoid bool) float64 {
	h, w := target.Dims()
	const eps = 1e-12
	sum := 0.0
	for p := 0; p < h; p++ {
		for q := 0; q < w; q++ {
			y := target.At(p, q)
			x := prediction.At(p, q)
			if applySigmoid {
				x = sigmoid(x)
			}
			if x < eps {
				x = eps
			}
			if x > 1-eps {
				x = 1 - eps
			}
			sum -= y*math.Log(x) + (1-y)*math.Log(1-x)
		}
	}
	return sum / float64(h*w)
}
