// Package batch runs power-data series through the power model outside the
// HTTP service. It loads and owns its own model session.
package batch

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/nfnt/resize"
)

// SeriesLength is the number of readings the power model takes per series.
const SeriesLength = 300

var ErrShapeMismatch = errors.New("shape mismatch")

// Runner performs one forward pass over a flattened input tensor.
type Runner interface {
	Run(input []float32) ([]float32, error)
}

// Input is a series shaped (1, SeriesLength, 1).
type Input struct {
	values []float32
}

func (in Input) Shape() []int64 {
	return []int64{1, int64(len(in.values)), 1}
}

func (in Input) Values() []float32 {
	return in.values
}

// Preprocess reshapes exactly SeriesLength readings into model input.
func Preprocess(readings []float64) (Input, error) {
	if len(readings) != SeriesLength {
		return Input{}, fmt.Errorf("%w: expected %d values, got %d", ErrShapeMismatch, SeriesLength, len(readings))
	}
	values := make([]float32, len(readings))
	for i, r := range readings {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return Input{}, fmt.Errorf("reading %d is not finite: %v", i, r)
		}
		values[i] = float32(r)
	}
	return Input{values: values}, nil
}

type Predictor struct {
	runner Runner
}

func NewPredictor(runner Runner) *Predictor {
	return &Predictor{runner: runner}
}

// Predict returns the model output flattened in order, without reduction.
func (p *Predictor) Predict(in Input) ([]float64, error) {
	if len(in.values) != SeriesLength {
		return nil, fmt.Errorf("%w: input holds %d values, want %d", ErrShapeMismatch, len(in.values), SeriesLength)
	}
	out, err := p.runner.Run(in.values)
	if err != nil {
		return nil, fmt.Errorf("power model: %w", err)
	}
	result := make([]float64, len(out))
	for i, v := range out {
		result[i] = float64(v)
	}
	return result, nil
}

// Resample stretches or shrinks a trace to n points by treating it as a
// one-row 16-bit grayscale image and scaling it with a bilinear filter.
// Samples sit at pixel centres, so endpoints are not preserved exactly and
// shrinking averages neighbouring readings. The trace is quantized to 16
// bits over its own range: the result is accurate to (max-min)/65535, and
// readings closer together than that collapse to one level.
func Resample(readings []float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid target length %d", n)
	}
	if len(readings) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 readings to resample, got %d", ErrShapeMismatch, len(readings))
	}
	if len(readings) == n {
		return append([]float64(nil), readings...), nil
	}

	lo, hi := readings[0], readings[0]
	for _, r := range readings {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("cannot resample non-finite reading %v", r)
		}
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}
	out := make([]float64, n)
	if hi == lo {
		for i := range out {
			out[i] = lo
		}
		return out, nil
	}

	span := hi - lo
	row := image.NewGray16(image.Rect(0, 0, len(readings), 1))
	for x, r := range readings {
		row.SetGray16(x, 0, color.Gray16{Y: uint16(math.Round((r - lo) / span * math.MaxUint16))})
	}

	scaled := resize.Resize(uint(n), 1, row, resize.Bilinear)
	for x := range out {
		g := color.Gray16Model.Convert(scaled.At(scaled.Bounds().Min.X+x, scaled.Bounds().Min.Y)).(color.Gray16)
		out[x] = lo + float64(g.Y)/math.MaxUint16*span
	}
	return out, nil
}
