package emission

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"k8s.io/klog/v2"

	"github.com/Brownie44l1/carbon-api/internal/category"
)

// Runner performs one forward pass over a flattened input tensor.
type Runner interface {
	Run(input []float32) ([]float32, error)
}

// Observer receives inference and cache events. A nil Observer is allowed.
type Observer interface {
	ObserveInference(elapsed time.Duration, err error)
	ObserveCache(hit bool)
}

type Option func(*Estimator)

func WithCache(c *Cache) Option {
	return func(e *Estimator) { e.cache = c }
}

func WithObserver(o Observer) Option {
	return func(e *Estimator) { e.observer = o }
}

// Estimator turns a validated request into an emission estimate using the
// footprint model. It is safe for concurrent use if the Runner is.
type Estimator struct {
	runner   Runner
	labels   *category.Set
	steps    int
	cache    *Cache
	observer Observer
}

func NewEstimator(runner Runner, labels *category.Set, steps int, opts ...Option) (*Estimator, error) {
	if runner == nil {
		return nil, errors.New("estimator: runner is required")
	}
	if labels == nil || labels.Len() == 0 {
		return nil, errors.New("estimator: category set is empty")
	}
	if steps <= 0 {
		return nil, fmt.Errorf("estimator: invalid series length %d", steps)
	}
	e := &Estimator{runner: runner, labels: labels, steps: steps}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Estimator) Labels() *category.Set {
	return e.labels
}

// Parse validates a raw request body against this estimator's categories.
func (e *Estimator) Parse(body []byte) (Request, error) {
	return ParseRequest(body, e.labels)
}

// Predict runs the model on a series holding req.Weight at every step and
// returns the output at the category's index.
func (e *Estimator) Predict(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, internal(err)
	}
	code, ok := e.labels.Code(req.Category)
	if !ok {
		return Result{}, ErrInvalidCategory
	}

	if e.cache != nil {
		v, hit := e.cache.Get(req.Category, req.Weight)
		e.observeCache(hit)
		if hit {
			return Result{PredictedEmission: v, Category: req.Category}, nil
		}
	}

	start := time.Now()
	out, err := e.runner.Run(Broadcast(req.Weight, e.steps))
	e.observeInference(time.Since(start), err)
	if err != nil {
		return Result{}, internal(err)
	}
	if code >= len(out) {
		return Result{}, internal(fmt.Errorf("model output has %d values, category %q needs index %d", len(out), req.Category, code))
	}

	v := float64(out[code])
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Result{}, internal(fmt.Errorf("model produced non-finite emission %v for weight %v", v, req.Weight))
	}

	if e.cache != nil {
		e.cache.Set(req.Category, req.Weight, v)
	}
	klog.V(4).Infof("Predicted %v for %s (weight %v)", v, req.Category, req.Weight)

	return Result{PredictedEmission: v, Category: req.Category}, nil
}

// Broadcast fills a series of the given length with weight. The footprint
// model takes a time series, but clients only send one reading, so the
// reading is repeated at every step.
func Broadcast(weight float64, steps int) []float32 {
	series := make([]float32, steps)
	w := float32(weight)
	for i := range series {
		series[i] = w
	}
	return series
}

func (e *Estimator) observeInference(elapsed time.Duration, err error) {
	if e.observer != nil {
		e.observer.ObserveInference(elapsed, err)
	}
}

func (e *Estimator) observeCache(hit bool) {
	if e.observer != nil {
		e.observer.ObserveCache(hit)
	}
}
