package ostree

import (
	"math"

	"github.com/pingcap/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

// PercentileIndex is a set of distinct values answering percentile-range
// queries. Each value is stored in a Tree as both key and payload.
// The zero value is an empty index with a no-op logger.
type PercentileIndex[T constraints.Ordered] struct {
	tree   *Tree[T, T]
	logger *zap.Logger
}

// NewPercentileIndex returns an empty PercentileIndex.
func NewPercentileIndex[T constraints.Ordered](opts ...Option) *PercentileIndex[T] {
	o := newOptions(opts)
	return &PercentileIndex[T]{
		tree:   New[T, T](),
		logger: o.logger,
	}
}

func (p *PercentileIndex[T]) lazyInit() {
	if p.tree == nil {
		p.tree = New[T, T]()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
}

// Tree returns the underlying tree. Mutating it directly is allowed.
func (p *PercentileIndex[T]) Tree() *Tree[T, T] {
	p.lazyInit()
	return p.tree
}

// Len returns the number of stored values.
func (p *PercentileIndex[T]) Len() int {
	p.lazyInit()
	return p.tree.Len()
}

// Contains reports whether value is stored.
func (p *PercentileIndex[T]) Contains(value T) bool {
	p.lazyInit()
	return p.tree.Contains(value)
}

// Values returns all stored values in ascending order.
func (p *PercentileIndex[T]) Values() []T {
	p.lazyInit()
	return p.tree.Keys()
}

// Add stores value. It returns ErrDuplicateKey if value is already present.
func (p *PercentileIndex[T]) Add(value T) error {
	p.lazyInit()
	return p.tree.Insert(value, value)
}

// Remove deletes value. It returns ErrKeyNotFound if value is absent.
func (p *PercentileIndex[T]) Remove(value T) error {
	p.lazyInit()
	return p.tree.Delete(value)
}

// PercentileRange returns, in ascending order, the values whose rank lies in
// [1+ceil(lowPct/step), n-ceil(highPct/step)] where n is the number of stored
// values and step = 100/n. The low bound counts from the bottom of the rank
// order and the high bound trims from the top.
// An empty range yields an empty slice. Both percentages must be in [0, 100]
// with lowPct <= highPct.
func (p *PercentileIndex[T]) PercentileRange(lowPct, highPct float64) ([]T, error) {
	p.lazyInit()
	n := p.tree.Len()
	if n == 0 {
		return nil, errors.Annotatef(ErrEmptyIndex, "percentile range [%v, %v]", lowPct, highPct)
	}
	if !validPercent(lowPct) || !validPercent(highPct) || lowPct > highPct {
		return nil, errors.Annotatef(ErrInvalidPercentile, "percentile range [%v, %v]", lowPct, highPct)
	}
	startRank := 1 + percentSteps(lowPct, n)
	endRank := n - percentSteps(highPct, n)
	p.logger.Debug("percentile range",
		zap.Float64("low-pct", lowPct),
		zap.Float64("high-pct", highPct),
		zap.Int("num", n),
		zap.Int("start-rank", startRank),
		zap.Int("end-rank", endRank))
	if startRank > endRank {
		return []T{}, nil
	}
	ret := make([]T, 0, endRank-startRank+1)
	root := p.tree.Root()
	for rank := startRank; rank <= endRank; rank++ {
		node, err := p.tree.Select(rank, root)
		if err != nil {
			return nil, err
		}
		ret = append(ret, node.Key())
	}
	return ret, nil
}

// Percentile returns the nearest-rank pct-th percentile: the value at rank
// ceil(pct/step), or the minimum for pct == 0.
func (p *PercentileIndex[T]) Percentile(pct float64) (T, error) {
	p.lazyInit()
	var zero T
	n := p.tree.Len()
	if n == 0 {
		return zero, errors.Annotatef(ErrEmptyIndex, "percentile %v", pct)
	}
	if !validPercent(pct) {
		return zero, errors.Annotatef(ErrInvalidPercentile, "percentile %v", pct)
	}
	rank := percentSteps(pct, n)
	if rank < 1 {
		rank = 1
	}
	node, err := p.tree.Select(rank, p.tree.Root())
	if err != nil {
		return zero, err
	}
	return node.Key(), nil
}

// percentSteps returns ceil(pct/step) with step = 100/n.
// It is computed as ceil(pct*n/100), which is exact for integer percentages;
// dividing by a rounded step can land just above an integer (n=29, pct=100
// gives 30). Fractional percentages may still round across an integer
// (pct=16.1, n=1000 gives 162).
func percentSteps(pct float64, n int) int {
	return int(math.Ceil(pct * float64(n) / 100))
}

func validPercent(pct float64) bool {
	return pct >= 0 && pct <= 100
}
