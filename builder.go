package ostree

import (
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

// Builder builds a PercentileIndex from a sequence of values.
// A user calls PushBack()s followed by Build().
type Builder[T constraints.Ordered] struct {
	vals []T
}

// NewBuilder returns an empty Builder.
func NewBuilder[T constraints.Ordered]() *Builder[T] {
	return &Builder[T]{vals: make([]T, 0)}
}

// PushBack appends val.
func (b *Builder[T]) PushBack(val T) {
	b.vals = append(b.vals, val)
}

// Build inserts the pushed values in push order.
// The tree shape follows that order, so shuffled input gives O(log n)
// expected depth while sorted input degenerates into a list.
// It returns ErrDuplicateKey on the first repeated value.
func (b *Builder[T]) Build(opts ...Option) (*PercentileIndex[T], error) {
	p := NewPercentileIndex[T](opts...)
	for _, val := range b.vals {
		if err := p.Add(val); err != nil {
			return nil, err
		}
	}
	p.logger.Debug("percentile index built", zap.Int("num", p.Len()))
	return p, nil
}
