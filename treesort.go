package ostree

import (
	"golang.org/x/exp/constraints"
)

// Sort returns values in ascending order by inserting them into a Tree and
// walking it in order. It returns ErrDuplicateKey if a value repeats.
func Sort[T constraints.Ordered](values []T) ([]T, error) {
	t := New[T, struct{}]()
	for _, v := range values {
		if err := t.Insert(v, struct{}{}); err != nil {
			return nil, err
		}
	}
	return t.Keys(), nil
}
