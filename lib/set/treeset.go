// Package set provides an ordered set built on the red-black tree
// engine: uniqueness under a total order plus min/max, floor and
// ceiling bound queries, ordered export and inclusive range query
// and range delete.
package set

import (
	"github.com/vantorre/ordset/lib/infra"
	"github.com/vantorre/ordset/lib/tree"
)

// OrderedSet holds each element at most once under its comparator.
// Like the underlying tree it is single-threaded: callers must
// serialize all access externally.
type OrderedSet[E infra.OrderedKey] interface {
	Len() int64
	Contains(e E) bool
	Add(e E) bool
	Remove(e E) bool
	Min() (E, bool)
	Max() (E, bool)
	Floor(e E) (E, bool)
	Ceiling(e E) (E, bool)
	ToSliceAsc() []E
	ToSliceDesc() []E
	RangeQuery(from, to E) []E
	RangeDelete(from, to E) int64
	Foreach(action func(idx int64, e E) bool)
	Clear()
}

type treeSet[E infra.OrderedKey] struct {
	engine tree.RBTree[E, struct{}]
	size   int64
}

type TreeSetOpt[E infra.OrderedKey] func(*treeSetConfig[E])

type treeSetConfig[E infra.OrderedKey] struct {
	engineOpts []tree.RBTreeOpt[E, struct{}]
}

// WithTreeSetDesc orders the set by the reversed natural order.
func WithTreeSetDesc[E infra.OrderedKey]() TreeSetOpt[E] {
	return func(cfg *treeSetConfig[E]) {
		cfg.engineOpts = append(cfg.engineOpts, tree.WithRBTreeDesc[E, struct{}]())
	}
}

// WithTreeSetComparator orders the set by a caller supplied total
// order instead of the natural one.
func WithTreeSetComparator[E infra.OrderedKey](cmp infra.OrderedKeyComparator[E]) TreeSetOpt[E] {
	return func(cfg *treeSetConfig[E]) {
		cfg.engineOpts = append(cfg.engineOpts, tree.WithRBTreeKeyComparator[E, struct{}](cmp))
	}
}

func NewTreeSet[E infra.OrderedKey](opts ...TreeSetOpt[E]) OrderedSet[E] {
	cfg := &treeSetConfig[E]{}
	for _, o := range opts {
		o(cfg)
	}
	return &treeSet[E]{
		engine: tree.NewRBTree[E, struct{}](cfg.engineOpts...),
	}
}

func (s *treeSet[E]) Len() int64 {
	return s.size
}

func (s *treeSet[E]) Contains(e E) bool {
	return s.engine.Search(e) != nil
}

// Add reports false without touching the set when an equal element
// is already present.
func (s *treeSet[E]) Add(e E) bool {
	if err := s.engine.Insert(e, struct{}{}); err != nil {
		return false
	}
	s.size++
	return true
}

func (s *treeSet[E]) Remove(e E) bool {
	if _, err := s.engine.Remove(e); err != nil {
		return false
	}
	s.size--
	return true
}

func (s *treeSet[E]) Min() (E, bool) {
	if n := s.engine.Minimum(); n != nil {
		return n.Key(), true
	}
	var zero E
	return zero, false
}

func (s *treeSet[E]) Max() (E, bool) {
	if n := s.engine.Maximum(); n != nil {
		return n.Key(), true
	}
	var zero E
	return zero, false
}

// Floor returns the greatest element <= e under the comparator.
func (s *treeSet[E]) Floor(e E) (E, bool) {
	if n := s.engine.Floor(e); n != nil {
		return n.Key(), true
	}
	var zero E
	return zero, false
}

// Ceiling returns the smallest element >= e under the comparator.
func (s *treeSet[E]) Ceiling(e E) (E, bool) {
	if n := s.engine.Ceiling(e); n != nil {
		return n.Key(), true
	}
	var zero E
	return zero, false
}

// ToSliceAsc materializes a point-in-time ascending snapshot. The
// result is a copy, not a live view of the set.
func (s *treeSet[E]) ToSliceAsc() []E {
	out := make([]E, 0, s.size)
	s.engine.Foreach(func(idx int64, color tree.RBColor, key E, val struct{}) bool {
		out = append(out, key)
		return true
	})
	return out
}

func (s *treeSet[E]) ToSliceDesc() []E {
	out := make([]E, 0, s.size)
	s.engine.Backward(func(idx int64, color tree.RBColor, key E, val struct{}) bool {
		out = append(out, key)
		return true
	})
	return out
}

// RangeQuery returns the ascending elements of [from, to], both
// bounds inclusive.
func (s *treeSet[E]) RangeQuery(from, to E) []E {
	var out []E
	s.engine.Range(from, to, func(key E, val struct{}) bool {
		out = append(out, key)
		return true
	})
	return out
}

// RangeDelete removes every element of [from, to] and returns the
// count removed. The matches are snapshotted before the first
// removal: a two-children delete rewrites node content in place,
// so walking the live tree while removing would risk visiting a
// rewritten node.
func (s *treeSet[E]) RangeDelete(from, to E) int64 {
	matched := s.RangeQuery(from, to)
	var removed int64
	for _, e := range matched {
		if s.Remove(e) {
			removed++
		}
	}
	return removed
}

func (s *treeSet[E]) Foreach(action func(idx int64, e E) bool) {
	s.engine.Foreach(func(idx int64, color tree.RBColor, key E, val struct{}) bool {
		return action(idx, key)
	})
}

func (s *treeSet[E]) Clear() {
	s.engine.Release()
	s.size = 0
}
