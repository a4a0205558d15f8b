package tree

import (
	"errors"

	"github.com/vantorre/ordset/lib/infra"
)

// go install golang.org/x/tools/cmd/stringer@latest

//go:generate stringer -type=RBColor
type RBColor uint8

const (
	Black RBColor = iota
	Red
)

//go:generate stringer -type=RBDirection
type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

var (
	ErrKeyExists   = errors.New("[rbtree] key already exists")
	ErrKeyNotFound = errors.New("[rbtree] key not found")
	ErrEmptyTree   = errors.New("[rbtree] empty tree")
)

// RBNode is a read-only view of a tree node. Nodes returned by
// Remove are detached snapshots of the removed payload; live nodes
// obtained from Search or the min/max/floor/ceiling walks must not
// be held across a later Remove, because a two-children removal
// rewrites an existing node's content in place.
type RBNode[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
	Color() RBColor
	Left() RBNode[K, V]
	Right() RBNode[K, V]
	Parent() RBNode[K, V]
}

// RBTree is a single-threaded self-balancing ordered key store.
// Callers must serialize mutations against each other and against
// reads; the tree performs no locking of its own. Every mutating
// call completes all structural repairs before returning, so a
// caller never observes a transiently invalid tree.
type RBTree[K infra.OrderedKey, V any] interface {
	Len() int64
	Root() RBNode[K, V]
	Height() int64
	Insert(key K, val V) error
	Remove(key K) (RBNode[K, V], error)
	RemoveMin() (RBNode[K, V], error)
	Search(key K) RBNode[K, V]
	Minimum() RBNode[K, V]
	Maximum() RBNode[K, V]
	Floor(key K) RBNode[K, V]
	Ceiling(key K) RBNode[K, V]
	Foreach(action func(idx int64, color RBColor, key K, val V) bool)
	Backward(action func(idx int64, color RBColor, key K, val V) bool)
	Range(from, to K, action func(key K, val V) bool)
	Release()
	String() string
}
