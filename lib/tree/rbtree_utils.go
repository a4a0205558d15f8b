package tree

import (
	"errors"
	"math"

	"go.uber.org/multierr"

	"github.com/vantorre/ordset/lib/infra"
)

func isBlackNode[K infra.OrderedKey, V any](node RBNode[K, V]) bool {
	return isNilLeaf[K, V](node) || node.Color() == Black
}

func isRedNode[K infra.OrderedKey, V any](node RBNode[K, V]) bool {
	return !isNilLeaf[K, V](node) && node.Color() == Red
}

func isNilLeaf[K infra.OrderedKey, V any](node RBNode[K, V]) bool {
	return node == nil
}

func isRootNode[K infra.OrderedKey, V any](node RBNode[K, V]) bool {
	return node != nil && node.Parent() == nil
}

func blackDepthTo[K infra.OrderedKey, V any](target, to RBNode[K, V]) int {
	depth := 0
	for aux := target; aux != to; aux = aux.Parent() {
		if isBlackNode[K, V](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// RootViolationValidate checks p5, the black root.
func RootViolationValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	if root := tree.Root(); root != nil && root.Color() != Black {
		return errors.New("rbtree root violation")
	}
	return nil
}

// Inorder traversal to validate the rbtree properties.
func RedViolationValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	size := tree.Len()
	var aux RBNode[K, V] = tree.Root()
	if size < 0 || aux == nil {
		return nil
	}

	stack := make([]RBNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; !isNilLeaf[K, V](aux); aux = aux.Left() {
		stack = append(stack, aux)
	}

	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; isRedNode[K, V](aux) {
			if (!isRootNode[K, V](aux.Parent()) && isRedNode[K, V](aux.Parent())) ||
				(isRedNode[K, V](aux.Left()) || isRedNode[K, V](aux.Right())) {
				return errors.New("rbtree red violation")
			}
		}

		stack = stack[:size-1]
		if aux.Right() != nil {
			for aux = aux.Right(); aux != nil; aux = aux.Left() {
				stack = append(stack, aux)
			}
		}
	}
	return nil
}

// BFS traversal to load all leaves.
func bfsLeaves[K infra.OrderedKey, V any](tree RBTree[K, V]) []RBNode[K, V] {
	size := tree.Len()
	var aux RBNode[K, V] = tree.Root()
	if size < 0 || isNilLeaf[K, V](aux) {
		return nil
	}

	leaves := make([]RBNode[K, V], 0, size>>1+1)
	stack := make([]RBNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()
	stack = append(stack, aux)

	for len(stack) > 0 {
		aux = stack[0]
		l, r := aux.Left(), aux.Right()
		if /* nil leaves, keep one */ isNilLeaf[K, V](l) || isNilLeaf[K, V](r) {
			leaves = append(leaves, aux)
		}
		if !isNilLeaf[K, V](l) {
			stack = append(stack, l)
		}
		if !isNilLeaf[K, V](r) {
			stack = append(stack, r)
		}
		stack = stack[1:]
	}
	return leaves
}

// BlackViolationValidate checks p4: every node owning at least one
// nil child sits at the same black depth from the root.
func BlackViolationValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	leaves := bfsLeaves[K, V](tree)
	if leaves == nil {
		return nil
	}

	blackDepth := blackDepthTo[K, V](leaves[0], tree.Root())
	for i := 1; i < len(leaves); i++ {
		if blackDepthTo[K, V](leaves[i], tree.Root()) != blackDepth {
			return errors.New("rbtree black violation")
		}
	}
	return nil
}

// HeightBoundValidate checks the p1-p4 consequence
// height <= 2*log2(n+1).
func HeightBoundValidate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	n := tree.Len()
	if n <= 0 {
		return nil
	}
	bound := int64(math.Floor(2 * math.Log2(float64(n+1))))
	if h := tree.Height(); h > bound {
		return errors.New("rbtree height bound violation")
	}
	return nil
}

// Validate aggregates every structural check.
func Validate[K infra.OrderedKey, V any](tree RBTree[K, V]) error {
	return multierr.Combine(
		RootViolationValidate[K, V](tree),
		RedViolationValidate[K, V](tree),
		BlackViolationValidate[K, V](tree),
		HeightBoundValidate[K, V](tree),
	)
}
