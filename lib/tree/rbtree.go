package tree

import (
	"fmt"
	"strings"

	"github.com/vantorre/ordset/lib/infra"
)

type rbNode[K infra.OrderedKey, V any] struct {
	parent *rbNode[K, V]
	left   *rbNode[K, V]
	right  *rbNode[K, V]
	key    K
	val    V
	color  RBColor
}

func (node *rbNode[K, V]) Color() RBColor {
	return node.color
}

func (node *rbNode[K, V]) Key() K {
	return node.key
}

func (node *rbNode[K, V]) Val() V {
	return node.val
}

func (node *rbNode[K, V]) Left() RBNode[K, V] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K, V]) Right() RBNode[K, V] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K, V]) Parent() RBNode[K, V] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

// A nil node counts as a black leaf (p2).
func (node *rbNode[K, V]) isRed() bool {
	return node != nil && node.color == Red
}

func (node *rbNode[K, V]) isBlack() bool {
	return node == nil || node.color == Black
}

// The parent link is a non-owning back-reference. It exists for the
// upward fixup walks only; ownership always flows root -> children.
func (node *rbNode[K, V]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *rbNode[K, V]) Direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil leaf node without direction")
	}
	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

func (node *rbNode[K, V]) sibling() *rbNode[K, V] {
	switch node.Direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	return nil
}

func (node *rbNode[K, V]) uncle() *rbNode[K, V] {
	return node.parent.sibling()
}

func (node *rbNode[K, V]) grandpa() *rbNode[K, V] {
	return node.parent.parent
}

func (node *rbNode[K, V]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

func (node *rbNode[K, V]) minimum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.left != nil; aux = aux.left {
	}
	return aux
}

func (node *rbNode[K, V]) maximum() *rbNode[K, V] {
	aux := node
	for ; aux != nil && aux.right != nil; aux = aux.right {
	}
	return aux
}

type rbTree[K infra.OrderedKey, V any] struct {
	root  *rbNode[K, V]
	cmp   infra.OrderedKeyComparator[K]
	count int64
}

func (tree *rbTree[K, V]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K, V]) Root() RBNode[K, V] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// References:
// https://elixir.bootlin.com/linux/latest/source/lib/rbtree.c
// rbtree properties:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL nodes are considered black.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL nodes goes through the same number of black nodes. (black-violation)
// p5. The root is black.
// (Conclusion) If a node X has exactly one child, it must be a red child,
//   because if it were black, its NIL descendants would sit at a different
//   black depth than X's NIL child, violating p4.
// p1-p4 bound the height by 2*log2(n+1).

/*
		 |                         |
		 X                         S
		/ \     leftRotate(X)     / \
	   L   S    ============>    X   Sd
		  / \                   / \
		Sc   Sd                L   Sc
*/
func (tree *rbTree[K, V]) leftRotate(x *rbNode[K, V]) {
	if x == nil || x.right == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil")
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	y.parent = p
}

/*
			 |                         |
			 X                         S
			/ \     rightRotate(S)    / \
	       L   S    <============    X   R
			  / \                   / \
			Sc   Sd               Sc   Sd
*/
func (tree *rbTree[K, V]) rightRotate(x *rbNode[K, V]) {
	if x == nil || x.left == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil")
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	y.parent = p
}

// Insert attaches key as a new red node at the BST insertion point
// and repairs any red-violation afterwards. A key equal to an
// existing one under the comparator is rejected with ErrKeyExists
// and leaves the tree untouched.
func (tree *rbTree[K, V]) Insert(key K, val V) error {
	if tree.root == nil {
		// Empty tree, the new node becomes the black root.
		tree.root = &rbNode[K, V]{key: key, val: val}
		tree.count++
		return nil
	}

	var z *rbNode[K, V]
	for x := tree.root; z == nil; {
		res := tree.cmp(key, x.key)
		if /* equal */ res == 0 {
			return ErrKeyExists
		} else /* less */ if res < 0 {
			if x.left == nil {
				z = &rbNode[K, V]{key: key, val: val, color: Red, parent: x}
				x.left = z
			} else {
				x = x.left
			}
		} else /* greater */ {
			if x.right == nil {
				z = &rbNode[K, V]{key: key, val: val, color: Red, parent: x}
				x.right = z
			} else {
				x = x.right
			}
		}
	}

	tree.count++
	tree.fixRedRed(z)
	return nil
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

f1: X is the root. Repaint it into black (p5), done.

f2: The parent P is black. No violation, done.

f3: Both the parent P and the uncle U are red, grandpa G is black.
(red-violation)
After repainting, G itself may sit under a red parent.
Recursive to fix grandpa.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

f4: The parent P is red but the uncle U is black (or NIL).
One of four rotation shapes resolves the violation, then done:

LL: X and P are both left children. Right rotate G, swap the
colors of G and P.

	      [G]                 [P]
	      / \   r-rotate(G)   / \
	    <P> [U]  repaint    <X> <G>
	    /        ======>          \
	  <X>                         [U]

LR: P is a left child, X a right child. Left rotate P first to
reach the LL shape with X in P's place, right rotate G, swap the
colors of G and X.

	    [G]                [G]                 [X]
	    / \   l-rotate(P)  / \   r-rotate(G)   / \
	  <P> [U] ========>  <X> [U]  repaint    <P> <G>
	    \                /        ======>          \
	    <X>            <P>                         [U]

RR and RL mirror LL and LR.
*/
func (tree *rbTree[K, V]) fixRedRed(x *rbNode[K, V]) {
	if /* f1 */ x.isRoot() {
		x.color = Black
		return
	}

	p := x.parent
	if /* f2 */ p.isBlack() {
		return
	}

	// P is red, so it is not the root and G exists.
	gp, uncle := x.grandpa(), x.uncle()
	if /* f3 */ uncle.isRed() {
		p.color = Black
		uncle.color = Black
		gp.color = Red
		tree.fixRedRed(gp)
		return
	}

	switch /* f4 */ p.Direction() {
	case Left:
		if x.Direction() == Left {
			/* LL */
			p.color, gp.color = gp.color, p.color
			tree.rightRotate(gp)
		} else {
			/* LR */
			tree.leftRotate(p)
			x.color, gp.color = gp.color, x.color
			tree.rightRotate(gp)
		}
	case Right:
		if x.Direction() == Right {
			/* RR */
			p.color, gp.color = gp.color, p.color
			tree.leftRotate(gp)
		} else {
			/* RL */
			tree.rightRotate(p)
			x.color, gp.color = gp.color, x.color
			tree.leftRotate(gp)
		}
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] red parent without direction (f4)")
	}
}

// bstReplace picks the node that takes v's place in plain BST
// removal: the in-order successor for two children, the child for
// one child, nil for a leaf.
func (v *rbNode[K, V]) bstReplace() *rbNode[K, V] {
	if v.left != nil && v.right != nil {
		return v.right.minimum()
	}
	if v.left != nil {
		return v.left
	}
	return v.right
}

/*
r1: V has two children. V is not relocated; the successor U's
content is copied into V and the removal recurses on U, which has
at most one (right) child. Node identity is not preserved, only
node content. See the RBNode doc.

r2: V is the root and has no replacement. The tree becomes empty.

r3: V is a leaf. A black V with a nil (black) replacement leaves a
black deficit behind, repaired by fixDoubleBlack before V is
detached. A red leaf detaches freely.

r4: V has exactly one child U. U must be red (see conclusion), so
replacing V by U and repainting U black preserves p4; the uvBlack
guard keeps the general double-black repair for completeness.
*/
func (tree *rbTree[K, V]) removeNode(v *rbNode[K, V]) {
	u := v.bstReplace()

	if /* r1 */ v.left != nil && v.right != nil {
		v.key, v.val = u.key, u.val
		tree.removeNode(u)
		return
	}

	// uvBlack is the double-black predicate: removing a black node
	// whose replacement is black (or nil) breaks p4 locally.
	uvBlack := v.isBlack() && u.isBlack()
	p := v.parent

	if u == nil {
		if /* r2 */ v.isRoot() {
			tree.root = nil
		} else /* r3 */ {
			if uvBlack {
				tree.fixDoubleBlack(v)
			} else if s := v.sibling(); s != nil {
				// A red leaf's sibling is nil or red already; kept
				// for the symmetry of the case analysis.
				s.color = Red
			}
			if v.Direction() == Left {
				p.left = nil
			} else {
				p.right = nil
			}
		}
		v.parent = nil
		return
	}

	/* r4 */
	switch v.Direction() {
	case Root:
		tree.root = u
		u.parent = nil
	case Left:
		p.left = u
		u.parent = p
	case Right:
		p.right = u
		u.parent = p
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to unlink (r4)")
	}
	v.parent, v.left, v.right = nil, nil, nil

	if uvBlack {
		tree.fixDoubleBlack(u)
	} else {
		u.color = Black
	}
}

/*
X carries a black deficit (double-black). S is X's sibling, P the
parent. Sc is S's child on X's side, Sd the child on the far side.

<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

d1: X is the root. The deficit vanishes, done.

d2: No sibling. The deficit moves up to P.

d3: S is red, so P, Sc and Sd are black. Rotate P toward S's side
and swap the colors of P and S; X gains a black sibling and the
repair retries in one of d4-d6.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sd]  ======>  <P> [Sd]
	    / \               / \               / \
	 [Sc] [Sd]          [X] [Sc]          [X] [Sc]

d4: S is black with a red near child Sc (far child Sd black).
Rotate S away from X, repaint, then fall through to d5's shape.

	                        {P}                {P}
	  {P}                   / \                / \
	  / \    r-rotate(S)  [X] <Sc>   repaint  [X] [Sc]
	[X] [S]  ==========>        \    ======>       \
	    / \                     [S]                <S>
	  <Sc> [Sd]                   \                  \
	                              [Sd]               [Sd]

d5: S is black with a red far child Sd. Rotate P toward S, give S
P's old color, repaint P and Sd black. The deficit is absorbed,
done.

	  {P}                   [S]                {S}
	  / \    l-rotate(P)    / \     repaint    / \
	[X] [S]  ==========>  {P} <Sd>  ======>  [P] [Sd]
	    / \               / \                / \
	 [Sc] <Sd>          [X] [Sc]           [X] [Sc]

d6: S is black with two black children. Repaint S red: both of P's
subtrees now miss one black. A red P absorbs the deficit by turning
black; a black P becomes double-black itself and the repair
recurses upward.
*/
func (tree *rbTree[K, V]) fixDoubleBlack(x *rbNode[K, V]) {
	if /* d1 */ x.isRoot() {
		return
	}

	s, p := x.sibling(), x.parent
	if /* d2 */ s == nil {
		tree.fixDoubleBlack(p)
		return
	}

	if /* d3 */ s.isRed() {
		p.color = Red
		s.color = Black
		if s.Direction() == Left {
			tree.rightRotate(p)
		} else {
			tree.leftRotate(p)
		}
		tree.fixDoubleBlack(x)
		return
	}

	if s.left.isRed() || s.right.isRed() {
		if s.left.isRed() {
			if s.Direction() == Left {
				/* d5 mirrored: left-left red child */
				s.left.color = s.color
				s.color = p.color
				tree.rightRotate(p)
			} else {
				/* d4: right-left red child */
				s.left.color = p.color
				tree.rightRotate(s)
				tree.leftRotate(p)
			}
		} else {
			if s.Direction() == Left {
				/* d4 mirrored: left-right red child */
				s.right.color = p.color
				tree.leftRotate(s)
				tree.rightRotate(p)
			} else {
				/* d5: right-right red child */
				s.right.color = s.color
				s.color = p.color
				tree.leftRotate(p)
			}
		}
		p.color = Black
		return
	}

	/* d6 */
	s.color = Red
	if p.isBlack() {
		tree.fixDoubleBlack(p)
	} else {
		p.color = Black
	}
}

// Remove detaches the node holding key and returns a snapshot of
// its payload. The returned node has no links into the tree.
func (tree *rbTree[K, V]) Remove(key K) (RBNode[K, V], error) {
	if tree.root == nil {
		return nil, ErrEmptyTree
	}
	v := tree.lookup(key)
	if v == nil {
		return nil, ErrKeyNotFound
	}

	snapshot := &rbNode[K, V]{key: v.key, val: v.val, color: v.color}
	tree.removeNode(v)
	tree.count--
	return snapshot, nil
}

// RemoveMin detaches the node holding the smallest key under the
// comparator.
func (tree *rbTree[K, V]) RemoveMin() (RBNode[K, V], error) {
	if tree.root == nil {
		return nil, ErrEmptyTree
	}
	v := tree.root.minimum()

	snapshot := &rbNode[K, V]{key: v.key, val: v.val, color: v.color}
	tree.removeNode(v)
	tree.count--
	return snapshot, nil
}

func (tree *rbTree[K, V]) lookup(key K) *rbNode[K, V] {
	for aux := tree.root; aux != nil; {
		res := tree.cmp(key, aux.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

func (tree *rbTree[K, V]) Search(key K) RBNode[K, V] {
	if n := tree.lookup(key); n != nil {
		return n
	}
	return nil
}

func (tree *rbTree[K, V]) Minimum() RBNode[K, V] {
	if n := tree.root.minimum(); n != nil {
		return n
	}
	return nil
}

func (tree *rbTree[K, V]) Maximum() RBNode[K, V] {
	if n := tree.root.maximum(); n != nil {
		return n
	}
	return nil
}

// Floor returns the node with the greatest key less than or equal
// to key under the comparator, nil when every key is greater.
func (tree *rbTree[K, V]) Floor(key K) RBNode[K, V] {
	if n := tree.floorNode(tree.root, key); n != nil {
		return n
	}
	return nil
}

func (tree *rbTree[K, V]) floorNode(x *rbNode[K, V], key K) *rbNode[K, V] {
	if x == nil {
		return nil
	}
	res := tree.cmp(key, x.key)
	if res == 0 {
		return x
	}
	if res < 0 {
		return tree.floorNode(x.left, key)
	}
	// x qualifies; a right-subtree match is closer to key.
	if n := tree.floorNode(x.right, key); n != nil {
		return n
	}
	return x
}

// Ceiling returns the node with the smallest key greater than or
// equal to key under the comparator, nil when every key is smaller.
func (tree *rbTree[K, V]) Ceiling(key K) RBNode[K, V] {
	if n := tree.ceilingNode(tree.root, key); n != nil {
		return n
	}
	return nil
}

func (tree *rbTree[K, V]) ceilingNode(x *rbNode[K, V], key K) *rbNode[K, V] {
	if x == nil {
		return nil
	}
	res := tree.cmp(key, x.key)
	if res == 0 {
		return x
	}
	if res > 0 {
		return tree.ceilingNode(x.right, key)
	}
	if n := tree.ceilingNode(x.left, key); n != nil {
		return n
	}
	return x
}

// Height counts tree levels by a BFS with an explicit FIFO queue;
// a nil sentinel marks each level boundary. Empty tree is height 0,
// a lone root is height 1.
func (tree *rbTree[K, V]) Height() int64 {
	if tree.root == nil {
		return 0
	}

	queue := make([]*rbNode[K, V], 0, tree.count>>1+2)
	queue = append(queue, tree.root, nil /* level sentinel */)

	var height int64
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		if aux == nil {
			height++
			if len(queue) > 0 {
				queue = append(queue, nil)
			}
			continue
		}
		if aux.left != nil {
			queue = append(queue, aux.left)
		}
		if aux.right != nil {
			queue = append(queue, aux.right)
		}
	}
	return height
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K, V]) Foreach(action func(idx int64, color RBColor, key K, val V) bool) {
	size := tree.count
	aux := tree.root
	if size < 0 || aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.key, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		if aux.right != nil {
			for aux = aux.right; aux != nil; aux = aux.left {
				stack = append(stack, aux)
			}
		}
	}
}

// Reverse inorder traversal, largest key first.
func (tree *rbTree[K, V]) Backward(action func(idx int64, color RBColor, key K, val V) bool) {
	size := tree.count
	aux := tree.root
	if size < 0 || aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.right {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.key, aux.val) {
			return
		}
		idx++
		stack = stack[:size-1]
		if aux.left != nil {
			for aux = aux.left; aux != nil; aux = aux.right {
				stack = append(stack, aux)
			}
		}
	}
}

// Range visits the keys in [from, to] in ascending comparator
// order. Subtrees that provably fall outside the bounds are pruned,
// so the walk costs O(k + height) for k matches.
func (tree *rbTree[K, V]) Range(from, to K, action func(key K, val V) bool) {
	tree.rangeWalk(tree.root, from, to, action)
}

func (tree *rbTree[K, V]) rangeWalk(x *rbNode[K, V], from, to K, action func(key K, val V) bool) bool {
	if x == nil {
		return true
	}
	cmpFrom, cmpTo := tree.cmp(x.key, from), tree.cmp(x.key, to)
	if /* left subtree can still hold >= from */ cmpFrom > 0 {
		if !tree.rangeWalk(x.left, from, to, action) {
			return false
		}
	}
	if cmpFrom >= 0 && cmpTo <= 0 {
		if !action(x.key, x.val) {
			return false
		}
	}
	if /* right subtree can still hold <= to */ cmpTo < 0 {
		return tree.rangeWalk(x.right, from, to, action)
	}
	return true
}

// Release unlinks every node so the whole structure is reclaimable
// even while external references to single nodes remain.
func (tree *rbTree[K, V]) Release() {
	size := tree.count
	aux := tree.root
	tree.root = nil
	if size < 0 || aux == nil {
		return
	}

	stack := make([]*rbNode[K, V], 0, size>>1)
	defer func() {
		clear(stack)
	}()

	for ; aux != nil; aux = aux.left {
		stack = append(stack, aux)
	}

	for size = int64(len(stack)); size > 0; size = int64(len(stack)) {
		aux = stack[size-1]
		r := aux.right
		aux.right, aux.parent = nil, nil
		tree.count--
		stack = stack[:size-1]
		if r != nil {
			for aux = r; aux != nil; aux = aux.left {
				stack = append(stack, aux)
			}
		}
	}
}

// String renders the inorder key/color sequence for diagnostics.
func (tree *rbTree[K, V]) String() string {
	builder := strings.Builder{}
	builder.WriteString("rbtree{")
	tree.Foreach(func(idx int64, color RBColor, key K, val V) bool {
		if idx > 0 {
			builder.WriteString(" ")
		}
		if color == Red {
			_, _ = fmt.Fprintf(&builder, "%v(R)", key)
		} else {
			_, _ = fmt.Fprintf(&builder, "%v(B)", key)
		}
		return true
	})
	builder.WriteString("}")
	return builder.String()
}

type RBTreeOpt[K infra.OrderedKey, V any] func(*rbTree[K, V])

// WithRBTreeDesc flips the natural key order.
func WithRBTreeDesc[K infra.OrderedKey, V any]() RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.cmp = infra.ReverseOrderedKeyCompare[K]
	}
}

// WithRBTreeKeyComparator replaces the natural order with a caller
// supplied total order.
func WithRBTreeKeyComparator[K infra.OrderedKey, V any](cmp infra.OrderedKeyComparator[K]) RBTreeOpt[K, V] {
	return func(tree *rbTree[K, V]) {
		tree.cmp = cmp
	}
}

func NewRBTree[K infra.OrderedKey, V any](opts ...RBTreeOpt[K, V]) RBTree[K, V] {
	tree := &rbTree[K, V]{
		cmp:   infra.OrderedKeyCompare[K],
		count: 0,
	}

	for _, o := range opts {
		o(tree)
	}
	return tree
}
