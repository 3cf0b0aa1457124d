package uitree

import (
	"github.com/antchfx/xpath"
)

// navigator exposes a Tree to github.com/antchfx/xpath. cur == NoNode is the
// document node above the root element; attr >= 0 selects an attribute of cur.
type navigator struct {
	tree *Tree
	cur  NodeID
	attr int
}

func newNavigator(t *Tree) *navigator {
	return &navigator{tree: t, cur: NoNode, attr: -1}
}

func (n *navigator) NodeType() xpath.NodeType {
	switch {
	case n.cur == NoNode:
		return xpath.RootNode
	case n.attr >= 0:
		return xpath.AttributeNode
	default:
		return xpath.ElementNode
	}
}

func (n *navigator) LocalName() string {
	if n.cur == NoNode {
		return ""
	}
	node := &n.tree.nodes[n.cur]
	if n.attr >= 0 {
		return node.Attrs[n.attr].Name
	}
	return foldName(node.Name)
}

func (n *navigator) Prefix() string { return "" }

// Value of an element is empty: UI snapshots carry no text content.
func (n *navigator) Value() string {
	if n.cur != NoNode && n.attr >= 0 {
		return n.tree.nodes[n.cur].Attrs[n.attr].Value
	}
	return ""
}

func (n *navigator) Copy() xpath.NodeNavigator {
	cp := *n
	return &cp
}

func (n *navigator) MoveToRoot() {
	n.cur = NoNode
	n.attr = -1
}

func (n *navigator) MoveToParent() bool {
	if n.attr >= 0 {
		n.attr = -1
		return true
	}
	if n.cur == NoNode {
		return false
	}
	n.cur = n.tree.nodes[n.cur].Parent
	return true
}

func (n *navigator) MoveToNextAttribute() bool {
	if n.cur == NoNode || n.attr >= len(n.tree.nodes[n.cur].Attrs)-1 {
		return false
	}
	n.attr++
	return true
}

func (n *navigator) MoveToChild() bool {
	if n.attr >= 0 {
		return false
	}
	if n.cur == NoNode {
		if n.tree.Len() == 0 {
			return false
		}
		n.cur = n.tree.Root()
		return true
	}
	children := n.tree.nodes[n.cur].Children
	if len(children) == 0 {
		return false
	}
	n.cur = children[0]
	return true
}

func (n *navigator) MoveToFirst() bool {
	if n.attr >= 0 || n.cur == NoNode {
		return false
	}
	parent := n.tree.nodes[n.cur].Parent
	if parent == NoNode {
		return false
	}
	first := n.tree.nodes[parent].Children[0]
	if first == n.cur {
		return false
	}
	n.cur = first
	return true
}

func (n *navigator) MoveToNext() bool {
	return n.moveSibling(1)
}

func (n *navigator) MoveToPrevious() bool {
	return n.moveSibling(-1)
}

func (n *navigator) moveSibling(step int) bool {
	if n.attr >= 0 || n.cur == NoNode {
		return false
	}
	parent := n.tree.nodes[n.cur].Parent
	if parent == NoNode {
		return false
	}
	siblings := n.tree.nodes[parent].Children
	for i, sib := range siblings {
		if sib != n.cur {
			continue
		}
		j := i + step
		if j < 0 || j >= len(siblings) {
			return false
		}
		n.cur = siblings[j]
		return true
	}
	return false
}

func (n *navigator) MoveTo(other xpath.NodeNavigator) bool {
	o, ok := other.(*navigator)
	if !ok || o.tree != n.tree {
		return false
	}
	n.cur = o.cur
	n.attr = o.attr
	return true
}

// Evaluate runs an XPath 1.0 expression against t and returns the first
// element it selects. Expressions that do not compile, panic inside the
// evaluator, or select something other than an element yield no match.
func Evaluate(t *Tree, expr string) (NodeID, bool) {
	ids := SelectAll(t, expr)
	if len(ids) == 0 {
		return NoNode, false
	}
	return ids[0], true
}

// SelectAll returns every element selected by expr, in the evaluator's order.
func SelectAll(t *Tree, expr string) (ids []NodeID) {
	if t.Len() == 0 {
		return nil
	}
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			ids = nil
		}
	}()

	iter, ok := compiled.Evaluate(newNavigator(t)).(*xpath.NodeIterator)
	if !ok {
		return nil
	}
	for iter.MoveNext() {
		nav, ok := iter.Current().(*navigator)
		if !ok || nav.cur == NoNode || nav.attr >= 0 {
			continue
		}
		ids = append(ids, nav.cur)
	}
	return ids
}
