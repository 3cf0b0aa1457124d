// Package uitree locates elements in a UI hierarchy snapshot.
//
// A snapshot is parsed into a Tree whose nodes live in one slice in document
// (pre-order) order. Children are owned by their parent; the parent link is a
// NodeID into the same slice. Elements are found either by screen coordinate
// (LocateByPoint) or by path expression (LocateByPath), and every located
// element can be described with a synthesized path that finds it again.
package uitree

// NodeID identifies a node within one Tree.
type NodeID int

// NoNode is the parent of the root and the result of an unsuccessful lookup.
const NoNode NodeID = -1

// Attr is a single attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Node is one element of the hierarchy.
type Node struct {
	Name     string
	Attrs    []Attr
	Parent   NodeID
	Children []NodeID
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Tree is a parsed snapshot. It is not modified after construction, so a
// Tree may be shared by concurrent readers.
type Tree struct {
	nodes []Node
}

// NewTree creates a tree holding only a root element.
func NewTree(name string, attrs ...Attr) *Tree {
	t := &Tree{}
	t.add(NoNode, name, attrs)
	return t
}

// AddChild appends a child element under parent, after its existing
// children, and returns its id.
func (t *Tree) AddChild(parent NodeID, name string, attrs ...Attr) NodeID {
	if !t.valid(parent) {
		return NoNode
	}
	return t.add(parent, name, attrs)
}

func (t *Tree) add(parent NodeID, name string, attrs []Attr) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Name: name, Attrs: attrs, Parent: parent})
	if parent != NoNode {
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	}
	return id
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Root returns the document element, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	if t.Len() == 0 {
		return NoNode
	}
	return 0
}

// Node returns the node for id, or nil when id is not part of the tree.
func (t *Tree) Node(id NodeID) *Node {
	if !t.valid(id) {
		return nil
	}
	return &t.nodes[id]
}

// Parent returns the parent of id.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	n := t.Node(id)
	if n == nil || n.Parent == NoNode {
		return NoNode, false
	}
	return n.Parent, true
}

// Attr returns the named attribute of id.
func (t *Tree) Attr(id NodeID, name string) (string, bool) {
	n := t.Node(id)
	if n == nil {
		return "", false
	}
	return n.Attr(name)
}

// Bounds returns the rectangle of id. ok is false when the element has no
// bounds attribute or the attribute cannot be parsed.
func (t *Tree) Bounds(id NodeID) (Rect, bool) {
	v, ok := t.Attr(id, BoundsAttr)
	if !ok {
		return Rect{}, false
	}
	r, err := ParseBounds(v)
	if err != nil {
		return Rect{}, false
	}
	return r, true
}

// Walk calls fn for every element in document order (pre-order, children
// in the order they were added) until fn returns false.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	if t.Len() == 0 {
		return
	}
	stack := []NodeID{t.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !fn(id, n) {
			return
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < t.Len()
}
