package uitree

// LocateByPoint returns the innermost element whose bounds contain (x, y).
//
// The search is depth-first in document order. An element whose bounds
// contain the point is the match unless one of its children yields a match;
// the first child that does wins. An element without usable bounds, or whose
// bounds miss the point, never matches itself, but its children are still
// searched in order and the first match among them is returned.
func LocateByPoint(t *Tree, x, y int) (NodeID, bool) {
	root := t.Root()
	if root == NoNode {
		return NoNode, false
	}
	id := locate(t, root, x, y)
	return id, id != NoNode
}

func locate(t *Tree, id NodeID, x, y int) NodeID {
	if r, ok := t.Bounds(id); ok && r.Contains(x, y) {
		if m := firstChildMatch(t, id, x, y); m != NoNode {
			return m
		}
		return id
	}
	return firstChildMatch(t, id, x, y)
}

func firstChildMatch(t *Tree, id NodeID, x, y int) NodeID {
	for _, child := range t.nodes[id].Children {
		if m := locate(t, child, x, y); m != NoNode {
			return m
		}
	}
	return NoNode
}
