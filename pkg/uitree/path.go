package uitree

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment is one step of a structural path: an element name and its
// 1-based occurrence among same-named siblings.
type Segment struct {
	Name  string
	Index int
}

// String renders the segment, omitting an index of 1.
func (s Segment) String() string {
	if s.Index > 1 {
		return s.Name + "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// Path is an absolute structural path from the document element down.
type Path []Segment

// String renders p as an absolute XPath location path, e.g. "/hierarchy/node/node[2]".
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Synthesize builds the path that leads from the root to id.
func Synthesize(t *Tree, id NodeID) Path {
	var p Path
	for cur := id; t.valid(cur); cur = t.nodes[cur].Parent {
		p = append(p, Segment{Name: foldName(t.nodes[cur].Name), Index: occurrence(t, cur)})
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// ParsePath parses an absolute structural path such as "/a/b[2]/c".
// Anything outside that grammar, including general XPath, is ErrMalformedPath.
func ParsePath(expr string) (Path, error) {
	if !strings.HasPrefix(expr, "/") || strings.HasPrefix(expr, "//") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedPath, expr)
	}
	parts := strings.Split(expr[1:], "/")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		seg, ok := parseSegment(part)
		if !ok {
			return nil, fmt.Errorf("%w: bad segment %q in %q", ErrMalformedPath, part, expr)
		}
		p = append(p, seg)
	}
	return p, nil
}

func parseSegment(s string) (Segment, bool) {
	name, index := s, 1
	if open := strings.IndexByte(s, '['); open >= 0 {
		if !strings.HasSuffix(s, "]") {
			return Segment{}, false
		}
		n, err := strconv.Atoi(s[open+1 : len(s)-1])
		if err != nil || n < 1 {
			return Segment{}, false
		}
		name, index = s[:open], n
	}
	if name == "" {
		return Segment{}, false
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return Segment{}, false
		}
	}
	return Segment{Name: name, Index: index}, true
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '-', c == '_':
		return true
	}
	return false
}

// Resolve walks p from the root of t and returns the element it names.
func (p Path) Resolve(t *Tree) (NodeID, bool) {
	root := t.Root()
	if len(p) == 0 || root == NoNode {
		return NoNode, false
	}
	if p[0].Index != 1 || foldName(t.nodes[root].Name) != p[0].Name {
		return NoNode, false
	}
	cur := root
	for _, seg := range p[1:] {
		next, ok := nthChild(t, cur, seg.Name, seg.Index)
		if !ok {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// foldName normalizes element names for both path synthesis and evaluation.
func foldName(name string) string {
	return strings.ToLower(name)
}

// occurrence returns 1 plus the number of preceding siblings of id that share its folded name.
func occurrence(t *Tree, id NodeID) int {
	parent := t.nodes[id].Parent
	if parent == NoNode {
		return 1
	}
	name := foldName(t.nodes[id].Name)
	count := 1
	for _, sib := range t.nodes[parent].Children {
		if sib == id {
			break
		}
		if foldName(t.nodes[sib].Name) == name {
			count++
		}
	}
	return count
}

// nthChild returns the n-th (1-based) child of parent whose folded name is name.
func nthChild(t *Tree, parent NodeID, name string, n int) (NodeID, bool) {
	seen := 0
	for _, child := range t.nodes[parent].Children {
		if foldName(t.nodes[child].Name) != name {
			continue
		}
		seen++
		if seen == n {
			return child, true
		}
	}
	return NoNode, false
}
