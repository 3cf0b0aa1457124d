package uitree

// PathKey is the descriptor key that holds the synthesized path.
const PathKey = "xpath"

// ElementDescriptor is the flat result of a lookup: every attribute of the
// element plus its synthesized path under PathKey.
type ElementDescriptor map[string]string

// Path returns the synthesized path stored in the descriptor.
func (d ElementDescriptor) Path() string {
	return d[PathKey]
}

// Describe builds the descriptor for id, or nil when id is not in t.
func Describe(t *Tree, id NodeID) ElementDescriptor {
	n := t.Node(id)
	if n == nil {
		return nil
	}
	d := make(ElementDescriptor, len(n.Attrs)+1)
	for _, a := range n.Attrs {
		d[a.Name] = a.Value
	}
	d[PathKey] = Synthesize(t, id).String()
	return d
}

// LocateByPath resolves expr against t. Absolute structural paths such as
// the ones Synthesize produces are resolved directly; any other expression
// goes through the XPath evaluator. Unresolvable or invalid expressions
// return false.
func LocateByPath(t *Tree, expr string) (NodeID, bool) {
	if p, err := ParsePath(expr); err == nil {
		return p.Resolve(t)
	}
	return Evaluate(t, expr)
}

// FindAtPoint parses snapshot and describes the innermost element at (x, y).
// A nil descriptor with a nil error means nothing is at that point.
func FindAtPoint(snapshot string, x, y int) (ElementDescriptor, error) {
	t, err := Parse(snapshot)
	if err != nil {
		return nil, err
	}
	id, ok := LocateByPoint(t, x, y)
	if !ok {
		return nil, nil
	}
	return Describe(t, id), nil
}

// FindByPath parses snapshot and describes the element expr resolves to.
func FindByPath(snapshot, expr string) (ElementDescriptor, error) {
	t, err := Parse(snapshot)
	if err != nil {
		return nil, err
	}
	id, ok := LocateByPath(t, expr)
	if !ok {
		return nil, nil
	}
	return Describe(t, id), nil
}
