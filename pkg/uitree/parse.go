package uitree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse builds a Tree from hierarchy markup.
// Both UIAutomator layouts are accepted: <node class="..."> elements and
// class names used as tags. The document element becomes the root; anything
// after it is ignored.
func Parse(snapshot string) (*Tree, error) {
	decoder := xml.NewDecoder(strings.NewReader(snapshot))
	decoder.Strict = false

	t := &Tree{}
	parent := NoNode
	for {
		token, err := decoder.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if t.Len() == 0 {
				return nil, fmt.Errorf("parse snapshot: %w", err)
			}
			if parent != NoNode {
				return nil, fmt.Errorf("parse snapshot: unterminated element %q: %w", t.nodes[parent].Name, err)
			}
			break
		}

		switch tok := token.(type) {
		case xml.StartElement:
			attrs := make([]Attr, 0, len(tok.Attr))
			for _, a := range tok.Attr {
				attrs = append(attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			parent = t.add(parent, tok.Name.Local, attrs)

		case xml.EndElement:
			if parent == NoNode {
				continue
			}
			parent = t.nodes[parent].Parent
			if parent == NoNode {
				// Root closed; later top-level elements are ignored.
				return t, nil
			}
		}
	}

	if t.Len() == 0 {
		return nil, ErrNoHierarchy
	}
	if parent != NoNode {
		return nil, fmt.Errorf("parse snapshot: unterminated element %q", t.nodes[parent].Name)
	}
	return t, nil
}
