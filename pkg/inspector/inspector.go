// Package inspector answers element queries against live device snapshots.
package inspector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/adbridge/pkg/core"
	"github.com/devicelab-dev/adbridge/pkg/logger"
	"github.com/devicelab-dev/adbridge/pkg/uitree"
	"go.uber.org/zap"
)

// Messages returned by ClearCurrentInput.
const (
	MsgInputEmpty   = "Input is already empty"
	MsgInputCleared = "Input cleared successfully"
)

// extraDeletes is added to the text length when clearing an input.
const extraDeletes = 10

const editTextQuery = "//node[@class='android.widget.EditText']"

// Device is the part of a device the inspector needs.
type Device interface {
	Serial() string
	DumpHierarchy(ctx context.Context) (string, error)
	DeleteChars(ctx context.Context, n int) (string, error)
}

// Inspector remembers the last snapshot parsed for each device.
type Inspector struct {
	mu   sync.Mutex
	last map[string]*uitree.Tree
}

// New creates an Inspector with no remembered snapshots.
func New() *Inspector {
	return &Inspector{last: make(map[string]*uitree.Tree)}
}

// Dump captures a snapshot from dev and remembers its parsed form for
// ExistsInLastDump. The raw snapshot is returned even when it does not parse.
func (in *Inspector) Dump(ctx context.Context, dev Device) (string, error) {
	snapshot, err := dev.DumpHierarchy(ctx)
	if err != nil {
		return "", err
	}
	if _, err := in.remember(dev.Serial(), snapshot); err != nil {
		logger.L().Warn("snapshot not parseable", zap.String("device", dev.Serial()), zap.Error(err))
	}
	return snapshot, nil
}

// FindAtPoint dumps a fresh snapshot and describes the innermost element
// containing (x, y). A nil descriptor means nothing is there.
func (in *Inspector) FindAtPoint(ctx context.Context, dev Device, x, y int) (uitree.ElementDescriptor, error) {
	tree, err := in.capture(ctx, dev)
	if err != nil {
		return nil, err
	}
	id, ok := uitree.LocateByPoint(tree, x, y)
	if !ok {
		return nil, nil
	}
	return uitree.Describe(tree, id), nil
}

// FindByPath dumps a fresh snapshot and describes the element expr selects.
func (in *Inspector) FindByPath(ctx context.Context, dev Device, expr string) (uitree.ElementDescriptor, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, core.Missing("xpath")
	}
	tree, err := in.capture(ctx, dev)
	if err != nil {
		return nil, err
	}
	id, ok := uitree.LocateByPath(tree, expr)
	if !ok {
		return nil, nil
	}
	return uitree.Describe(tree, id), nil
}

// ExistsInLastDump reports whether the last snapshot of serial has an
// element whose attr equals value. attr defaults to "text".
func (in *Inspector) ExistsInLastDump(serial, value, attr string) (bool, error) {
	if attr == "" {
		attr = "text"
	}
	in.mu.Lock()
	tree := in.last[serial]
	in.mu.Unlock()
	if tree == nil {
		return false, core.ErrSnapshotRequired
	}

	found := false
	tree.Walk(func(_ uitree.NodeID, n *uitree.Node) bool {
		if v, ok := n.Attr(attr); ok && v == value {
			found = true
			return false
		}
		return true
	})
	return found, nil
}

// CurrentInputText returns the text of the focused EditText, or "" when
// the field is empty or only shows its hint or description.
func (in *Inspector) CurrentInputText(ctx context.Context, dev Device) (string, error) {
	tree, err := in.capture(ctx, dev)
	if err != nil {
		return "", err
	}
	return focusedInputText(tree), nil
}

func focusedInputText(tree *uitree.Tree) string {
	for _, id := range uitree.SelectAll(tree, editTextQuery) {
		n := tree.Node(id)
		if focused, _ := n.Attr("focused"); focused != "true" {
			continue
		}
		text, _ := n.Attr("text")
		hint, _ := n.Attr("hint")
		desc, _ := n.Attr("content-desc")
		if text != "" && text != hint && text != desc {
			return text
		}
		return ""
	}
	return ""
}

// ClearCurrentInput deletes the content of the focused field. When current
// is empty the field's text is read from a fresh snapshot first.
func (in *Inspector) ClearCurrentInput(ctx context.Context, dev Device, current string) (string, error) {
	if current == "" {
		text, err := in.CurrentInputText(ctx, dev)
		if err != nil {
			return "", fmt.Errorf("failed to clear input: %w", err)
		}
		current = text
	}
	if current == "" {
		return MsgInputEmpty, nil
	}
	if _, err := dev.DeleteChars(ctx, len([]rune(current))+extraDeletes); err != nil {
		return "", fmt.Errorf("failed to clear input: %w", err)
	}
	return MsgInputCleared, nil
}

// Forget drops the remembered snapshot for serial.
func (in *Inspector) Forget(serial string) {
	in.mu.Lock()
	delete(in.last, serial)
	in.mu.Unlock()
}

func (in *Inspector) capture(ctx context.Context, dev Device) (*uitree.Tree, error) {
	snapshot, err := dev.DumpHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return in.remember(dev.Serial(), snapshot)
}

func (in *Inspector) remember(serial, snapshot string) (*uitree.Tree, error) {
	tree, err := uitree.Parse(snapshot)
	in.mu.Lock()
	defer in.mu.Unlock()
	if err != nil {
		delete(in.last, serial)
		return nil, core.ErrUnexpectedOutput.WithMessage("could not parse window hierarchy").WithCause(err)
	}
	in.last[serial] = tree
	return tree, nil
}
