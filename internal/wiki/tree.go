package wiki

import (
	"context"

	"github.com/loreline-ai/loreline/internal/domain"
)

// SelectionState summarizes selection across a node's loaded subtree.
type SelectionState string

const (
	SelectionNone    SelectionState = "none"
	SelectionPartial SelectionState = "partial"
	SelectionAll     SelectionState = "all"
)

// node is one arena entry. Children are discovered lazily: hasChildren
// is known from the listing, the children themselves only after an
// expand.
type node struct {
	id             string
	title          string
	hasChildren    bool
	children       []string
	childrenLoaded bool
	selected       bool
}

// NodeView is the read-only projection handed to callers.
type NodeView struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	HasChildren    bool     `json:"has_children"`
	ChildrenLoaded bool     `json:"children_loaded"`
	Expanded       bool     `json:"expanded"`
	Selected       bool     `json:"selected"`
	Children       []string `json:"children,omitempty"`
}

// PageTree is the lazy page-picker model over one wiki space. It is
// rebuilt whenever the target collection changes and is meant for use
// from a single goroutine (one picker session).
type PageTree struct {
	source   Source
	spaceKey string
	roots    []string
	nodes    map[string]*node
	expanded map[string]bool
}

// NewPageTree creates an empty tree over the given source.
func NewPageTree(source Source) *PageTree {
	return &PageTree{
		source:   source,
		nodes:    make(map[string]*node),
		expanded: make(map[string]bool),
	}
}

// SpaceKey returns the collection the tree was initialized for.
func (t *PageTree) SpaceKey() string { return t.spaceKey }

// InitCollection resets all state and materializes the root listing.
// Roots know whether they have children; the children themselves stay
// unloaded until expanded.
func (t *PageTree) InitCollection(ctx context.Context, spaceKey string) error {
	roots, err := t.source.RootPages(ctx, spaceKey)
	if err != nil {
		return err
	}

	t.spaceKey = spaceKey
	t.roots = t.roots[:0]
	t.nodes = make(map[string]*node, len(roots))
	t.expanded = make(map[string]bool)

	for _, summary := range roots {
		t.nodes[summary.ID] = &node{
			id:          summary.ID,
			title:       summary.Title,
			hasChildren: summary.HasChildren,
		}
		t.roots = append(t.roots, summary.ID)
	}
	return nil
}

// Expand marks a node expanded, fetching its children on first use.
// Expanding an already-expanded node is a no-op; re-expanding after a
// collapse reuses the loaded children without another fetch.
func (t *PageTree) Expand(ctx context.Context, id string) error {
	n, ok := t.nodes[id]
	if !ok {
		return domain.ErrPageNotFound
	}
	if t.expanded[id] {
		return nil
	}

	if !n.childrenLoaded {
		children, err := t.source.ChildPages(ctx, id)
		if err != nil {
			return err
		}
		for _, summary := range children {
			t.nodes[summary.ID] = &node{
				id:          summary.ID,
				title:       summary.Title,
				hasChildren: summary.HasChildren,
			}
			n.children = append(n.children, summary.ID)
		}
		n.childrenLoaded = true
	}

	t.expanded[id] = true
	return nil
}

// Collapse is view-state only; loaded children are kept.
func (t *PageTree) Collapse(id string) {
	delete(t.expanded, id)
}

// IsExpanded reports the view state of a node.
func (t *PageTree) IsExpanded(id string) bool {
	return t.expanded[id]
}

// SetSelected sets the leaf flag. With propagate, the same value is
// applied to every already-loaded descendant; not-yet-discovered
// descendants are unaffected.
func (t *PageTree) SetSelected(id string, value, propagate bool) error {
	n, ok := t.nodes[id]
	if !ok {
		return domain.ErrPageNotFound
	}

	n.selected = value
	if propagate {
		t.propagate(n, value)
	}
	return nil
}

func (t *PageTree) propagate(n *node, value bool) {
	for _, childID := range n.children {
		child := t.nodes[childID]
		child.selected = value
		t.propagate(child, value)
	}
}

// SelectionState reports none/partial/all over the node's loaded
// descendants; a node without loaded descendants reports its own
// flag. It is a pure read, independent of the expanded view state.
func (t *PageTree) SelectionState(id string) (SelectionState, error) {
	n, ok := t.nodes[id]
	if !ok {
		return SelectionNone, domain.ErrPageNotFound
	}

	selected, total := t.countDescendants(n)
	if total == 0 {
		if n.selected {
			return SelectionAll, nil
		}
		return SelectionNone, nil
	}
	switch selected {
	case 0:
		return SelectionNone, nil
	case total:
		return SelectionAll, nil
	default:
		return SelectionPartial, nil
	}
}

func (t *PageTree) countDescendants(n *node) (selected, total int) {
	for _, childID := range n.children {
		s, c := t.countDescendants(t.nodes[childID])
		selected += s
		total += c + 1
		if t.nodes[childID].selected {
			selected++
		}
	}
	return selected, total
}

// SelectedPageIDs returns every selected node id in stable depth-first
// order over the loaded tree.
func (t *PageTree) SelectedPageIDs() []string {
	var ids []string
	var walk func(id string)
	walk = func(id string) {
		n := t.nodes[id]
		if n.selected {
			ids = append(ids, id)
		}
		for _, childID := range n.children {
			walk(childID)
		}
	}
	for _, rootID := range t.roots {
		walk(rootID)
	}
	return ids
}

// Roots returns the root node ids in listing order.
func (t *PageTree) Roots() []string {
	out := make([]string, len(t.roots))
	copy(out, t.roots)
	return out
}

// Node returns the read view of one node.
func (t *PageTree) Node(id string) (*NodeView, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, domain.ErrPageNotFound
	}
	return t.view(n), nil
}

// Nodes returns read views of the whole loaded tree in depth-first
// order.
func (t *PageTree) Nodes() []*NodeView {
	var views []*NodeView
	var walk func(id string)
	walk = func(id string) {
		n := t.nodes[id]
		views = append(views, t.view(n))
		for _, childID := range n.children {
			walk(childID)
		}
	}
	for _, rootID := range t.roots {
		walk(rootID)
	}
	return views
}

func (t *PageTree) view(n *node) *NodeView {
	children := make([]string, len(n.children))
	copy(children, n.children)
	return &NodeView{
		ID:             n.id,
		Title:          n.title,
		HasChildren:    n.hasChildren,
		ChildrenLoaded: n.childrenLoaded,
		Expanded:       t.expanded[n.id],
		Selected:       n.selected,
		Children:       children,
	}
}
