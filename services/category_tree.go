package services

import (
	"sort"
	"strings"

	"citysnap-be/models"
)

// DefaultSeparator joins category names in FullName.
const DefaultSeparator = " > "

// Tree is an arena over a snapshot of the taxonomy. Nodes are addressed by id
// and parents are stored as ids, so a corrupt snapshot can hold a cycle; every
// walk is bounded by a visited set.
type Tree struct {
	nodes    map[int64]*models.Category
	children map[int64][]int64
	roots    []int64
}

// TreeNode is one category with its ordered sub-tree.
type TreeNode struct {
	Category models.Category `json:"category"`
	Level    int             `json:"level"`
	Children []*TreeNode     `json:"children"`
}

// NewTree indexes cats. Children are ordered by position, then name.
func NewTree(cats []models.Category) *Tree {
	t := &Tree{
		nodes:    make(map[int64]*models.Category, len(cats)),
		children: make(map[int64][]int64),
	}
	for i := range cats {
		c := cats[i]
		t.nodes[c.ID] = &c
	}
	for id, c := range t.nodes {
		if c.ParentID != nil {
			if _, ok := t.nodes[*c.ParentID]; ok {
				t.children[*c.ParentID] = append(t.children[*c.ParentID], id)
				continue
			}
		}
		t.roots = append(t.roots, id)
	}
	t.sortIDs(t.roots)
	for _, ids := range t.children {
		t.sortIDs(ids)
	}
	return t
}

func (t *Tree) sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func (t *Tree) collect(ids []int64) []models.Category {
	out := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, *t.nodes[id])
	}
	return out
}

// Len returns the number of categories in the snapshot.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the category with id.
func (t *Tree) Get(id int64) (*models.Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Ancestors returns the strict ancestors of id, root first.
func (t *Tree) Ancestors(id int64) []models.Category {
	c, ok := t.nodes[id]
	if !ok {
		return nil
	}
	seen := map[int64]bool{id: true}
	var chain []models.Category
	for c.ParentID != nil {
		p, ok := t.nodes[*c.ParentID]
		if !ok || seen[p.ID] {
			break
		}
		seen[p.ID] = true
		chain = append(chain, *p)
		c = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Level is 1 for a root, otherwise 1 + the number of ancestors.
func (t *Tree) Level(id int64) int {
	return 1 + len(t.Ancestors(id))
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id int64) bool {
	return len(t.children[id]) == 0
}

// FullName joins ancestor names and the category's own name, root first.
func (t *Tree) FullName(id int64, sep string) string {
	c, ok := t.nodes[id]
	if !ok {
		return ""
	}
	anc := t.Ancestors(id)
	names := make([]string, 0, len(anc)+1)
	for _, a := range anc {
		names = append(names, a.Name)
	}
	names = append(names, c.Name)
	return strings.Join(names, sep)
}

// Roots returns the top-level categories in display order.
func (t *Tree) Roots() []models.Category {
	return t.collect(t.roots)
}

// Children returns the direct children of id in display order.
func (t *Tree) Children(id int64) []models.Category {
	return t.collect(t.children[id])
}

// Siblings returns the categories sharing id's parent, id excluded.
func (t *Tree) Siblings(id int64) []models.Category {
	c, ok := t.nodes[id]
	if !ok {
		return nil
	}
	peers := t.roots
	if c.ParentID != nil {
		if _, ok := t.nodes[*c.ParentID]; ok {
			peers = t.children[*c.ParentID]
		}
	}
	out := make([]models.Category, 0, len(peers))
	for _, pid := range peers {
		if pid != id {
			out = append(out, *t.nodes[pid])
		}
	}
	return out
}

// Descendants returns every category below id, depth first.
func (t *Tree) Descendants(id int64) []models.Category {
	ids := t.SubtreeIDs(id)
	if len(ids) == 0 {
		return nil
	}
	return t.collect(ids[1:])
}

// SubtreeIDs returns id followed by its descendants in depth-first pre-order.
func (t *Tree) SubtreeIDs(id int64) []int64 {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}
	seen := make(map[int64]bool)
	var out []int64
	var walk func(int64)
	walk = func(n int64) {
		if seen[n] {
			return
		}
		seen[n] = true
		out = append(out, n)
		for _, child := range t.children[n] {
			walk(child)
		}
	}
	walk(id)
	return out
}

// ValidateNoCycle checks that making proposedParent the parent of id keeps the
// parent chain acyclic. A nil parent always passes.
func (t *Tree) ValidateNoCycle(id int64, proposedParent *int64) error {
	if proposedParent == nil {
		return nil
	}
	seen := make(map[int64]bool, len(t.nodes))
	cur := *proposedParent
	for {
		if cur == id || seen[cur] {
			return &StructuralError{Kind: CycleViolation, CategoryID: id}
		}
		seen[cur] = true
		c, ok := t.nodes[cur]
		if !ok || c.ParentID == nil {
			return nil
		}
		cur = *c.ParentID
	}
}

// Build returns the whole taxonomy as nested nodes in display order.
func (t *Tree) Build() []*TreeNode {
	seen := make(map[int64]bool)
	var build func(ids []int64, level int) []*TreeNode
	build = func(ids []int64, level int) []*TreeNode {
		nodes := make([]*TreeNode, 0, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			nodes = append(nodes, &TreeNode{
				Category: *t.nodes[id],
				Level:    level,
				Children: build(t.children[id], level+1),
			})
		}
		return nodes
	}
	return build(t.roots, 1)
}

// Leaves returns the categories an issue may be assigned to, in tree order:
// leaves at the assignable level, optionally restricted to active ones.
func (t *Tree) Leaves(activeOnly bool) []models.Category {
	var out []models.Category
	for _, root := range t.roots {
		for _, id := range t.SubtreeIDs(root) {
			c := t.nodes[id]
			if !t.IsLeaf(id) || t.Level(id) != models.AssignableLevel {
				continue
			}
			if activeOnly && !c.Active {
				continue
			}
			out = append(out, *c)
		}
	}
	return out
}
