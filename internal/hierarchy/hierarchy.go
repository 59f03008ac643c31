// Package hierarchy rebuilds the notebook folder tree from Leanote's flat
// notebook list, where each notebook only knows its parent's id.
package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/takak2166/leanote2md/internal/models"
)

// ErrCycle is returned when notebooks reference each other as parents
var ErrCycle = errors.New("notebook parent cycle")

// errBroken marks a notebook already known to sit on or below a cycle
var errBroken = errors.New("notebook below a parent cycle")

// Node is one notebook in the resolved tree
type Node struct {
	Title    string
	OwnerID  string
	Parent   *Node
	Children []*Node
}

// IsRoot reports whether n is the implicit root standing for the output directory
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// Segments returns the trimmed titles from the top-level notebook down to n
func (n *Node) Segments() []string {
	var segs []string
	for cur := n; cur != nil && !cur.IsRoot(); cur = cur.Parent {
		segs = append(segs, strings.TrimSpace(cur.Title))
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// Path returns the filesystem path of n relative to the output directory
func (n *Node) Path() string {
	return filepath.Join(n.Segments()...)
}

// Tree is the resolved notebook hierarchy
type Tree struct {
	Root  *Node
	nodes map[string]*Node
	order []string
}

// Node returns the node for a notebook id
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Len returns the number of notebooks in the tree
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Paths maps every notebook id to its relative path
func (t *Tree) Paths() map[string]string {
	paths := make(map[string]string, len(t.nodes))
	for id, n := range t.nodes {
		paths[id] = n.Path()
	}
	return paths
}

// Render writes the tree as an indented outline, children sorted by title
func (t *Tree) Render(w io.Writer) error {
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		children := append([]*Node(nil), n.Children...)
		sort.SliceStable(children, func(i, j int) bool {
			return strings.TrimSpace(children[i].Title) < strings.TrimSpace(children[j].Title)
		})
		for _, c := range children {
			if _, err := fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", depth), strings.TrimSpace(c.Title)); err != nil {
				return err
			}
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(t.Root, 0)
}

// ResolvePaths maps each live notebook id to its folder path. Like Resolve
// it returns the paths of every acyclic notebook even when err is set.
func ResolvePaths(notebooks []models.Notebook) (map[string]string, error) {
	tree, err := Resolve(notebooks)
	return tree.Paths(), err
}

// Resolve builds the notebook tree. Deleted notebooks are dropped, and a
// notebook whose parent is missing or deleted is attached at the top level.
//
// Notebooks on a parent cycle, and every notebook below one, are left out
// of the tree. The returned error then wraps ErrCycle once per cycle, but
// the tree is always usable.
func Resolve(notebooks []models.Notebook) (*Tree, error) {
	b := &builder{
		titles:     map[string]string{},
		parents:    map[string]string{},
		inProgress: map[string]bool{},
		broken:     map[string]bool{},
		tree: &Tree{
			Root:  &Node{Title: "."},
			nodes: map[string]*Node{},
		},
	}

	for _, nb := range notebooks {
		if nb.IsDeleted {
			continue
		}
		if _, dup := b.titles[nb.NotebookID]; !dup {
			b.tree.order = append(b.tree.order, nb.NotebookID)
		}
		b.titles[nb.NotebookID] = nb.Title
		b.parents[nb.NotebookID] = nb.ParentNotebookID
	}

	var errs []error
	for _, id := range b.tree.order {
		if _, err := b.materialize(id, nil); err != nil && !errors.Is(err, errBroken) {
			errs = append(errs, err)
		}
	}
	return b.tree, errors.Join(errs...)
}

type builder struct {
	titles     map[string]string
	parents    map[string]string
	inProgress map[string]bool
	broken     map[string]bool
	tree       *Tree
}

// materialize returns the node for id, creating its ancestors first
func (b *builder) materialize(id string, chain []string) (*Node, error) {
	if n, ok := b.tree.nodes[id]; ok {
		return n, nil
	}
	if b.broken[id] {
		return nil, errBroken
	}
	chain = append(chain, id)
	if b.inProgress[id] {
		start := 0
		for chain[start] != id {
			start++
		}
		for _, c := range chain {
			b.broken[c] = true
		}
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(chain[start:], " -> "))
	}
	b.inProgress[id] = true
	defer delete(b.inProgress, id)

	parent := b.tree.Root
	if pid := b.parents[id]; pid != "" {
		if _, live := b.titles[pid]; live {
			p, err := b.materialize(pid, chain)
			if err != nil {
				b.broken[id] = true
				return nil, err
			}
			parent = p
		}
	}

	n := &Node{Title: b.titles[id], OwnerID: id, Parent: parent}
	parent.Children = append(parent.Children, n)
	b.tree.nodes[id] = n
	return n, nil
}
