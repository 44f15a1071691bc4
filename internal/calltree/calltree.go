// Package calltree is the Tree Materializer (C11): it turns the
// function map's flat adjacency (each FunctionRecord's Children) into a
// concrete, cycle-safe, depth-bounded *model.TreeNode tree rooted at a
// chosen function name, suitable for direct JSON serialization and
// visualization.
package calltree

import "github.com/SoftengPoliTo/manifest-producer/internal/model"

// DefaultDepth is the maximum depth used by the driver's top-level,
// per-discovered-root materialization.
const DefaultDepth = 15

// SubtreeDepth is the maximum depth used when re-materializing a
// standalone subtree rooted at an arbitrary function name (matching the
// original analyzer's second call site, e.g. a visualization tool
// re-rooting the view).
const SubtreeDepth = 10

// Build materializes the call tree rooted at root, bounded to maxDepth
// levels. A function absent from functions (including root itself)
// still produces a childless leaf node rather than an error - an
// unresolved reference is a normal, quiet end of a branch, not a
// failure of the whole materialization.
func Build(root string, functions map[string]*model.FunctionRecord, maxDepth int) *model.TreeNode {
	b := &builder{
		functions: functions,
		maxDepth:  maxDepth,
		memo:      make(map[string]*model.TreeNode),
	}
	return b.visit(root, 0)
}

type builder struct {
	functions   map[string]*model.FunctionRecord
	maxDepth    int
	nextID      int
	activeStack []string
	memo        map[string]*model.TreeNode
}

func (b *builder) visit(name string, depth int) *model.TreeNode {
	if depth >= b.maxDepth || b.onActiveStack(name) {
		return b.leaf(name)
	}
	if cached, ok := b.memo[name]; ok {
		return cached.Clone()
	}

	node := model.NewTreeNode(b.id(), name)

	f, ok := b.functions[name]
	if !ok {
		b.memo[name] = node
		return node
	}

	b.activeStack = append(b.activeStack, name)
	for _, child := range f.Children {
		node.AddChild(b.visit(child, depth+1))
	}
	b.activeStack = b.activeStack[:len(b.activeStack)-1]

	b.memo[name] = node
	return node
}

func (b *builder) leaf(name string) *model.TreeNode {
	return model.NewTreeNode(b.id(), name)
}

func (b *builder) onActiveStack(name string) bool {
	for _, n := range b.activeStack {
		if n == name {
			return true
		}
	}
	return false
}

func (b *builder) id() int {
	id := b.nextID
	b.nextID++
	return id
}
