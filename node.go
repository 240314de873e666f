package doctree

// node is a persistent B-tree-like node. It is either a leaf, holding an
// ordered group of spans, or internal, holding ordered children. All nodes
// are immutable once reachable from a published snapshot (spec invariant
// 5); edits build new nodes bottom-up and share unchanged subtrees with
// the previous snapshot by reference (structural sharing).
type node struct {
	isLeaf   bool
	spans    []span  // leaf only, len <= MaxSpans
	children []*node // internal only, len <= MaxSpans
	summary  Summary
}

func leafNode(spans []span) *node {
	sums := make([]Summary, len(spans))
	for i, s := range spans {
		sums[i] = s.summary
	}
	total, ok := sumSummaries(sums)
	if !ok {
		// Leaves are built from bounded chunks; overflow here would
		// require an implausibly large single span list. Treat as a
		// bug rather than thread an error through every constructor -
		// Tree.Apply recovers it and reports ErrOverflow.
		panic(ErrOverflow)
	}
	return &node{isLeaf: true, spans: spans, summary: total}
}

func internalNode(children []*node) *node {
	sums := make([]Summary, len(children))
	for i, c := range children {
		sums[i] = c.summary
	}
	total, ok := sumSummaries(sums)
	if !ok {
		panic(ErrOverflow)
	}
	return &node{isLeaf: false, children: children, summary: total}
}

// childCount returns the number of spans (leaf) or children (internal).
func (n *node) childCount() int {
	if n.isLeaf {
		return len(n.spans)
	}
	return len(n.children)
}

// buildNodesFromSpans groups a flat span list into a bottom-up balanced
// tree with fan-out <= MaxSpans at every level. It is the single place
// node groups are formed: Tree construction from raw text, and rebuilding
// the subtree touched by an edit (tree.go), both call it. Because an edit
// always rebuilds its smallest enclosing subtree as a unit and splices
// the single result back into the same child slot, fan-out above that
// subtree's root never changes shape from the edit, so no separate
// split/merge propagation pass is needed at ancestor levels (see
// DESIGN.md for the tradeoff this simplification makes).
func buildNodesFromSpans(spans []span) *node {
	if len(spans) == 0 {
		return leafNode(nil)
	}

	level := make([]*node, 0, (len(spans)+MaxSpans-1)/MaxSpans)
	for i := 0; i < len(spans); i += MaxSpans {
		end := i + MaxSpans
		if end > len(spans) {
			end = len(spans)
		}
		level = append(level, leafNode(spans[i:end:end]))
	}

	for len(level) > 1 {
		next := make([]*node, 0, (len(level)+MaxSpans-1)/MaxSpans)
		for i := 0; i < len(level); i += MaxSpans {
			end := i + MaxSpans
			if end > len(level) {
				end = len(level)
			}
			next = append(next, internalNode(level[i:end:end]))
		}
		level = next
	}
	return level[0]
}

// flattenSpans gathers every span under n, in order.
func flattenSpans(n *node) []span {
	if n.isLeaf {
		return append([]span(nil), n.spans...)
	}
	out := make([]span, 0, n.summary.Chars)
	for _, c := range n.children {
		out = append(out, flattenSpans(c)...)
	}
	return out
}

// pathFrame records one step on the root-to-target descent so the edited
// subtree can be spliced back into its parent's child slot.
type pathFrame struct {
	parent *node
	idx    int
}

// locateEnclosing finds the smallest subtree whose byte range fully
// contains [start, end], descending greedily while some child still
// contains the whole range. It returns the path of ancestor frames above
// that subtree, the subtree's root, and the subtree's absolute byte start.
func locateEnclosing(root *node, start, end int64) ([]pathFrame, *node, int64) {
	var path []pathFrame
	n := root
	base := int64(0)
	for !n.isLeaf {
		childBase := base
		chosen := -1
		for i, c := range n.children {
			childEnd := childBase + c.summary.Bytes
			if start >= childBase && end <= childEnd {
				chosen = i
				base = childBase
				break
			}
			childBase = childEnd
		}
		if chosen == -1 {
			break
		}
		path = append(path, pathFrame{parent: n, idx: chosen})
		n = n.children[chosen]
	}
	return path, n, base
}

// spliceBack replaces the node found by locateEnclosing with replacement,
// rebuilding ancestors bottom-up with the path's child slot swapped and
// every other sibling shared by reference with the previous snapshot.
func spliceBack(path []pathFrame, replacement *node) *node {
	result := replacement
	for i := len(path) - 1; i >= 0; i-- {
		frame := path[i]
		children := append([]*node(nil), frame.parent.children...)
		children[frame.idx] = result
		result = internalNode(children)
	}
	return result
}
