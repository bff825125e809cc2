package frontier

import "math"

// Handle addresses a selection node in an Arena.
type Handle int32

// Root is the handle of the empty selection.
const Root Handle = -1

// Pick is one (batch, count) entry of a selection.
type Pick struct {
	BatchID int `json:"batchId"`
	Count   int `json:"count"`
}

type node struct {
	pick   Pick
	parent Handle
}

// Arena stores selections as parent-linked nodes. Nodes are never freed, even once the
// state holding them is pruned, so an arena grows with every insertion of a search rather
// than with the frontier size. It lives as long as one search.
type Arena struct {
	nodes []node
	limit int
}

// NewArena returns an arena with room for capacity nodes.
func NewArena(capacity int) *Arena {
	return &Arena{
		nodes: make([]node, 0, capacity),
		limit: math.MaxInt32,
	}
}

// Extend returns a handle to the selection parent ++ (batchID, count). It fails with
// ErrArenaFull once the next node would not fit in a Handle.
func (a *Arena) Extend(parent Handle, batchID, count int) (Handle, error) {
	if len(a.nodes) >= a.limit {
		return Root, ErrArenaFull
	}
	a.nodes = append(a.nodes, node{
		pick:   Pick{BatchID: batchID, Count: count},
		parent: parent,
	})
	return Handle(len(a.nodes) - 1), nil
}

// Len returns the number of allocated nodes.
func (a *Arena) Len() int {
	return len(a.nodes)
}

// Selection reconstructs the picks of h in the order they were added.
func (a *Arena) Selection(h Handle) []Pick {
	depth := 0
	for cur := h; cur != Root; cur = a.nodes[cur].parent {
		depth++
	}

	out := make([]Pick, depth)
	for cur := h; cur != Root; cur = a.nodes[cur].parent {
		depth--
		out[depth] = a.nodes[cur].pick
	}
	return out
}
