package frontier

import "github.com/google/btree"

const treeDegree = 32

// State is a reachable total together with the selection that first reached it.
type State struct {
	Quantity  int
	Selection Handle
}

func lessByQuantity(a, b State) bool {
	return a.Quantity < b.Quantity
}

// Frontier is a set of states keyed by quantity alone.
type Frontier struct {
	tree *btree.BTreeG[State]
}

// New returns a frontier seeded with the empty state.
func New() *Frontier {
	f := &Frontier{tree: btree.NewG(treeDegree, lessByQuantity)}
	f.Init()
	return f
}

// Init resets the frontier to the single empty state.
func (f *Frontier) Init() {
	f.tree.Clear(true)
	f.tree.ReplaceOrInsert(State{Quantity: 0, Selection: Root})
}

// Insert adds s unless a member already holds s.Quantity, in which case the stored
// selection is kept. It reports whether s was added.
func (f *Frontier) Insert(s State) bool {
	if f.tree.Has(s) {
		return false
	}
	f.tree.ReplaceOrInsert(s)
	return true
}

// Contains reports whether some member holds quantity q.
func (f *Frontier) Contains(q int) bool {
	return f.tree.Has(State{Quantity: q})
}

// Get returns the member holding quantity q.
func (f *Frontier) Get(q int) (State, bool) {
	return f.tree.Get(State{Quantity: q})
}

// Len returns the number of members.
func (f *Frontier) Len() int {
	return f.tree.Len()
}

// MaxQuantity returns the largest quantity held.
func (f *Frontier) MaxQuantity() (int, error) {
	top, ok := f.tree.Max()
	if !ok {
		return 0, ErrEmptyFrontier
	}
	return top.Quantity, nil
}

// Descend calls fn for every member by strictly decreasing quantity until fn returns false.
func (f *Frontier) Descend(fn func(State) bool) {
	f.tree.Descend(fn)
}

// DescendFrom is Descend starting at the largest quantity <= pivot.
func (f *Frontier) DescendFrom(pivot int, fn func(State) bool) {
	f.tree.DescendLessOrEqual(State{Quantity: pivot}, fn)
}

// Prune removes every member whose quantity is below max-window and returns how many
// were removed. The maximum itself is never removed.
func (f *Frontier) Prune(window int) (int, error) {
	top, err := f.MaxQuantity()
	if err != nil {
		return 0, err
	}

	floor := top - window
	removed := 0
	for {
		low, ok := f.tree.Min()
		if !ok || low.Quantity >= floor {
			break
		}
		f.tree.DeleteMin()
		removed++
	}
	return removed, nil
}
