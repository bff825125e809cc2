// Package frontier implements the working set of partial combinations explored by a
// search: one state per distinct reachable quantity, ordered by quantity, prunable from
// the bottom. Selections are stored in an append-only arena of parent-linked nodes so that
// extending a state costs one node regardless of how many batches it already uses.
package frontier
