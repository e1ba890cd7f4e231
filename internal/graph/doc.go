// Package graph implements the bigflow Graph Store and Connection Notifier.
//
// The Store owns every node and both adjacency tables:
//
//	nodes: NodeID -> ir.Node            (dense arena, id == index)
//	out:   NodeID -> []NodeID           (targets, in connection order)
//	in:    NodeID -> []NodeID           (sources, in connection order)
//
// Node identity is assigned by the Store. Callers hold ids, never references
// into the arena, so ownership stays with the Store.
//
// CONNECTION CONTRACT:
//   - Both endpoints are validated before anything is mutated
//   - out and in adjacency are appended together, so in stays the inverse of out
//   - The same ordered pair connected twice yields two parallel edges
//   - Observers are notified synchronously, in subscription order, after the
//     edge is committed and before Connect returns
//
// There is no removal API. Nodes and edges live as long as the Store.
//
// CONCURRENCY:
// The Store is single-threaded by contract, like the evaluator that reads it.
// Hosts that share a Store between goroutines must serialize mutation and
// evaluation themselves.
package graph
