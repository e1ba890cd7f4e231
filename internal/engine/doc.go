// Package engine implements the bigflow Flow Evaluator.
//
// The evaluator computes the steady-state throughput delivered to every sink
// of a graph. It reads the graph, never mutates it, and never fails.
//
// ALGORITHM:
//
// Memoized depth-first resolution, pulled from the sinks:
//  1. A fresh memo and a fresh in-progress set are created per evaluation.
//  2. Every sink, in id order, is resolved and its output added to the total.
//  3. resolve(id) returns the cached output on a memo hit. An in-progress
//     hit means a cycle closed on this path: it returns a transient 0 that
//     is NOT memoized for id. Otherwise it marks id in-progress, computes by
//     kind, unmarks, memoizes and returns.
//
// Per-kind arithmetic:
//
//	source     output = generation rate (inputs are not visited)
//	filter     output = sum(inputs) * throughput
//	aggregate  output = sum(inputs)
//	sink       output = sum(inputs)
//	other      output = sum(inputs)   (pass-through for kinds this build
//	                                   does not special-case)
//
// The memo bounds the work to one resolution per reachable node, so diamond
// shaped fan-out/fan-in stays linear. The in-progress set turns cyclic wiring
// into a deterministic zero contribution on the edge that closes the cycle.
//
// Parameters are never validated: negative rates and throughputs outside
// [0, 1] flow through the arithmetic unchanged.
//
// CONCURRENCY:
// Evaluate is synchronous and single-threaded. It assumes exclusive access to
// the graph for its duration; callers sharing a graph across goroutines must
// serialize mutation and evaluation.
package engine
