// Package level loads level definitions and runs level sessions.
//
// A level definition names the nodes and connections of a starting pipeline
// together with its objectives: a target flow, a time limit and a budget.
// Definitions are written in YAML or CUE; both decode into the same
// document shape and share one set of defaults:
//
//	target_flow       100
//	time_limit        180 (seconds)
//	initial_budget    5000
//	connection_cost   0
//	generation_rate   20   (sources)
//	throughput        0.8  (filters)
//
// A Session owns the graph built from a definition and tracks the objective
// state. Loss (time exhausted) is checked before win (flow at or above the
// target), and a finished session keeps its final status.
package level
