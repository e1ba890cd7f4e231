// Package ir provides the shared pipeline types for bigflow.
//
// It holds type definitions and canonical encoding only and imports
// nothing internal.
//
// Constraints:
//   - Node identity is a dense NodeID assigned by the graph store, never by callers
//   - Node parameters are carried as given; nothing here validates or clamps them
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785 ordering, NFC strings) is the only encoding used
//     for content-addressed identity
package ir
