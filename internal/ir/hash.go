package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainLayout prefixes layout hashes so they can never collide with a
// hash of some other canonical document.
const DomainLayout = "bigflow/layout/v1"

// SnapshotObject returns the canonical document for s. Node and edge order
// are kept as given.
func SnapshotObject(s Snapshot) map[string]any {
	nodes := make([]any, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		nodes = append(nodes, map[string]any{
			"id":              int64(n.ID),
			"kind":            string(n.Kind),
			"label":           n.Label,
			"generation_rate": n.Params.GenerationRate,
			"throughput":      n.Params.Throughput,
		})
	}

	edges := make([]any, 0, len(s.Edges))
	for _, e := range s.Edges {
		edges = append(edges, map[string]any{"from": int64(e.From), "to": int64(e.To)})
	}

	return map[string]any{
		"version": LayoutVersion,
		"nodes":   nodes,
		"edges":   edges,
	}
}

// LayoutHash is the content-addressed id of s: hex SHA-256 over the domain,
// a NUL separator and the canonical snapshot. Graphs built by the same
// registrations and connections in the same order share an id.
func LayoutHash(s Snapshot) (string, error) {
	doc, err := MarshalCanonical(SnapshotObject(s))
	if err != nil {
		return "", fmt.Errorf("layout hash: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(DomainLayout))
	h.Write([]byte{0})
	h.Write(doc)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustLayoutHash is LayoutHash for snapshots known to hold finite params.
func MustLayoutHash(s Snapshot) string {
	id, err := LayoutHash(s)
	if err != nil {
		panic(err)
	}
	return id
}
