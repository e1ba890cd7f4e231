package store

import (
	"fmt"

	"github.com/roach88/bigflow/internal/ir"
)

// marshalSnapshot converts a snapshot to canonical JSON TEXT for storage.
// The bytes are exactly what ir.LayoutHash hashes.
func marshalSnapshot(snap ir.Snapshot) (string, error) {
	data, err := ir.MarshalCanonical(ir.SnapshotObject(snap))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}
