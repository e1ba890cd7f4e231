package ir

// NOTE: Evaluation is a log record, not part of the canonical layout.
// It is identified by a random UUIDv7 and ordered by Seq, never by time.

// Evaluation records one flow evaluation of a stored layout.
type Evaluation struct {
	ID            string  `json:"id"`        // UUIDv7
	LayoutID      string  `json:"layout_id"` // LayoutHash of the evaluated snapshot
	Level         string  `json:"level,omitempty"`
	Total         float64 `json:"total"`
	CycleHits     int     `json:"cycle_hits"`
	Resolutions   int     `json:"resolutions"`
	Seq           int64   `json:"seq"` // Logical clock
	EngineVersion string  `json:"engine_version"`
}
