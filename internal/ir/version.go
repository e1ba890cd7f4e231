package ir

// Version constants for the layout encoding and engine.
const (
	// LayoutVersion is the canonical layout encoding version.
	LayoutVersion = "1"

	// EngineVersion is the bigflow engine version.
	EngineVersion = "0.1.0"
)
