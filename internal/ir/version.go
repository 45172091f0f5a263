package ir

// Version constants for the record format and the generator.
const (
	// RecordVersion is the record schema version.
	RecordVersion = "1"

	// GeneratorVersion is the nwocg generator version.
	GeneratorVersion = "0.1.0"
)
