package ir

// Version constants for the query IR and the composer.
const (
	// IRVersion is the query IR schema version. It is folded into statement
	// IDs so a format change never reuses an old ID.
	IRVersion = "1"

	// ComposerVersion is the cteq composer version.
	ComposerVersion = "0.1.0"
)
