package ir

// Version constants for the canonical description format and translator.
const (
	// IRVersion is the canonical query description schema version.
	IRVersion = "1"

	// TranslatorVersion is the nlq translator version.
	TranslatorVersion = "0.1.0"
)
