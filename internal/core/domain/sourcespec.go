package domain

// SourceSpec describes a supported discovery source.
type SourceSpec struct {
	// ID is the unique identifier (e.g., "seedfile", "fundingdb", "websearch").
	ID string
	// Name is the human-readable display name.
	Name string
	// Description provides a brief explanation of the source.
	Description string
	// Confidence is the trust level attached to records from this source, in [0,1].
	Confidence float64
	// ConfigKeys lists the configuration fields the source reads.
	ConfigKeys []ConfigKey
}

// RequiredKeys returns the config keys that must be set for the source to run.
// A source with unmet required keys is skipped by discovery, not failed.
func (s *SourceSpec) RequiredKeys() []ConfigKey {
	var out []ConfigKey
	for _, k := range s.ConfigKeys {
		if k.Required {
			out = append(out, k)
		}
	}
	return out
}

// ConfigKey describes a configuration field for a source.
type ConfigKey struct {
	// Key is the configuration key name.
	Key string
	// Label is the human-readable label for CLI display.
	Label string
	// Description explains what this field is for.
	Description string
	// Default is the default value for this field.
	Default string
	// Required indicates whether this field must be provided.
	Required bool
	// Secret indicates whether this field should be masked when entered (e.g., API keys).
	Secret bool
}
