package models

// String methods for custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// BlockKind
func (k BlockKind) String() string { return string(k) }

// Language
func (l Language) String() string { return string(l) }
