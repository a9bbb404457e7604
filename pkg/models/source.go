package models

import "sort"

// Language identifies the language of an analyzed source file.
type Language string

const (
	LangPython  Language = "python"
	LangUnknown Language = "unknown"
)

// SourceInfo is a structural summary of the analyzed file, taken from its
// syntax tree before any external tool runs.
type SourceInfo struct {
	Language     Language `json:"language"`
	Lines        int      `json:"lines"`
	Functions    int      `json:"functions"`
	Classes      int      `json:"classes"`
	SyntaxErrors []int    `json:"syntax_errors,omitempty"` // 1-based lines
}

// Valid reports whether the file parsed without syntax errors.
func (s *SourceInfo) Valid() bool {
	return s != nil && len(s.SyntaxErrors) == 0
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
