package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LanguageRegistry holds the set of language codes the service will accept.
// Loaded from a YAML file mapping code -> display name:
//
//	en: English
//	ko: Korean
//	th: Thai
//
// A nil registry accepts any non-empty code.
type LanguageRegistry struct {
	names map[string]string
}

// LoadLanguageRegistry reads the registry file. An empty path returns nil,
// which callers treat as "accept any code".
func LoadLanguageRegistry(path string) (*LanguageRegistry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language registry %s: %w", path, err)
	}

	names := make(map[string]string)
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse language registry %s: %w", path, err)
	}

	normalized := make(map[string]string, len(names))
	for code, name := range names {
		normalized[strings.ToLower(strings.TrimSpace(code))] = name
	}

	return &LanguageRegistry{names: normalized}, nil
}

// Supports reports whether the registry accepts a language code
func (r *LanguageRegistry) Supports(code string) bool {
	if r == nil {
		return code != ""
	}
	_, ok := r.names[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// Name returns the display name for a code, or the code itself if unknown
func (r *LanguageRegistry) Name(code string) string {
	if r == nil {
		return code
	}
	if name, ok := r.names[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Count returns the number of registered languages (0 for a nil registry)
func (r *LanguageRegistry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}
