package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/shortsfinder/internal/domain/highlights"
)

// LoadVocabulary returns the built-in tables overridden by any non-empty list
// in the YAML file at path. An empty path yields the defaults.
func LoadVocabulary(path string) (highlights.Vocabulary, error) {
	def := highlights.DefaultVocabulary()
	if path == "" {
		return def, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return highlights.Vocabulary{}, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()

	var over highlights.Vocabulary
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&over); err != nil {
		return highlights.Vocabulary{}, fmt.Errorf("decode vocabulary %s: %w", path, err)
	}
	return def.Merge(over), nil
}
