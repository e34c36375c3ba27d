package routing

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"complaint-service/internal/utils"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

type vocabularyFile struct {
	Version    int `yaml:"version"`
	Categories []struct {
		Label   string   `yaml:"label"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"categories"`
}

// Vocabulary resolves category labels and their localized or descriptive variants to one
// canonical label.
type Vocabulary struct {
	version   int
	canonical map[string]string
}

func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}

	v := &Vocabulary{
		version:   file.Version,
		canonical: make(map[string]string),
	}
	for i, category := range file.Categories {
		label := strings.Join(strings.Fields(category.Label), " ")
		if label == "" {
			return nil, fmt.Errorf("vocabulary category %d has an empty label", i+1)
		}
		for _, name := range append([]string{label}, category.Aliases...) {
			key := utils.NormalizeLabel(name)
			if key == "" {
				continue
			}
			if existing, ok := v.canonical[key]; ok && existing != label {
				return nil, fmt.Errorf("vocabulary alias %q maps to both %q and %q", name, existing, label)
			}
			v.canonical[key] = label
		}
	}
	return v, nil
}

// LoadVocabulary reads the vocabulary file at path, or the embedded default when path is empty.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return ParseVocabulary(defaultVocabulary)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Vocabulary) Version() int {
	return v.version
}

// Canonical returns the canonical label, or the whitespace-collapsed input when the label
// is not part of the vocabulary.
func (v *Vocabulary) Canonical(label string) string {
	if canonical, ok := v.canonical[utils.NormalizeLabel(label)]; ok {
		return canonical
	}
	return strings.Join(strings.Fields(label), " ")
}

// CanonicalSet canonicalises labels, dropping empties and duplicates while keeping first-seen order.
func (v *Vocabulary) CanonicalSet(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		canonical := v.Canonical(label)
		if canonical == "" {
			continue
		}
		key := utils.NormalizeLabel(canonical)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
