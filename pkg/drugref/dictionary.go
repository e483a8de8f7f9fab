package drugref

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zenarog/zenarog-engine/pkg/models"
)

//go:embed brands.yaml
var brandsYAML []byte

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// Dictionary maps tablet imprints to known regional brands.
type Dictionary struct {
	entries []models.BrandDictionaryEntry
}

// ParseDictionary decodes a YAML list of brand entries, keeping file order.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var entries []models.BrandDictionaryEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse brand dictionary: %w", err)
	}
	for i, e := range entries {
		if e.Key == "" || e.BrandName == "" {
			return nil, fmt.Errorf("brand dictionary entry %d: key and brand are required", i)
		}
		entries[i].Key = NormalizeImprint(e.Key)
	}
	return &Dictionary{entries: entries}, nil
}

var (
	defaultDictionary     *Dictionary
	defaultDictionaryOnce sync.Once
)

// DefaultDictionary returns the compiled-in brand dictionary.
func DefaultDictionary() *Dictionary {
	defaultDictionaryOnce.Do(func() {
		d, err := ParseDictionary(brandsYAML)
		if err != nil {
			panic(err)
		}
		defaultDictionary = d
	})
	return defaultDictionary
}

// NormalizeImprint lowercases an imprint and keeps only letters and digits.
func NormalizeImprint(imprint string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(imprint), "")
}

// LookupImprint returns the first entry whose key is contained in the
// normalized imprint, or that contains an imprint longer than two characters.
func (d *Dictionary) LookupImprint(imprint string) (*models.BrandDictionaryEntry, bool) {
	normalized := NormalizeImprint(imprint)
	if normalized == "" {
		return nil, false
	}
	for i := range d.entries {
		key := d.entries[i].Key
		if strings.Contains(normalized, key) || (len(normalized) > 2 && strings.Contains(key, normalized)) {
			entry := d.entries[i]
			return &entry, true
		}
	}
	return nil, false
}

// Entries returns the dictionary entries in lookup order.
func (d *Dictionary) Entries() []models.BrandDictionaryEntry {
	out := make([]models.BrandDictionaryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}
