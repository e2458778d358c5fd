package bias

import (
	"fmt"
	"strings"
)

// Category groups the trigger words reported under one name
type Category struct {
	Name  string   `json:"name" yaml:"name" mapstructure:"name"`
	Words []string `json:"words" yaml:"words" mapstructure:"words"`
}

// Dictionary is an ordered list of categories. Order matters: when a sentence
// matches several categories only the first one is reported.
type Dictionary []Category

// DefaultDictionary returns the built-in categories in scan order
func DefaultDictionary() Dictionary {
	return Dictionary{
		{Name: "Gender", Words: []string{"male", "female", "man", "woman"}},
		{Name: "Religion", Words: []string{"muslim", "hindu", "christian", "jewish", "atheist"}},
		{Name: "Absolute", Words: []string{"always", "never", "all", "none"}},
	}
}

// Validate checks that every category is named, unique and carries lowercase words
func (d Dictionary) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("dictionary has no categories")
	}

	seen := make(map[string]bool, len(d))
	for i, c := range d {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category: %s", c.Name)
		}
		seen[c.Name] = true

		if len(c.Words) == 0 {
			return fmt.Errorf("category %s has no trigger words", c.Name)
		}
		for _, w := range c.Words {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("category %s has an empty trigger word", c.Name)
			}
			if w != strings.ToLower(w) {
				return fmt.Errorf("category %s: trigger word %q must be lowercase", c.Name, w)
			}
		}
	}

	return nil
}

// Filter keeps the named categories in declaration order. The name "all" keeps everything.
func (d Dictionary) Filter(names []string) (Dictionary, error) {
	if len(names) == 0 {
		return d.clone(), nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "all" {
			return d.clone(), nil
		}
		wanted[name] = true
	}

	filtered := make(Dictionary, 0, len(wanted))
	for _, c := range d {
		if wanted[c.Name] {
			filtered = append(filtered, Category{Name: c.Name, Words: append([]string(nil), c.Words...)})
			delete(wanted, c.Name)
		}
	}

	for name := range wanted {
		return nil, fmt.Errorf("unknown category: %s", name)
	}

	return filtered, nil
}

// Fingerprint returns a stable identifier for the dictionary contents
func (d Dictionary) Fingerprint() string {
	var b strings.Builder
	for _, c := range d {
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(strings.Join(c.Words, ","))
		b.WriteByte(';')
	}
	return b.String()
}

func (d Dictionary) clone() Dictionary {
	out := make(Dictionary, len(d))
	for i, c := range d {
		out[i] = Category{Name: c.Name, Words: append([]string(nil), c.Words...)}
	}
	return out
}
