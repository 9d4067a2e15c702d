package geology

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Labels of the property table rows, exactly as they appear on the site.
const (
	PropertyClassification = "Chemical Classification"
	PropertyColor          = "Color"
	PropertyStreak         = "Streak"
	PropertyLuster         = "Luster"
	PropertyDiaphaneity    = "Diaphaneity"
	PropertyCleavage       = "Cleavage"
	PropertyHardness       = "Mohs Hardness"
	PropertyGravity        = "Specific Gravity"
	PropertyDiagnostic     = "Diagnostic Properties"
	PropertyComposition    = "Chemical Composition"
	PropertyCrystalSystem  = "Crystal System"
	PropertyUses           = "Uses"
)

// RequiredProperties must all be present for a gemstone to be stored.
var RequiredProperties = []string{
	PropertyClassification,
	PropertyColor,
	PropertyStreak,
	PropertyLuster,
	PropertyDiaphaneity,
	PropertyCleavage,
	PropertyHardness,
	PropertyGravity,
	PropertyDiagnostic,
	PropertyComposition,
	PropertyCrystalSystem,
	PropertyUses,
}

var (
	ErrMissingProperty = errors.New("missing required property")
	ErrInvalidHardness = errors.New("invalid hardness")
)

// Properties maps a property table label to its value.
type Properties map[string]string

// IndexEntry is one gemstone listed on the directory page.
type IndexEntry struct {
	// Name is the lowercased display name, it identifies the gemstone.
	Name string
	Href string
}

// Gemstone is the raw result of extracting one detail page.
type Gemstone struct {
	Name       string
	Properties Properties
}

// Normalized is a gemstone with every required property present and its
// hardness parsed.
type Normalized struct {
	Name           string
	Classification string
	Color          string
	Streak         string
	Luster         string
	Diaphaneity    string
	Cleavage       string
	Hardness       float64
	Gravity        string
	Diagnostic     string
	Composition    string
	CrystalSystem  string
	Uses           string
}

// ParseHardness parses the first whitespace-delimited token of a Mohs
// hardness description, "7.5 - 8" is 7.5.
func ParseHardness(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: empty", ErrInvalidHardness)
	}
	hardness, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHardness, text)
	}
	return hardness, nil
}

// Normalize validates the gemstone, it fails when a required property is
// missing or the hardness cannot be parsed.
func (g Gemstone) Normalize() (Normalized, error) {
	if g.Name == "" {
		return Normalized{}, fmt.Errorf("%w: name", ErrMissingProperty)
	}
	for _, key := range RequiredProperties {
		_, ok := g.Properties[key]
		if !ok {
			return Normalized{}, fmt.Errorf("%s: %w: %s", g.Name, ErrMissingProperty, key)
		}
	}
	hardness, err := ParseHardness(g.Properties[PropertyHardness])
	if err != nil {
		return Normalized{}, fmt.Errorf("%s: %w", g.Name, err)
	}

	p := g.Properties
	return Normalized{
		Name:           g.Name,
		Classification: p[PropertyClassification],
		Color:          p[PropertyColor],
		Streak:         p[PropertyStreak],
		Luster:         p[PropertyLuster],
		Diaphaneity:    p[PropertyDiaphaneity],
		Cleavage:       p[PropertyCleavage],
		Hardness:       hardness,
		Gravity:        p[PropertyGravity],
		Diagnostic:     p[PropertyDiagnostic],
		Composition:    p[PropertyComposition],
		CrystalSystem:  p[PropertyCrystalSystem],
		Uses:           p[PropertyUses],
	}, nil
}
