package geology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func completeProperties() Properties {
	return Properties{
		PropertyClassification: "Silicate",
		PropertyColor:          "Purple",
		PropertyStreak:         "Colorless",
		PropertyLuster:         "Vitreous",
		PropertyDiaphaneity:    "Transparent",
		PropertyCleavage:       "None",
		PropertyHardness:       "7.5 - 8",
		PropertyGravity:        "2.65",
		PropertyDiagnostic:     "Purple color",
		PropertyComposition:    "SiO2",
		PropertyCrystalSystem:  "Hexagonal",
		PropertyUses:           "Gemstone",
	}
}

func TestParseHardness(t *testing.T) {
	table := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{input: "7.5 - 8", expected: 7.5, ok: true},
		{input: "  9 ", expected: 9, ok: true},
		{input: "6\t(varies)", expected: 6, ok: true},
		{input: "unknown", ok: false},
		{input: "6.5-7", ok: false},
		{input: "", ok: false},
	}

	for _, row := range table {
		hardness, err := ParseHardness(row.input)
		if !row.ok {
			require.ErrorIs(t, err, ErrInvalidHardness, row.input)
			continue
		}
		require.NoError(t, err, row.input)
		require.Equal(t, row.expected, hardness)
	}
}

func TestNormalize(t *testing.T) {
	gem := Gemstone{Name: "amethyst", Properties: completeProperties()}
	normalized, err := gem.Normalize()
	require.NoError(t, err)
	require.Equal(t, "amethyst", normalized.Name)
	require.Equal(t, 7.5, normalized.Hardness)
	require.Equal(t, "Hexagonal", normalized.CrystalSystem)
}

func TestNormalizeUnknownHardness(t *testing.T) {
	props := completeProperties()
	props[PropertyHardness] = "unknown"
	_, err := Gemstone{Name: "amethyst", Properties: props}.Normalize()
	require.ErrorIs(t, err, ErrInvalidHardness)
}

func TestNormalizeMissingProperty(t *testing.T) {
	for _, key := range RequiredProperties {
		props := completeProperties()
		delete(props, key)
		_, err := Gemstone{Name: "amethyst", Properties: props}.Normalize()
		require.ErrorIs(t, err, ErrMissingProperty, key)
		require.ErrorContains(t, err, key)
	}

	_, err := Gemstone{Properties: completeProperties()}.Normalize()
	require.ErrorIs(t, err, ErrMissingProperty)
}
