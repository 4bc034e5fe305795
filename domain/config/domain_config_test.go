package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSynthesisMode(t *testing.T) {
	tests := []struct {
		input string
		want  SynthesisMode
	}{
		{input: "legacy", want: ModeLegacy},
		{input: " LEGACY ", want: ModeLegacy},
		{input: "deterministic", want: ModeDeterministic},
		{input: "", want: ModeDeterministic},
		{input: "whatever", want: ModeDeterministic},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSynthesisMode(tt.input))
		})
	}
}

func TestLoadDomainConfig(t *testing.T) {
	for _, env := range []string{"production", "development", "staging"} {
		cfg := LoadDomainConfig(env)
		assert.NoError(t, cfg.Validate(), env)
		assert.Equal(t, ModeDeterministic, cfg.SynthesisMode)
		assert.Equal(t, 4, cfg.MaxDisplayLevel)
		assert.Equal(t, []string{".yaml"}, cfg.AllowedUploadExtensions)
	}
}

func TestDomainConfig_Validate(t *testing.T) {
	cfg := DefaultDomainConfig()
	cfg.SynthesisMode = "sideways"
	assert.Error(t, cfg.Validate())

	cfg = DefaultDomainConfig()
	cfg.MaxDisplayLevel = 0
	assert.Error(t, cfg.Validate())
}

func TestPalette_Merge(t *testing.T) {
	base := DefaultPalette()

	merged := Palette{HoverColor: "#000000", Weights: map[int]string{1: "900"}}.Merge(base)

	assert.Equal(t, "#000000", merged.HoverColor)
	assert.Equal(t, base.NeighborColor, merged.NeighborColor)
	assert.Equal(t, map[int]string{1: "900"}, merged.Weights)
	assert.Equal(t, base.TagColors, merged.TagColors)
	assert.Equal(t, base, Palette{}.Merge(base))
}
