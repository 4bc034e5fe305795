package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	domainconfig "github.com/engmung/portfolio-Nat/domain/config"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// LoadPalette reads a YAML palette file and merges it over the default palette.
// An empty path yields the defaults.
func LoadPalette(path string) (domainconfig.Palette, error) {
	if path == "" {
		return domainconfig.DefaultPalette(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domainconfig.Palette{}, fmt.Errorf("failed to read palette file %s: %w", path, err)
	}

	return ParsePalette(data)
}

// ParsePalette decodes YAML palette data and merges it over the default palette
func ParsePalette(data []byte) (domainconfig.Palette, error) {
	var p domainconfig.Palette
	if err := yaml.Unmarshal(data, &p); err != nil {
		return domainconfig.Palette{}, fmt.Errorf("failed to parse palette: %w", err)
	}

	if err := validatePalette(p); err != nil {
		return domainconfig.Palette{}, err
	}

	return p.Merge(domainconfig.DefaultPalette()), nil
}

func validatePalette(p domainconfig.Palette) error {
	colors := map[string]string{
		"hover_color":          p.HoverColor,
		"neighbor_color":       p.NeighborColor,
		"default_color":        p.DefaultColor,
		"link_color":           p.LinkColor,
		"link_highlight_color": p.LinkHighlightColor,
		"default_level_color":  p.DefaultLevelColor,
	}
	for field, c := range colors {
		if c != "" && !hexColor.MatchString(c) {
			return fmt.Errorf("palette %s: %q is not a hex color", field, c)
		}
	}

	seen := make(map[string]bool, len(p.TagColors))
	for i, tc := range p.TagColors {
		if tc.Tag == "" {
			return fmt.Errorf("palette tag_colors[%d]: tag is required", i)
		}
		if seen[tc.Tag] {
			return fmt.Errorf("palette tag_colors[%d]: duplicate tag %q", i, tc.Tag)
		}
		seen[tc.Tag] = true
		if !hexColor.MatchString(tc.Color) {
			return fmt.Errorf("palette tag_colors[%d]: %q is not a hex color", i, tc.Color)
		}
	}

	for level, c := range p.LevelColors {
		if !hexColor.MatchString(c) {
			return fmt.Errorf("palette level_colors[%d]: %q is not a hex color", level, c)
		}
	}
	for level, size := range p.Sizes {
		if size <= 0 {
			return fmt.Errorf("palette sizes[%d]: must be positive", level)
		}
	}
	return nil
}
