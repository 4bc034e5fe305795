package config

import "strings"

// SynthesisMode selects how links are inferred between knowledge items
type SynthesisMode string

const (
	// ModeDeterministic infers links independently of input order, one link per pair
	ModeDeterministic SynthesisMode = "deterministic"
	// ModeLegacy reproduces the ordered-pair algorithm, duplicates included
	ModeLegacy SynthesisMode = "legacy"
)

// ParseSynthesisMode maps a config string onto a mode, defaulting to deterministic
func ParseSynthesisMode(s string) SynthesisMode {
	switch SynthesisMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLegacy:
		return ModeLegacy
	default:
		return ModeDeterministic
	}
}

// TagColor binds a tag to a display color. Order in a palette decides precedence.
type TagColor struct {
	Tag   string `yaml:"tag" json:"tag"`
	Color string `yaml:"color" json:"color"`
}

// Palette holds every display lookup table used by the classifier
type Palette struct {
	HoverColor         string         `yaml:"hover_color" json:"hover_color"`
	NeighborColor      string         `yaml:"neighbor_color" json:"neighbor_color"`
	DefaultColor       string         `yaml:"default_color" json:"default_color"`
	TagColors          []TagColor     `yaml:"tag_colors" json:"tag_colors"`
	Sizes              map[int]int    `yaml:"sizes" json:"sizes"`
	DefaultSize        int            `yaml:"default_size" json:"default_size"`
	Weights            map[int]string `yaml:"weights" json:"weights"`
	DefaultWeight      string         `yaml:"default_weight" json:"default_weight"`
	LinkColor          string         `yaml:"link_color" json:"link_color"`
	LinkHighlightColor string         `yaml:"link_highlight_color" json:"link_highlight_color"`
	LevelColors        map[int]string `yaml:"level_colors" json:"level_colors"`
	DefaultLevelColor  string         `yaml:"default_level_color" json:"default_level_color"`
}

// DefaultPalette returns the stock display tables
func DefaultPalette() Palette {
	return Palette{
		HoverColor:    "#ff0000",
		NeighborColor: "#ff6b6b",
		DefaultColor:  "#ffffff",
		TagColors: []TagColor{
			{Tag: "3D", Color: "#4CAF50"},
			{Tag: "ai", Color: "#2196F3"},
			{Tag: "dev", Color: "#FFC107"},
		},
		Sizes:              map[int]int{1: 12, 2: 8, 3: 6, 4: 6},
		DefaultSize:        6,
		Weights:            map[int]string{1: "bold", 2: "600", 3: "600"},
		DefaultWeight:      "normal",
		LinkColor:          "#ffffff",
		LinkHighlightColor: "#ff0000",
		LevelColors: map[int]string{
			1: "#4CAF50",
			2: "#2196F3",
			3: "#FFC107",
			4: "#9C27B0",
			5: "#F44336",
		},
		DefaultLevelColor: "#FFFFFF",
	}
}

// Merge fills unset fields of p from base. Maps and tag tables replace wholesale.
func (p Palette) Merge(base Palette) Palette {
	out := base
	if p.HoverColor != "" {
		out.HoverColor = p.HoverColor
	}
	if p.NeighborColor != "" {
		out.NeighborColor = p.NeighborColor
	}
	if p.DefaultColor != "" {
		out.DefaultColor = p.DefaultColor
	}
	if len(p.TagColors) > 0 {
		out.TagColors = p.TagColors
	}
	if len(p.Sizes) > 0 {
		out.Sizes = p.Sizes
	}
	if p.DefaultSize > 0 {
		out.DefaultSize = p.DefaultSize
	}
	if len(p.Weights) > 0 {
		out.Weights = p.Weights
	}
	if p.DefaultWeight != "" {
		out.DefaultWeight = p.DefaultWeight
	}
	if p.LinkColor != "" {
		out.LinkColor = p.LinkColor
	}
	if p.LinkHighlightColor != "" {
		out.LinkHighlightColor = p.LinkHighlightColor
	}
	if len(p.LevelColors) > 0 {
		out.LevelColors = p.LevelColors
	}
	if p.DefaultLevelColor != "" {
		out.DefaultLevelColor = p.DefaultLevelColor
	}
	return out
}

// DomainConfig holds all configurable business rules for graph synthesis
type DomainConfig struct {
	// Synthesis
	SynthesisMode SynthesisMode

	// Level rules
	MaxDisplayLevel int
	DefaultLevel    int
	FloorLevels     bool // clamp levels below 1 up to 1

	// Knowledge file rules
	AllowedUploadExtensions []string
	MaxUploadBytes          int64
	MaxAIQueryLength        int

	// Display
	Palette Palette

	// Feature flags
	EnableRealTimeSync   bool
	EnableGraphAnalytics bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		SynthesisMode: ModeDeterministic,

		MaxDisplayLevel: 4,
		DefaultLevel:    1,
		FloorLevels:     false,

		AllowedUploadExtensions: []string{".yaml"},
		MaxUploadBytes:          1 << 20,
		MaxAIQueryLength:        2000,

		Palette: DefaultPalette(),

		EnableRealTimeSync:   true,
		EnableGraphAnalytics: true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxUploadBytes = 512 << 10
	cfg.MaxAIQueryLength = 1000
	return cfg
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxUploadBytes = 8 << 20
	return cfg
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxDisplayLevel < 1 {
		return errInvalid("MaxDisplayLevel must be at least 1")
	}
	if c.SynthesisMode != ModeDeterministic && c.SynthesisMode != ModeLegacy {
		return errInvalid("unknown synthesis mode " + string(c.SynthesisMode))
	}
	if c.MaxUploadBytes <= 0 {
		return errInvalid("MaxUploadBytes must be positive")
	}
	return nil
}

type configError string

func (e configError) Error() string { return "domain config: " + string(e) }

func errInvalid(msg string) error { return configError(msg) }
