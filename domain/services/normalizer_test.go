package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/engmung/portfolio-Nat/domain/config"
)

func TestNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name         string
		raw          RawItem
		wantID       string
		wantLevel    int
		wantRawLevel int
		wantTags     []string
		wantRefs     []string
		wantSummary  string
	}{
		{
			name:         "id preferred over filename",
			raw:          RawItem{ID: "react", Filename: "react.yaml", Level: 2, Tags: []interface{}{"dev", "ai"}},
			wantID:       "react",
			wantLevel:    2,
			wantRawLevel: 2,
			wantTags:     []string{"dev", "ai"},
			wantRefs:     []string{},
		},
		{
			name:         "filename used when id missing",
			raw:          RawItem{Filename: "blender.yaml", Level: float64(1)},
			wantID:       "blender.yaml",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "blank id falls back to filename",
			raw:          RawItem{ID: "   ", Filename: "x.yaml", Level: 1},
			wantID:       "x.yaml",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "numeric id is formatted",
			raw:          RawItem{ID: float64(42), Level: 1},
			wantID:       "42",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "level above four is clamped for display",
			raw:          RawItem{ID: "deep", Level: 7},
			wantID:       "deep",
			wantLevel:    4,
			wantRawLevel: 7,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "level below one passes through",
			raw:          RawItem{ID: "zero", Level: 0},
			wantID:       "zero",
			wantLevel:    0,
			wantRawLevel: 0,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "missing level defaults to one",
			raw:          RawItem{ID: "nolevel"},
			wantID:       "nolevel",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "numeric string level is parsed",
			raw:          RawItem{ID: "s", Level: " 3 "},
			wantID:       "s",
			wantLevel:    3,
			wantRawLevel: 3,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "fractional level truncates",
			raw:          RawItem{ID: "f", Level: 2.9},
			wantID:       "f",
			wantLevel:    2,
			wantRawLevel: 2,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "non-array tags become empty",
			raw:          RawItem{ID: "t", Level: 1, Tags: "ai, dev", References: map[string]interface{}{"a": 1}},
			wantID:       "t",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
		},
		{
			name:         "scalar tag elements are formatted and composites dropped",
			raw:          RawItem{ID: "m", Level: 1, Tags: []interface{}{"3D", float64(2024), true, map[string]interface{}{"a": 1}, nil, "3D"}},
			wantID:       "m",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{"3D", "2024", "true"},
			wantRefs:     []string{},
		},
		{
			name:         "references kept in order",
			raw:          RawItem{ID: "r", Level: 1, References: []interface{}{"https://a", "https://b"}},
			wantID:       "r",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{"https://a", "https://b"},
		},
		{
			name: "object summary is flattened",
			raw: RawItem{ID: "o", Level: 1, Summary: map[string]interface{}{
				"one_liner":  "Graph tooling",
				"tech_stack": []interface{}{"Go", "React"},
			}},
			wantID:       "o",
			wantLevel:    1,
			wantRawLevel: 1,
			wantTags:     []string{},
			wantRefs:     []string{},
			wantSummary:  "one_liner: Graph tooling\ntech_stack: Go, React",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			n := NewNormalizer(config.DefaultDomainConfig(), zap.NewNop())

			// Act
			node := n.Normalize(tt.raw, 0)

			// Assert
			require.NotNil(t, node)
			assert.Equal(t, tt.wantID, node.ID().String())
			assert.Equal(t, tt.wantLevel, node.Level())
			assert.Equal(t, tt.wantRawLevel, node.RawLevel())
			assert.Equal(t, tt.wantTags, node.Tags().Values())
			assert.Equal(t, tt.wantRefs, node.References())
			assert.Equal(t, tt.wantSummary, node.Content().Summary())
		})
	}
}

func TestNormalizer_PositionalIDWhenNothingIdentifies(t *testing.T) {
	n := NewNormalizer(nil, nil)

	node := n.Normalize(RawItem{Name: "orphan"}, 3)

	require.NotNil(t, node)
	assert.Equal(t, "item-3", node.ID().String())
	assert.Equal(t, "orphan", node.Name())
}

func TestNormalizer_TitlePreferredOverName(t *testing.T) {
	n := NewNormalizer(nil, nil)

	titled := n.Normalize(RawItem{ID: "a", Title: "React Portfolio", Name: "ignored"}, 0)
	named := n.Normalize(RawItem{ID: "b", Name: "Fallback"}, 1)

	assert.Equal(t, "React Portfolio", titled.Name())
	assert.Equal(t, "Fallback", named.Name())
}

func TestNormalizer_BelowMinimumLevelIsFlaggedAndLogged(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	n := NewNormalizer(config.DefaultDomainConfig(), zap.New(core))

	// Act
	node := n.Normalize(RawItem{ID: "neg", Level: -2}, 0)

	// Assert
	assert.True(t, node.BelowMinimumLevel())
	assert.Equal(t, -2, node.Level())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "neg", logs.All()[0].ContextMap()["id"])
}

func TestNormalizer_FloorLevels(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.FloorLevels = true
	n := NewNormalizer(cfg, zap.NewNop())

	node := n.Normalize(RawItem{ID: "neg", Level: -2}, 0)

	assert.Equal(t, 1, node.Level())
	assert.Equal(t, -2, node.RawLevel())
	assert.False(t, node.BelowMinimumLevel())
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	// Arrange
	var raws []RawItem
	listing := `[
		{"id": "a", "level": 1, "tags": ["x"]},
		{"filename": "b.yaml", "level": "2", "tags": ["x"]},
		{"id": "a", "level": 3},
		{"id": "c", "tags": null}
	]`
	require.NoError(t, json.Unmarshal([]byte(listing), &raws))
	n := NewNormalizer(config.DefaultDomainConfig(), zap.NewNop())

	// Act
	result := n.NormalizeAll(raws)

	// Assert
	require.Len(t, result.Nodes, 3)
	assert.Equal(t, "a", result.Nodes[0].ID().String())
	assert.Equal(t, 1, result.Nodes[0].Level())
	assert.Equal(t, "b.yaml", result.Nodes[1].ID().String())
	assert.Equal(t, 2, result.Nodes[1].Level())
	assert.Equal(t, "c", result.Nodes[2].ID().String())
	assert.Empty(t, result.Nodes[2].Tags().Values())
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, DroppedItem{Position: 2, ID: "a", Reason: "duplicate id"}, result.Dropped[0])
}

func TestNormalizer_EmptyListing(t *testing.T) {
	n := NewNormalizer(nil, nil)

	result := n.NormalizeAll(nil)

	assert.NotNil(t, result.Nodes)
	assert.Empty(t, result.Nodes)
	assert.Empty(t, result.Dropped)
}
