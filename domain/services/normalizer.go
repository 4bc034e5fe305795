package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	"github.com/engmung/portfolio-Nat/domain/core/valueobjects"
)

// RawItem is a knowledge item as the store lists it. Fields are loosely typed because
// the store passes YAML-derived values through without coercion.
type RawItem struct {
	ID         interface{} `json:"id,omitempty" yaml:"id,omitempty"`
	Filename   interface{} `json:"filename,omitempty" yaml:"filename,omitempty"`
	Title      interface{} `json:"title,omitempty" yaml:"title,omitempty"`
	Name       interface{} `json:"name,omitempty" yaml:"name,omitempty"`
	Level      interface{} `json:"level,omitempty" yaml:"level,omitempty"`
	Tags       interface{} `json:"tags,omitempty" yaml:"tags,omitempty"`
	Content    interface{} `json:"content,omitempty" yaml:"content,omitempty"`
	Summary    interface{} `json:"summary,omitempty" yaml:"summary,omitempty"`
	References interface{} `json:"references,omitempty" yaml:"references,omitempty"`
}

// DroppedItem records an item that NormalizeAll skipped
type DroppedItem struct {
	Position int    `json:"position"`
	ID       string `json:"id"`
	Reason   string `json:"reason"`
}

// NormalizeResult is the outcome of normalizing a whole listing
type NormalizeResult struct {
	Nodes   []*entities.Node
	Dropped []DroppedItem
}

// Normalizer converts raw items into nodes. It never fails: malformed fields fall back
// to neutral values.
type Normalizer struct {
	maxLevel     int
	defaultLevel int
	floor        bool
	logger       *zap.Logger
}

// NewNormalizer creates a normalizer from the domain rules
func NewNormalizer(cfg *config.DomainConfig, logger *zap.Logger) *Normalizer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		maxLevel:     cfg.MaxDisplayLevel,
		defaultLevel: cfg.DefaultLevel,
		floor:        cfg.FloorLevels,
		logger:       logger,
	}
}

// Normalize converts one item. position is used only to name items that carry neither
// an id nor a filename.
func (n *Normalizer) Normalize(raw RawItem, position int) *entities.Node {
	id := scalarString(raw.ID)
	if id == "" {
		id = scalarString(raw.Filename)
	}
	if id == "" {
		id = fmt.Sprintf("item-%d", position)
	}

	name := scalarString(raw.Title)
	if name == "" {
		name = scalarString(raw.Name)
	}

	level := valueobjects.NewLevel(n.parseLevel(raw.Level), n.maxLevel, n.floor)

	node, err := entities.NewNode(entities.NodeParams{
		ID:         id,
		Filename:   scalarString(raw.Filename),
		Name:       name,
		Content:    textValue(raw.Content),
		Summary:    textValue(raw.Summary),
		Level:      level,
		Tags:       stringList(raw.Tags),
		References: stringList(raw.References),
	})
	if err != nil {
		// id is never blank here, so this only guards against future changes to NewNode
		n.logger.Error("Failed to build node", zap.String("id", id), zap.Error(err))
		return nil
	}

	if node.BelowMinimumLevel() {
		n.logger.Warn("Knowledge item level below 1",
			zap.String("id", id),
			zap.Int("level", node.Level()),
		)
	}

	return node
}

// NormalizeAll converts a listing, keeping the first item for each id
func (n *Normalizer) NormalizeAll(raws []RawItem) NormalizeResult {
	result := NormalizeResult{Nodes: make([]*entities.Node, 0, len(raws))}
	seen := make(map[string]struct{}, len(raws))

	for i, raw := range raws {
		node := n.Normalize(raw, i)
		if node == nil {
			continue
		}
		key := node.ID().String()
		if _, dup := seen[key]; dup {
			n.logger.Warn("Duplicate knowledge item id dropped",
				zap.String("id", key),
				zap.Int("position", i),
			)
			result.Dropped = append(result.Dropped, DroppedItem{Position: i, ID: key, Reason: "duplicate id"})
			continue
		}
		seen[key] = struct{}{}
		result.Nodes = append(result.Nodes, node)
	}

	return result
}

func (n *Normalizer) parseLevel(v interface{}) int {
	switch l := v.(type) {
	case nil:
		return n.defaultLevel
	case int:
		return l
	case int64:
		return int(l)
	case int32:
		return int(l)
	case uint64:
		return int(l)
	case float64:
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return n.defaultLevel
		}
		return int(l)
	case float32:
		return int(l)
	case json.Number:
		if i, err := l.Int64(); err == nil {
			return int(i)
		}
		if f, err := l.Float64(); err == nil {
			return int(f)
		}
	case string:
		s := strings.TrimSpace(l)
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int(f)
		}
	}
	return n.defaultLevel
}

// scalarString renders ids and names. Composite values yield "".
func scalarString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int, int32, int64, uint, uint32, uint64, bool, json.Number:
		return fmt.Sprint(s)
	default:
		return ""
	}
}

// stringList returns the elements of an array-like value. Anything else yields an
// empty list. Composite elements are dropped.
func stringList(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		out := make([]string, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, e := range list {
			if s := scalarString(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

// textValue renders content and summary fields. Objects become sorted "key: value"
// lines, lists are joined with ", ".
func textValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			if val := textValue(t[k]); val != "" {
				lines = append(lines, k+": "+val)
			}
		}
		return strings.Join(lines, "\n")
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := textValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(t, ", ")
	default:
		return scalarString(t)
	}
}
