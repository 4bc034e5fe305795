package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/engmung/portfolio-Nat/domain/config"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
)

// LinkSynthesizer infers links between nodes from shared tags and levels.
//
// Two nodes sharing at least one tag are linked when their display levels differ by
// exactly one. Nodes on the same level are linked only when they have no common parent,
// a parent of N being a node linked to N whose level is N.level+1. Level gaps larger
// than one never link.
type LinkSynthesizer struct {
	mode   config.SynthesisMode
	logger *zap.Logger
}

// NewLinkSynthesizer creates a synthesizer for the given mode
func NewLinkSynthesizer(mode config.SynthesisMode, logger *zap.Logger) *LinkSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode != config.ModeLegacy {
		mode = config.ModeDeterministic
	}
	return &LinkSynthesizer{mode: mode, logger: logger}
}

// Mode returns the active synthesis mode
func (s *LinkSynthesizer) Mode() config.SynthesisMode {
	return s.mode
}

// Synthesize returns the links for nodes. Empty input yields an empty, non-nil slice.
func (s *LinkSynthesizer) Synthesize(nodes []*entities.Node) []entities.Link {
	var links []entities.Link
	if s.mode == config.ModeLegacy {
		links = SynthesizeLegacy(nodes)
	} else {
		links = SynthesizeDeterministic(nodes)
	}

	s.logger.Debug("Links synthesized",
		zap.String("mode", string(s.mode)),
		zap.Int("nodes", len(nodes)),
		zap.Int("links", len(links)),
	)
	return links
}

// parentIndex tracks, per node, the linked nodes one level deeper
type parentIndex struct {
	levels  map[string]int
	parents map[string]map[string]struct{}
}

func newParentIndex(nodes []*entities.Node) *parentIndex {
	idx := &parentIndex{
		levels:  make(map[string]int, len(nodes)),
		parents: make(map[string]map[string]struct{}, len(nodes)),
	}
	for _, n := range nodes {
		idx.levels[n.ID().String()] = n.Level()
	}
	return idx
}

func (p *parentIndex) record(l entities.Link) {
	src, tgt := l.Source.String(), l.Target.String()
	if p.levels[tgt] == p.levels[src]+1 {
		p.add(src, tgt)
	}
	if p.levels[src] == p.levels[tgt]+1 {
		p.add(tgt, src)
	}
}

func (p *parentIndex) add(child, parent string) {
	set, ok := p.parents[child]
	if !ok {
		set = make(map[string]struct{})
		p.parents[child] = set
	}
	set[parent] = struct{}{}
}

func (p *parentIndex) shareParent(a, b string) bool {
	pa, pb := p.parents[a], p.parents[b]
	if len(pb) < len(pa) {
		pa, pb = pb, pa
	}
	for id := range pa {
		if _, ok := pb[id]; ok {
			return true
		}
	}
	return false
}

// SynthesizeLegacy visits every ordered pair (A, B) in input order and appends A→B as
// soon as the rules allow. The same-level rule only sees links appended earlier, so the
// result depends on input order, and mutually qualifying pairs appear in both directions.
func SynthesizeLegacy(nodes []*entities.Node) []entities.Link {
	links := []entities.Link{}
	parents := newParentIndex(nodes)

	for _, a := range nodes {
		for _, b := range nodes {
			if a.ID().Equals(b.ID()) {
				continue
			}
			common := a.CommonTags(b)
			if len(common) == 0 {
				continue
			}

			switch a.LevelValue().Diff(b.LevelValue()) {
			case 1:
			case 0:
				if parents.shareParent(a.ID().String(), b.ID().String()) {
					continue
				}
			default:
				continue
			}

			link := entities.NewLink(a.ID(), b.ID(), common)
			links = append(links, *link)
			parents.record(*link)
		}
	}

	return links
}

// SynthesizeDeterministic emits at most one link per unordered pair, independent of
// input order. Adjacent-level links are found first so the parent index is complete
// before any same-level pair is judged. Links run from the lower id to the higher id,
// carry the shared tags in the source's tag order and are sorted by that pair.
func SynthesizeDeterministic(nodes []*entities.Node) []entities.Link {
	ordered := make([]*entities.Node, len(nodes))
	copy(ordered, nodes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ID().Less(ordered[j].ID())
	})

	links := []entities.Link{}
	seen := make(map[entities.PairKey]struct{})
	parents := newParentIndex(ordered)

	emit := func(a, b *entities.Node, common []string) {
		key := entities.NewPairKey(a.ID(), b.ID())
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, *entities.NewLink(a.ID(), b.ID(), common))
	}

	for i, a := range ordered {
		for _, b := range ordered[i+1:] {
			if a.ID().Equals(b.ID()) || a.LevelValue().Diff(b.LevelValue()) != 1 {
				continue
			}
			if common := a.CommonTags(b); len(common) > 0 {
				emit(a, b, common)
			}
		}
	}

	for _, l := range links {
		parents.record(l)
	}

	for i, a := range ordered {
		for _, b := range ordered[i+1:] {
			if a.ID().Equals(b.ID()) || a.LevelValue().Diff(b.LevelValue()) != 0 {
				continue
			}
			common := a.CommonTags(b)
			if len(common) == 0 {
				continue
			}
			if parents.shareParent(a.ID().String(), b.ID().String()) {
				continue
			}
			emit(a, b, common)
		}
	}

	sort.SliceStable(links, func(i, j int) bool {
		ki, kj := links[i].Key(), links[j].Key()
		if ki.Low != kj.Low {
			return ki.Low < kj.Low
		}
		return ki.High < kj.High
	})

	return links
}
