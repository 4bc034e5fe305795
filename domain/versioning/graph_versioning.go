package versioning

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"lukechampine.com/blake3"

	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
)

// GraphVersion identifies one published graph snapshot
type GraphVersion struct {
	Generation uint64    `json:"generation"`
	Checksum   string    `json:"checksum"`
	NodeCount  int       `json:"node_count"`
	LinkCount  int       `json:"link_count"`
	Mode       string    `json:"mode"`
	BuiltAt    time.Time `json:"built_at"`
}

// ETag returns a strong HTTP entity tag derived from the content checksum
func (v GraphVersion) ETag() string {
	if len(v.Checksum) > 32 {
		return `"` + v.Checksum[:32] + `"`
	}
	return `"` + v.Checksum + `"`
}

// GraphDiff lists what changed between two snapshots
type GraphDiff struct {
	AddedNodes   []string `json:"added_nodes"`
	RemovedNodes []string `json:"removed_nodes"`
	AddedLinks   []string `json:"added_links"`
	RemovedLinks []string `json:"removed_links"`
}

// IsEmpty reports whether the snapshots are structurally equal
func (d GraphDiff) IsEmpty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 &&
		len(d.AddedLinks) == 0 && len(d.RemovedLinks) == 0
}

// VersioningService stamps snapshots with content checksums
type VersioningService struct {
	clock func() time.Time
}

// NewVersioningService creates a new versioning service
func NewVersioningService() *VersioningService {
	return &VersioningService{clock: time.Now}
}

// CreateVersion stamps graph with generation. The checksum covers content only, so two
// generations built from identical listings share a checksum.
func (s *VersioningService) CreateVersion(graph *aggregates.Graph, generation uint64, mode string) (*GraphVersion, error) {
	if graph == nil {
		return nil, fmt.Errorf("graph cannot be nil")
	}

	return &GraphVersion{
		Generation: generation,
		Checksum:   Checksum(graph),
		NodeCount:  graph.NodeCount(),
		LinkCount:  graph.LinkCount(),
		Mode:       mode,
		BuiltAt:    s.clock().UTC(),
	}, nil
}

// Checksum hashes the canonical form of graph with BLAKE3
func Checksum(graph *aggregates.Graph) string {
	h := blake3.New(32, nil)

	for _, n := range graph.Nodes() {
		fmt.Fprintf(h, "N\x00%s\x00%d\x00%d\x00%s\x00%s\x00%s\x00%s\n",
			n.ID(), n.Level(), n.RawLevel(),
			strings.Join(n.Tags().Values(), "\x01"),
			n.Name(), n.Content().Summary(), n.Content().Body())
	}
	for i, l := range graph.Links() {
		fmt.Fprintf(h, "L\x00%d\x00%s\x00%s\x00%s\n",
			i, l.Source, l.Target, strings.Join(l.CommonTags, "\x01"))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Diff compares node ids and unordered link pairs of two graphs. A nil previous graph
// counts as empty.
func (s *VersioningService) Diff(previous, current *aggregates.Graph) GraphDiff {
	if previous == nil {
		previous = aggregates.EmptyGraph()
	}
	if current == nil {
		current = aggregates.EmptyGraph()
	}

	oldNodes, newNodes := nodeSet(previous), nodeSet(current)
	oldLinks, newLinks := pairSet(previous), pairSet(current)

	return GraphDiff{
		AddedNodes:   minus(newNodes, oldNodes),
		RemovedNodes: minus(oldNodes, newNodes),
		AddedLinks:   minus(newLinks, oldLinks),
		RemovedLinks: minus(oldLinks, newLinks),
	}
}

func nodeSet(g *aggregates.Graph) map[string]struct{} {
	out := make(map[string]struct{}, g.NodeCount())
	for _, n := range g.Nodes() {
		out[n.ID().String()] = struct{}{}
	}
	return out
}

func pairSet(g *aggregates.Graph) map[string]struct{} {
	out := make(map[string]struct{}, g.LinkCount())
	for _, l := range g.Links() {
		out[pairLabel(l.Key())] = struct{}{}
	}
	return out
}

func pairLabel(k entities.PairKey) string {
	return strconv.Quote(k.Low) + "<->" + strconv.Quote(k.High)
}

func minus(a, b map[string]struct{}) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
