package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	appservices "github.com/engmung/portfolio-Nat/application/services"
	"github.com/engmung/portfolio-Nat/domain/core/aggregates"
	"github.com/engmung/portfolio-Nat/domain/core/entities"
	domainservices "github.com/engmung/portfolio-Nat/domain/services"
)

var (
	title  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	warn   = color.New(color.FgYellow)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
)

// loadListing reads a JSON or YAML array of knowledge items
func loadListing(path string) ([]domainservices.RawItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}

	var raws []domainservices.RawItem
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &raws)
	} else {
		// YAML is a superset of JSON, so other extensions go through it
		err = yaml.Unmarshal(data, &raws)
	}
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", path, err)
	}
	return raws, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func graphJSON(result *appservices.BuildResult) map[string]interface{} {
	links := make([]map[string]interface{}, 0, result.Graph.LinkCount())
	for _, l := range result.Graph.Links() {
		links = append(links, map[string]interface{}{
			"source":      l.Source.String(),
			"target":      l.Target.String(),
			"common_tags": l.CommonTags,
		})
	}
	nodes := make([]map[string]interface{}, 0, result.Graph.NodeCount())
	for _, n := range result.Graph.Nodes() {
		nodes = append(nodes, map[string]interface{}{
			"id":       n.ID().String(),
			"name":     n.Name(),
			"filename": n.Filename(),
			"level":    n.Level(),
			"tags":     n.Tags().Values(),
		})
	}
	return map[string]interface{}{
		"mode":    result.Mode,
		"nodes":   nodes,
		"links":   links,
		"stats":   result.Graph.Stats(),
		"dropped": result.Dropped,
	}
}

// table prints aligned columns with a dimmed header
func table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) string {
		var b strings.Builder
		b.WriteString("  ")
		for i, cell := range cells {
			fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
		}
		return strings.TrimRight(b.String(), " ")
	}

	fmt.Fprintln(w, subtle.Sprint(line(headers)))
	for _, row := range rows {
		fmt.Fprintln(w, line(row))
	}
}

func printBuild(w io.Writer, result *appservices.BuildResult) {
	g := result.Graph
	stats := g.Stats()

	fmt.Fprintf(w, "%s %d nodes, %d links (%s)\n\n", title.Sprint("graph"), stats.NodeCount, stats.LinkCount, result.Mode)

	rows := make([][]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		rows = append(rows, []string{n.ID().String(), n.Name(), fmt.Sprint(n.Level()), strings.Join(n.Tags().Values(), ","), fmt.Sprint(g.Degree(n.ID()))})
	}
	table(w, []string{"ID", "NAME", "LEVEL", "TAGS", "DEGREE"}, rows)
	fmt.Fprintln(w)

	rows = rows[:0]
	for i, l := range g.Links() {
		rows = append(rows, []string{fmt.Sprint(i), l.Source.String(), l.Target.String(), strings.Join(l.CommonTags, ",")})
	}
	table(w, []string{"#", "SOURCE", "TARGET", "SHARED"}, rows)
	fmt.Fprintln(w)

	levels := make([]int, 0, len(stats.LevelCounts))
	for level := range stats.LevelCounts {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	parts := make([]string, 0, len(levels))
	for _, level := range levels {
		parts = append(parts, fmt.Sprintf("L%d=%d", level, stats.LevelCounts[level]))
	}
	fmt.Fprintf(w, "%s clusters=%d isolated=%d max_degree=%d density=%.3f %s\n",
		subtle.Sprint("stats"), stats.ClusterCount, stats.IsolatedCount, stats.MaxDegree, stats.Density, strings.Join(parts, " "))

	for _, d := range result.Dropped {
		fmt.Fprintf(w, "%s item %d (%s): %s\n", warn.Sprint("dropped"), d.Position, d.ID, d.Reason)
	}
}

func printHighlight(w io.Writer, g *aggregates.Graph, h domainservices.Highlight) {
	if h.IsEmpty() {
		fmt.Fprintln(w, subtle.Sprint("nothing highlighted"))
		return
	}

	fmt.Fprintf(w, "%s %s\n", title.Sprint("hover"), h.Hovered.String())
	for _, id := range h.NodeIDs() {
		marker := "  "
		if id == h.Hovered.String() {
			marker = good.Sprint("* ")
		}
		fmt.Fprintf(w, "%s%s\n", marker, id)
	}
	for _, id := range h.LinkIDs() {
		if l, ok := g.Link(entities.LinkID(id)); ok {
			fmt.Fprintf(w, "  %s %s -- %s\n", subtle.Sprintf("link %d", id), l.Source.String(), l.Target.String())
		}
	}
}

func printClassification(w io.Writer, g *aggregates.Graph, classifier *domainservices.Classifier) {
	none := domainservices.Highlight{}
	rows := make([][]string, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		d := classifier.Classify(n, none)
		rows = append(rows, []string{n.ID().String(), fmt.Sprint(n.Level()), d.Color, fmt.Sprint(d.Size), d.Weight, d.LevelColor})
	}
	table(w, []string{"ID", "LEVEL", "COLOR", "SIZE", "WEIGHT", "LEVEL COLOR"}, rows)
}
