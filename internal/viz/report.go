package viz

import (
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/universe"
)

// Ranked returns the isotopes of comp by descending quantity, ties in
// universe order. A positive top keeps only the first top entries.
func Ranked(comp map[isotope.ID]float64, top int) []isotope.ID {
	ids := slices.SortedFunc(maps.Keys(comp), func(a, b isotope.ID) int {
		if comp[a] != comp[b] {
			if comp[a] > comp[b] {
				return -1
			}
			return 1
		}
		return universe.Compare(a, b)
	})
	if top > 0 && len(ids) > top {
		ids = ids[:top]
	}
	return ids
}

// Composition writes the top isotopes of comp with their share of the total.
func Composition(w io.Writer, title string, comp map[isotope.ID]float64, top int) error {
	total := 0.0
	for _, v := range comp {
		total += v
	}

	var b strings.Builder
	b.WriteString(Title.Render(title) + "\n")
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%-10s %14s %10s", "ISOTOPE", "QUANTITY", "FRACTION")) + "\n")
	ranked := Ranked(comp, top)
	for _, id := range ranked {
		frac := 0.0
		if total != 0 {
			frac = comp[id] / total
		}
		line := fmt.Sprintf("%-10s %14.6e %9.4f%%", id, comp[id], 100*frac)
		if comp[id] < 0 {
			line = Warning.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if rest := len(comp) - len(ranked); rest > 0 {
		b.WriteString(Subtle.Render(fmt.Sprintf("... %d more", rest)) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Metrics writes metric values sorted by name.
func Metrics(w io.Writer, metrics map[string]float64) error {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(metrics)) {
		b.WriteString(MetricLabel.Render(name) + MetricValue.Render(fmt.Sprintf("%.6g", metrics[name])) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Trajectory plots series as a line chart. Non-finite points are plotted
// as zero.
func Trajectory(series []float64, caption string) string {
	if len(series) == 0 {
		return Subtle.Render("no data")
	}
	data := make([]float64, len(series))
	for i, v := range series {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			data[i] = v
		}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption))
}
