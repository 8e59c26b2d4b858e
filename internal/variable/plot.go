package variable

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const (
	plotWidth = 60
	plotLabel = 20
)

// ASCIIPlot renders xs against ys as text with the value axis running
// horizontally, one row per support point.
func ASCIIPlot(xs, ys []float64, title string, marker byte) string {
	if len(xs) != len(ys) || len(ys) == 0 {
		return ""
	}

	lo, hi := floats.Min(ys), floats.Max(ys)
	if lo == hi {
		lo, hi = lo-0.2*abs(lo), hi+0.2*abs(hi)
		if lo == hi {
			lo, hi = lo-1, hi+1
		}
	}

	var b strings.Builder
	pad := strings.Repeat(" ", plotLabel)
	if title != "" {
		fmt.Fprintf(&b, "%s|%s\n", pad, title)
	}
	fmt.Fprintf(&b, "%s|%-*g%g\n", pad, plotWidth-len(fmt.Sprint(hi)), lo, hi)
	fmt.Fprintf(&b, "%s|%s\n", strings.Repeat("_", plotLabel), strings.Repeat("_", plotWidth))

	row := make([]byte, plotWidth)
	for i, x := range xs {
		for j := range row {
			row[j] = ' '
		}
		row[int(float64(plotWidth-1)*(ys[i]-lo)/(hi-lo))] = marker

		label := fmt.Sprint(x)
		if len(label) > plotLabel {
			label = label[:plotLabel]
		}
		fmt.Fprintf(&b, "%*s|%s\n", plotLabel, label, row)
	}
	return b.String()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Plot renders the variable's PMF with ASCIIPlot.
func (q *quantitative) Plot() string {
	return ASCIIPlot(q.x, q.pdf, q.name, '|')
}
