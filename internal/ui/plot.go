package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"reachgraph/internal/domain"
)

type cell struct {
	text  string
	style *lipgloss.Style
}

type canvas struct {
	w, h  int
	cells [][]cell
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]cell, h)}
	for y := range c.cells {
		c.cells[y] = make([]cell, w)
		for x := range c.cells[y] {
			c.cells[y][x] = cell{text: " "}
		}
	}
	return c
}

func (c *canvas) set(x, y int, text string, style *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.cells[y][x] = cell{text: text, style: style}
}

func (c *canvas) free(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.w && y < c.h && (c.cells[y][x].text == " " || c.cells[y][x].text == SymbolSpoke)
}

// write places s starting at (x, y), clipped to the canvas
func (c *canvas) write(x, y int, s string, style *lipgloss.Style) {
	for i, r := range []rune(s) {
		c.set(x+i, y, string(r), style)
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for y, row := range c.cells {
		// Render runs of equally styled cells together
		var run strings.Builder
		var runStyle *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runStyle != nil {
				b.WriteString(runStyle.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for _, cl := range row {
			if cl.style != runStyle {
				flush()
				runStyle = cl.style
			}
			run.WriteString(cl.text)
		}
		flush()
		if y < len(c.cells)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Plot rasterises the snapshot onto a width x height character grid with
// the hub in the center and each spoke colored by status. Labels are drawn
// beside their node when there is room.
func Plot(snap domain.Snapshot, width, height int) string {
	if width < 3 || height < 3 {
		return ""
	}
	c := newCanvas(width, height)
	if snap.Len() == 0 {
		return c.String()
	}

	radius := 0.0
	for _, p := range snap.Positions {
		radius = math.Max(radius, p.Distance(domain.HubPosition))
	}
	if radius == 0 {
		radius = 1
	}

	cx, cy := (width-1)/2, (height-1)/2
	// Leave a margin so labels fit on the outermost nodes
	sx := float64(cx) * 0.7 / radius
	sy := float64(cy) * 0.85 / radius
	toGrid := func(p domain.Position) (int, int) {
		return cx + int(math.Round(p.X*sx)), cy - int(math.Round(p.Y*sy))
	}

	spokes := make([][2]int, len(snap.Positions))
	for i, p := range snap.Positions {
		x, y := toGrid(p)
		spokes[i] = [2]int{x, y}
	}

	for _, e := range snap.Edges {
		if e.To <= 0 || e.To >= len(spokes) {
			continue
		}
		line(c, spokes[e.From], spokes[e.To])
	}

	for i := 1; i < len(spokes); i++ {
		style := StatusStyle(snap.Colors[i])
		x, y := spokes[i][0], spokes[i][1]
		c.set(x, y, SymbolNode, &style)

		label := snap.Labels[i]
		if x >= cx {
			if c.free(x+2, y) {
				c.write(x+2, y, label, &mutedStyle)
			}
		} else if start := x - 1 - len([]rune(label)); c.free(start, y) {
			c.write(start, y, label, &mutedStyle)
		}
	}
	c.set(cx, cy, SymbolHub, &accentStyle)

	return c.String()
}

// line draws the dotted spoke between two grid points, excluding the ends
func line(c *canvas, from, to [2]int) {
	dx, dy := to[0]-from[0], to[1]-from[1]
	steps := max(abs(dx), abs(dy))
	for s := 1; s < steps; s++ {
		x := from[0] + int(math.Round(float64(dx*s)/float64(steps)))
		y := from[1] + int(math.Round(float64(dy*s)/float64(steps)))
		if c.cells[y][x].text == " " {
			c.set(x, y, SymbolSpoke, &mutedStyle)
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
