package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/treelights/internal/color"
)

const (
	glyphLit  = "●"
	glyphDark = "·"
)

type cell struct {
	set bool
	c   color.RGB
}

// Canvas is a grid of terminal cells, one LED color per cell.
type Canvas struct {
	Width, Height int
	grid          [][]cell
}

func NewCanvas(w, h int) *Canvas {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	c := &Canvas{Width: w, Height: h, grid: make([][]cell, h)}
	for i := range c.grid {
		c.grid[i] = make([]cell, w)
	}
	return c
}

// Set paints the cell at column x, row y. Later writes win, except that an
// unlit LED never covers a lit one.
func (c *Canvas) Set(x, y int, col color.RGB) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return
	}
	cur := &c.grid[y][x]
	if col == color.Black && cur.set && cur.c != color.Black {
		return
	}
	cur.set, cur.c = true, col
}

// At returns the color at (x, y) and whether anything was drawn there.
func (c *Canvas) At(x, y int) (color.RGB, bool) {
	if x < 0 || y < 0 || x >= c.Width || y >= c.Height {
		return color.Black, false
	}
	cl := c.grid[y][x]
	return cl.c, cl.set
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = cell{}
		}
	}
}

// Lit counts cells holding a non-black color.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.grid {
		for _, cl := range row {
			if cl.set && cl.c != color.Black {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		for _, cl := range row {
			switch {
			case !cl.set:
				b.WriteByte(' ')
			case cl.c == color.Black:
				b.WriteString(dimStyle.Render(glyphDark))
			default:
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(cl.c.Hex())).Render(glyphLit))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
