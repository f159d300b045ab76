// Package export writes frames and series as standalone SVG images.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG draws every painted canvas cell as a colored dot. Cells are
// scale wide and twice as tall, matching their terminal proportions.
func CanvasToSVG(w io.Writer, canvas *viz.Canvas, scale float64) error {
	if canvas == nil {
		return fmt.Errorf("export: nil canvas")
	}
	cw, ch := scale, scale*2
	width := float64(canvas.Width) * cw
	height := float64(canvas.Height) * ch

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)

	radius := scale * 0.45
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			c, ok := canvas.At(col, row)
			if !ok {
				continue
			}
			fill := c.Hex()
			if c == color.Black {
				fill = "#222222"
			}
			cx := float64(col)*cw + cw/2
			cy := float64(row)*ch + ch/2
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx, cy, radius, fill)
		}
	}
	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// CurveToSVG plots values against their index as a polyline, padded by a
// tenth of the value range.
func CurveToSVG(w io.Writer, values []float64, width, height int, stroke string) error {
	if len(values) < 2 {
		return fmt.Errorf("export: need at least 2 values, got %d", len(values))
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = min(minY, v)
		maxY = max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	rangeX := float64(len(values) - 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, background, stroke)

	for i, v := range values {
		x := float64(i) / rangeX * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
