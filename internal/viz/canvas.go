package viz

import (
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// NoInk marks a cell nothing has been drawn in.
const NoInk = -1

// Canvas is a grid of braille cells. Each cell also remembers the ink of the last
// dot set in it so a renderer can color whole cells.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Ink           [][]int
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Ink:    make([][]int, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Ink[i] = make([]int, w)
	}
	c.Clear()
	return c
}

// PixelSize is the canvas size in sub-pixels.
func (c *Canvas) PixelSize() (int, int) {
	return c.Width * 2, c.Height * 4
}

// Set sets the sub-pixel at (x, y) with the given ink.
func (c *Canvas) Set(x, y, ink int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Ink[row][col] = ink
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Ink[i][j] = NoInk
		}
	}
}

// DrawDisc fills a disc of radius r sub-pixels centered on (cx, cy). A disc smaller
// than one sub-pixel still sets its center.
func (c *Canvas) DrawDisc(cx, cy, r, ink int) {
	if r <= 0 {
		c.Set(cx, cy, ink)
		return
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Set(cx+dx, cy+dy, ink)
			}
		}
	}
}

// DrawRect outlines the rectangle between two corners.
func (c *Canvas) DrawRect(x0, y0, x1, y1, ink int) {
	c.DrawLine(x0, y0, x1, y0, ink)
	c.DrawLine(x1, y0, x1, y1, ink)
	c.DrawLine(x1, y1, x0, y1, ink)
	c.DrawLine(x0, y1, x0, y0, ink)
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1, ink int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	return c.Render(nil)
}

// Render joins the rows, passing every run of same-ink cells through paint when it
// is non-nil.
func (c *Canvas) Render(paint func(ink int, s string) string) string {
	var b strings.Builder
	for i, row := range c.Grid {
		if paint == nil {
			b.WriteString(string(row))
			b.WriteByte('\n')
			continue
		}
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.Ink[i][j] == c.Ink[i][start] {
				continue
			}
			b.WriteString(paint(c.Ink[i][start], string(row[start:j])))
			start = j
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
