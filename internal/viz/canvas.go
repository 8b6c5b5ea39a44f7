package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

const brailleBlank = 0x2800

// Dot bits for the 2x4 Braille cell, indexed [row][col].
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells, each holding 2x4 dots. Points are
// given in world metres and mapped through a frame set with Fit; north (+y)
// is up.
type Canvas struct {
	Width, Height int
	grid          [][]rune

	min, max r2.Vec
	scale    float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, grid: make([][]rune, h), scale: 1}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Fit frames the canvas on the bounding box of pts with a margin, keeping
// metres square.
func (c *Canvas) Fit(pts []r2.Vec, margin float64) {
	if len(pts) == 0 {
		return
	}
	lo, hi := pts[0], pts[0]
	for _, p := range pts[1:] {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	pad := r2.Vec{X: margin, Y: margin}
	c.min, c.max = r2.Sub(lo, pad), r2.Add(hi, pad)

	dx, dy := c.max.X-c.min.X, c.max.Y-c.min.Y
	sx := float64(c.Width*2-1) / math.Max(dx, 1e-9)
	sy := float64(c.Height*4-1) / math.Max(dy, 1e-9)
	c.scale = math.Min(sx, sy)
}

// dot converts world metres to sub-pixel coordinates.
func (c *Canvas) dot(p r2.Vec) (int, int) {
	x := int(math.Round((p.X - c.min.X) * c.scale))
	y := c.Height*4 - 1 - int(math.Round((p.Y-c.min.Y)*c.scale))
	return x, y
}

// Set lights the dot at sub-pixel (x, y). Out of range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Plot(p r2.Vec) {
	c.Set(c.dot(p))
}

func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = brailleBlank
		}
	}
}

// Line draws a segment between two world points with Bresenham.
func (c *Canvas) Line(a, b r2.Vec) {
	x0, y0 := c.dot(a)
	x1, y1 := c.dot(b)
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := -1, -1
	if x0 < x1 {
		sx = 1
	}
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
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

// Lit reports whether the dot at sub-pixel (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.grid[y/4][x/2]&pixelMap[y%4][x%2] != 0
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.grid {
		b.WriteString(string(row))
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
