package viz

import (
	"math"
	"strings"
)

// Braille cells are 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
//
// Unicode offset 0x2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel canvas. A Width x Height cell canvas holds
// 2*Width x 4*Height pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the pixel at (x, y). Out of range pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Clear resets every cell to the empty braille glyph.
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
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
			return
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

// Profile draws a temperature-pressure profile: temperature runs left to
// right over [tMin, tMax], log pressure runs top (lowest pressure) to
// bottom. Layers are joined by straight segments.
func (c *Canvas) Profile(pressure, temperature []float64, tMin, tMax float64) {
	n := min(len(pressure), len(temperature))
	if n == 0 {
		return
	}
	pxW, pxH := 2*c.Width-1, 4*c.Height-1
	top, bottom := math.Log(pressure[n-1]), math.Log(pressure[0])
	span := bottom - top
	tSpan := tMax - tMin
	if tSpan <= 0 {
		tSpan = 1
	}

	project := func(i int) (int, int) {
		x := int(math.Round((temperature[i] - tMin) / tSpan * float64(pxW)))
		y := pxH / 2
		if span > 0 {
			y = int(math.Round((math.Log(pressure[i]) - top) / span * float64(pxH)))
		}
		return x, y
	}

	x0, y0 := project(0)
	c.Set(x0, y0)
	for i := 1; i < n; i++ {
		x1, y1 := project(i)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
