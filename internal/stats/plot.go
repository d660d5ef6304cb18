package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisLabelWidth      = 5
	axisWidth           = axisLabelWidth + 3
	terminalWidthBackup = 80
	thresholdMark       = '·'
)

// PlotScores renders values as a braille line plot. The vertical range
// always covers [0, 1] and widens to include out-of-range values. The row
// holding threshold is labelled and dotted where the line does not pass.
func PlotScores(w io.Writer, values []float64, threshold float64, width, height int) error {
	if len(values) == 0 {
		return nil
	}
	width = max(width, minPlotWidth)
	if height <= 0 {
		height = defaultPlotHeight
	}
	lo, hi := 0.0, 1.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	dotRows := height * 4
	cells := makeCells(height, width)
	prevX, prevY := -1, -1
	for x, v := range resampleSeries(values, width*2) {
		y := valueToRow(v, lo, hi, dotRows)
		if prevX >= 0 {
			drawLine(prevX, prevY, x, y, func(px, py int) {
				setBrailleDot(cells, px, py)
			})
		} else {
			setBrailleDot(cells, x, y)
		}
		prevX, prevY = x, y
	}

	thresholdRow := -1
	if threshold >= lo && threshold <= hi {
		thresholdRow = valueToRow(threshold, lo, hi, dotRows) / 4
	}
	for y := 0; y < height; y++ {
		label, axis := "", '│'
		switch y {
		case thresholdRow:
			label, axis = fmt.Sprintf("%.2f", threshold), '┤'
		case 0:
			label = fmt.Sprintf("%.2f", hi)
		case height - 1:
			label = fmt.Sprintf("%.2f", lo)
		}
		var row strings.Builder
		fmt.Fprintf(&row, "%*s %c ", axisLabelWidth, label, axis)
		for x := 0; x < width; x++ {
			if cells[y][x] == 0 && y == thresholdRow {
				row.WriteRune(thresholdMark)
				continue
			}
			row.WriteRune(brailleFromMask(cells[y][x]))
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%*s   %d casts, %c threshold\n\n", axisLabelWidth, "", len(values), thresholdMark)
	return err
}

// PlotWidthFor computes the plot width that fits within totalWidth columns.
// A non-positive totalWidth means the width of the terminal on stdout.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	return max(totalWidth-axisWidth, minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

// resampleSeries stretches or averages values onto width columns.
func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) >= width {
		for i := range out {
			start := i * len(values) / width
			end := max((i+1)*len(values)/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
		return out
	}
	if len(values) == 1 || width == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := range out {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(pos)
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

// valueToRow maps v onto dot rows, top row first.
func valueToRow(v, lo, hi float64, rows int) int {
	if rows <= 1 || hi-lo < 1e-9 {
		return 0
	}
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(rows-1)))
	return min(max(row, 0), rows-1)
}

// drawLine walks the Bresenham line between two dot coordinates.
func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// brailleDots maps a dot inside a 2x4 cell to its braille bit.
var brailleDots = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if x < 0 || y < 0 {
		return
	}
	cellY, cellX := y/4, x/2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDots[x%2][y%4]
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
