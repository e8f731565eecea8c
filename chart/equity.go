// Package chart renders equity curves as standalone SVG documents.
package chart

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"iter"

	"github.com/rustyeddy/sigbt/backtest"
)

const (
	Width  = 900
	Height = 300

	padX = 80
	padY = 60
)

type point struct{ x, y float64 }

// EquitySVG draws the balance after each fill as a step-free polyline with
// time on the x axis. Points may be empty, in which case only the frame and
// title are drawn.
func EquitySVG(w io.Writer, points iter.Seq[backtest.EquityPoint], title string) error {
	var line []point
	for p := range points {
		y, _ := p.Balance.Float64()
		line = append(line, point{x: float64(p.Time.Unix()), y: y})
	}

	plotW, plotH := float64(Width-padX), float64(Height-padY)

	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>", Width, Height, Width, Height)
	b.WriteString("<rect width='100%' height='100%' fill='#0b0f17'/>")
	b.WriteString("<g transform='translate(40,20)'>")
	fmt.Fprintf(b, "<line x1='0' y1='0' x2='0' y2='%d' stroke='#1f2837'/>", Height-padY)
	fmt.Fprintf(b, "<line x1='0' y1='%d' x2='%d' y2='%d' stroke='#1f2837'/>", Height-padY, Width-padX, Height-padY)

	if len(line) > 0 {
		minx, maxx := line[0].x, line[len(line)-1].x
		miny, maxy := line[0].y, line[0].y
		for _, p := range line {
			miny = min(miny, p.y)
			maxy = max(maxy, p.y)
		}
		sx := plotW / (maxx - minx + 1e-9)
		sy := plotH / (maxy - miny + 1e-9)

		b.WriteString("<polyline fill='none' stroke='#59a6ff' stroke-width='1.5' points='")
		for i, p := range line {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%.2f,%.2f", (p.x-minx)*sx, plotH-(p.y-miny)*sy)
		}
		b.WriteString("'/>")

		fmt.Fprintf(b, "<text x='4' y='12' fill='#8b949e' font-family='Inter' font-size='11'>%.2f</text>", maxy)
		fmt.Fprintf(b, "<text x='4' y='%.0f' fill='#8b949e' font-family='Inter' font-size='11'>%.2f</text>", plotH-4, miny)
	}

	b.WriteString("</g>")
	fmt.Fprintf(b, "<text x='16' y='18' fill='#e6edf3' font-family='Inter' font-size='14'>%s</text>", html.EscapeString(title))
	b.WriteString("</svg>\n")
	return b.Flush()
}
