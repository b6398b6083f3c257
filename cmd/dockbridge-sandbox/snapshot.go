package main

import (
	"fmt"
	"io"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/dockbridge/core"
	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/scenario"
)

const (
	tilePx   = 48
	marginPx = 32
	headerPx = 24
)

func snapshotScenario(cmd *cobra.Command, args []string) error {
	s, err := openSession(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	r := s.runner
	for stepLimit < 0 || r.Position() < stepLimit {
		more, err := r.Next()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	if err := renderPNG(r, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s after %d steps\n", args[1], r.Position())
	return nil
}

// renderPNG draws every grid panel, its docks and node owners, and the live edges between them
func renderPNG(r *scenario.Runner, path string) error {
	dc := drawSnapshot(r)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// writePNG encodes the snapshot to w
func writePNG(r *scenario.Runner, w io.Writer) error {
	return drawSnapshot(r).EncodePNG(w)
}

func drawSnapshot(r *scenario.Runner) *gg.Context {
	l := newLayout(r)
	width := max(l.cols-panelGap, 1)*tilePx + 2*marginPx
	height := max(l.rows, 1)*tilePx + 2*marginPx + headerPx

	dc := gg.NewContext(width, height)
	dc.SetRGB(0.08, 0.09, 0.11)
	dc.Clear()

	center := func(col, row int) (float64, float64) {
		return float64(marginPx + col*tilePx + tilePx/2), float64(marginPx + headerPx + row*tilePx + tilePx/2)
	}

	dc.SetLineWidth(1)
	for _, p := range l.panels {
		x0 := float64(marginPx + p.offset*tilePx)
		y0 := float64(marginPx + headerPx)
		dc.SetRGB(0.6, 0.6, 0.65)
		dc.DrawString(p.name, x0, y0-8)
		for row := 0; row < p.height(); row++ {
			for col := 0; col < p.width(); col++ {
				dc.DrawRectangle(x0+float64(col*tilePx), y0+float64(row*tilePx), tilePx, tilePx)
			}
		}
		dc.SetRGBA(0.6, 0.6, 0.65, 0.35)
		dc.Stroke()
	}

	dc.SetLineWidth(3)
	for _, ln := range l.links(r) {
		x1, y1 := center(ln.from[0], ln.from[1])
		x2, y2 := center(ln.to[0], ln.to[1])
		setKindColor(dc, ln.kind, 0.9)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}

	for _, m := range l.marks(r) {
		x, y := center(m.col, m.row)
		if m.dock {
			// Triangle points along the dock's facing, north is up
			rot := float64(core.Facing(m.facing))
			if m.docked {
				dc.SetRGB(0.3, 0.9, 0.4)
			} else {
				dc.SetRGB(0.85, 0.85, 0.9)
			}
			dc.DrawRegularPolygon(3, x, y, tilePx*0.35, rot)
			dc.Fill()
			continue
		}
		setKindColor(dc, m.kind, 1)
		dc.DrawCircle(x, y, tilePx*0.2)
		if m.linked {
			dc.Fill()
		} else {
			dc.SetLineWidth(2)
			dc.Stroke()
		}
	}

	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawString(fmt.Sprintf("%s  edges=%d  pairs=%d", r.Scenario.Name, r.System.LiveEdges(), len(r.System.DockedPairs())),
		marginPx, marginPx-10)
	return dc
}

func setKindColor(dc *gg.Context, k network.Kind, alpha float64) {
	if k == network.KindCable {
		dc.SetRGBA(0.95, 0.8, 0.2, alpha)
		return
	}
	dc.SetRGBA(0.25, 0.75, 0.95, alpha)
}
