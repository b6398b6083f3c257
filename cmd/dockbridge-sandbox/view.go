package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/dockbridge/network"
	"github.com/lixenwraith/dockbridge/parameter"
)

var (
	styleDefault = tcell.StyleDefault
	styleFrame   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleDock    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleDocked  = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true)
	stylePipe    = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleCable   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleLinked  = tcell.StyleDefault.Foreground(tcell.ColorLime)
	styleError   = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

var errNotTerminal = errors.New("view needs an interactive terminal, use run or snapshot instead")

// cellWidth spreads tiles horizontally so the board reads square
const cellWidth = 2

func viewScenario(cmd *cobra.Command, args []string) error {
	// The screen owns the terminal, logs and spans are discarded
	s, err := openSession(args[0], io.Discard)
	if err != nil {
		return err
	}
	defer s.close()

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errNotTerminal
	}
	if httpAddr != "" {
		if err := s.serve(httpAddr); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	v := &viewer{screen: screen, s: s}
	s.mu.Lock()
	v.draw()
	s.mu.Unlock()

	ticker := time.NewTicker(parameter.TickInterval)
	defer ticker.Stop()
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-ticker.C:
				_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
			case <-done:
				return
			}
		}
	}()

	for {
		ev := screen.PollEvent()
		if ev == nil {
			return nil
		}
		s.mu.Lock()
		quit := v.handle(ev)
		s.mu.Unlock()
		if quit {
			return nil
		}
	}
}

type viewer struct {
	screen   tcell.Screen
	s        *session
	status   string
	err      error
	autoplay bool
}

// handle applies one screen event, returns true to quit
func (v *viewer) handle(ev tcell.Event) bool {
	r := v.s.runner
	switch ev := ev.(type) {
	case *tcell.EventInterrupt:
		if !v.autoplay {
			return false
		}
		v.step()
		v.autoplay = !r.Done() && v.err == nil
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC, ev.Rune() == 'q':
			return true
		case ev.Key() == tcell.KeyEnter, ev.Rune() == ' ', ev.Rune() == 'n':
			v.step()
		case ev.Rune() == 'p':
			v.autoplay = !v.autoplay
			v.status = fmt.Sprintf("autoplay %t", v.autoplay)
		case ev.Rune() == 'r':
			r.System.RefreshAll()
			v.status = "refreshed"
		case ev.Rune() == 's':
			r.System.Sweep()
			v.status = "swept"
		case ev.Rune() == 't':
			r.World.Tick()
			v.status = fmt.Sprintf("tick %d", r.World.FrameNumber())
		}
	default:
		return false
	}
	v.draw()
	return false
}

func (v *viewer) step() {
	r := v.s.runner
	if r.Done() {
		v.status = "scenario finished"
		return
	}
	st := r.Scenario.Steps[r.Position()]
	_, v.err = r.Next()
	v.status = "step: " + describeStep(st)
}

func (v *viewer) draw() {
	sc := v.screen
	sc.Clear()
	r := v.s.runner
	l := newLayout(r)

	v.text(0, 0, styleDock, fmt.Sprintf("%s  [space] step  [p] autoplay  [r] refresh  [s] sweep  [t] tick  [q] quit", r.Scenario.Name))

	top := 2
	for _, p := range l.panels {
		x0 := p.offset * cellWidth
		v.text(x0, top, styleFrame, p.name)
		for row := 0; row < p.height(); row++ {
			for col := 0; col < p.width(); col++ {
				sc.SetContent(x0+col*cellWidth, top+1+row, '.', nil, styleFrame)
			}
		}
	}

	for _, ln := range l.links(r) {
		v.link(ln, top+1)
	}

	for _, m := range l.marks(r) {
		x, y := m.col*cellWidth, top+1+m.row
		switch {
		case m.dock && m.docked:
			sc.SetContent(x, y, facingGlyph(m.facing), nil, styleDocked)
		case m.dock:
			sc.SetContent(x, y, facingGlyph(m.facing), nil, styleDock)
		default:
			sc.SetContent(x+1, y, nodeGlyph(m.kind), nil, nodeStyle(m.kind, m.linked))
		}
	}

	y := top + l.rows + 2
	for _, line := range strings.Split(strings.TrimRight(r.System.DebugSummary(), "\n"), "\n") {
		v.text(0, y, styleDefault, line)
		y++
	}
	if v.status != "" {
		v.text(0, y+1, styleDefault, v.status)
	}
	if v.err != nil {
		v.text(0, y+2, styleError, v.err.Error())
	}
	sc.Show()
}

// link draws a straight run of dashes between two cells on the same row,
// cross-row links only mark their endpoints
func (v *viewer) link(ln link, top int) {
	if ln.from[1] != ln.to[1] {
		return
	}
	a, b := ln.from[0], ln.to[0]
	if a > b {
		a, b = b, a
	}
	style := nodeStyle(ln.kind, true)
	for x := a*cellWidth + 2; x < b*cellWidth+1; x++ {
		v.screen.SetContent(x, top+ln.from[1], '-', nil, style)
	}
}

func (v *viewer) text(x, y int, style tcell.Style, s string) {
	for i, ch := range s {
		v.screen.SetContent(x+i, y, ch, nil, style)
	}
}

func nodeGlyph(k network.Kind) rune {
	if k == network.KindCable {
		return '#'
	}
	return 'o'
}

func nodeStyle(k network.Kind, linked bool) tcell.Style {
	if linked {
		return styleLinked
	}
	if k == network.KindCable {
		return styleCable
	}
	return stylePipe
}
