// Package termhost shows an element tree on a tcell screen and turns
// terminal input into arbor events.
//
// Input is read on a polling goroutine and pushed into an event.Queue; the
// goroutine calling Run owns the arena and dispatches through an
// event.Pump, re-rendering and redrawing after every event.
package termhost

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/go-drift/arbor/pkg/attr"
	"github.com/go-drift/arbor/pkg/core"
	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/event"
)

// Key is the Data of key events.
type Key struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
	Name string
}

// Pointer is the Data of pointer events. X and Y are screen cells.
type Pointer struct {
	X, Y    int
	Buttons tcell.ButtonMask
}

// Size is the Data of resize events.
type Size struct {
	Width, Height int
}

type row struct {
	handle core.Handle
	depth  int
	label  string
	style  tcell.Style
}

// Host binds a screen, an arena tree and an event queue.
type Host struct {
	screen tcell.Screen
	arena  *core.Arena
	root   *core.Element
	queue  *event.Queue
	logger *slog.Logger

	mu     sync.Mutex
	rows   []row
	focus  int
	offset int
}

// New creates a host drawing root on screen. The screen must already be
// initialized. The host installs navigation listeners on root: Tab and the
// arrow keys move the focus, a click focuses the clicked row.
func New(screen tcell.Screen, arena *core.Arena, root *core.Element, q *event.Queue) *Host {
	h := &Host{
		screen: screen,
		arena:  arena,
		root:   root,
		queue:  q,
		logger: arena.Logger(),
	}
	root.AddListener(core.EventKey, h.onKey)
	root.AddListener(core.EventPointer, h.onPointer)
	return h
}

// Focus returns the focused element, or root when nothing else is focused.
func (h *Host) Focus() *core.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, err := h.arena.Resolve(h.focusHandleLocked()); err == nil {
		return e
	}
	return h.root
}

func (h *Host) focusHandleLocked() core.Handle {
	if h.focus >= 0 && h.focus < len(h.rows) {
		return h.rows[h.focus].handle
	}
	return h.root.Handle()
}

// Translate converts a terminal event into an arbor event. Key events
// target the focused element, pointer events the element on the clicked
// row, resize and focus events the root. Other events are ignored.
func (h *Host) Translate(tev tcell.Event) (core.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch tev := tev.(type) {
	case *tcell.EventKey:
		return core.Event{
			Type:   core.EventKey,
			Target: h.focusHandleLocked(),
			Time:   tev.When(),
			Data:   Key{Key: tev.Key(), Rune: tev.Rune(), Mod: tev.Modifiers(), Name: tev.Name()},
		}, true
	case *tcell.EventMouse:
		if tev.Buttons() == tcell.ButtonNone {
			return core.Event{}, false
		}
		x, y := tev.Position()
		target := h.root.Handle()
		if i := y + h.offset; y >= 0 && i < len(h.rows) {
			target = h.rows[i].handle
		}
		return core.Event{
			Type:   core.EventPointer,
			Target: target,
			Time:   tev.When(),
			Data:   Pointer{X: x, Y: y, Buttons: tev.Buttons()},
		}, true
	case *tcell.EventResize:
		w, ht := tev.Size()
		return core.Event{Type: core.EventResize, Target: h.root.Handle(), Time: tev.When(), Data: Size{Width: w, Height: ht}}, true
	case *tcell.EventFocus:
		return core.Event{Type: core.EventFocus, Target: h.root.Handle(), Data: tev.Focused}, true
	}
	return core.Event{}, false
}

func quits(tev tcell.Event) bool {
	k, ok := tev.(*tcell.EventKey)
	if !ok {
		return false
	}
	return k.Key() == tcell.KeyEscape || k.Key() == tcell.KeyCtrlC ||
		(k.Key() == tcell.KeyRune && k.Rune() == 'q')
}

// Run draws the tree and processes input until Escape, Ctrl-C or q is
// pressed, the screen is finalized, or ctx ends.
func (h *Host) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := h.Refresh(); err != nil {
		h.logger.Warn("initial render failed", slog.Any("error", err))
	}
	go h.poll(ctx)

	pump := event.NewPump(h.arena, h.queue, event.WithAfter(func(ev *core.Event, _ int) {
		if ev.Type == core.EventResize {
			h.screen.Sync()
		}
		if err := h.Refresh(); err != nil {
			h.logger.Debug("render after event failed", slog.String("type", string(ev.Type)), slog.Any("error", err))
		}
	}))
	return pump.Run(ctx)
}

func (h *Host) poll(ctx context.Context) {
	defer h.queue.Close()
	for {
		tev := h.screen.PollEvent()
		if tev == nil || quits(tev) {
			return
		}
		ev, ok := h.Translate(tev)
		if !ok {
			continue
		}
		if err := h.queue.Push(ctx, ev); err != nil {
			return
		}
	}
}

// Refresh renders the tree, lays it out one element per row and draws it.
// A render failure is reported and the tree is drawn as it stands.
func (h *Host) Refresh() error {
	err := h.arena.Render(h.root)
	if err != nil {
		errors.ReportErr("termhost.Refresh", err)
	}
	h.layout()
	h.draw()
	return err
}

func (h *Host) layout() {
	var rows []row
	h.root.Walk(func(e *core.Element) bool {
		vis, _ := core.ResolveAttr[attr.Visibility](e)
		if vis == attr.Collapsed {
			return false
		}
		r := row{handle: e.Handle(), depth: e.Depth() - h.root.Depth(), style: styleOf(e)}
		if vis != attr.Hidden {
			r.label = label(e)
		}
		rows = append(rows, r)
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	focused := h.focusHandleLocked()
	h.rows = rows
	h.focus = 0
	for i, r := range rows {
		if r.handle == focused {
			h.focus = i
			break
		}
	}
}

func label(e *core.Element) string {
	if e.Tag() == core.TextTag {
		return e.Text()
	}
	var sb strings.Builder
	sb.WriteString("<" + e.Tag())
	if e.Key() != "" {
		sb.WriteString(" #" + e.Key())
	}
	for _, s := range e.Styles() {
		sb.WriteString(" ." + s.Name())
	}
	sb.WriteString(">")
	return sb.String()
}

func styleOf(e *core.Element) tcell.Style {
	st := tcell.StyleDefault
	if fg, err := core.ResolveAttr[attr.Foreground](e); err == nil {
		st = st.Foreground(tcellColor(attr.Color(fg)))
	}
	if bg, err := core.ResolveAttr[attr.Background](e); err == nil {
		st = st.Background(tcellColor(attr.Color(bg)))
	}
	if w, err := core.ResolveAttr[attr.FontWeight](e); err == nil && w >= attr.FontWeightSemibold {
		st = st.Bold(true)
	}
	return st
}

func tcellColor(c attr.Color) tcell.Color {
	if c.Alpha() == 0 {
		return tcell.ColorDefault
	}
	r, g, b := c.RGB8()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func (h *Host) draw() {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ht := h.screen.Size()
	if ht <= 0 {
		return
	}
	switch {
	case h.focus < h.offset:
		h.offset = h.focus
	case h.focus >= h.offset+ht:
		h.offset = h.focus - ht + 1
	}

	h.screen.Clear()
	for y := 0; y < ht && y+h.offset < len(h.rows); y++ {
		r := h.rows[y+h.offset]
		st := r.style
		if y+h.offset == h.focus {
			st = st.Reverse(true)
		}
		x := 2 * r.depth
		for _, ch := range r.label {
			if x >= w {
				break
			}
			h.screen.SetContent(x, y, ch, nil, st)
			x++
		}
	}
	h.screen.Show()
}

func (h *Host) onKey(ev *core.Event) {
	k, ok := ev.Data.(Key)
	if !ok {
		return
	}
	switch k.Key {
	case tcell.KeyTab, tcell.KeyDown:
		h.moveFocus(1)
	case tcell.KeyBacktab, tcell.KeyUp:
		h.moveFocus(-1)
	case tcell.KeyHome:
		h.setFocus(0)
	default:
		return
	}
	ev.StopPropagation()
}

func (h *Host) onPointer(ev *core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, r := range h.rows {
		if r.handle == ev.Target {
			h.focus = i
			return
		}
	}
}

func (h *Host) moveFocus(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.rows) == 0 {
		return
	}
	h.focus = (h.focus + delta + len(h.rows)) % len(h.rows)
}

func (h *Host) setFocus(i int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if i >= 0 && i < len(h.rows) {
		h.focus = i
	}
}
