// Package tui is the terminal studio: one batch of generated content with
// edit, copy and share per slot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/browser"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/reveal"
	"github.com/jimdaga/nextrend/internal/studio"
)

// Replaced in tests.
var (
	writeClipboard = clipboard.WriteAll
	openURL        = browser.Open
)

type mode int

const (
	modeNormal mode = iota
	modeEdit
)

// Generator starts a batch. *generation.Pipeline satisfies it.
type Generator interface {
	GenerateAll(ctx context.Context, req generation.Request) *generation.Batch
}

// RunOpts holds all parameters for launching the TUI.
type RunOpts struct {
	Generator    Generator
	Types        []catalog.ContentType
	Source       generation.Source
	VoiceSummary string
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	gen    Generator
	req    generation.Request

	board     *studio.Board
	reveals   []*reveal.Machine
	revealSeq []int
	lastSeq   int // never reused, so ticks from earlier reveals stay stale
	batch     *generation.Batch
	running   bool

	cursor int
	mode   mode
	width  int
	height int

	editor  textarea.Model
	spinner spinner.Model

	status string
	err    error
}

func NewApp(opts RunOpts) *App {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(8)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:     ctx,
		cancel:  cancel,
		gen:     opts.Generator,
		req:     generation.Request{Source: opts.Source, VoiceSummary: opts.VoiceSummary, Types: opts.Types},
		editor:  ta,
		spinner: sp,
		board:   studio.NewBoard(opts.Types),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.start(), a.spinner.Tick)
}

// start resets every slot and launches a new batch.
func (a *App) start() tea.Cmd {
	n := len(a.req.Types)
	a.board = studio.NewBoard(a.req.Types)
	a.reveals = make([]*reveal.Machine, n)
	for i := range a.reveals {
		a.reveals[i] = reveal.New(reveal.DefaultChunk)
	}
	a.revealSeq = make([]int, n)
	a.err = nil
	a.status = ""
	a.running = true
	a.batch = a.gen.GenerateAll(a.ctx, a.req)
	return waitForUpdate(a.batch)
}

func waitForUpdate(b *generation.Batch) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-b.Updates()
		if !ok {
			return batchDoneMsg{batch: b, err: b.Wait()}
		}
		return slotUpdateMsg{batch: b, update: u}
	}
}

func (a *App) nextSeq() int {
	a.lastSeq++
	return a.lastSeq
}

func revealTick(index, seq int) tea.Cmd {
	return tea.Tick(reveal.DefaultInterval, func(time.Time) tea.Msg {
		return revealTickMsg{index: index, seq: seq}
	})
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.editor.SetWidth(max(20, msg.Width-6))
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case slotUpdateMsg:
		if msg.batch != a.batch {
			return a, nil
		}
		return a, a.applyUpdate(msg.update)

	case batchDoneMsg:
		if msg.batch != a.batch {
			return a, nil
		}
		a.running = false
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			a.err = errors.New(apperr.UserMessage(msg.err))
		}
		return a, nil

	case revealTickMsg:
		if msg.index >= len(a.reveals) || msg.seq != a.revealSeq[msg.index] {
			return a, nil
		}
		if a.reveals[msg.index].Tick() {
			return a, revealTick(msg.index, msg.seq)
		}
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a *App) applyUpdate(u generation.Update) tea.Cmd {
	if err := a.board.Apply(u); err != nil {
		return waitForUpdate(a.batch)
	}
	next := waitForUpdate(a.batch)
	if u.Status != generation.StatusDone {
		return next
	}
	a.revealSeq[u.Index] = a.nextSeq()
	a.reveals[u.Index].SetContent(u.Content)
	return tea.Batch(next, revealTick(u.Index, a.revealSeq[u.Index]))
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.cancel()
		return a, tea.Quit
	}
	if a.mode == modeEdit {
		return a.handleEditKey(msg)
	}

	switch msg.String() {
	case "q":
		a.cancel()
		return a, tea.Quit
	case "j", "down":
		if a.cursor < a.board.Len()-1 {
			a.cursor++
		}
		return a, nil
	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
		}
		return a, nil
	case "enter", " ":
		if a.cursor < len(a.reveals) {
			a.reveals[a.cursor].Skip()
		}
		return a, nil
	case "e":
		return a.beginEdit()
	case "c":
		a.copyCurrent()
		return a, nil
	case "s":
		url, err := a.board.Share(a.cursor)
		if err != nil {
			a.err = err
			return a, nil
		}
		slot, _ := a.board.Slot(a.cursor)
		a.status = "Opening " + slot.Type.Label + " share"
		return a, openBrowserCmd(url)
	case "r":
		if a.running {
			a.status = "Generation already in progress"
			return a, nil
		}
		a.cursor = 0
		return a, a.start()
	}
	return a, nil
}

func (a *App) beginEdit() (tea.Model, tea.Cmd) {
	slot, err := a.board.Slot(a.cursor)
	if err != nil {
		return a, nil
	}
	if slot.Status != generation.StatusDone {
		a.err = studio.ErrSlotBusy
		if !slot.Generating() {
			a.err = fmt.Errorf("%s has no content to edit", slot.Type.Label)
		}
		return a, nil
	}
	if _, err := a.board.ToggleEdit(a.cursor); err != nil {
		a.err = err
		return a, nil
	}
	a.reveals[a.cursor].Skip()
	a.editor.SetValue(slot.Content)
	a.editor.Focus()
	a.mode = modeEdit
	return a, textarea.Blink
}

func (a *App) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		a.commitEdit()
		return a, nil
	}
	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	return a, cmd
}

func (a *App) commitEdit() {
	value := a.editor.Value()
	if err := a.board.SetContent(a.cursor, value); err != nil {
		a.err = err
	}
	a.board.ToggleEdit(a.cursor)

	a.revealSeq[a.cursor] = a.nextSeq()
	a.reveals[a.cursor].SetContent(value)
	a.reveals[a.cursor].Skip()

	a.editor.Blur()
	a.mode = modeNormal
	a.status = "Saved edit"
}

func (a *App) copyCurrent() {
	content, err := a.board.Copy(a.cursor)
	if err != nil {
		a.err = err
		return
	}
	if content == "" {
		a.status = "Nothing to copy yet"
		return
	}
	if err := writeClipboard(content); err != nil {
		a.err = fmt.Errorf("copy to clipboard: %w", err)
		return
	}
	slot, _ := a.board.Slot(a.cursor)
	a.status = "Copied " + slot.Type.Label
}

// Slots returns the current board, for callers that print results after the
// program exits.
func (a *App) Slots() []studio.Slot {
	return a.board.Slots()
}

// Run starts the TUI and returns the final slots.
func Run(opts RunOpts) ([]studio.Slot, error) {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return app.Slots(), err
}
