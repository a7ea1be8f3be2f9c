package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thinkwright/seasonline/internal/config"
	"github.com/thinkwright/seasonline/internal/interchange"
	"github.com/thinkwright/seasonline/internal/timeline"
	"github.com/thinkwright/seasonline/internal/watcher"
)

const (
	frameInterval = 16 * time.Millisecond
	nowInterval   = 10 * time.Second
	toastDuration = 4 * time.Second
	syncTimeout   = 5 * time.Second
)

// Finder runs a find query over a saved board and returns matching ids.
type Finder interface {
	Search(board, query string, now time.Time) ([]string, error)
}

type frameMsg struct{}
type nowTickMsg time.Time

type toastExpiredMsg struct {
	seq int
}

type clockSyncedMsg struct {
	offset time.Duration
	err    error
}

type reloadedMsg struct {
	path    string
	entries []timeline.Entry
	err     error
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{}
	})
}

func nowTickCmd() tea.Cmd {
	return tea.Tick(nowInterval, func(t time.Time) tea.Msg {
		return nowTickMsg(t)
	})
}

func syncClockCmd(clock *timeline.Clock, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		offset, err := clock.Sync(ctx, nil, url)
		return clockSyncedMsg{offset: offset, err: err}
	}
}

func reloadCmd(path string, v timeline.Variant, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		entries, err := interchange.ReadFile(path, v, loc)
		return reloadedMsg{path: path, entries: entries, err: err}
	}
}

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmQuit
	confirmClear
	confirmDeleteTrack
)

type Model struct {
	editor *timeline.Editor
	finder Finder
	board  string
	cfg    config.Config

	form   EntryForm
	prompt PromptLine
	help   help.Model

	width  int
	height int
	ready  bool

	trackCursor int
	laneScroll  int

	pointer pointerState
	marquee marqueeState
	// reload waits here while a drag holds the board.
	pendingReload *reloadedMsg

	confirm  confirmKind
	showHelp bool

	toast    string
	toastErr bool
	toastSeq int
}

// NewModel wraps an editor for one board. finder may be nil, which turns
// find off.
func NewModel(ed *timeline.Editor, finder Finder, board string, cfg config.Config) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(ColorCyan)
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(ColorDim)
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(ColorMuted)
	h.Styles.FullKey = lipgloss.NewStyle().Foreground(ColorCyan)
	h.Styles.FullDesc = lipgloss.NewStyle().Foreground(ColorWhite)
	h.Styles.FullSeparator = lipgloss.NewStyle().Foreground(ColorMuted)

	return Model{
		editor: ed,
		finder: finder,
		board:  board,
		cfg:    cfg,
		form:   NewEntryForm(),
		prompt: NewPromptLine(),
		help:   h,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{nowTickCmd()}
	if url := m.cfg.SyncURL(); url != "" {
		cmds = append(cmds, syncClockCmd(m.editor.Clock, url))
	}
	if m.cfg.WatchFile != "" {
		cmds = append(cmds, watcher.Watch(m.cfg.WatchFile))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.Viewport.SetVisibleWidth(float64(m.timelineWidth()))
		m.form.SetWidth(min(64, m.width-4))
		m.prompt.SetWidth(m.width)
		m.help.Width = m.width
		m.scrollToTrack()
		if !m.ready {
			m.ready = true
			m.editor.FocusNow()
		}
		return m, nil

	case frameMsg:
		m.editor.FlushGesture()
		return m, nil

	case nowTickMsg:
		m.editor.Relayout()
		return m, nowTickCmd()

	case clockSyncedMsg:
		if msg.err != nil {
			slog.Debug("clock sync failed", "err", msg.err)
			return m, nil
		}
		slog.Info("clock synced", "offset", msg.offset)
		m.editor.Relayout()
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case watcher.ChangedMsg:
		return m, tea.Batch(
			reloadCmd(msg.Path, m.editor.Params.Variant, m.editor.Location),
			watcher.Watch(m.cfg.WatchFile),
		)

	case reloadedMsg:
		if msg.err != nil {
			slog.Warn("reload watched document", "path", msg.path, "err", msg.err)
			return m.failure(msg.err)
		}
		if m.editor.Drag.Active() {
			m.pendingReload = &msg
			return m, nil
		}
		cmd := m.applyImport(msg.entries, filepath.Base(msg.path))
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch {
		case m.confirm != confirmNone:
			return m.handleConfirmKey(msg)
		case m.form.IsActive():
			return m.handleFormKey(msg)
		case m.prompt.IsActive():
			return m.handlePromptKey(msg)
		case m.showHelp:
			m.showHelp = false
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) notify(text string) tea.Cmd {
	m.toastSeq++
	m.toast = text
	m.toastErr = false
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} })
}

func (m *Model) notifyErr(err error) tea.Cmd {
	cmd := m.notify(timeline.UserMessage(err))
	m.toastErr = true
	return cmd
}

// notice and failure pair the model with its toast command.
func (m Model) notice(text string) (tea.Model, tea.Cmd) {
	cmd := m.notify(text)
	return m, cmd
}

func (m Model) failure(err error) (tea.Model, tea.Cmd) {
	cmd := m.notifyErr(err)
	return m, cmd
}

func (m Model) saveConfig() {
	if err := config.SaveRecentFiles(m.cfg.RecentFiles); err != nil {
		slog.Warn("save config", "err", err)
	}
}

func (m *Model) clampTrackCursor() {
	n := len(m.editor.Store.TrackOrder())
	if m.trackCursor >= n {
		m.trackCursor = n - 1
	}
	if m.trackCursor < 0 {
		m.trackCursor = 0
	}
	m.scrollToTrack()
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kind := m.confirm
	m.confirm = confirmNone
	switch msg.String() {
	case "y", "Y":
	case "q":
		if kind != confirmQuit {
			return m, nil
		}
	default:
		return m, nil
	}

	switch kind {
	case confirmQuit:
		return m, tea.Quit
	case confirmClear:
		if err := m.editor.Clear(); err != nil {
			return m.failure(err)
		}
		m.clampTrackCursor()
		return m.notice("Board cleared")
	case confirmDeleteTrack:
		name, ok := m.currentTrack()
		if !ok {
			return m, nil
		}
		if err := m.editor.DeleteTrack(name); err != nil {
			return m.failure(err)
		}
		m.clampTrackCursor()
		return m.notice("Deleted track " + name)
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.Close()
		return m, nil
	case "tab", "down":
		m.form.Next()
		return m, nil
	case "shift+tab", "up":
		m.form.Prev()
		return m, nil
	case "enter":
		if !m.form.OnLastField() {
			m.form.Next()
			return m, nil
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	}
	cmd := m.form.UpdateInput(msg)
	return m, cmd
}

// isRejection reports whether err means the edit was refused and nothing
// changed, as opposed to a save failure after the change was applied.
func isRejection(err error) bool {
	var (
		overlap   *timeline.OverlapError
		rng       *timeline.InvalidTimeRangeError
		dup       *timeline.DuplicateIDError
		malformed *timeline.MalformedTimestampError
	)
	return errors.As(err, &overlap) || errors.As(err, &rng) || errors.As(err, &dup) ||
		errors.As(err, &malformed) || errors.Is(err, timeline.ErrMissingField) ||
		errors.Is(err, timeline.ErrNotFound) || errors.Is(err, timeline.ErrTrackExists) ||
		errors.Is(err, timeline.ErrGestureActive)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	ent, err := m.form.Entry(m.editor.Location)
	if err == nil {
		if m.form.IsEditing() {
			err = m.editor.Update(m.form.PrevID(), ent)
		} else {
			err = m.editor.Create(ent)
		}
	}
	if err != nil && isRejection(err) {
		m.form.SetError(timeline.UserMessage(err))
		return m, nil
	}
	m.form.Close()
	m.focusTrack(ent.TrackID)
	if err != nil {
		slog.Error("save entry", "id", ent.ID, "err", err)
		return m.failure(err)
	}
	m.editor.Selection.Select(ent.ID)
	return m.notice("Saved " + ent.ID)
}

func (m *Model) focusTrack(name string) {
	for i, t := range m.editor.Store.TrackOrder() {
		if t == name {
			m.trackCursor = i
			break
		}
	}
	m.clampTrackCursor()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt.Close()
		return m, nil
	case "enter":
		kind, value := m.prompt.Kind(), strings.TrimSpace(m.prompt.Value())
		m.prompt.Close()
		return m.runPrompt(kind, value)
	}
	cmd := m.prompt.UpdateInput(msg)
	return m, cmd
}

func (m Model) runPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	switch kind {
	case promptFind:
		return m.find(value)
	case promptImport:
		if value == "" {
			return m, nil
		}
		return m.importFile(expandPath(value))
	case promptExport:
		if value == "" {
			return m, nil
		}
		return m.exportFile(expandPath(value))
	case promptZoom:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64)
		if err != nil {
			return m.failure(fmt.Errorf("zoom must be a number"))
		}
		m.editor.Viewport.SetZoomPercent(pct)
	case promptRename:
		from, ok := m.currentTrack()
		if !ok || value == "" || value == from {
			return m, nil
		}
		if err := m.editor.RenameTrack(from, value); err != nil {
			return m.failure(err)
		}
		m.focusTrack(value)
		return m.notice("Renamed " + from + " to " + value)
	case promptAddTrack:
		if value == "" {
			return m, nil
		}
		if err := m.editor.AddTrack(value); err != nil {
			return m.failure(err)
		}
		m.focusTrack(value)
		return m.notice("Added track " + value)
	}
	return m, nil
}

func (m Model) find(query string) (tea.Model, tea.Cmd) {
	if query == "" {
		m.editor.Selection.Clear()
		return m, nil
	}
	if m.finder == nil {
		return m.failure(fmt.Errorf("find needs the board database"))
	}
	ids, err := m.finder.Search(m.board, query, m.editor.Clock.Now())
	if err != nil {
		slog.Warn("find", "query", query, "err", err)
		return m.failure(err)
	}
	m.editor.Selection.Set(ids)
	if len(ids) > 0 {
		if ent, ok := m.editor.Store.Get(ids[0]); ok {
			m.focusTrack(ent.TrackID)
			m.editor.Viewport.CenterOn(ent.StartMs)
		}
	}
	return m.notice(plural(len(ids), "match", "matches"))
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return filepath.Clean(p)
}

func (m Model) importFile(path string) (tea.Model, tea.Cmd) {
	entries, err := interchange.ReadFile(path, m.editor.Params.Variant, m.editor.Location)
	if err != nil {
		return m.failure(err)
	}
	cmd := m.applyImport(entries, filepath.Base(path))
	if m.cfg.AddRecentFile(path) {
		m.saveConfig()
	}
	return m, cmd
}

func (m *Model) applyImport(entries []timeline.Entry, source string) tea.Cmd {
	n := len(entries)
	if err := m.editor.Import(entries); err != nil {
		if !isRejection(err) {
			slog.Error("save imported board", "source", source, "err", err)
		}
		return m.notifyErr(err)
	}
	m.trackCursor = 0
	m.laneScroll = 0
	m.editor.FocusStart()
	return m.notify(fmt.Sprintf("Imported %s from %s", plural(n, "entry", "entries"), source))
}

func (m Model) exportFile(path string) (tea.Model, tea.Cmd) {
	entries := m.editor.Export()
	if err := interchange.WriteFile(path, entries, m.editor.Params.Variant, m.editor.Location); err != nil {
		return m.failure(err)
	}
	if m.cfg.AddRecentFile(path) {
		m.saveConfig()
	}
	return m.notice(fmt.Sprintf("Exported %s to %s", plural(len(entries), "entry", "entries"), filepath.Base(path)))
}

func (m Model) copyExport() (tea.Model, tea.Cmd) {
	entries := m.editor.Export()
	data, err := interchange.Encode(entries, interchange.FormatJSON, m.editor.Params.Variant, m.editor.Location)
	if err != nil {
		return m.failure(err)
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		return m.failure(fmt.Errorf("copy to clipboard: %w", err))
	}
	return m.notice(fmt.Sprintf("Copied %s", plural(len(entries), "entry", "entries")))
}

func (m Model) pasteImport() (tea.Model, tea.Cmd) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return m.failure(fmt.Errorf("read clipboard: %w", err))
	}
	data := []byte(text)
	entries, err := interchange.Decode(data, interchange.Detect(data), m.editor.Params.Variant, m.editor.Location)
	if err != nil {
		return m.failure(err)
	}
	cmd := m.applyImport(entries, "clipboard")
	return m, cmd
}

// suggestEntry prefills the create form: the next id, the current track and
// a slot at the middle of the window snapped to the grid.
func (m Model) suggestEntry() timeline.Entry {
	p := m.editor.Params
	track, ok := m.currentTrack()
	if !ok {
		track = p.DefaultTrack
	}
	start := m.editor.Viewport.ScreenToTime(m.editor.Viewport.VisibleWidth() / 2)
	if p.GridMs > 0 {
		start -= start % p.GridMs
	}
	length := max(p.MinDurationMs, int64(p.MsPerUnit))
	return timeline.Entry{ID: m.editor.NewID(), TrackID: track, StartMs: start, EndMs: start + length}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.editor
	tw := float64(m.timelineWidth())
	if ed.Drag.Active() && key.Matches(msg, keys.boardEdits()...) {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.confirm = confirmQuit

	case key.Matches(msg, keys.Help):
		m.showHelp = true

	case key.Matches(msg, keys.New):
		m.form.OpenNew(m.suggestEntry(), ed.Location)
		return m, textinput.Blink

	case key.Matches(msg, keys.Edit):
		id, ok := ed.Selection.Primary()
		if !ok {
			return m, nil
		}
		if ent, found := ed.Store.Get(id); found {
			m.form.OpenEdit(ent, ed.Location)
			return m, textinput.Blink
		}

	case key.Matches(msg, keys.Delete):
		n, err := ed.DeleteSelected()
		m.clampTrackCursor()
		if err != nil {
			return m.failure(err)
		}
		if n > 0 {
			return m.notice("Deleted " + plural(n, "entry", "entries"))
		}

	case key.Matches(msg, keys.Duplicate):
		clone, err := ed.Duplicate()
		if err != nil {
			return m.failure(err)
		}
		return m.notice("Duplicated as " + clone.ID)

	case key.Matches(msg, keys.SelectAll):
		ed.SelectAll()

	case key.Matches(msg, keys.Deselect):
		ed.Selection.Clear()

	case key.Matches(msg, keys.Undo):
		if !ed.History.CanUndo() {
			return m.notice("Nothing to undo")
		}
		_, err := ed.Undo()
		m.clampTrackCursor()
		if err != nil {
			return m.failure(err)
		}

	case key.Matches(msg, keys.Redo):
		if !ed.History.CanRedo() {
			return m.notice("Nothing to redo")
		}
		_, err := ed.Redo()
		m.clampTrackCursor()
		if err != nil {
			return m.failure(err)
		}

	case key.Matches(msg, keys.ZoomIn):
		ed.Viewport.Wheel(-100, tw/2)

	case key.Matches(msg, keys.ZoomOut):
		ed.Viewport.Wheel(100, tw/2)

	case key.Matches(msg, keys.ZoomPercent):
		m.prompt.Open(promptZoom, strconv.FormatFloat(ed.Viewport.ZoomPercent(), 'f', 0, 64))
		return m, textinput.Blink

	case key.Matches(msg, keys.PanLeft):
		ed.Viewport.PanBy(-max(tw/8, 1))

	case key.Matches(msg, keys.PanRight):
		ed.Viewport.PanBy(max(tw/8, 1))

	case key.Matches(msg, keys.PageLeft):
		ed.Viewport.PanBy(-tw * 0.8)

	case key.Matches(msg, keys.PageRight):
		ed.Viewport.PanBy(tw * 0.8)

	case key.Matches(msg, keys.Now):
		ed.FocusNow()

	case key.Matches(msg, keys.Start):
		ed.FocusStart()

	case key.Matches(msg, keys.NextTrack):
		m.trackCursor++
		m.clampTrackCursor()

	case key.Matches(msg, keys.PrevTrack):
		m.trackCursor--
		m.clampTrackCursor()

	case key.Matches(msg, keys.TrackUp), key.Matches(msg, keys.TrackDown):
		name, ok := m.currentTrack()
		if !ok {
			return m, nil
		}
		to := m.trackCursor + 1
		if key.Matches(msg, keys.TrackUp) {
			to = m.trackCursor - 1
		}
		if to < 0 || to >= len(ed.Store.TrackOrder()) {
			return m, nil
		}
		if err := ed.MoveTrack(name, to); err != nil {
			return m.failure(err)
		}
		m.focusTrack(name)

	case key.Matches(msg, keys.HideTrack):
		name, ok := m.currentTrack()
		if !ok {
			return m, nil
		}
		if err := ed.ToggleTrackHidden(name); err != nil {
			return m.failure(err)
		}

	case key.Matches(msg, keys.RenameTrack):
		name, ok := m.currentTrack()
		if !ok {
			return m, nil
		}
		m.prompt.Open(promptRename, name)
		return m, textinput.Blink

	case key.Matches(msg, keys.AddTrack):
		m.prompt.Open(promptAddTrack, "")
		return m, textinput.Blink

	case key.Matches(msg, keys.DeleteTrack):
		if _, ok := m.currentTrack(); ok {
			m.confirm = confirmDeleteTrack
		}

	case key.Matches(msg, keys.Find):
		m.prompt.Open(promptFind, "")
		return m, textinput.Blink

	case key.Matches(msg, keys.Import):
		m.prompt.Open(promptImport, m.cfg.LastFile())
		return m, textinput.Blink

	case key.Matches(msg, keys.Export):
		m.prompt.Open(promptExport, m.cfg.LastFile())
		return m, textinput.Blink

	case key.Matches(msg, keys.Copy):
		return m.copyExport()

	case key.Matches(msg, keys.Paste):
		return m.pasteImport()

	case key.Matches(msg, keys.Clear):
		m.confirm = confirmClear
	}

	return m, nil
}
