package app

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwulff/storytrack/internal/playback"
	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
	"github.com/jwulff/storytrack/internal/ui"
)

// One terminal cell stands for a fixed patch of editor pixels.
const (
	cellWidthPx  = 10
	cellHeightPx = 16
	rowsPerTrack = timeline.TrackHeight / cellHeightPx
	gutterCols   = 6
)

// frame is the screen layout for one render. Rows are absolute terminal
// rows; the editor sits below the list and grows upward.
type frame struct {
	listTop   int // list header row
	listRows  int // header included
	handleRow int
	toolbar   int
	rulerRow  int
	lanesTop  int
	lanesRows int
	statusRow int
	helpTop   int
	helpRows  int
	gutter    int
	lanesCols int
}

func (m Model) frame() frame {
	helpRows := 1
	if m.help.ShowAll {
		helpRows = len(m.keys.FullHelp()[0])
	}
	body := m.height - 4 - helpRows // header, two dividers, status
	editorRows := m.shared.Height.Get() / cellHeightPx
	editorRows = max(4, min(editorRows, body-2))
	listRows := max(0, body-editorRows)

	f := frame{
		listTop:   2,
		listRows:  listRows,
		helpRows:  helpRows,
		gutter:    gutterCols,
		lanesCols: max(1, m.width-gutterCols),
	}
	f.handleRow = f.listTop + listRows
	f.toolbar = f.handleRow + 1
	f.rulerRow = f.handleRow + 2
	f.lanesTop = f.handleRow + 3
	f.lanesRows = editorRows - 3
	f.statusRow = f.lanesTop + f.lanesRows + 1
	f.helpTop = f.statusRow + 1
	return f
}

func (f frame) inList(y int) bool {
	return y >= f.listTop && y < f.listTop+f.listRows
}

func (f frame) inLanes(x, y int) bool {
	return y >= f.lanesTop && y < f.lanesTop+f.lanesRows &&
		x >= f.gutter && x < f.gutter+f.lanesCols
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}
	f := m.frame()
	geo := m.geometry()
	divider := ui.DividerStyle.Render(strings.Repeat("─", m.width))

	var lines []string
	lines = append(lines, m.renderHeader(), divider)
	lines = append(lines, m.renderList(f)...)
	lines = append(lines, m.renderHandle(), m.renderToolbar(geo), m.renderRuler(f, geo))
	lines = append(lines, m.renderLanes(f, geo)...)
	lines = append(lines, divider, m.renderStatus())
	lines = append(lines, fitLines(strings.Split(m.help.View(m.keys), "\n"), f.helpRows)...)

	for i, l := range lines {
		lines[i] = ansi.Truncate(l, m.width, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader() string {
	left := ui.TitleStyle.Render("storytrack")
	if st, ok := m.current(); ok {
		left += "  " + ui.PanelTitleStyle.Render(st.Name)
		if len(m.stories) > 1 {
			left += ui.DimStyle.Render(fmt.Sprintf("  (%d/%d)", m.storyIndex+1, len(m.stories)))
		}
	}
	right := ui.DimStyle.Render("clock")
	if m.engine != nil {
		right = ui.PlayingStyle.Render("engine ●")
	} else if m.engineURL != "" {
		right = ui.PausedStyle.Render("engine ○")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderList(f frame) []string {
	if f.listRows == 0 {
		return nil
	}
	if m.pickerOpen {
		return m.renderPicker(f.listRows)
	}

	titleStyle := ui.PanelTitleStyle
	if m.focusedPanel == FocusList {
		titleStyle = ui.PanelTitleActiveStyle
	}
	items := m.displayItems()
	header := titleStyle.Render("Items") + ui.DimStyle.Render(fmt.Sprintf(" (%d)", len(items)))
	if m.session != nil {
		if _, pending := m.session.Pending(); pending {
			header += "  " + ui.PendingStyle.Render("saving…")
		}
	}
	lines := []string{header}

	switch {
	case m.session == nil && m.loadError != "":
		lines = append(lines, ui.ErrorTextStyle.Render(truncate("Store unavailable: "+m.loadError, m.width)))
	case m.session == nil:
		lines = append(lines, ui.DimStyle.Render("Loading stories..."))
	case len(items) == 0:
		lines = append(lines, ui.DimStyle.Render("No items yet. Press a to add a generation."))
	}

	dragID, overID := m.listCtl.Active()
	dragging := m.listCtl.Dragging()
	for i := m.listFirst; i < len(items) && len(lines) < f.listRows; i++ {
		it := items[i]
		marker := " "
		style := lipgloss.NewStyle()
		switch {
		case dragging && it.GenerationID == dragID:
			marker, style = "≡", ui.DragRowStyle
		case dragging && it.GenerationID == overID:
			marker, style = "↳", ui.DropTargetStyle
		case it.GenerationID == m.activeID:
			marker, style = "▶", ui.ActiveRowStyle
		case it.GenerationID == m.selectedID:
			marker, style = ">", ui.SelectedStyle
		}
		row := fmt.Sprintf("%s %5s  T%-3d %s (%.1fs)",
			marker, timeline.FormatTime(float64(it.StartTimeMs)), it.Track, itemLabel(it), it.Duration)
		lines = append(lines, style.Render(truncate(row, m.width)))
	}
	return fitLines(lines, f.listRows)
}

func (m Model) renderPicker(rows int) []string {
	inner := max(10, m.width-4)
	content := []string{
		ui.PanelTitleActiveStyle.Render("Add generation") + ui.DimStyle.Render("  enter add · esc cancel"),
		m.picker.View(),
	}
	cands := m.candidates()
	switch {
	case m.generations == nil:
		content = append(content, ui.DimStyle.Render("Loading generations..."))
	case len(cands) == 0:
		content = append(content, ui.DimStyle.Render("No matching generations"))
	}
	budget := max(0, rows-2-len(content))
	first := max(0, m.pickerCursor-budget+1)
	for i := first; i < len(cands) && i-first < budget; i++ {
		g := cands[i]
		row := fmt.Sprintf("%s: %s (%.1fs)", g.ProfileName, g.Text, g.Duration)
		if i == m.pickerCursor {
			content = append(content, ui.SelectedStyle.Render("> "+truncate(row, inner-2)))
			continue
		}
		content = append(content, "  "+truncate(row, inner-2))
	}
	if len(cands) > 0 && len(content) < rows-2 {
		g := cands[min(m.pickerCursor, len(cands)-1)]
		for _, l := range wrapText(g.Text, inner-2) {
			content = append(content, ui.DimStyle.Render("  "+l))
		}
	}
	content = fitLines(content, max(1, rows-2))
	box := ui.PickerBorderStyle.Width(inner).Render(strings.Join(content, "\n"))
	return fitLines(strings.Split(box, "\n"), rows)
}

func (m Model) renderHandle() string {
	style := ui.HandleStyle
	if m.resizer.Active() {
		style = ui.HandleActiveStyle
	}
	label := fmt.Sprintf(" ═ %dpx ═ ", m.shared.Height.Get())
	rest := max(0, m.width-lipgloss.Width(label)-2)
	return style.Render("──" + label + strings.Repeat("─", rest))
}

func (m Model) renderToolbar(geo timeline.Geometry) string {
	snap := m.shared.Playback.Snapshot()
	st, _ := m.current()

	var state string
	switch {
	case snap.IsPlaying && snap.StoryID == st.ID:
		state = ui.PlayingStyle.Render("▶ Playing")
	case snap.IsPlaying:
		state = ui.PausedStyle.Render("▶ Other story")
	case snap.CurrentTimeMs > 0:
		state = ui.PausedStyle.Render("⏸ Paused")
	default:
		state = ui.StoppedStyle.Render("■ Stopped")
	}

	parts := []string{
		state,
		ui.StatusStyle.Render(fmt.Sprintf("%s / %s",
			timeline.FormatTime(snap.CurrentTimeMs), timeline.FormatTime(float64(geo.TotalDurationMs)))),
		ui.StatusStyle.Render(fmt.Sprintf("%.0f px/s", geo.Scale.PixelsPerSecond)),
		ui.StatusStyle.Render(fmt.Sprintf("%d tracks", len(geo.Tracks))),
	}
	if m.session != nil {
		if mut, pending := m.session.Pending(); pending {
			parts = append(parts, ui.PendingStyle.Render(mut.Action()+"…"))
		}
	}
	title := ui.PanelTitleStyle.Render("Timeline")
	if m.focusedPanel == FocusEditor {
		title = ui.PanelTitleActiveStyle.Render("Timeline")
	}
	return title + "  " + strings.Join(parts, "  ")
}

// playheadCol is the lane column under the clock, or -1 when off screen.
func (m Model) playheadCol(f frame, st story.Story) int {
	snap := m.shared.Playback.Snapshot()
	if snap.StoryID != st.ID || (!snap.IsPlaying && snap.CurrentTimeMs == 0) {
		return -1
	}
	col := int((m.scale.MsToPixels(snap.CurrentTimeMs) - m.scrollX) / cellWidthPx)
	if col < 0 || col >= f.lanesCols {
		return -1
	}
	return col
}

func (m Model) renderRuler(f frame, geo timeline.Geometry) string {
	st, _ := m.current()
	cells := []rune(strings.Repeat(" ", f.lanesCols))
	next := 0
	for ms := range geo.Markers() {
		col := int((geo.Scale.MsToPixels(float64(ms)) - m.scrollX) / cellWidthPx)
		label := []rune("|" + timeline.FormatTime(float64(ms)))
		if col < next || col < 0 || col+len(label) > len(cells) {
			continue
		}
		copy(cells[col:], label)
		next = col + len(label) + 1
	}
	line := ui.RulerStyle.Render(string(cells))
	if col := m.playheadCol(f, st); col >= 0 {
		line = ui.RulerStyle.Render(string(cells[:col])) +
			ui.PlayheadStyle.Render("▼") +
			ui.RulerStyle.Render(string(cells[col+1:]))
	}
	return strings.Repeat(" ", f.gutter) + line
}

// laneClip is one clip as drawn on the lanes.
type laneClip struct {
	item  story.Item
	rect  timeline.Rect
	style lipgloss.Style
}

func (m Model) laneClips(geo timeline.Geometry, st story.Story) []laneClip {
	drag, dragging := m.dragCtl.Session()
	var clips []laneClip
	var dragged *laneClip
	for _, it := range st.Items {
		c := laneClip{item: it, rect: geo.ClipRect(it), style: ui.ClipStyle}
		switch {
		case dragging && it.GenerationID == drag.GenerationID:
			c.rect.X, c.rect.Y = drag.Live.X, drag.Live.Y
			c.style = ui.ClipDraggingStyle
			dragged = &c
			continue
		case it.GenerationID == m.activeID:
			c.style = ui.ClipActiveStyle
		case it.GenerationID == m.selectedID:
			c.style = ui.ClipSelectedStyle
		}
		clips = append(clips, c)
	}
	if dragged != nil {
		clips = append(clips, *dragged)
	}
	return clips
}

const playheadOwner = -2

func (m Model) renderLanes(f frame, geo timeline.Geometry) []string {
	st, _ := m.current()
	clips := m.laneClips(geo, st)
	playCol := m.playheadCol(f, st)

	lines := make([]string, 0, f.lanesRows)
	owners := make([]int, f.lanesCols)
	for r := 0; r < f.lanesRows; r++ {
		abs := m.laneRow + r
		track := abs / rowsPerTrack

		gutter := ""
		if track < len(geo.Tracks) && abs%rowsPerTrack == 0 {
			gutter = fmt.Sprintf(" T%d", geo.Tracks[track])
		}
		line := ui.GutterStyle.Render(padRight(gutter, f.gutter))

		yc := float64(abs*cellHeightPx) + cellHeightPx/2
		for col := range owners {
			owners[col] = -1
			xc := float64(col*cellWidthPx) + cellWidthPx/2 + m.scrollX
			for ci, c := range clips {
				if c.rect.Contains(xc, yc) {
					owners[col] = ci
				}
			}
		}
		if playCol >= 0 {
			owners[playCol] = playheadOwner
		}

		fill := " "
		if track < len(geo.Tracks) && abs%rowsPerTrack == rowsPerTrack-1 {
			fill = "╌"
		}
		for start := 0; start < len(owners); {
			end := start
			for end < len(owners) && owners[end] == owners[start] {
				end++
			}
			n := end - start
			switch o := owners[start]; o {
			case -1:
				line += ui.LaneStyle.Render(strings.Repeat(fill, n))
			case playheadOwner:
				line += ui.PlayheadStyle.Render(strings.Repeat("│", n))
			default:
				c := clips[o]
				row := int((yc - c.rect.Y) / cellHeightPx)
				if row == 0 {
					line += c.style.Render(padRight(truncate(" "+itemLabel(c.item), n), n))
				} else {
					line += c.style.Render(m.waveCells(c, start, n, row))
				}
			}
			start = end
		}
		lines = append(lines, line)
	}
	return lines
}

var waveGlyphs = []rune(" ▁▂▃▄▅▆▇█")

// waveCells draws n cells of a clip's waveform from column start. The rows
// under the label stack into one bar, so row is counted from the label row.
func (m Model) waveCells(c laneClip, start, n, row int) string {
	peaks := m.waveforms[c.item.GenerationID]
	if len(peaks) == 0 || c.rect.W <= 0 {
		return strings.Repeat(" ", n)
	}
	waveRows := rowsPerTrack - 1
	below := rowsPerTrack - 1 - row
	var b strings.Builder
	for col := start; col < start+n; col++ {
		xc := float64(col*cellWidthPx) + cellWidthPx/2 + m.scrollX
		i := int((xc - c.rect.X) / c.rect.W * float64(len(peaks)))
		i = max(0, min(len(peaks)-1, i))
		eighths := int(math.Round(peaks[i]*float64(waveRows*8))) - below*8
		b.WriteRune(waveGlyphs[max(0, min(8, eighths))])
	}
	return b.String()
}

func (m Model) renderStatus() string {
	switch {
	case m.errorMessage != "":
		return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
	case m.notice != "":
		return ui.NoticeStyle.Render(m.notice)
	case m.reconnecting:
		return ui.ErrorTextStyle.Render(fmt.Sprintf("Store unavailable, retrying (attempt %d)", m.reconnectAttempt+1))
	}
	if id, ok := playback.CurrentlyPlaying(m.shared.Playback); ok {
		if st, _ := m.current(); !st.Has(id) {
			return ui.StatusStyle.Render("Playing in another story")
		}
	}
	return ui.StatusStyle.Render("drag rows to reorder · drag clips to move · click lanes to seek")
}

// Helpers

func itemLabel(it story.Item) string {
	if it.ProfileName == "" {
		return it.Text
	}
	return it.ProfileName + ": " + it.Text
}

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	return strings.Split(wordwrap.String(text, width), "\n")
}

// fitLines pads or cuts lines to exactly n entries.
func fitLines(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	for len(lines) < n {
		lines = append(lines, "")
	}
	return lines
}
