package app

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/storytrack/internal/listorder"
	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/trackdrag"
)

const (
	seekStepMs    = 1000
	wheelStepCols = 5
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focusedPanel == FocusList {
			m.focusedPanel = FocusEditor
		} else {
			m.focusedPanel = FocusList
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil

	case key.Matches(msg, m.keys.MoveUp):
		cmd := m.keyboardMove(-1)
		return m, cmd

	case key.Matches(msg, m.keys.MoveDown):
		cmd := m.keyboardMove(1)
		return m, cmd

	case key.Matches(msg, m.keys.PlayPause):
		st, ok := m.current()
		if !ok {
			return m, nil
		}
		if m.shared.Playback.Playing(st.ID) {
			cmd := m.pause()
			return m, cmd
		}
		cmd := m.play()
		return m, cmd

	case key.Matches(msg, m.keys.Stop):
		cmd := m.stop()
		return m, cmd

	case key.Matches(msg, m.keys.SeekBack), key.Matches(msg, m.keys.SeekForward):
		step := int64(seekStepMs)
		if key.Matches(msg, m.keys.SeekBack) {
			step = -step
		}
		at := int64(m.shared.Playback.Snapshot().CurrentTimeMs) + step
		cmd := m.seek(max(0, at))
		return m, cmd

	case key.Matches(msg, m.keys.ZoomIn):
		m.zoom(true)
		return m, nil

	case key.Matches(msg, m.keys.ZoomOut):
		m.zoom(false)
		return m, nil

	case key.Matches(msg, m.keys.Taller):
		m.resizer.Nudge(2 * cellHeightPx)
		return m, nil

	case key.Matches(msg, m.keys.Shorter):
		m.resizer.Nudge(-2 * cellHeightPx)
		return m, nil

	case key.Matches(msg, m.keys.Add):
		if m.session == nil {
			return m, nil
		}
		m.pickerOpen = true
		m.picker.SetValue("")
		m.pickerCursor = 0
		return m, tea.Batch(m.picker.Focus(), loadGenerationsCmd(m.store))

	case key.Matches(msg, m.keys.Remove):
		if m.selectedID == "" {
			return m, nil
		}
		cmd := m.submit(story.RemovePlan(m.selectedID))
		return m, cmd

	case key.Matches(msg, m.keys.Export):
		if m.session == nil {
			return m, nil
		}
		dir := m.exportDir
		if dir == "" {
			dir = "."
		}
		return m, exportCmd(m.store, m.session.Confirmed(), dir)

	case key.Matches(msg, m.keys.NextStory):
		cmd := m.cycleStory(1)
		return m, cmd

	case key.Matches(msg, m.keys.PrevStory):
		cmd := m.cycleStory(-1)
		return m, cmd

	case key.Matches(msg, m.keys.Reload):
		if m.session != nil {
			m.wantStory = m.session.Confirmed().ID
		}
		return m, loadStoriesCmd(m.store)
	}

	return m, nil
}

// moveCursor moves the list selection in the list panel and scrolls lanes in
// the editor panel.
func (m *Model) moveCursor(dir int) {
	if m.focusedPanel == FocusEditor {
		m.scrollLanes(dir)
		return
	}
	items := m.displayItems()
	if len(items) == 0 {
		return
	}
	i := slices.IndexFunc(items, func(it story.Item) bool { return it.GenerationID == m.selectedID })
	i = max(0, min(len(items)-1, i+dir))
	m.selectedID = items[i].GenerationID
	m.ensureListVisible(i)
}

// keyboardMove swaps the selection with its neighbor in the list, or moves
// the selected clip one lane in the editor.
func (m *Model) keyboardMove(dir int) tea.Cmd {
	if m.selectedID == "" {
		return nil
	}
	if m.focusedPanel == FocusEditor {
		st, _ := m.current()
		it, ok := st.Find(m.selectedID)
		if !ok {
			return nil
		}
		pos := it.Position()
		pos.Track -= dir // upper lanes carry higher track numbers
		return m.submit(trackdrag.MovePlan(it.GenerationID, pos))
	}
	over, ok := listorder.Neighbor(m.displayItems(), m.selectedID, dir)
	if !ok {
		return nil
	}
	return m.submit(listorder.Plan(listorder.DragEnd{ActiveID: m.selectedID, OverID: over}))
}

func (m *Model) zoom(in bool) {
	ms := m.scale.PixelsToMs(m.scrollX)
	if in {
		m.scale = m.scale.ZoomIn()
	} else {
		m.scale = m.scale.ZoomOut()
	}
	m.scrollX = m.scale.MsToPixels(ms)
	m.clampScroll()
}

func (m *Model) cycleStory(dir int) tea.Cmd {
	if len(m.stories) < 2 {
		return nil
	}
	n := len(m.stories)
	m.storyIndex = ((m.storyIndex+dir)%n + n) % n
	m.wantStory = m.stories[m.storyIndex].ID
	return loadStoryCmd(m.store, m.wantStory)
}

func (m *Model) scrollLanes(dir int) {
	m.laneRow += dir
	m.clampScroll()
}

func (m *Model) clampScroll() {
	f := m.frame()
	geo := m.geometry()
	maxX := geo.WidthPx - float64(f.lanesCols*cellWidthPx)
	m.scrollX = max(0, min(m.scrollX, maxX))
	maxRow := len(geo.Tracks)*rowsPerTrack - f.lanesRows
	m.laneRow = max(0, min(m.laneRow, maxRow))
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closePicker()
		return m, nil
	case "enter":
		cands := m.candidates()
		if len(cands) == 0 {
			return m, nil
		}
		gen := cands[min(m.pickerCursor, len(cands)-1)]
		m.closePicker()
		m.selectedID = gen.ID
		cmd := m.submit(story.AddPlan(gen.ID))
		return m, cmd
	case "up", "ctrl+p":
		m.pickerCursor = max(0, m.pickerCursor-1)
		return m, nil
	case "down", "ctrl+n":
		m.pickerCursor = min(max(0, len(m.candidates())-1), m.pickerCursor+1)
		return m, nil
	}
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	m.pickerCursor = 0
	return m, cmd
}

func (m *Model) closePicker() {
	m.pickerOpen = false
	m.picker.Blur()
}

// candidates are the generations not yet in the story that match the filter.
func (m Model) candidates() []story.Generation {
	st, _ := m.current()
	filter := strings.ToLower(strings.TrimSpace(m.picker.Value()))
	var out []story.Generation
	for _, g := range m.generations {
		if st.Has(g.ID) {
			continue
		}
		if filter != "" &&
			!strings.Contains(strings.ToLower(g.ProfileName), filter) &&
			!strings.Contains(strings.ToLower(g.Text), filter) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// Mouse

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.width == 0 || m.pickerOpen {
		return m, nil
	}
	f := m.frame()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.wheel(f, msg, -1)
			return m, nil
		case tea.MouseButtonWheelDown:
			m.wheel(f, msg, 1)
			return m, nil
		case tea.MouseButtonLeft:
			return m.press(f, msg)
		}

	case tea.MouseActionMotion:
		switch {
		case m.resizer.Active():
			m.resizer.Move(msg.Y * cellHeightPx)
			m.clampScroll()
		case m.listCtl.Armed():
			id, _ := m.listRowAt(f, msg.Y)
			m.listCtl.Motion(id, msg.Y)
		case m.dragCtl.Dragging():
			if !f.inLanes(msg.X, msg.Y) {
				plan, _ := m.dragCtl.Leave(m.geometry())
				cmd := m.submit(plan)
				return m, cmd
			}
			m.dragCtl.Move(m.lanePoint(f, msg.X, msg.Y))
		}
		return m, nil

	case tea.MouseActionRelease:
		switch {
		case m.resizer.Active():
			m.resizer.End()
		case m.listCtl.Armed():
			if ev, ok := m.listCtl.Release(); ok {
				cmd := m.submit(listorder.Plan(ev))
				return m, cmd
			}
		case m.dragCtl.Dragging():
			plan, _ := m.dragCtl.End(m.geometry())
			cmd := m.submit(plan)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) press(f frame, msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Y == f.handleRow:
		m.resizer.Start(msg.Y * cellHeightPx)

	case f.inList(msg.Y):
		m.focusedPanel = FocusList
		if id, ok := m.listRowAt(f, msg.Y); ok {
			m.selectedID = id
			m.listCtl.Press(id, msg.Y)
		}

	case msg.Y == f.rulerRow && msg.X >= f.gutter:
		m.focusedPanel = FocusEditor
		p := m.lanePoint(f, msg.X, msg.Y)
		if ms, ok := m.dragCtl.Seek(p.X, m.scale); ok {
			cmd := m.seek(ms)
			return m, cmd
		}

	case f.inLanes(msg.X, msg.Y):
		m.focusedPanel = FocusEditor
		p := m.lanePoint(f, msg.X, msg.Y)
		st, _ := m.current()
		geo := m.geometry()
		if it, ok := geo.ClipAt(st.Items, p.X, p.Y); ok {
			r := geo.ClipRect(it)
			m.selectedID = it.GenerationID
			m.dragCtl.Start(it, p, trackdrag.Point{X: r.X, Y: r.Y})
			return m, nil
		}
		if ms, ok := m.dragCtl.Seek(p.X, m.scale); ok {
			cmd := m.seek(ms)
			return m, cmd
		}
	}
	return m, nil
}

func (m *Model) wheel(f frame, msg tea.MouseMsg, dir int) {
	switch {
	case f.inList(msg.Y):
		rows := max(1, f.listRows-1)
		last := max(0, len(m.displayItems())-rows)
		m.listFirst = max(0, min(last, m.listFirst+dir))
	case msg.Y >= f.handleRow:
		if msg.Shift {
			m.scrollLanes(dir)
			return
		}
		m.scrollX += float64(dir * wheelStepCols * cellWidthPx)
		m.clampScroll()
	}
}

// listRowAt returns the item shown on screen row y.
func (m Model) listRowAt(f frame, y int) (string, bool) {
	if !f.inList(y) || y == f.listTop {
		return "", false
	}
	i := m.listFirst + y - f.listTop - 1
	items := m.displayItems()
	if i < 0 || i >= len(items) {
		return "", false
	}
	return items[i].GenerationID, true
}

// lanePoint maps a screen cell to editor pixels at the cell's center.
func (m Model) lanePoint(f frame, x, y int) trackdrag.Point {
	return trackdrag.Point{
		X: float64((x-f.gutter)*cellWidthPx) + cellWidthPx/2 + m.scrollX,
		Y: float64((y-f.lanesTop+m.laneRow)*cellHeightPx) + cellHeightPx/2,
	}
}
