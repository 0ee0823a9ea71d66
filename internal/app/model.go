package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwulff/storytrack/internal/engine"
	"github.com/jwulff/storytrack/internal/layout"
	"github.com/jwulff/storytrack/internal/listorder"
	"github.com/jwulff/storytrack/internal/mixdown"
	"github.com/jwulff/storytrack/internal/playback"
	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
	"github.com/jwulff/storytrack/internal/trackdrag"
)

// requestTimeout bounds every store call made from the TUI.
const requestTimeout = 30 * time.Second

// clockInterval is the built-in clock resolution.
const clockInterval = 100 * time.Millisecond

// waveformBuckets is the peak resolution loaded per clip.
const waveformBuckets = 256

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusList PanelFocus = iota
	FocusEditor
)

// Shared is the process-wide state every view reads: the editor height and
// the playback transport.
type Shared struct {
	Height   *layout.Height
	Playback *playback.State
}

// NewShared returns shared state with default values.
func NewShared() Shared {
	return Shared{
		Height:   layout.NewHeight(layout.DefaultHeight),
		Playback: playback.NewState(),
	}
}

// Options configure a Model.
type Options struct {
	Store           story.Store
	Shared          Shared
	EngineURL       string
	StoryID         string
	PixelsPerSecond float64
	ExportDir       string
}

// Model is the root bubbletea model for the story editor.
type Model struct {
	store     story.Store
	shared    Shared
	engineURL string
	exportDir string

	// Stories
	stories    []story.Summary
	storyIndex int
	wantStory  string
	session    *story.Session
	loadError  string

	// Selection and gestures
	selectedID string
	listCtl    listorder.Controller
	dragCtl    trackdrag.Controller
	resizer    *layout.Resizer

	// Editor viewport
	scale     timeline.Scale
	scrollX   float64
	laneRow   int
	listFirst int
	waveforms map[string][]float64 // nil entry: requested or unavailable

	// Playback
	sync        *playback.Synchronizer
	activeID    string
	engine      *engine.Client
	engineRetry int
	clockOn     bool
	lastTick    time.Time

	// Add-item picker
	pickerOpen   bool
	picker       textinput.Model
	generations  []story.Generation
	pickerCursor int

	// UI state
	focusedPanel PanelFocus
	width        int
	height       int
	keys         KeyMap
	help         help.Model

	// Toast
	errorMessage   string
	errorTransient bool
	notice         string

	// Store reconnect
	reconnecting     bool
	reconnectAttempt int
}

// New creates a new Model with default state.
func New(opts Options) Model {
	if opts.Shared.Height == nil || opts.Shared.Playback == nil {
		opts.Shared = NewShared()
	}
	scale := timeline.DefaultScale()
	if opts.PixelsPerSecond > 0 {
		scale = timeline.NewScale(opts.PixelsPerSecond)
	}
	ti := textinput.New()
	ti.Placeholder = "filter generations"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	return Model{
		store:        opts.Store,
		shared:       opts.Shared,
		engineURL:    opts.EngineURL,
		exportDir:    opts.ExportDir,
		wantStory:    opts.StoryID,
		resizer:      layout.NewResizer(opts.Shared.Height),
		scale:        scale,
		waveforms:    make(map[string][]float64),
		sync:         playback.NewSynchronizer(opts.Shared.Playback),
		picker:       ti,
		focusedPanel: FocusList,
		keys:         DefaultKeyMap(),
		help:         help.New(),
	}
}

// Init loads the story list and connects the playback engine.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadStoriesCmd(m.store)}
	if m.engineURL != "" {
		cmds = append(cmds, connectEngineCmd(m.engineURL))
	}
	return tea.Batch(cmds...)
}

func loadStoriesCmd(store story.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		stories, err := store.ListStories(ctx)
		if err != nil {
			return StoriesErrorMsg{Err: err}
		}
		return StoriesLoadedMsg{Stories: stories}
	}
}

func loadStoryCmd(store story.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := store.GetStory(ctx, id)
		if err != nil {
			return ActionErrorMsg{Action: "load story", Err: err}
		}
		return StoryLoadedMsg{Story: st}
	}
}

// applyCmd sends one mutation to the store.
func applyCmd(store story.Store, mut story.Mutation) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		st, err := mut.Apply(ctx, store)
		if err != nil {
			slog.Warn("Mutation rejected", "action", mut.Action(), "story", mut.StoryID, "error", err)
		}
		return MutationResultMsg{Result: story.Result{Mutation: mut, Story: st, Err: err}}
	}
}

func loadGenerationsCmd(store story.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		gens, err := store.ListGenerations(ctx)
		if err != nil {
			return ActionErrorMsg{Action: "load generations", Err: err}
		}
		return GenerationsLoadedMsg{Generations: gens}
	}
}

func exportCmd(store story.Store, st story.Story, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		data, err := store.ExportAudio(ctx, st.ID)
		if err != nil {
			return ActionErrorMsg{Action: "export story", Err: err}
		}
		path := filepath.Join(dir, exportName(st))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return ActionErrorMsg{Action: "export story", Err: err}
		}
		return ExportDoneMsg{Path: path, Bytes: len(data)}
	}
}

// exportName turns a story name into a file name.
func exportName(st story.Story) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		}
		return -1
	}, st.Name)
	if name == "" {
		name = st.ID
	}
	return name + ".wav"
}

func connectEngineCmd(url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		client, err := engine.Dial(ctx, url)
		if err != nil {
			return EngineErrorMsg{Err: err}
		}
		return EngineConnectedMsg{Client: client}
	}
}

// readEngineEventCmd reads the next event from the engine.
func readEngineEventCmd(client *engine.Client) tea.Cmd {
	return func() tea.Msg {
		ev, err := client.ReadEvent()
		if err != nil {
			return EngineErrorMsg{Client: client, Err: err}
		}
		return EngineEventMsg{Client: client, Event: ev}
	}
}

func sendEngineCmd(client *engine.Client, cmds ...engine.Command) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		for _, c := range cmds {
			if err := client.Send(c); err != nil {
				return EngineErrorMsg{Client: client, Err: err}
			}
		}
		return nil
	}
}

func waveformCmd(store story.Store, generationID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		peaks, err := mixdown.FetchPeaks(ctx, store.AudioURL(generationID), waveformBuckets)
		return WaveformLoadedMsg{GenerationID: generationID, Peaks: peaks, Err: err}
	}
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg {
		return ClockTickMsg{At: t}
	})
}

// clearTransientErrorCmd fires after a delay to clear transient toasts.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// reconnectCmd schedules a retry with exponential backoff.
func reconnectCmd(attempt int, msg tea.Msg) tea.Cmd {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second // 1s, 2s, 4s, 8s, 16s cap
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return msg
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.pickerOpen {
			return m.handlePickerKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case StoriesLoadedMsg:
		m.stories = msg.Stories
		m.reconnecting = false
		m.reconnectAttempt = 0
		m.loadError = ""
		if len(m.stories) == 0 {
			return m, nil
		}
		m.storyIndex = 0
		if i := slices.IndexFunc(m.stories, func(s story.Summary) bool { return s.ID == m.wantStory }); i >= 0 {
			m.storyIndex = i
		}
		return m, loadStoryCmd(m.store, m.stories[m.storyIndex].ID)

	case StoriesErrorMsg:
		m.loadError = msg.Err.Error()
		m.reconnecting = true
		return m, reconnectCmd(m.reconnectAttempt, ReconnectTickMsg{})

	case ReconnectTickMsg:
		m.reconnectAttempt++
		return m, loadStoriesCmd(m.store)

	case StoryLoadedMsg:
		m.installStory(msg.Story)
		cmd := m.loadWaveforms()
		return m, cmd

	case WaveformLoadedMsg:
		if msg.Err != nil {
			slog.Debug("Waveform unavailable", "generation", msg.GenerationID, "error", msg.Err)
			return m, nil
		}
		m.waveforms[msg.GenerationID] = msg.Peaks
		return m, nil

	case MutationResultMsg:
		return m.handleResult(msg.Result)

	case GenerationsLoadedMsg:
		m.generations = msg.Generations
		m.pickerCursor = 0
		return m, nil

	case ActionErrorMsg:
		cmd := m.toastError(msg.Action, msg.Err)
		return m, cmd

	case ExportDoneMsg:
		m.notice = fmt.Sprintf("Exported %s (%d KB)", msg.Path, msg.Bytes/1024)
		m.errorMessage = ""
		return m, clearTransientErrorCmd()

	case EngineConnectedMsg:
		if m.engine != nil && m.engine != msg.Client {
			m.engine.Close()
		}
		m.engine = msg.Client
		m.engineRetry = 0
		slog.Info("Playback engine connected", "url", m.engineURL)
		return m, readEngineEventCmd(m.engine)

	case EngineEventMsg:
		// Events from a client already replaced or closed are dropped.
		if msg.Client == nil || msg.Client != m.engine {
			return m, nil
		}
		cmd := m.handleEngineEvent(msg.Event)
		return m, tea.Batch(cmd, readEngineEventCmd(m.engine))

	case EngineErrorMsg:
		return m.handleEngineError(msg)

	case EngineReconnectTickMsg:
		m.engineRetry++
		return m, connectEngineCmd(m.engineURL)

	case ClockTickMsg:
		return m.handleClockTick(msg)

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		m.notice = ""
		return m, nil
	}

	return m, nil
}

// installStory makes st the confirmed story shown in both panels.
func (m *Model) installStory(st story.Story) {
	if m.session != nil && m.session.Confirmed().ID == st.ID {
		if _, pending := m.session.Pending(); pending {
			return
		}
		m.session.Replace(st)
	} else {
		m.session = story.NewSession(st)
		m.scrollX = 0
		m.laneRow = 0
		m.listFirst = 0
		m.listCtl.Cancel()
		if _, dragging := m.dragCtl.Session(); dragging {
			m.dragCtl = trackdrag.Controller{}
		}
	}
	if !st.Has(m.selectedID) {
		m.selectedID = ""
		if len(st.Items) > 0 {
			m.selectedID = story.Sorted(st.Items)[0].GenerationID
		}
	}
	if i := slices.IndexFunc(m.stories, func(s story.Summary) bool { return s.ID == st.ID }); i >= 0 {
		m.storyIndex = i
		m.stories[i].ItemCount = len(st.Items)
	}
}

// loadWaveforms requests peaks for clips not seen before.
func (m *Model) loadWaveforms() tea.Cmd {
	st, ok := m.current()
	if !ok {
		return nil
	}
	var cmds []tea.Cmd
	for _, it := range st.Items {
		if _, seen := m.waveforms[it.GenerationID]; seen {
			continue
		}
		m.waveforms[it.GenerationID] = nil
		cmds = append(cmds, waveformCmd(m.store, it.GenerationID))
	}
	return tea.Batch(cmds...)
}

// submit offers a plan to the session and dispatches the resulting mutation.
func (m *Model) submit(p story.Plan) tea.Cmd {
	if m.session == nil || p == nil {
		return nil
	}
	mut, ok := m.session.Submit(p)
	if !ok {
		return nil
	}
	return applyCmd(m.store, mut)
}

func (m Model) handleResult(r story.Result) (tea.Model, tea.Cmd) {
	if m.session == nil || m.session.Confirmed().ID != r.Mutation.StoryID {
		return m, nil
	}
	var cmds []tea.Cmd
	next, ok := m.session.Resolve(r)
	if r.Err != nil {
		cmds = append(cmds, m.toastError(r.Mutation.Action(), r.Err))
	} else {
		m.installStory(r.Story)
		cmds = append(cmds, m.loadWaveforms())
		if m.shared.Playback.Playing(r.Story.ID) {
			// Clip placement changed under a running transport.
			cmds = append(cmds, m.play())
		}
	}
	if ok {
		cmds = append(cmds, applyCmd(m.store, next))
	}
	return m, tea.Batch(cmds...)
}

// toastError shows "Failed to <action>: <detail>" until the next clear tick.
func (m *Model) toastError(action string, err error) tea.Cmd {
	detail := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		detail = "request timed out"
	}
	m.errorMessage = fmt.Sprintf("Failed to %s: %s", action, detail)
	m.errorTransient = true
	m.notice = ""
	return clearTransientErrorCmd()
}

// current returns the story as displayed: confirmed plus any in-flight move
// or removal.
func (m Model) current() (story.Story, bool) {
	if m.session == nil {
		return story.Story{}, false
	}
	return m.session.Optimistic(), true
}

// displayItems is the list order, honoring an in-flight reorder.
func (m Model) displayItems() []story.Item {
	st, ok := m.current()
	if !ok {
		return nil
	}
	pending, _ := m.session.PendingOrder()
	return listorder.Display(st.Items, pending)
}

func (m Model) geometry() timeline.Geometry {
	st, _ := m.current()
	return timeline.Compute(st.Items, m.scale, float64(m.frame().lanesCols*cellWidthPx))
}

// Transport

func (m *Model) play() tea.Cmd {
	st, ok := m.current()
	if !ok || len(st.Items) == 0 {
		return nil
	}
	items := story.Sorted(st.Items)
	pb := m.shared.Playback
	pb.Play(st.ID, items)
	if m.engine != nil {
		at := int64(pb.Snapshot().CurrentTimeMs)
		return sendEngineCmd(m.engine,
			engine.Play(st.ID, engine.Clips(items, m.store.AudioURL)),
			engine.Seek(at))
	}
	return m.startClock()
}

func (m *Model) pause() tea.Cmd {
	m.shared.Playback.Pause()
	m.observePlayback()
	return sendEngineCmd(m.engine, engine.Pause())
}

func (m *Model) stop() tea.Cmd {
	m.shared.Playback.Stop()
	m.observePlayback()
	return sendEngineCmd(m.engine, engine.Stop())
}

func (m *Model) seek(ms int64) tea.Cmd {
	m.shared.Playback.Seek(float64(ms))
	m.observePlayback()
	return sendEngineCmd(m.engine, engine.Seek(ms))
}

// handleEngineError drops the link and schedules one reconnect. Failures
// reported by a client that is no longer current were handled already.
func (m Model) handleEngineError(msg EngineErrorMsg) (tea.Model, tea.Cmd) {
	if msg.Client != m.engine {
		return m, nil
	}
	slog.Warn("Playback engine unavailable", "error", msg.Err)
	if m.engine != nil {
		m.engine.Close()
		m.engine = nil
	}
	var cmd tea.Cmd
	if m.shared.Playback.Snapshot().IsPlaying {
		cmd = m.startClock()
	}
	return m, tea.Batch(cmd, reconnectCmd(m.engineRetry, EngineReconnectTickMsg{}))
}

func (m *Model) startClock() tea.Cmd {
	if m.clockOn {
		return nil
	}
	m.clockOn = true
	m.lastTick = time.Time{}
	return clockTickCmd()
}

func (m Model) handleClockTick(msg ClockTickMsg) (tea.Model, tea.Cmd) {
	pb := m.shared.Playback
	if m.engine != nil || !pb.Snapshot().IsPlaying {
		m.clockOn = false
		m.observePlayback()
		return m, nil
	}
	delta := clockInterval
	if !m.lastTick.IsZero() {
		delta = msg.At.Sub(m.lastTick)
	}
	m.lastTick = msg.At
	if pb.Advance(float64(delta.Milliseconds())) {
		m.clockOn = false
		m.observePlayback()
		return m, nil
	}
	m.observePlayback()
	return m, clockTickCmd()
}

func (m *Model) handleEngineEvent(ev engine.Event) tea.Cmd {
	pb := m.shared.Playback
	var cmd tea.Cmd
	switch ev.Event {
	case engine.EventTime:
		if ev.CurrentTimeMs != nil {
			pb.Tick(*ev.CurrentTimeMs)
		}
	case engine.EventEnded:
		pb.Ended()
	case engine.EventError:
		pb.Pause()
		cmd = m.toastError("play story", errors.New(ev.Message))
	}
	m.observePlayback()
	return cmd
}

// observePlayback derives the active item and scrolls it into view once.
func (m *Model) observePlayback() {
	st, ok := m.current()
	if !ok {
		m.activeID = ""
		return
	}
	id, it, scroll := m.sync.Observe(st.ID, st.Items)
	m.activeID = id
	if scroll {
		m.scrollIntoView(it)
	}
}

func (m *Model) scrollIntoView(it story.Item) {
	f := m.frame()
	viewW := float64(f.lanesCols * cellWidthPx)
	x := m.scale.MsToPixels(float64(it.StartTimeMs))
	if x < m.scrollX || x >= m.scrollX+viewW {
		m.scrollX = max(0, x-2*cellWidthPx)
	}
	geo := m.geometry()
	if idx := geo.TrackIndex(it.Track); idx >= 0 {
		row := idx * rowsPerTrack
		if row < m.laneRow || row+rowsPerTrack > m.laneRow+f.lanesRows {
			m.laneRow = row
		}
	}
	items := m.displayItems()
	if i := slices.IndexFunc(items, func(x story.Item) bool { return x.GenerationID == it.GenerationID }); i >= 0 {
		m.ensureListVisible(i)
	}
}

func (m *Model) ensureListVisible(i int) {
	rows := max(1, m.frame().listRows-1)
	if i < m.listFirst {
		m.listFirst = i
	}
	if i >= m.listFirst+rows {
		m.listFirst = i - rows + 1
	}
}

// Close releases the engine link. The program owner calls it on the final
// model once the program exits.
func (m Model) Close() {
	if m.engine != nil {
		m.engine.Close()
	}
}
