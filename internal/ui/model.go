package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"hostsgen/internal/host"
	"hostsgen/internal/i18n"
	"hostsgen/internal/model"
	"hostsgen/internal/poller"
	"hostsgen/internal/progress"
)

const (
	noticeTTL    = 4 * time.Second
	refreshDelay = time.Second
	maxFiles     = 8
)

type noticeKind int

const (
	noticeSuccess noticeKind = iota
	noticeWarning
	noticeError
)

type notice struct {
	id   int
	kind noticeKind
	text string
}

// Options configures the TUI.
type Options struct {
	Lang         string
	PollInterval time.Duration
	PollRetries  int
	Logger       zerolog.Logger
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	api    host.API
	poller *poller.Poller
	logger zerolog.Logger

	// Language
	lang      string
	strings   i18n.Strings
	languages []model.Language

	// Host data
	sources    model.SourcesStatus
	extensions []model.Extension
	files      []model.OutputFile
	selected   map[string]bool
	cursor     int
	loaded     bool

	// Job
	busy      bool
	busyLabel string
	status    progress.Status
	lastKind  progress.Kind

	notice    *notice
	noticeSeq int

	// UI
	width, height int
	styles        Styles
	spinner       spinner.Model
	bar           bubblesprogress.Model

	// Poller callbacks and control toggles arrive here as tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, api host.API, opts Options) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()
	ch := make(chan tea.Msg, 256)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = sty.Spinner

	lang := opts.Lang
	if lang == "" {
		lang = i18n.DefaultLanguage
	}

	p := poller.New(
		poller.WithInterval(opts.PollInterval),
		poller.WithPollRetries(opts.PollRetries),
		poller.WithControls(teaControls{ctx: c, ch: ch}),
		poller.WithBusyLabel("downloading"),
		poller.WithLogger(opts.Logger),
	)

	return Model{
		ctx:      c,
		cancel:   cancel,
		api:      api,
		poller:   p,
		logger:   opts.Logger.With().Str("component", "ui").Logger(),
		lang:     lang,
		strings:  i18n.Strings{},
		selected: map[string]bool{},
		styles:   sty,
		spinner:  sp,
		bar:      bubblesprogress.New(bubblesprogress.WithDefaultGradient(), bubblesprogress.WithWidth(40)),
		eventCh:  ch,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.listenEventsCmd(),
		m.loadStringsCmd(m.lang),
		m.refreshCmd(),
	)
}

func (m Model) t(key string) string {
	return m.strings.T(key)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		w := msg.Width - 12
		if w > 60 {
			w = 60
		}
		if w > 10 {
			m.bar.Width = w
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		next, cmd := m.handleEvent(msg.inner)
		return next, tea.Batch(cmd, next.listenEventsCmd())

	case stoppedMsg:
		return m, nil

	case dataLoadedMsg:
		if msg.Err != nil {
			return m.notify(noticeError, m.t("error")+": "+msg.Err.Error())
		}
		m.sources = msg.Sources
		m.extensions = msg.Extensions
		m.files = msg.Files
		m.applyDefaultSelection()
		m.loaded = true
		if m.cursor >= len(m.extensions) {
			m.cursor = 0
		}
		return m, nil

	case stringsLoadedMsg:
		if msg.Err != nil {
			return m.notify(noticeError, m.t("error")+": "+msg.Err.Error())
		}
		m.lang = msg.Lang
		m.strings = msg.Strings
		if len(msg.Languages) > 0 {
			m.languages = msg.Languages
		}
		return m, nil

	case generatedMsg:
		if msg.Err != nil {
			return m.notify(noticeError, m.t("error")+": "+msg.Err.Error())
		}
		next, cmd := m.notify(noticeSuccess, m.t("file_generated")+": "+msg.Result.Filename)
		return next, tea.Batch(cmd, next.(Model).refreshCmd())

	case folderOpenedMsg:
		if msg.Err != nil {
			return m.notify(noticeError, m.t("error")+": "+msg.Err.Error())
		}
		return m.notify(noticeSuccess, m.t("folder_opened"))

	case jobRejectedMsg:
		return m.notify(noticeWarning, m.t("error")+": "+msg.Err.Error())

	case refreshMsg:
		return m, m.refreshCmd()

	case noticeExpiredMsg:
		if m.notice != nil && m.notice.id == msg.ID {
			m.notice = nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleEvent(ev any) (Model, tea.Cmd) {
	switch ev := ev.(type) {
	case controlsMsg:
		m.busy = ev.Disabled
		m.busyLabel = ev.Label
		if m.busy {
			m.status = progress.Status{Downloading: true}
		}
		return m, nil

	case jobProgressMsg:
		m.status = ev.Status
		return m, nil

	case jobSucceededMsg:
		key := "sources_downloaded"
		if ev.Kind == progress.KindUpdate {
			key = "sources_updated"
		}
		next, cmd := m.notify(noticeSuccess, m.t(key))
		refresh := tea.Tick(refreshDelay, func(time.Time) tea.Msg { return refreshMsg{} })
		return next.(Model), tea.Batch(cmd, refresh)

	case jobFailedMsg:
		next, cmd := m.notify(noticeError, m.t("download_error")+": "+ev.Reason)
		return next.(Model), cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		// Cancelling the context first unblocks any callback waiting to
		// deliver to the event channel.
		m.cancel()
		m.poller.Cancel()
		return m, tea.Quit

	case "d":
		return m.startJob(progress.KindDownload)
	case "u":
		return m.startJob(progress.KindUpdate)

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.extensions)-1 {
			m.cursor++
		}
	case " ", "x":
		if m.cursor < len(m.extensions) {
			ext := m.extensions[m.cursor]
			if ext.Available {
				m.selected[ext.Name] = !m.selected[ext.Name]
			}
		}
	case "a":
		for _, ext := range m.extensions {
			if ext.Available {
				m.selected[ext.Name] = true
			}
		}
	case "c":
		for _, ext := range m.extensions {
			if !ext.IsBase {
				delete(m.selected, ext.Name)
			}
		}

	case "g", "enter":
		exts := m.selectedExtensions()
		if len(exts) == 0 {
			return m.notify(noticeWarning, m.t("select_extension_warning"))
		}
		return m, m.generateCmd(exts)

	case "r":
		next, cmd := m.notify(noticeSuccess, m.t("data_updated"))
		return next, tea.Batch(cmd, m.refreshCmd())
	case "o":
		return m, m.openFolderCmd()
	case "l":
		return m, m.loadStringsCmd(i18n.Next(m.languages, m.lang))
	}
	return m, nil
}

// startJob hands the job to the poller. While a session is active the
// download and update triggers are disabled and the key is ignored.
func (m Model) startJob(kind progress.Kind) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.lastKind = kind
	ctx, ch, p, api := m.ctx, m.eventCh, m.poller, m.api
	return m, func() tea.Msg {
		_, err := p.RunJob(ctx, host.Start(api, kind), api.Status, teaCallbacks(ctx, ch, kind))
		if errors.Is(err, poller.ErrBusy) {
			return jobRejectedMsg{Err: err}
		}
		return nil
	}
}

func (m *Model) applyDefaultSelection() {
	available := map[string]bool{}
	for _, ext := range m.extensions {
		available[ext.Name] = ext.Available
		if ext.IsBase && ext.Available && !m.loaded {
			m.selected[ext.Name] = true
		}
	}
	for name := range m.selected {
		if !available[name] {
			delete(m.selected, name)
		}
	}
}

func (m Model) selectedExtensions() []string {
	var out []string
	for _, ext := range m.extensions {
		if m.selected[ext.Name] {
			out = append(out, ext.Name)
		}
	}
	return out
}

func (m Model) notify(kind noticeKind, text string) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	id := m.noticeSeq
	m.notice = &notice{id: id, kind: kind, text: text}
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg{ID: id} })
}

func (m Model) listenEventsCmd() tea.Cmd {
	ctx, ch := m.ctx, m.eventCh
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return stoppedMsg{}
		case msg := <-ch:
			return eventMsg{inner: msg}
		}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		var (
			msg dataLoadedMsg
			err error
		)
		if msg.Sources, err = api.SourcesStatus(ctx); err != nil {
			return dataLoadedMsg{Err: err}
		}
		if msg.Extensions, err = api.Extensions(ctx); err != nil {
			return dataLoadedMsg{Err: err}
		}
		if msg.Files, err = api.OutputFiles(ctx); err != nil {
			return dataLoadedMsg{Err: err}
		}
		return msg
	}
}

func (m Model) loadStringsCmd(code string) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		s, err := api.Strings(ctx, code)
		if err != nil {
			return stringsLoadedMsg{Err: err}
		}
		langs, err := api.Languages(ctx)
		if err != nil {
			return stringsLoadedMsg{Err: err}
		}
		return stringsLoadedMsg{Lang: code, Strings: s, Languages: langs}
	}
}

func (m Model) generateCmd(exts []string) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		res, err := api.Generate(ctx, exts)
		return generatedMsg{Result: res, Err: err}
	}
}

func (m Model) openFolderCmd() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		return folderOpenedMsg{Err: api.OpenOutputFolder(ctx)}
	}
}

func missingText(s i18n.Strings, n int) string {
	return s.Get("missing_sources", map[string]string{"count": strconv.Itoa(n)})
}

func percentText(p int) string {
	return fmt.Sprintf("%3d%%", p)
}
