package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostsgen/internal/i18n"
	"hostsgen/internal/model"
	"hostsgen/internal/poller"
	"hostsgen/internal/progress"
)

// fakeHost serves a scripted status sequence; every other call is canned.
type fakeHost struct {
	mu       sync.Mutex
	statuses []progress.Status
	polls    int
	starts   int
}

func (f *fakeHost) StartDownload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeHost) StartUpdate(ctx context.Context) error { return f.StartDownload(ctx) }

func (f *fakeHost) Status(context.Context) (progress.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.polls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.polls++
	return f.statuses[i], nil
}

func (f *fakeHost) SourcesStatus(context.Context) (model.SourcesStatus, error) {
	return model.SourcesStatus{Existing: 5, Total: 5, Missing: []string{}, AllExist: true}, nil
}

func (f *fakeHost) Extensions(context.Context) ([]model.Extension, error) {
	return testExtensions(), nil
}

func (f *fakeHost) Generate(context.Context, []string) (model.GenerateResult, error) {
	return model.GenerateResult{Filename: "hosts_20240101_000000_base"}, nil
}

func (f *fakeHost) OutputFiles(context.Context) ([]model.OutputFile, error) {
	return []model.OutputFile{}, nil
}

func (f *fakeHost) OpenOutputFolder(context.Context) error { return nil }

func (f *fakeHost) Languages(context.Context) ([]model.Language, error) {
	return []model.Language{{Code: "en", Name: "English"}, {Code: "es", Name: "Español"}}, nil
}

func (f *fakeHost) Strings(_ context.Context, code string) (i18n.Strings, error) {
	return i18n.New("", zerolog.Nop()).Strings(code), nil
}

func (f *fakeHost) History(context.Context, int) (model.History, error) {
	return model.History{}, nil
}

func testExtensions() []model.Extension {
	return []model.Extension{
		{Name: "base", Available: true, Size: 100, IsBase: true},
		{Name: "porn", Available: false},
		{Name: "social", Available: true, Size: 10},
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, h *fakeHost) Model {
	t.Helper()
	m := NewModel(context.Background(), h, Options{Lang: "en", PollInterval: 5 * time.Millisecond})
	t.Cleanup(func() {
		m.cancel()
		m.poller.Cancel()
	})
	next, _ := m.Update(stringsLoadedMsg{Lang: "en", Strings: i18n.New("", zerolog.Nop()).Strings("en")})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestTeaControlsAndCallbacks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan tea.Msg, 16)
	h := &fakeHost{statuses: []progress.Status{
		{Downloading: true, Progress: 40},
		{Downloading: false, Progress: 100},
	}}

	p := poller.New(poller.WithInterval(5*time.Millisecond), poller.WithControls(teaControls{ctx: ctx, ch: ch}))
	out, err := p.Run(ctx, h.StartUpdate, h.Status, teaCallbacks(ctx, ch, progress.KindUpdate))
	require.NoError(t, err)
	assert.Equal(t, poller.OutcomeSuccess, out.Kind)

	close(ch)
	var got []tea.Msg
	for msg := range ch {
		got = append(got, msg)
	}
	assert.Equal(t, []tea.Msg{
		controlsMsg{Disabled: true, Label: "working"},
		jobProgressMsg{Status: progress.Status{Downloading: true, Progress: 40}},
		jobProgressMsg{Status: progress.Status{Downloading: false, Progress: 100}},
		jobSucceededMsg{Kind: progress.KindUpdate},
		controlsMsg{Disabled: false},
	}, got)
}

func TestModel_ControlsDisableTriggers(t *testing.T) {
	m := newTestModel(t, &fakeHost{})

	m, _ = update(t, m, eventMsg{inner: controlsMsg{Disabled: true, Label: "downloading"}})
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), "Downloading...")

	_, cmd := update(t, m, key("d"))
	assert.Nil(t, cmd, "download must be ignored while a job runs")
	_, cmd = update(t, m, key("u"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, eventMsg{inner: jobProgressMsg{Status: progress.Status{Downloading: true, Progress: 60, CurrentSource: "downloading social"}}})
	assert.Contains(t, m.View(), "downloading social")
	assert.Contains(t, m.View(), " 60%")

	m, _ = update(t, m, eventMsg{inner: jobFailedMsg{Kind: progress.KindDownload, Reason: "error in social: HTTP 404"}})
	m, _ = update(t, m, eventMsg{inner: controlsMsg{Disabled: false}})
	assert.False(t, m.busy)
	require.NotNil(t, m.notice)
	assert.Equal(t, noticeError, m.notice.kind)
	assert.Equal(t, "Download error: error in social: HTTP 404", m.notice.text)

	// Stale expirations do not clear a newer notice.
	m, _ = update(t, m, noticeExpiredMsg{ID: m.notice.id - 1})
	assert.NotNil(t, m.notice)
	m, _ = update(t, m, noticeExpiredMsg{ID: m.notice.id})
	assert.Nil(t, m.notice)
}

func TestModel_SuccessSchedulesRefresh(t *testing.T) {
	m := newTestModel(t, &fakeHost{})
	m, cmd := update(t, m, eventMsg{inner: jobSucceededMsg{Kind: progress.KindUpdate}})
	require.NotNil(t, cmd)
	require.NotNil(t, m.notice)
	assert.Equal(t, "Sources updated successfully", m.notice.text)
}

func TestModel_Selection(t *testing.T) {
	m := newTestModel(t, &fakeHost{})
	m, _ = update(t, m, dataLoadedMsg{Extensions: testExtensions(), Sources: model.SourcesStatus{AllExist: true}})
	assert.Equal(t, []string{"base"}, m.selectedExtensions())

	// porn is unavailable and cannot be toggled.
	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key(" "))
	assert.Equal(t, []string{"base"}, m.selectedExtensions())

	m, _ = update(t, m, key("j"))
	m, _ = update(t, m, key(" "))
	assert.Equal(t, []string{"base", "social"}, m.selectedExtensions())

	m, _ = update(t, m, key("c"))
	assert.Equal(t, []string{"base"}, m.selectedExtensions())

	m, _ = update(t, m, key("a"))
	assert.Equal(t, []string{"base", "social"}, m.selectedExtensions())

	// A refresh keeps the user's selection.
	m, _ = update(t, m, dataLoadedMsg{Extensions: testExtensions()})
	assert.Equal(t, []string{"base", "social"}, m.selectedExtensions())

	// Nothing selected: generating warns instead of calling the host.
	m.selected = map[string]bool{}
	m, cmd := update(t, m, key("g"))
	require.NotNil(t, m.notice)
	assert.Equal(t, noticeWarning, m.notice.kind)
	assert.NotNil(t, cmd) // expiry tick only
}

func TestModel_StartJobDrivesPoller(t *testing.T) {
	h := &fakeHost{statuses: []progress.Status{
		{Downloading: true, Progress: 50},
		{Downloading: false, Progress: 100},
	}}
	m := newTestModel(t, h)

	m, cmd := update(t, m, key("d"))
	require.NotNil(t, cmd)
	assert.Nil(t, cmd())

	var kinds []string
	timeout := time.After(2 * time.Second)
	for {
		select {
		case msg := <-m.eventCh:
			m, _ = update(t, m, eventMsg{inner: msg})
			kinds = append(kinds, typeName(msg))
			if c, ok := msg.(controlsMsg); ok && !c.Disabled {
				assert.Equal(t, []string{"controlsMsg", "jobProgressMsg", "jobProgressMsg", "jobSucceededMsg", "controlsMsg"}, kinds)
				assert.False(t, m.busy)
				assert.Equal(t, "Sources downloaded successfully", m.notice.text)
				assert.Equal(t, 1, h.starts)
				return
			}
		case <-timeout:
			t.Fatalf("job did not finish; saw %v", kinds)
		}
	}
}

func TestModel_QuitCancelsSession(t *testing.T) {
	h := &fakeHost{statuses: []progress.Status{{Downloading: true, Progress: 10}}}
	m := newTestModel(t, h)

	_, cmd := update(t, m, key("u"))
	require.NotNil(t, cmd)
	cmd()
	s := m.poller.Active()
	require.NotNil(t, s)

	_, cmd = update(t, m, key("q"))
	require.NotNil(t, cmd)
	out, err := s.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, poller.OutcomeCancelled, out.Kind)
	assert.Equal(t, poller.StateIdle, m.poller.State())
}

func TestModel_LanguageCycle(t *testing.T) {
	m := newTestModel(t, &fakeHost{})
	m.languages = []model.Language{{Code: "en"}, {Code: "es"}}

	_, cmd := update(t, m, key("l"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(stringsLoadedMsg)
	require.True(t, ok)
	assert.Equal(t, "es", msg.Lang)

	m, _ = update(t, m, msg)
	assert.Equal(t, "Generador de Hosts", m.t("app_title"))
}

func typeName(v any) string {
	switch v.(type) {
	case controlsMsg:
		return "controlsMsg"
	case jobProgressMsg:
		return "jobProgressMsg"
	case jobSucceededMsg:
		return "jobSucceededMsg"
	case jobFailedMsg:
		return "jobFailedMsg"
	default:
		return "other"
	}
}
