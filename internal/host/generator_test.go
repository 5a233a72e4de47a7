package host

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostsgen/internal/downloader"
	"hostsgen/internal/model"
	"hostsgen/internal/poller"
	"hostsgen/internal/progress"
	"hostsgen/internal/sources"
	"hostsgen/internal/util"
)

// fakeFetcher writes "<name> content\n" for each source unless the source is
// listed in fail. When gate is non-nil every download waits on it.
type fakeFetcher struct {
	fail  map[string]error
	gate  chan struct{}
	mu    sync.Mutex
	calls [][]string
}

func (f *fakeFetcher) FetchAll(ctx context.Context, srcs []sources.Source, dir string, ev downloader.Events) error {
	f.mu.Lock()
	f.calls = append(f.calls, sources.Catalog(srcs).Names())
	f.mu.Unlock()

	if err := util.EnsureDir(dir); err != nil {
		return err
	}
	var errs []error
	for _, s := range srcs {
		if ev.Started != nil {
			ev.Started(s)
		}
		if f.gate != nil {
			select {
			case <-f.gate:
			case <-ctx.Done():
			}
		}
		res := downloader.Result{Source: s, Path: filepath.Join(dir, s.FileName())}
		if err := f.fail[s.Name]; err != nil {
			res.Err = err
			errs = append(errs, err)
		} else {
			data := s.Name + " content\n"
			res.Err = os.WriteFile(res.Path, []byte(data), 0o644)
			res.Bytes = int64(len(data))
		}
		if ev.Finished != nil {
			ev.Finished(res)
		}
	}
	return errors.Join(errs...)
}

func (f *fakeFetcher) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

type fakeRunner struct {
	specs []util.CmdSpec
	err   error
}

func (r *fakeRunner) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	r.specs = append(r.specs, spec)
	return util.CmdResult{}, r.err
}

type memoryHistory struct {
	mu        sync.Mutex
	runs      []model.Run
	generated []model.GeneratedRecord
}

func (h *memoryHistory) RecordRun(_ context.Context, r model.Run) (model.Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, r)
	return r, nil
}

func (h *memoryHistory) RecordGenerated(_ context.Context, g model.GeneratedRecord) (model.GeneratedRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.generated = append(h.generated, g)
	return g, nil
}

func (h *memoryHistory) History(context.Context, int) (model.History, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return model.History{Runs: h.runs, Generated: h.generated}, nil
}

type fixture struct {
	gen     *Generator
	fetcher *fakeFetcher
	history *memoryHistory
	runner  *fakeRunner
	srcDir  string
	outDir  string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		fetcher: &fakeFetcher{},
		history: &memoryHistory{},
		runner:  &fakeRunner{},
		srcDir:  filepath.Join(root, "hosts_sources"),
		outDir:  filepath.Join(root, "output"),
	}
	all := append([]Option{
		WithFetcher(f.fetcher),
		WithHistory(f.history),
		WithRunner(f.runner),
		WithClock(func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local) }),
	}, opts...)
	f.gen = NewGenerator(f.srcDir, f.outDir, all...)
	t.Cleanup(func() { _ = f.gen.Close() })
	return f
}

func (f *fixture) writeSource(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(f.srcDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.srcDir, name+".txt"), []byte(content), 0o644))
}

func TestGenerator_StartDownload_OnlyMissing(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "base", "0.0.0.0 a\n")
	f.writeSource(t, "porn", "0.0.0.0 p\n")
	ctx := context.Background()

	st, err := f.gen.SourcesStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.SourcesStatus{
		Existing: 2, Total: 5, Missing: []string{"fakenews", "gambling", "social"},
	}, st)

	require.NoError(t, f.gen.StartDownload(ctx))
	f.gen.Wait()

	assert.Equal(t, [][]string{{"fakenews", "gambling", "social"}}, f.fetcher.Calls())
	status, _ := f.gen.Status(ctx)
	assert.Equal(t, progress.Status{Progress: 100}, status)

	st, _ = f.gen.SourcesStatus(ctx)
	assert.True(t, st.AllExist)
	assert.Empty(t, st.Missing)

	require.Len(t, f.history.runs, 1)
	assert.Equal(t, "download", f.history.runs[0].Kind)
	assert.True(t, f.history.runs[0].Success)
}

func TestGenerator_StartDownload_NothingMissing(t *testing.T) {
	f := newFixture(t)
	for _, n := range sources.Default().Names() {
		f.writeSource(t, n, n+"\n")
	}

	require.NoError(t, f.gen.StartDownload(context.Background()))
	status, _ := f.gen.Status(context.Background())
	assert.Equal(t, progress.Status{Progress: 100, Message: "all sources already available"}, status)
	assert.Empty(t, f.fetcher.Calls())
	assert.False(t, f.gen.Running())
}

func TestGenerator_StartUpdate_FailureStaysBelowComplete(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fail = map[string]error{"social": errors.New("HTTP 404")}

	require.NoError(t, f.gen.StartUpdate(context.Background()))
	f.gen.Wait()

	status, _ := f.gen.Status(context.Background())
	assert.False(t, status.Downloading)
	assert.Equal(t, 80, status.Progress)
	assert.Equal(t, "error in social: HTTP 404", status.Message)
	assert.Equal(t, [][]string{sources.Default().Names()}, f.fetcher.Calls())

	require.Len(t, f.history.runs, 1)
	assert.False(t, f.history.runs[0].Success)
	assert.Equal(t, "update", f.history.runs[0].Kind)
}

func TestGenerator_RejectsConcurrentJobs(t *testing.T) {
	f := newFixture(t)
	f.fetcher.gate = make(chan struct{})
	ctx := context.Background()

	require.NoError(t, f.gen.StartUpdate(ctx))
	assert.True(t, f.gen.Running())
	assert.ErrorIs(t, f.gen.StartDownload(ctx), ErrJobRunning)
	assert.ErrorIs(t, f.gen.StartUpdate(ctx), ErrJobRunning)

	assert.Eventually(t, func() bool {
		status, _ := f.gen.Status(ctx)
		return status.Downloading && status.CurrentSource == "downloading base"
	}, time.Second, 5*time.Millisecond)

	close(f.fetcher.gate)
	f.gen.Wait()
	assert.False(t, f.gen.Running())
	assert.NoError(t, f.gen.StartUpdate(ctx))
	f.gen.Wait()
}

func TestGenerator_DrivenByPoller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := poller.New(poller.WithInterval(5 * time.Millisecond))

	var progressSeen []int
	succeeded := false
	out, err := p.Run(ctx, f.gen.StartUpdate, f.gen.Status, poller.Callbacks{
		Progress: func(s progress.Status) { progressSeen = append(progressSeen, s.Progress) },
		Success:  func() { succeeded = true },
		Failure:  func(reason string) { t.Errorf("unexpected failure: %s", reason) },
	})
	require.NoError(t, err)
	assert.Equal(t, poller.OutcomeSuccess, out.Kind)
	assert.True(t, succeeded)
	require.NotEmpty(t, progressSeen)
	assert.Equal(t, 100, progressSeen[len(progressSeen)-1])
}

func TestGenerator_Generate(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "base", "0.0.0.0 base1\n0.0.0.0 base2\n")
	f.writeSource(t, "social", "0.0.0.0 s1\n")
	f.writeSource(t, "porn", "0.0.0.0 p1\n0.0.0.0 p2")

	res, err := f.gen.Generate(context.Background(), []string{"social", "porn", "base", "social", "gambling"})
	require.NoError(t, err)

	assert.Equal(t, "hosts_20240506_070809_gambling_porn_social", res.Filename)
	assert.Equal(t, filepath.Join(f.outDir, res.Filename), res.Path)
	assert.Equal(t, []string{"gambling"}, res.Skipped)
	assert.Equal(t, []model.ExtensionStat{{Name: "porn", Lines: 2}, {Name: "social", Lines: 1}}, res.Extensions)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	want := "0.0.0.0 base1\n0.0.0.0 base2\n" +
		"\n\n# === PORN EXTENSION ===\n0.0.0.0 p1\n0.0.0.0 p2" +
		"\n\n# === SOCIAL EXTENSION ===\n0.0.0.0 s1\n"
	assert.Equal(t, want, string(data))
	assert.EqualValues(t, len(want), res.Size)
	assert.Equal(t, util.CountLines(want), res.Lines)
	assert.Contains(t, res.Message, "porn: 2 lines")
	assert.Contains(t, res.Message, "Skipped: gambling")

	require.Len(t, f.history.generated, 1)
	assert.Equal(t, []string{"porn", "social"}, f.history.generated[0].Extensions)
}

func TestGenerator_Generate_BaseOnly(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "base", "0.0.0.0 a\n")

	res, err := f.gen.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hosts_20240506_070809_base", res.Filename)
	assert.Empty(t, res.Extensions)
	assert.True(t, strings.HasSuffix(res.Message, "Extensions: base only (adware + malware)"))
}

func TestGenerator_Generate_BaseMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.gen.Generate(context.Background(), []string{"social"})
	assert.ErrorIs(t, err, ErrBaseMissing)
}

func TestGenerator_Extensions(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "base", "abc")
	f.writeSource(t, "social", "x")

	exts, err := f.gen.Extensions(context.Background())
	require.NoError(t, err)
	require.Len(t, exts, 5)
	assert.Equal(t, model.Extension{
		Name: "base", Description: "Base hosts (adware + malware)", Available: true, Size: 3, IsBase: true,
	}, exts[0])
	names := []string{}
	for _, e := range exts[1:] {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"fakenews", "gambling", "porn", "social"}, names)
	assert.False(t, exts[1].Available)
	assert.True(t, exts[4].Available)
}

func TestGenerator_OutputFiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	files, err := f.gen.OutputFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, os.MkdirAll(f.outDir, 0o755))
	old := filepath.Join(f.outDir, "hosts_20240101_000000_base")
	newer := filepath.Join(f.outDir, "hosts_20240102_000000_social")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("newer!"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.outDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(f.outDir, "hosts_dir"), 0o755))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	files, err = f.gen.OutputFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "hosts_20240102_000000_social", files[0].Name)
	assert.EqualValues(t, 6, files[0].Size)
	assert.Equal(t, "hosts_20240101_000000_base", files[1].Name)
	assert.Equal(t, past.Format("2006-01-02 15:04:05"), files[1].Modified)
}

func TestGenerator_OpenOutputFolder(t *testing.T) {
	f := newFixture(t, WithPlatform("darwin"))
	require.NoError(t, f.gen.OpenOutputFolder(context.Background()))
	require.Len(t, f.runner.specs, 1)
	assert.Equal(t, "open", f.runner.specs[0].Path)
	assert.Equal(t, []string{f.outDir}, f.runner.specs[0].Args)
	assert.DirExists(t, f.outDir)

	f.runner.err = errors.New("exit 3")
	assert.Error(t, f.gen.OpenOutputFolder(context.Background()))
}

func TestGenerator_LanguagesAndStrings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	langs, err := f.gen.Languages(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, langs)

	s, err := f.gen.Strings(ctx, "en")
	require.NoError(t, err)
	assert.Equal(t, "Update sources", s.T("update_sources"))
}

func TestGenerator_HistoryWithoutRecorder(t *testing.T) {
	g := NewGenerator(t.TempDir(), t.TempDir(), WithFetcher(&fakeFetcher{}))
	defer g.Close()
	h, err := g.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, h.Runs)
	assert.Empty(t, h.Generated)
}

func TestSummary_LargeFile(t *testing.T) {
	msg := summary(model.GenerateResult{
		Filename:   "hosts_20240506_070809_social",
		Size:       3565158,
		Lines:      131072,
		Extensions: []model.ExtensionStat{{Name: "social", Lines: 1}, {Name: "porn", Lines: 76543}},
	})
	assert.Contains(t, msg, "Size: 3.4 MB")
	assert.Contains(t, msg, "Total lines: 131,072")
	assert.Contains(t, msg, "Extensions: social: 1 line, porn: 76,543 lines")
}
