package host

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"hostsgen/internal/downloader"
	"hostsgen/internal/i18n"
	"hostsgen/internal/metrics"
	"hostsgen/internal/model"
	"hostsgen/internal/progress"
	"hostsgen/internal/sources"
	"hostsgen/internal/util"
	"hostsgen/internal/util/format"
)

const (
	outputPrefix    = "hosts_"
	timestampLayout = "20060102_150405"
	modifiedLayout  = "2006-01-02 15:04:05"

	msgAllAvailable = "all sources already available"
)

// Fetcher downloads a set of sources into a directory.
type Fetcher interface {
	FetchAll(ctx context.Context, srcs []sources.Source, dir string, ev downloader.Events) error
}

// Recorder persists finished jobs and generated files.
type Recorder interface {
	RecordRun(ctx context.Context, r model.Run) (model.Run, error)
	RecordGenerated(ctx context.Context, g model.GeneratedRecord) (model.GeneratedRecord, error)
	History(ctx context.Context, limit int) (model.History, error)
}

// Generator is the in-process job host.
type Generator struct {
	sourcesDir string
	outputDir  string
	catalog    sources.Catalog
	fetcher    Fetcher
	history    Recorder
	lang       *i18n.Catalog
	runner     util.CmdRunner
	goos       string
	now        func() time.Time
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	status  progress.Status
	running bool
}

var _ API = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithCatalog replaces the default source catalog.
func WithCatalog(c sources.Catalog) Option {
	return func(g *Generator) {
		if len(c) > 0 {
			g.catalog = c
		}
	}
}

// WithFetcher injects the source downloader (useful for testing).
func WithFetcher(f Fetcher) Option {
	return func(g *Generator) {
		g.fetcher = f
	}
}

// WithHistory records finished jobs and generated files.
func WithHistory(r Recorder) Option {
	return func(g *Generator) {
		g.history = r
	}
}

// WithLanguages sets the UI string catalog.
func WithLanguages(c *i18n.Catalog) Option {
	return func(g *Generator) {
		g.lang = c
	}
}

// WithRunner injects the command runner used to open the output folder.
func WithRunner(r util.CmdRunner) Option {
	return func(g *Generator) {
		g.runner = r
	}
}

// WithPlatform overrides the GOOS used to pick the folder opener.
func WithPlatform(goos string) Option {
	return func(g *Generator) {
		g.goos = goos
	}
}

// WithClock overrides the time source used for file names and history.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator constructs a Generator storing sources in sourcesDir and
// generated files in outputDir.
func NewGenerator(sourcesDir, outputDir string, opts ...Option) *Generator {
	g := &Generator{
		sourcesDir: sourcesDir,
		outputDir:  outputDir,
		catalog:    sources.Default(),
		goos:       runtime.GOOS,
		now:        time.Now,
		logger:     zerolog.Nop(),
		status:     progress.Idle(),
	}
	for _, o := range opts {
		o(g)
	}
	if g.fetcher == nil {
		g.fetcher = downloader.New(downloader.Options{})
	}
	if g.runner == nil {
		g.runner = util.NewDefaultRunner()
	}
	if g.lang == nil {
		g.lang = i18n.New("", g.logger)
	}
	g.logger = g.logger.With().Str("component", "host").Logger()
	g.ctx, g.cancel = context.WithCancel(context.Background())
	return g
}

// Close cancels a running job and waits for it to finish.
func (g *Generator) Close() error {
	g.cancel()
	g.wg.Wait()
	return nil
}

// Wait blocks until no job goroutine is running.
func (g *Generator) Wait() {
	g.wg.Wait()
}

// Catalog returns the configured sources.
func (g *Generator) Catalog() sources.Catalog {
	return g.catalog
}

// OutputDir returns the directory generated files are written to.
func (g *Generator) OutputDir() string {
	return g.outputDir
}

// Status returns a snapshot of the current job status.
func (g *Generator) Status(context.Context) (progress.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, nil
}

// Running reports whether a job is in progress.
func (g *Generator) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

func (g *Generator) sourcePath(s sources.Source) string {
	return filepath.Join(g.sourcesDir, s.FileName())
}

// SourcesStatus reports which catalog sources are present locally.
func (g *Generator) SourcesStatus(context.Context) (model.SourcesStatus, error) {
	st := model.SourcesStatus{Total: len(g.catalog), Missing: []string{}}
	for _, s := range g.missing() {
		st.Missing = append(st.Missing, s.Name)
	}
	st.Existing = st.Total - len(st.Missing)
	st.AllExist = len(st.Missing) == 0
	return st, nil
}

func (g *Generator) missing() []sources.Source {
	var out []sources.Source
	for _, s := range g.catalog {
		if _, ok := util.FileSize(g.sourcePath(s)); !ok {
			out = append(out, s)
		}
	}
	return out
}

// Extensions lists every source with its local availability, base first.
func (g *Generator) Extensions(context.Context) ([]model.Extension, error) {
	out := make([]model.Extension, 0, len(g.catalog))
	for _, s := range g.catalog {
		size, ok := util.FileSize(g.sourcePath(s))
		out = append(out, model.Extension{
			Name:        s.Name,
			Description: s.Description,
			Available:   ok,
			Size:        size,
			IsBase:      s.IsBase(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsBase != out[j].IsBase {
			return out[i].IsBase
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Generate merges the base list with the requested extensions into a new
// timestamped file in the output directory. Unknown or missing extensions are
// skipped and listed in the result.
func (g *Generator) Generate(ctx context.Context, extensions []string) (model.GenerateResult, error) {
	base, ok := g.catalog.Lookup(sources.BaseName)
	if !ok {
		return model.GenerateResult{}, ErrBaseMissing
	}
	baseContent, err := os.ReadFile(g.sourcePath(base))
	if err != nil {
		if os.IsNotExist(err) {
			return model.GenerateResult{}, ErrBaseMissing
		}
		return model.GenerateResult{}, fmt.Errorf("read base: %w", err)
	}

	names := normalizeExtensions(extensions)
	created := g.now()
	filename := outputName(created, names)

	var (
		b       strings.Builder
		stats   []model.ExtensionStat
		skipped []string
	)
	b.Write(baseContent)
	for _, name := range names {
		src, ok := g.catalog.Lookup(name)
		if !ok {
			g.logger.Warn().Str("extension", name).Msg("unknown extension skipped")
			skipped = append(skipped, name)
			continue
		}
		data, err := os.ReadFile(g.sourcePath(src))
		if err != nil {
			g.logger.Warn().Err(err).Str("extension", name).Msg("extension not available, skipped")
			skipped = append(skipped, name)
			continue
		}
		fmt.Fprintf(&b, "\n\n# === %s EXTENSION ===\n", strings.ToUpper(name))
		b.Write(data)
		stats = append(stats, model.ExtensionStat{Name: name, Lines: util.CountLines(string(data))})
	}

	content := b.String()
	path := filepath.Join(g.outputDir, filename)
	size, err := util.WriteFileAtomic(path, strings.NewReader(content))
	if err != nil {
		return model.GenerateResult{}, fmt.Errorf("write %s: %w", filename, err)
	}

	res := model.GenerateResult{
		Filename:   filename,
		Path:       path,
		Size:       size,
		Lines:      util.CountLines(content),
		Extensions: stats,
		Skipped:    skipped,
	}
	res.Message = summary(res)
	metrics.GeneratedFilesTotal.Inc()

	g.logger.Info().
		Str("file", filename).
		Int64("size", size).
		Int("lines", res.Lines).
		Strs("skipped", skipped).
		Msg("hosts file generated")

	if g.history != nil {
		used := make([]string, 0, len(stats))
		for _, s := range stats {
			used = append(used, s.Name)
		}
		_, err := g.history.RecordGenerated(ctx, model.GeneratedRecord{
			Filename:   filename,
			Extensions: used,
			Size:       size,
			Lines:      res.Lines,
			CreatedAt:  created,
		})
		if err != nil {
			g.logger.Warn().Err(err).Msg("failed to record generated file")
		}
	}
	return res, nil
}

// normalizeExtensions trims, de-duplicates and sorts the requested names and
// drops the base list, which is always included.
func normalizeExtensions(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, n := range in {
		n = strings.TrimSpace(n)
		if n == "" || n == sources.BaseName || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func outputName(t time.Time, names []string) string {
	suffix := sources.BaseName
	if len(names) > 0 {
		suffix = strings.Join(names, "_")
	}
	return outputPrefix + t.Format(timestampLayout) + "_" + util.SanitizeFilename(suffix)
}

func summary(r model.GenerateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File generated: %s\n", r.Filename)
	fmt.Fprintf(&b, "Size: %s\n", format.HumanizeBytes(r.Size))
	fmt.Fprintf(&b, "Total lines: %s\n", format.Count(r.Lines))
	if len(r.Extensions) == 0 {
		b.WriteString("Extensions: base only (adware + malware)")
	} else {
		parts := make([]string, 0, len(r.Extensions))
		for _, e := range r.Extensions {
			parts = append(parts, e.Name+": "+format.Lines(e.Lines))
		}
		b.WriteString("Extensions: " + strings.Join(parts, ", "))
	}
	if len(r.Skipped) > 0 {
		b.WriteString("\nSkipped: " + strings.Join(r.Skipped, ", "))
	}
	return b.String()
}

// OutputFiles lists generated hosts files, newest first.
func (g *Generator) OutputFiles(context.Context) ([]model.OutputFile, error) {
	entries, err := os.ReadDir(g.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.OutputFile{}, nil
		}
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	type entry struct {
		file model.OutputFile
		mod  time.Time
	}
	var list []entry
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), outputPrefix) || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		list = append(list, entry{
			file: model.OutputFile{
				Name:     e.Name(),
				Size:     info.Size(),
				Modified: info.ModTime().Format(modifiedLayout),
			},
			mod: info.ModTime(),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].mod.Equal(list[j].mod) {
			return list[i].file.Name > list[j].file.Name
		}
		return list[i].mod.After(list[j].mod)
	})

	out := make([]model.OutputFile, 0, len(list))
	for _, e := range list {
		out = append(out, e.file)
	}
	return out, nil
}

// OpenOutputFolder opens the output directory in the platform file manager.
func (g *Generator) OpenOutputFolder(ctx context.Context) error {
	if err := util.EnsureDir(g.outputDir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	spec := util.OpenFolderSpec(g.goos, g.outputDir)
	g.logger.Debug().Str("cmd", util.ShellQuote(spec)).Msg("opening output folder")
	if _, err := g.runner.Run(ctx, spec); err != nil {
		return fmt.Errorf("open folder: %w", err)
	}
	return nil
}

// Languages lists the available UI languages.
func (g *Generator) Languages(context.Context) ([]model.Language, error) {
	return g.lang.Languages(), nil
}

// Strings returns the UI strings for code.
func (g *Generator) Strings(_ context.Context, code string) (i18n.Strings, error) {
	return g.lang.Strings(code), nil
}

// History returns the recent job and generation log. It is empty when no
// recorder is configured.
func (g *Generator) History(ctx context.Context, limit int) (model.History, error) {
	if g.history == nil {
		return model.History{Runs: []model.Run{}, Generated: []model.GeneratedRecord{}}, nil
	}
	return g.history.History(ctx, limit)
}
