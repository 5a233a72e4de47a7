// Package host implements the job host: source downloads, status reporting,
// hosts-file generation and the output folder.
package host

import (
	"context"
	"errors"

	"hostsgen/internal/i18n"
	"hostsgen/internal/model"
	"hostsgen/internal/progress"
)

var (
	// ErrJobRunning is returned when a download or update is already in progress.
	ErrJobRunning = errors.New("a download is already in progress")
	// ErrBaseMissing is returned by Generate when the base source has not been downloaded.
	ErrBaseMissing = errors.New("base hosts file not found; download the sources first")
)

// API is the surface a front end drives. Generator implements it in-process;
// the api package's Client implements it over HTTP.
type API interface {
	StartDownload(ctx context.Context) error
	StartUpdate(ctx context.Context) error
	Status(ctx context.Context) (progress.Status, error)

	SourcesStatus(ctx context.Context) (model.SourcesStatus, error)
	Extensions(ctx context.Context) ([]model.Extension, error)
	Generate(ctx context.Context, extensions []string) (model.GenerateResult, error)
	OutputFiles(ctx context.Context) ([]model.OutputFile, error)
	OpenOutputFolder(ctx context.Context) error

	Languages(ctx context.Context) ([]model.Language, error)
	Strings(ctx context.Context, code string) (i18n.Strings, error)
	History(ctx context.Context, limit int) (model.History, error)
}

// Start returns the host operation that begins a job of the given kind.
func Start(api API, kind progress.Kind) func(context.Context) error {
	if kind == progress.KindUpdate {
		return api.StartUpdate
	}
	return api.StartDownload
}
