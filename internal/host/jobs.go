package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hostsgen/internal/downloader"
	"hostsgen/internal/metrics"
	"hostsgen/internal/model"
	"hostsgen/internal/progress"
	"hostsgen/internal/sources"
)

const recordTimeout = 5 * time.Second

// StartDownload downloads the sources that are not present locally. When
// nothing is missing the job completes at once.
func (g *Generator) StartDownload(context.Context) error {
	return g.start(progress.KindDownload, g.missing())
}

// StartUpdate re-downloads every source.
func (g *Generator) StartUpdate(context.Context) error {
	return g.start(progress.KindUpdate, g.catalog)
}

func (g *Generator) start(kind progress.Kind, list []sources.Source) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		metrics.JobsRejectedTotal.Inc()
		return ErrJobRunning
	}
	started := g.now()
	if len(list) == 0 {
		g.status = progress.Status{Progress: progress.Complete, Message: msgAllAvailable}
		g.mu.Unlock()
		g.logger.Info().Str("kind", string(kind)).Msg(msgAllAvailable)
		g.finished(kind, started, g.status)
		return nil
	}
	g.running = true
	g.status = progress.Status{Downloading: true}
	g.wg.Add(1)
	g.mu.Unlock()

	metrics.JobRunning.Set(1)
	metrics.JobProgress.Set(0)
	g.logger.Info().Str("kind", string(kind)).Strs("sources", sources.Catalog(list).Names()).Msg("job started")

	go g.run(kind, started, list)
	return nil
}

func (g *Generator) run(kind progress.Kind, started time.Time, list []sources.Source) {
	defer g.wg.Done()

	var (
		total     = len(list)
		done      int
		succeeded int
		failures  []string
	)
	err := g.fetcher.FetchAll(g.ctx, list, g.sourcesDir, downloader.Events{
		Started: func(s sources.Source) {
			g.mu.Lock()
			g.status.CurrentSource = "downloading " + s.Name
			g.mu.Unlock()
		},
		Finished: func(r downloader.Result) {
			done++
			name := r.Source.Name
			if r.Err != nil {
				failures = append(failures, fmt.Sprintf("error in %s: %v", name, r.Err))
				metrics.SourceDownloadsTotal.WithLabelValues(name, metrics.OutcomeFailure).Inc()
				g.logger.Warn().Err(r.Err).Str("source", name).Msg("source download failed")
			} else {
				succeeded++
				metrics.SourceDownloadsTotal.WithLabelValues(name, metrics.OutcomeSuccess).Inc()
				metrics.SourceBytesTotal.WithLabelValues(name).Add(float64(r.Bytes))
				g.logger.Debug().Str("source", name).Int64("bytes", r.Bytes).Msg("source downloaded")
			}

			g.mu.Lock()
			g.status.Progress = done * progress.Complete / total
			if len(failures) > 0 {
				g.status.Message = failures[len(failures)-1]
			}
			g.mu.Unlock()
			metrics.JobProgress.Set(float64(done * progress.Complete / total))
		},
	})

	final := progress.Status{Progress: progress.Complete}
	if err != nil {
		// A failed source keeps the job below completion so it reads as failed.
		final.Progress = succeeded * progress.Complete / total
		if final.Progress >= progress.Complete {
			final.Progress = progress.Complete - 1
		}
		final.Message = strings.Join(failures, "; ")
		if final.Message == "" {
			final.Message = err.Error()
		}
	}

	g.mu.Lock()
	g.status = final
	g.running = false
	g.mu.Unlock()

	metrics.JobRunning.Set(0)
	g.finished(kind, started, final)
}

func (g *Generator) finished(kind progress.Kind, started time.Time, st progress.Status) {
	ok := st.Succeeded()
	finished := g.now()
	metrics.JobsTotal.WithLabelValues(string(kind), metrics.Outcome(ok)).Inc()
	metrics.JobDuration.WithLabelValues(string(kind)).Observe(finished.Sub(started).Seconds())
	metrics.JobProgress.Set(float64(st.Progress))

	ev := g.logger.Info()
	if !ok {
		ev = g.logger.Warn()
	}
	ev.Str("kind", string(kind)).
		Int("progress", st.Progress).
		Str("message", st.Message).
		Dur("took", finished.Sub(started)).
		Msg("job finished")

	if g.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	_, err := g.history.RecordRun(ctx, model.Run{
		Kind:       string(kind),
		StartedAt:  started,
		FinishedAt: finished,
		Progress:   st.Progress,
		Success:    ok,
		Message:    st.Message,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("failed to record run")
	}
}
