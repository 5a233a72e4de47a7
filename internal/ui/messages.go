package ui

import (
	"hostsgen/internal/i18n"
	"hostsgen/internal/model"
	"hostsgen/internal/progress"
)

// eventMsg wraps a message that arrived over the model's event channel so
// Update knows to re-arm the listener.
type eventMsg struct {
	inner any
}

type controlsMsg struct {
	Disabled bool
	Label    string
}

type jobProgressMsg struct {
	Status progress.Status
}

type jobSucceededMsg struct {
	Kind progress.Kind
}

type jobFailedMsg struct {
	Kind   progress.Kind
	Reason string
}

type jobRejectedMsg struct {
	Err error
}

type dataLoadedMsg struct {
	Sources    model.SourcesStatus
	Extensions []model.Extension
	Files      []model.OutputFile
	Err        error
}

type stringsLoadedMsg struct {
	Lang      string
	Strings   i18n.Strings
	Languages []model.Language
	Err       error
}

type generatedMsg struct {
	Result model.GenerateResult
	Err    error
}

type folderOpenedMsg struct {
	Err error
}

type refreshMsg struct{}

type noticeExpiredMsg struct {
	ID int
}

type stoppedMsg struct{}
