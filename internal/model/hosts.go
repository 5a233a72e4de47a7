package model

import "time"

// SourcesStatus summarizes which catalog sources exist locally.
type SourcesStatus struct {
	Existing int      `json:"existing"`
	Total    int      `json:"total"`
	Missing  []string `json:"missing"`
	AllExist bool     `json:"all_exist"`
}

// Extension is a blocklist category that can be merged into a hosts file.
type Extension struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Size        int64  `json:"size"`
	IsBase      bool   `json:"is_base"`
}

// ExtensionStat reports how many lines an extension contributed.
type ExtensionStat struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

// GenerateResult describes a generated hosts file.
type GenerateResult struct {
	Filename   string          `json:"filename"`
	Path       string          `json:"path"`
	Size       int64           `json:"size"`
	Lines      int             `json:"lines"`
	Extensions []ExtensionStat `json:"extensions"`
	Skipped    []string        `json:"skipped,omitempty"`
	Message    string          `json:"message"`
}

// OutputFile is a previously generated hosts file.
type OutputFile struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"` // "2006-01-02 15:04:05", local time
}

// Language is an available UI language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// JobAccepted is returned when the host accepts a job start request.
type JobAccepted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Run is a finished download or update job.
type Run struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Progress   int       `json:"progress"`
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
}

// GeneratedRecord is a hosts file recorded at generation time.
type GeneratedRecord struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Extensions []string  `json:"extensions"`
	Size       int64     `json:"size"`
	Lines      int       `json:"lines"`
	CreatedAt  time.Time `json:"created_at"`
}

// History is the recent job and generation log.
type History struct {
	Runs      []Run             `json:"runs"`
	Generated []GeneratedRecord `json:"generated"`
}
