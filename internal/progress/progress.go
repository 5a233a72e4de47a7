package progress

// Kind identifies which host-side job is being driven.
type Kind string

const (
	KindDownload Kind = "download"
	KindUpdate   Kind = "update"
)

// Complete is the only progress value that marks a finished job as successful.
const Complete = 100

// Status is the job status reported by the host on every poll.
// Progress is 0..100; Message carries the host diagnostic and matters on failure.
type Status struct {
	Downloading   bool   `json:"downloading"`
	Progress      int    `json:"progress"`
	CurrentSource string `json:"current_source"`
	Message       string `json:"message"`
}

// Terminal reports whether the job has stopped running.
func (s Status) Terminal() bool {
	return !s.Downloading
}

// Succeeded reports whether a terminal status represents success.
// Progress is the sole discriminator; a message does not turn 100 into a failure.
func (s Status) Succeeded() bool {
	return s.Progress == Complete
}

// Clamp returns the progress bounded to 0..100.
func (s Status) Clamp() int {
	switch {
	case s.Progress < 0:
		return 0
	case s.Progress > Complete:
		return Complete
	default:
		return s.Progress
	}
}

// Idle is the status of a host that has never run a job.
func Idle() Status {
	return Status{}
}
