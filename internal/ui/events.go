package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"hostsgen/internal/poller"
	"hostsgen/internal/progress"
)

// send delivers msg unless ctx is done. Terminal and control messages must
// not be dropped, so they block rather than skip.
func send(ctx context.Context, ch chan<- tea.Msg, msg any) {
	select {
	case ch <- msg:
	case <-ctx.Done():
	}
}

// teaControls forwards the poller's control toggles to the model.
type teaControls struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

func (c teaControls) Disable(label string) {
	send(c.ctx, c.ch, controlsMsg{Disabled: true, Label: label})
}

func (c teaControls) Enable() {
	send(c.ctx, c.ch, controlsMsg{Disabled: false})
}

// teaCallbacks turns poller callbacks into model messages. Progress updates
// are dropped when the channel is full; outcomes never are.
func teaCallbacks(ctx context.Context, ch chan<- tea.Msg, kind progress.Kind) poller.Callbacks {
	return poller.Callbacks{
		Progress: func(st progress.Status) {
			if st.Terminal() {
				send(ctx, ch, jobProgressMsg{Status: st})
				return
			}
			select {
			case ch <- jobProgressMsg{Status: st}:
			default:
			}
		},
		Success: func() {
			send(ctx, ch, jobSucceededMsg{Kind: kind})
		},
		Failure: func(reason string) {
			send(ctx, ch, jobFailedMsg{Kind: kind, Reason: reason})
		},
	}
}
