// Package window owns the lifecycle of the single configure-job window.
package window

import (
	"context"
	"sync"

	"iso2god-desktop/internal/protocol"
)

// DefaultLabel is the fixed registry key of the configure window.
const DefaultLabel = "select-iso"

// State is the lifecycle state of a registered window.
type State string

const (
	StateClosed    State = "closed"
	StateOpening   State = "opening"
	StateReadyWait State = "ready_wait"
	StateActive    State = "active"
)

// CloseReason tells an Open caller how the window went away.
type CloseReason string

const (
	CloseReasonSaved     CloseReason = "saved"
	CloseReasonCancelled CloseReason = "cancelled"
	CloseReasonShutdown  CloseReason = "shutdown"
)

// Inbox receives messages emitted by a window. It is registered before the
// window exists, so no early message can be missed.
type Inbox func(protocol.Message)

// Window is a live secondary surface.
type Window interface {
	// Send delivers a controller message to the window page.
	Send(msg protocol.Message) error
	// Focus brings the window to the foreground.
	Focus() error
	// RequestClose asks the window to close. The window answers with
	// CloseRequested on its inbox.
	RequestClose() error
	// Destroy tears the window down without further messages.
	Destroy() error
}

// Factory constructs windows. Create may return before the page is ready and
// may call inbox from any goroutine, including during Create itself.
type Factory interface {
	Create(label string, inbox Inbox) (Window, error)
}

// Handle identifies one window instance. A reopened window under the same
// label gets a new generation, so messages from a torn-down instance are ignored.
type Handle struct {
	Label      string `json:"label"`
	Generation uint64 `json:"generation"`
}

// StateChange is published whenever a registered window changes state.
type StateChange struct {
	Handle Handle      `json:"handle"`
	State  State       `json:"state"`
	Reason CloseReason `json:"reason,omitempty"`
}

// Completion settles when the window opened by Open closes. It never settles
// if window creation fails.
type Completion struct {
	done   chan struct{}
	once   sync.Once
	reason CloseReason
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done is closed once the window has closed.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Reason returns the close reason. It is empty until Done is closed.
func (c *Completion) Reason() CloseReason {
	select {
	case <-c.done:
		return c.reason
	default:
		return ""
	}
}

// Wait blocks until the window closes or ctx ends.
func (c *Completion) Wait(ctx context.Context) (CloseReason, error) {
	select {
	case <-c.done:
		return c.reason, nil
	case <-ctx.Done():
		select {
		case <-c.done:
			return c.reason, nil
		default:
			return "", ctx.Err()
		}
	}
}

func (c *Completion) resolve(reason CloseReason) {
	c.once.Do(func() {
		c.reason = reason
		close(c.done)
	})
}
