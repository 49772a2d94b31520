package window

import (
	"sync"

	"go.uber.org/zap"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/notify"
	"iso2god-desktop/internal/protocol"
)

// JobSink receives jobs committed by the configure window.
type JobSink interface {
	Add(job domain.Job) bool
}

// entry is the registry slot for one live window.
type entry struct {
	handle     Handle
	state      State
	window     Window
	completion *Completion
	source     string
	readySeen  bool
	saved      bool
}

// Controller enforces a single live configure window and sequences the
// page-ready handshake, save, and close.
type Controller struct {
	mu      sync.Mutex
	factory Factory
	jobs    JobSink
	logger  *zap.Logger
	label   string
	nextGen uint64
	entries map[string]*entry
	hub     notify.Hub[StateChange]
}

// NewController creates a controller for the window registered under label.
// An empty label selects DefaultLabel.
func NewController(factory Factory, jobs JobSink, label string, logger *zap.Logger) *Controller {
	if label == "" {
		label = DefaultLabel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		factory: factory,
		jobs:    jobs,
		logger:  logger.With(zap.String("window", label)),
		label:   label,
		entries: make(map[string]*entry),
	}
}

// Open shows the configure window, creating it if no instance is live.
// A live instance is focused and its completion returned; a different
// initialSource replaces the one pushed to the page.
func (c *Controller) Open(initialSource string) *Completion {
	c.mu.Lock()
	if e, ok := c.entries[c.label]; ok {
		return c.reuseLocked(e, initialSource)
	}

	c.nextGen++
	e := &entry{
		handle:     Handle{Label: c.label, Generation: c.nextGen},
		state:      StateOpening,
		completion: newCompletion(),
		source:     initialSource,
	}
	c.entries[c.label] = e
	c.mu.Unlock()

	c.publish(e.handle, StateOpening, "")

	handle := e.handle
	w, err := c.factory.Create(c.label, func(msg protocol.Message) { c.Dispatch(handle, msg) })

	c.mu.Lock()
	if c.entries[c.label] != e {
		// Closed or shut down while the window was being built.
		c.mu.Unlock()
		if w != nil {
			c.destroy(w)
		}
		return e.completion
	}
	if err != nil {
		delete(c.entries, c.label)
		c.mu.Unlock()
		c.logger.Error("create configure window", zap.Uint64("generation", handle.Generation), zap.Error(err))
		c.publish(handle, StateClosed, "")
		return e.completion
	}

	e.window = w
	var push string
	if e.readySeen {
		e.state = StateActive
		push = e.source
	} else {
		e.state = StateReadyWait
	}
	state := e.state
	c.mu.Unlock()

	c.publish(handle, state, "")
	c.focus(w)
	if push != "" {
		c.send(w, protocol.IsoSelected{Path: push})
	}
	return e.completion
}

// reuseLocked focuses the live instance instead of creating a second one.
// c.mu must be held; it is released before returning.
func (c *Controller) reuseLocked(e *entry, initialSource string) *Completion {
	var push string
	if initialSource != "" && initialSource != e.source {
		e.source = initialSource
		if e.state == StateActive {
			push = initialSource
		}
	}
	w := e.window
	state := e.state
	completion := e.completion
	c.mu.Unlock()

	c.logger.Debug("configure window already open", zap.String("state", string(state)))
	if w != nil {
		c.focus(w)
		if push != "" {
			c.send(w, protocol.IsoSelected{Path: push})
		}
	}
	return completion
}

// Dispatch applies one message emitted by the window identified by h.
// Messages from unknown or stale handles and messages that do not fit the
// current state are ignored.
func (c *Controller) Dispatch(h Handle, msg protocol.Message) {
	c.mu.Lock()
	e, ok := c.entries[h.Label]
	if !ok || e.handle != h {
		c.mu.Unlock()
		c.logger.Debug("ignoring message from stale window",
			zap.String("kind", kindOf(msg)),
			zap.Uint64("generation", h.Generation))
		return
	}

	switch m := msg.(type) {
	case protocol.PageReady:
		c.pageReadyLocked(e)
	case protocol.Save:
		c.saveLocked(e, m.Job)
	case protocol.CloseRequested:
		c.closeLocked(e)
	case protocol.CreationError:
		c.creationErrorLocked(e, m.Reason)
	default:
		c.mu.Unlock()
		c.logger.Warn("unexpected message from configure window", zap.String("kind", kindOf(msg)))
	}
}

func (c *Controller) pageReadyLocked(e *entry) {
	if e.state == StateOpening {
		e.readySeen = true
		c.mu.Unlock()
		return
	}

	e.state = StateActive
	w := e.window
	source := e.source
	c.mu.Unlock()

	c.publish(e.handle, StateActive, "")
	if source != "" {
		c.send(w, protocol.IsoSelected{Path: source})
	}
}

func (c *Controller) saveLocked(e *entry, job domain.Job) {
	if e.state != StateActive {
		state := e.state
		c.mu.Unlock()
		c.logger.Warn("save ignored: configure window not active", zap.String("state", string(state)))
		return
	}
	e.saved = true
	w := e.window
	c.mu.Unlock()

	if c.jobs != nil {
		if c.jobs.Add(job) {
			c.logger.Info("job added", zap.String("source", job.Source), zap.String("title", job.Title.Name))
		} else {
			c.logger.Info("job already selected", zap.String("source", job.Source))
		}
	}
	if err := w.RequestClose(); err != nil {
		c.logger.Warn("request configure window close", zap.Error(err))
	}
}

func (c *Controller) closeLocked(e *entry) {
	delete(c.entries, e.handle.Label)
	reason := CloseReasonCancelled
	if e.saved {
		reason = CloseReasonSaved
	}
	w := e.window
	c.mu.Unlock()

	if w != nil {
		c.destroy(w)
	}
	e.completion.resolve(reason)
	c.publish(e.handle, StateClosed, reason)
}

// creationErrorLocked drops the registry slot but leaves the completion
// unsettled: callers waiting on Open must bound the wait themselves.
func (c *Controller) creationErrorLocked(e *entry, reason string) {
	delete(c.entries, e.handle.Label)
	w := e.window
	c.mu.Unlock()

	c.logger.Error("configure window failed to initialize",
		zap.Uint64("generation", e.handle.Generation),
		zap.String("reason", reason))
	if w != nil {
		c.destroy(w)
	}
	c.publish(e.handle, StateClosed, "")
}

// Shutdown destroys any live window and settles its completion.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	live := make([]*entry, 0, len(c.entries))
	for label, e := range c.entries {
		live = append(live, e)
		delete(c.entries, label)
	}
	c.mu.Unlock()

	for _, e := range live {
		if e.window != nil {
			c.destroy(e.window)
		}
		e.completion.resolve(CloseReasonShutdown)
		c.publish(e.handle, StateClosed, CloseReasonShutdown)
	}
}

// State returns the lifecycle state of the configure window.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[c.label]; ok {
		return e.state
	}
	return StateClosed
}

// Current returns the handle of the live window, if any.
func (c *Controller) Current() (Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[c.label]; ok {
		return e.handle, true
	}
	return Handle{}, false
}

// Subscribe registers fn to receive window state changes.
func (c *Controller) Subscribe(fn func(StateChange)) *notify.Subscription {
	return c.hub.Subscribe(fn)
}

func (c *Controller) publish(h Handle, state State, reason CloseReason) {
	c.hub.Publish(StateChange{Handle: h, State: state, Reason: reason})
}

func (c *Controller) send(w Window, msg protocol.Message) {
	if err := w.Send(msg); err != nil {
		c.logger.Warn("send to configure window", zap.String("kind", kindOf(msg)), zap.Error(err))
	}
}

func (c *Controller) focus(w Window) {
	if err := w.Focus(); err != nil {
		c.logger.Debug("focus configure window", zap.Error(err))
	}
}

func (c *Controller) destroy(w Window) {
	if err := w.Destroy(); err != nil {
		c.logger.Warn("destroy configure window", zap.Error(err))
	}
}

func kindOf(msg protocol.Message) string {
	if msg == nil {
		return "<nil>"
	}
	return string(msg.Kind())
}
