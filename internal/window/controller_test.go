package window

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/jobs"
	"iso2god-desktop/internal/protocol"
)

// fakeWindow records controller calls and answers RequestClose with CloseRequested.
type fakeWindow struct {
	mu            sync.Mutex
	inbox         Inbox
	sent          []protocol.Message
	focused       int
	closeRequests int
	destroyed     int
}

func (w *fakeWindow) Send(msg protocol.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sent = append(w.sent, msg)
	return nil
}

func (w *fakeWindow) Focus() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused++
	return nil
}

func (w *fakeWindow) RequestClose() error {
	w.mu.Lock()
	w.closeRequests++
	w.mu.Unlock()
	w.inbox(protocol.CloseRequested{})
	return nil
}

func (w *fakeWindow) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed++
	return nil
}

func (w *fakeWindow) sentMessages() []protocol.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]protocol.Message(nil), w.sent...)
}

// fakeFactory builds fakeWindows, optionally failing or emitting during Create.
type fakeFactory struct {
	mu       sync.Mutex
	windows  []*fakeWindow
	err      error
	onCreate func(inbox Inbox)
}

func (f *fakeFactory) Create(label string, inbox Inbox) (Window, error) {
	if f.onCreate != nil {
		f.onCreate(inbox)
	}
	if f.err != nil {
		return nil, f.err
	}
	w := &fakeWindow{inbox: inbox}
	f.mu.Lock()
	f.windows = append(f.windows, w)
	f.mu.Unlock()
	return w, nil
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func (f *fakeFactory) last() *fakeWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows[len(f.windows)-1]
}

func halo3Job() domain.Job {
	return domain.Job{
		Source:          "foo.iso",
		OutputDirectory: "/out",
		Title: domain.TitleMetadata{
			Name:     "Halo 3",
			TitleID:  "4D5307E6",
			Platform: domain.PlatformXbox360,
		},
		Options: domain.DefaultOutputOptions(),
	}
}

func assertSettled(t *testing.T, c *Completion, want CloseReason) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := c.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func assertPending(t *testing.T, c *Completion) {
	t.Helper()
	select {
	case <-c.Done():
		t.Fatalf("completion settled with %q, want pending", c.Reason())
	default:
	}
}

func TestOpenSaveHappyPath(t *testing.T) {
	factory := &fakeFactory{}
	store := jobs.NewStore()
	c := NewController(factory, store, "", nil)

	done := c.Open("foo.iso")
	require.Equal(t, 1, factory.count())
	w := factory.last()
	assert.Equal(t, StateReadyWait, c.State())
	assert.Empty(t, w.sentMessages(), "nothing may be pushed before page ready")

	w.inbox(protocol.PageReady{})
	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, []protocol.Message{protocol.IsoSelected{Path: "foo.iso"}}, w.sentMessages())

	w.inbox(protocol.Save{Job: halo3Job()})

	got := store.List()
	require.Len(t, got, 1)
	assert.Equal(t, "foo.iso", got[0].Source)
	assert.Equal(t, "Halo 3", got[0].Title.Name)
	assert.Equal(t, 1, w.closeRequests)
	assert.Equal(t, 1, w.destroyed)
	assert.Equal(t, StateClosed, c.State())
	assertSettled(t, done, CloseReasonSaved)
}

func TestBackToBackOpenCreatesOneWindow(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	first := c.Open("")
	second := c.Open("")

	assert.Equal(t, 1, factory.count())
	assert.Same(t, first, second)
	assert.Equal(t, 2, factory.last().focused)

	factory.last().inbox(protocol.CloseRequested{})
	assertSettled(t, first, CloseReasonCancelled)
	assertSettled(t, second, CloseReasonCancelled)
}

func TestConcurrentOpenCreatesOneWindow(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	var wg sync.WaitGroup
	completions := make([]*Completion, 8)
	for i := range completions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			completions[i] = c.Open("")
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, factory.count())
	for _, comp := range completions {
		assert.Same(t, completions[0], comp)
	}
}

func TestReopenWithNewSourceBeforeReadyPushesOnce(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	c.Open("a.iso")
	c.Open("b.iso")
	w := factory.last()
	assert.Empty(t, w.sentMessages())

	w.inbox(protocol.PageReady{})
	assert.Equal(t, []protocol.Message{protocol.IsoSelected{Path: "b.iso"}}, w.sentMessages())
}

func TestReopenWithNewSourceWhileActive(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	c.Open("a.iso")
	w := factory.last()
	w.inbox(protocol.PageReady{})
	c.Open("b.iso")
	c.Open("b.iso")

	assert.Equal(t, []protocol.Message{
		protocol.IsoSelected{Path: "a.iso"},
		protocol.IsoSelected{Path: "b.iso"},
	}, w.sentMessages())

	// A page reload reports ready again and gets the latest source.
	w.inbox(protocol.PageReady{})
	assert.Equal(t, protocol.IsoSelected{Path: "b.iso"}, w.sentMessages()[2])
}

func TestPageReadyDuringCreateIsNotLost(t *testing.T) {
	factory := &fakeFactory{}
	factory.onCreate = func(inbox Inbox) { inbox(protocol.PageReady{}) }
	c := NewController(factory, jobs.NewStore(), "", nil)

	c.Open("early.iso")

	assert.Equal(t, StateActive, c.State())
	assert.Equal(t, []protocol.Message{protocol.IsoSelected{Path: "early.iso"}}, factory.last().sentMessages())
}

func TestOpenWithoutSourceStaysEmpty(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	c.Open("")
	w := factory.last()
	w.inbox(protocol.PageReady{})

	assert.Equal(t, StateActive, c.State())
	assert.Empty(t, w.sentMessages())
}

func TestSaveBeforeReadyIsIgnored(t *testing.T) {
	factory := &fakeFactory{}
	store := jobs.NewStore()
	c := NewController(factory, store, "", nil)

	done := c.Open("foo.iso")
	factory.last().inbox(protocol.Save{Job: halo3Job()})

	assert.Zero(t, store.Len())
	assert.Equal(t, StateReadyWait, c.State())
	assertPending(t, done)
}

func TestSaveDuplicateSourceKeepsOriginal(t *testing.T) {
	factory := &fakeFactory{}
	store := jobs.NewStore()
	original := halo3Job()
	store.Add(original)
	c := NewController(factory, store, "", nil)

	done := c.Open("foo.iso")
	w := factory.last()
	w.inbox(protocol.PageReady{})
	changed := halo3Job()
	changed.Title.Name = "Something else"
	w.inbox(protocol.Save{Job: changed})

	got, _ := store.Get("foo.iso")
	assert.Equal(t, "Halo 3", got.Title.Name)
	assertSettled(t, done, CloseReasonSaved)
}

func TestCreateFailureLeavesCompletionPending(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	factory := &fakeFactory{err: errors.New("no display")}
	c := NewController(factory, jobs.NewStore(), "", zap.New(core))

	done := c.Open("foo.iso")

	assert.Equal(t, StateClosed, c.State())
	assertPending(t, done)
	assert.Equal(t, 1, logs.FilterMessage("create configure window").Len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := done.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	factory.err = nil
	c.Open("foo.iso")
	assert.Equal(t, 1, factory.count())
	assert.Equal(t, StateReadyWait, c.State())
}

func TestAsyncCreationErrorLeavesCompletionPending(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	done := c.Open("foo.iso")
	w := factory.last()
	w.inbox(protocol.CreationError{Reason: "webview crashed"})

	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, 1, w.destroyed)
	assertPending(t, done)
}

func TestStaleWindowMessagesIgnored(t *testing.T) {
	factory := &fakeFactory{}
	store := jobs.NewStore()
	c := NewController(factory, store, "", nil)

	c.Open("")
	old := factory.last()
	old.inbox(protocol.CloseRequested{})

	done := c.Open("")
	current := factory.last()
	require.NotSame(t, old, current)

	old.inbox(protocol.PageReady{})
	old.inbox(protocol.Save{Job: halo3Job()})
	old.inbox(protocol.CloseRequested{})

	assert.Equal(t, StateReadyWait, c.State())
	assert.Zero(t, store.Len())
	assertPending(t, done)

	h, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(2), h.Generation)
}

func TestUnexpectedKindIsIgnored(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	c.Open("")
	factory.last().inbox(protocol.IsoSelected{Path: "loop.iso"})

	assert.Equal(t, StateReadyWait, c.State())
}

func TestCloseDuringCreateDestroysLateWindow(t *testing.T) {
	factory := &fakeFactory{}
	factory.onCreate = func(inbox Inbox) { inbox(protocol.CloseRequested{}) }
	c := NewController(factory, jobs.NewStore(), "", nil)

	done := c.Open("")

	assertSettled(t, done, CloseReasonCancelled)
	assert.Equal(t, 1, factory.last().destroyed)
	assert.Equal(t, StateClosed, c.State())
}

func TestShutdownSettlesLiveWindow(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)

	done := c.Open("foo.iso")
	c.Shutdown()

	assertSettled(t, done, CloseReasonShutdown)
	assert.Equal(t, 1, factory.last().destroyed)
	assert.Equal(t, StateClosed, c.State())
}

func TestSubscribePublishesLifecycle(t *testing.T) {
	factory := &fakeFactory{}
	c := NewController(factory, jobs.NewStore(), "", nil)
	var states []State
	c.Subscribe(func(change StateChange) { states = append(states, change.State) })

	c.Open("foo.iso")
	w := factory.last()
	w.inbox(protocol.PageReady{})
	w.inbox(protocol.CloseRequested{})

	assert.Equal(t, []State{StateOpening, StateReadyWait, StateActive, StateClosed}, states)
}
