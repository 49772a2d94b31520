package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"iso2god-desktop/internal/configure"
	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/protocol"
	"iso2god-desktop/internal/window"
)

// Runtime events addressed to the configure page. Protocol messages travel
// as JSON envelopes on the label channel; lifecycle ops on the ":op" channel.
const (
	windowChannelPrefix = "window:"
	windowOpSuffix      = ":op"

	windowOpOpen    = "open"
	windowOpClose   = "close"
	windowOpDestroy = "destroy"
)

// configureWindowFactory renders the configure window as a page in the
// desktop runtime.
type configureWindowFactory struct {
	app *App
}

// Create builds the form session and announces the page. The page answers
// with ConfigureReady once mounted.
func (f *configureWindowFactory) Create(label string, inbox window.Inbox) (window.Window, error) {
	ui, err := f.app.runtimeUI()
	if err != nil {
		return nil, fmt.Errorf("create %s window: %w", label, err)
	}

	w := &configureWindow{
		label:   label,
		ui:      ui,
		inbox:   inbox,
		session: configure.NewSession(f.app.Engine, f.app.currentSettings(), f.app.logger.Named("configure")),
		app:     f.app,
	}
	f.app.mu.Lock()
	f.app.configure = w
	f.app.mu.Unlock()

	ui.Emit(windowChannelPrefix+label+windowOpSuffix, windowOpOpen)
	return w, nil
}

// configureWindow is one live configure page.
type configureWindow struct {
	label   string
	ui      uiRuntime
	inbox   window.Inbox
	session *configure.Session
	app     *App
	gone    atomic.Bool
}

func (w *configureWindow) Send(msg protocol.Message) error {
	if w.gone.Load() {
		return fmt.Errorf("send %s: window destroyed", msg.Kind())
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	w.ui.Emit(windowChannelPrefix+w.label, string(data))
	return nil
}

func (w *configureWindow) Focus() error {
	if w.gone.Load() {
		return errors.New("focus: window destroyed")
	}
	w.ui.Show()
	return nil
}

func (w *configureWindow) RequestClose() error {
	if w.gone.Load() {
		return errors.New("close: window destroyed")
	}
	w.ui.Emit(windowChannelPrefix+w.label+windowOpSuffix, windowOpClose)
	w.inbox(protocol.CloseRequested{})
	return nil
}

func (w *configureWindow) Destroy() error {
	if w.gone.Swap(true) {
		return nil
	}
	w.app.mu.Lock()
	if w.app.configure == w {
		w.app.configure = nil
	}
	w.app.mu.Unlock()
	w.ui.Emit(windowChannelPrefix+w.label+windowOpSuffix, windowOpDestroy)
	return nil
}

// SelectIso opens the configure window, optionally prefilled from
// initialSource, and waits until it closes. It does not return if the
// window could not be created until the app shuts down.
func (a *App) SelectIso(initialSource string) (window.CloseReason, error) {
	completion := a.Windows.Open(strings.TrimSpace(initialSource))
	return completion.Wait(a.lifetime)
}

// OpenConfigureWindow opens or focuses the configure window without waiting.
func (a *App) OpenConfigureWindow(initialSource string) window.State {
	a.Windows.Open(strings.TrimSpace(initialSource))
	return a.Windows.State()
}

// HandleFileDrop opens the configure window for each dropped disc image in
// turn, waiting for each one to close.
func (a *App) HandleFileDrop(paths []string) {
	isos := isoPaths(paths)
	if len(isos) == 0 {
		return
	}
	go a.openSequentially(isos)
}

func (a *App) openSequentially(paths []string) {
	for _, path := range paths {
		reason, err := a.Windows.Open(path).Wait(a.lifetime)
		if err != nil {
			return
		}
		a.logger.Debug("dropped iso handled", zap.String("path", path), zap.String("reason", string(reason)))
		if reason == window.CloseReasonShutdown {
			return
		}
	}
}

// ConfigureReady is called by the configure page once it has mounted.
func (a *App) ConfigureReady() error {
	w, err := a.configureWindow()
	if err != nil {
		return err
	}
	w.inbox(protocol.PageReady{})
	return nil
}

// ConfigureState returns the current form contents.
func (a *App) ConfigureState() (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	return w.session.Job(), nil
}

// ConfigureLoadSource reads path and prefills the form. A failed read raises
// an alert and leaves the form unchanged.
func (a *App) ConfigureLoadSource(path string) (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	job, err := w.session.LoadSource(a.lifetime, path)
	if err != nil {
		a.alert("", fmt.Sprintf("Failed to read ISO: %v", err))
		return job, err
	}
	return job, nil
}

// ConfigureUpdate applies edits from the form fields.
func (a *App) ConfigureUpdate(edit domain.Job) (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	return w.session.Update(edit), nil
}

// ConfigureSetTrim toggles partial padding removal.
func (a *App) ConfigureSetTrim(trim bool) (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	w.session.SetTrim(trim)
	return w.session.Job(), nil
}

// ConfigureBrowseSource picks a source image and loads it into the form.
func (a *App) ConfigureBrowseSource() (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	path, err := a.PickIsoFile()
	if err != nil {
		return w.session.Job(), err
	}
	if path == "" {
		return w.session.Job(), nil
	}
	return a.ConfigureLoadSource(path)
}

// ConfigureBrowseOutput picks the output folder for the form.
func (a *App) ConfigureBrowseOutput() (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	dir, err := a.PickOutputDirectory()
	if err != nil {
		return w.session.Job(), err
	}
	if dir != "" {
		w.session.SetOutputDirectory(dir)
	}
	return w.session.Job(), nil
}

// ConfigureSave validates the form and, if it passes, commits the job.
func (a *App) ConfigureSave() (domain.Job, error) {
	w, err := a.configureWindow()
	if err != nil {
		return domain.Job{}, err
	}
	job, err := w.session.Save()
	if err != nil {
		return domain.Job{}, err
	}
	w.inbox(protocol.Save{Job: job})
	return job, nil
}

// ConfigureCancel closes the form without saving.
func (a *App) ConfigureCancel() error {
	w, err := a.configureWindow()
	if err != nil {
		return err
	}
	w.inbox(protocol.CloseRequested{})
	return nil
}

// PostWindowMessage delivers a raw protocol envelope emitted by the page
// registered under label.
func (a *App) PostWindowMessage(label, raw string) error {
	msg, err := protocol.Decode([]byte(raw))
	if err != nil {
		return fmt.Errorf("decode window message: %w", err)
	}
	if !msg.Kind().FromWindow() {
		return fmt.Errorf("message %q is not sent by windows", msg.Kind())
	}
	w, err := a.configureWindow()
	if err != nil {
		return err
	}
	if w.label != label {
		return fmt.Errorf("no window registered as %q", label)
	}
	if save, ok := msg.(protocol.Save); ok {
		if err := save.Job.Validate(); err != nil {
			return err
		}
	}
	w.inbox(msg)
	return nil
}

func (a *App) configureWindow() (*configureWindow, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.configure == nil {
		return nil, ErrNoConfigureWindow
	}
	return a.configure, nil
}

// isoPaths keeps paths with an .iso extension, in order.
func isoPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if strings.HasSuffix(strings.ToLower(p), ".iso") {
			out = append(out, p)
		}
	}
	return out
}
