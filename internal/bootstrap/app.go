package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"go.uber.org/zap"

	"iso2god-desktop/internal/config"
	"iso2god-desktop/internal/diagnostics"
	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/engine"
	"iso2god-desktop/internal/jobs"
	"iso2god-desktop/internal/notify"
	"iso2god-desktop/internal/progress"
	"iso2god-desktop/internal/window"
)

// EventName is the runtime event carrying every jobs.Event to the primary window.
const EventName = "app:event"

const progressPushDelay = 100 * time.Millisecond

var (
	// ErrConversionRunning is returned when an action needs the run to be over.
	ErrConversionRunning = errors.New("conversion already running")
	// ErrJobsLocked is returned when the job list cannot change in the current status.
	ErrJobsLocked = errors.New("job list is locked while a conversion is not idle")
	// ErrNoJobs is returned by StartConversion with an empty job list.
	ErrNoJobs = errors.New("no jobs to convert")
	// ErrNoConfigureWindow is returned by configure calls when the window is closed.
	ErrNoConfigureWindow = errors.New("configure window is not open")
)

// App wires configuration, stores, the configure window, and the engine to the UI.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Store
	Progress    *progress.Store
	Windows     *window.Controller
	Engine      engine.Engine
	Diagnostics domain.DiagnosticReport
	assets      fs.FS
	checker     *diagnostics.Checker
	logger      *zap.Logger

	// runMu serializes starting a run so two callers cannot both leave IDLE.
	runMu sync.Mutex

	mu           sync.Mutex
	runID        string
	runCancel    context.CancelFunc
	events       *jobs.EventBus
	ui           uiRuntime
	configure    *configureWindow
	lastStatus   domain.ConversionStatus
	pushProgress func(func())
	lifetime     context.Context
	stop         context.CancelFunc
	subs         []*notify.Subscription
}

// Options configures New.
type Options struct {
	ConfigPath string
	Logger     *zap.Logger
	Assets     fs.FS
}

// New builds the application with persisted settings and startup diagnostics.
func New(opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	if err := ensureLocalBinOnPATH(homeDir); err != nil {
		return nil, fmt.Errorf("prepare local tool path: %w", err)
	}

	path := opts.ConfigPath
	if strings.TrimSpace(path) == "" {
		path = config.DefaultPath()
	}
	store := config.NewTOMLStore(path)
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	proc := engine.NewProcess(settings.EnginePath, nil, logger.Named("engine"))
	checker := diagnostics.NewChecker()

	app := newApp(settings, store, proc, checker, nil, logger)
	app.assets = opts.Assets
	proc.SetReporter(app.onProgressReport)

	logger.Info("settings loaded", zap.String("path", path), zap.String("engine", settings.EnginePath))
	return app, nil
}

// newApp assembles an App around its collaborators. A nil factory selects the
// runtime-backed configure window.
func newApp(
	settings domain.Settings,
	store config.Store,
	eng engine.Engine,
	checker *diagnostics.Checker,
	factory window.Factory,
	logger *zap.Logger,
) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	lifetime, stop := context.WithCancel(context.Background())

	a := &App{
		Settings:     settings,
		Store:        store,
		Jobs:         jobs.NewStore(),
		Progress:     progress.NewStore(eng, logger.Named("progress")),
		Engine:       eng,
		checker:      checker,
		logger:       logger,
		events:       jobs.NewEventBus(1000),
		lastStatus:   domain.ConversionStatusIdle,
		pushProgress: debounce.New(progressPushDelay),
		lifetime:     lifetime,
		stop:         stop,
	}
	if factory == nil {
		factory = &configureWindowFactory{app: a}
	}
	a.Windows = window.NewController(factory, a.Jobs, window.DefaultLabel, logger.Named("window"))
	if checker != nil {
		a.Diagnostics = checker.Run(settings)
	}

	a.subs = append(a.subs,
		a.Jobs.Subscribe(a.onJobsChanged),
		a.Progress.Subscribe(a.onProgressChanged),
		a.Windows.Subscribe(a.onWindowChanged),
	)
	return a
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	if a.assets == nil {
		return errors.New("run app: no frontend assets")
	}
	assetOptions := &assetserver.Options{Assets: a.assets}

	return wails.Run(&options.App{
		Title:       "ISO2GOD",
		Width:       1080,
		Height:      720,
		AssetServer: assetOptions,
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop: true,
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// Startup stores the Wails runtime for push events, dialogs, and file drops.
func (a *App) Startup(ctx context.Context) {
	ui := newWailsUI(ctx)
	a.setUI(ui)
	ui.OnFileDrop(a.HandleFileDrop)
}

// Shutdown tears down the configure window and aborts any run in flight.
func (a *App) Shutdown(ctx context.Context) {
	a.Windows.Shutdown()

	a.mu.Lock()
	cancel := a.runCancel
	a.runID = ""
	a.runCancel = nil
	subs := a.subs
	a.subs = nil
	a.ui = nil
	a.mu.Unlock()

	if progress.IsConverting(a.Progress.Status()) {
		if err := a.Engine.Cancel(ctx); err != nil && !errors.Is(err, engine.ErrNoRunningConversion) {
			a.logger.Warn("cancel conversion on shutdown", zap.Error(err))
		}
	}
	if cancel != nil {
		cancel()
	}
	for _, sub := range subs {
		sub.Cancel()
	}
	a.stop()
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns startup checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()
	return settings, nil
}

// SaveSettings persists settings, applies the converter path, and reruns diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	settings = normalizeSettings(settings)
	if err := a.Store.Save(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	saved, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	if b, ok := a.Engine.(interface{ SetBinary(string) }); ok {
		b.SetBinary(saved.EnginePath)
	}
	a.refreshDiagnosticsFromSettings(saved)
	a.logger.Info("settings saved", zap.String("engine", saved.EnginePath), zap.String("outputDir", saved.OutputDir))
	return saved, nil
}

// PickIsoFile opens a native file dialog for source image selection.
func (a *App) PickIsoFile() (string, error) {
	ui, err := a.runtimeUI()
	if err != nil {
		return "", err
	}
	path, err := ui.OpenFile("Select ISO file")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker.
func (a *App) PickOutputDirectory() (string, error) {
	ui, err := a.runtimeUI()
	if err != nil {
		return "", err
	}
	path, err := ui.OpenDirectory("Select output folder")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// UIEvents returns all events with sequence greater than sinceSeq.
func (a *App) UIEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

func (a *App) currentSettings() domain.Settings {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Settings
}

func (a *App) setUI(ui uiRuntime) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ui = ui
}

// runtimeUI returns the runtime for dialog and window APIs.
func (a *App) runtimeUI() (uiRuntime, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ui == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.ui, nil
}

// normalizeSettings trims user inputs.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.EnginePath = strings.TrimSpace(settings.EnginePath)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.LogLevel = strings.TrimSpace(settings.LogLevel)
	settings.LogFormat = strings.TrimSpace(settings.LogFormat)
	if settings.OutputDir != "" {
		settings.OutputDir = filepath.Clean(settings.OutputDir)
	}
	return settings
}
