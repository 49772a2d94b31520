package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/protocol"
)

// DefaultBinary is the converter looked up on PATH when none is configured.
const DefaultBinary = "iso2god"

var _ Engine = (*Process)(nil)

// Process drives the iso2god CLI, one process per job.
type Process struct {
	binPath  string
	runner   commandRunner
	report   Reporter
	logger   *zap.Logger
	mkdirAll func(path string, perm os.FileMode) error
	stat     func(name string) (os.FileInfo, error)
	tempDir  func() string

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	canceled atomic.Bool
}

// NewProcess constructs the production engine with OS dependencies.
func NewProcess(binPath string, report Reporter, logger *zap.Logger) *Process {
	if strings.TrimSpace(binPath) == "" {
		binPath = DefaultBinary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Process{
		binPath:  binPath,
		runner:   &execRunner{},
		report:   report,
		logger:   logger,
		mkdirAll: os.MkdirAll,
		stat:     os.Stat,
		tempDir:  os.TempDir,
	}
}

// SetReporter replaces the progress reporter. It must be called before Convert.
func (p *Process) SetReporter(report Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report = report
}

// SetBinary points later runs at a different converter executable.
func (p *Process) SetBinary(binPath string) {
	if strings.TrimSpace(binPath) == "" {
		binPath = DefaultBinary
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.binPath = binPath
}

func (p *Process) binary() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.binPath
}

// ReadIso runs a dry conversion and parses the printed title info.
func (p *Process) ReadIso(ctx context.Context, path string) (domain.IsoGame, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.IsoGame{}, &Error{Op: protocol.CommandReadIso, Message: "iso path is required"}
	}
	if _, err := p.stat(path); err != nil {
		return domain.IsoGame{}, &Error{
			Op:      protocol.CommandReadIso,
			Source:  path,
			Message: "cannot access source image",
			Err:     err,
		}
	}

	bin := p.binary()
	args := buildReadArgs(path, p.tempDir())
	result, err := p.runner.Run(ctx, bin, args, nil)
	log := CommandLog{Command: bin, Args: args, ExitCode: result.ExitCode, Output: result.Output}
	if err != nil {
		return domain.IsoGame{}, &Error{
			Op:         protocol.CommandReadIso,
			Source:     path,
			Message:    "failed to read the ISO file",
			CommandLog: log,
			Err:        err,
		}
	}

	game, ok := parseTitleInfo(path, result.Output)
	if !ok {
		return domain.IsoGame{}, &Error{
			Op:         protocol.CommandReadIso,
			Source:     path,
			Message:    "no title info found in image",
			CommandLog: log,
		}
	}
	return game, nil
}

// Convert converts all jobs concurrently and waits for them to finish.
func (p *Process) Convert(ctx context.Context, jobs []domain.Job) error {
	for _, job := range jobs {
		if job.Options.Format != "" && job.Options.Format != domain.FormatGOD {
			return &Error{
				Op:      protocol.CommandConvert,
				Source:  job.Source,
				Message: fmt.Sprintf("%s output is not supported", job.Options.Format.Label()),
				Err:     ErrUnsupportedFormat,
			}
		}
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return ErrConversionRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.canceled.Store(false)
	report := p.report
	bin := p.binPath
	p.mu.Unlock()

	defer func() {
		cancel()
		p.mu.Lock()
		p.running = false
		p.cancel = nil
		p.mu.Unlock()
	}()

	p.logger.Info("conversion started", zap.Int("jobs", len(jobs)))

	var wg sync.WaitGroup
	errs := make([]error, len(jobs))
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, job domain.Job) {
			defer wg.Done()
			errs[i] = p.convertOne(runCtx, bin, job, report)
		}(i, job)
	}
	wg.Wait()

	if p.canceled.Load() {
		p.logger.Info("conversion canceled")
		return fmt.Errorf("%s: %w", protocol.CommandConvert, ErrConversionCanceled)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	p.logger.Info("conversion finished", zap.Int("jobs", len(jobs)))
	return nil
}

// Cancel aborts the in-flight run. Reports emitted after this are dropped.
func (p *Process) Cancel(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.cancel == nil {
		return ErrNoRunningConversion
	}
	p.logger.Info("canceling conversion")
	p.canceled.Store(true)
	p.cancel()
	return nil
}

// convertOne runs the converter for one job and reports its progress.
func (p *Process) convertOne(ctx context.Context, bin string, job domain.Job, report Reporter) error {
	dest := DestinationDir(job)
	if job.Options.AutoRename {
		dest = uniqueDir(dest, p.stat)
	}
	if err := p.mkdirAll(dest, 0o755); err != nil {
		return &Error{
			Op:      protocol.CommandConvert,
			Source:  job.Source,
			Message: fmt.Sprintf("cannot create output directory: %s", dest),
			Err:     err,
		}
	}

	var last float64
	emit := func(pct float64) {
		if pct <= last || p.canceled.Load() || report == nil {
			return
		}
		last = pct
		report(domain.ProgressReport{Source: job.Source, Progress: pct})
	}

	args := buildConvertArgs(job, dest)
	p.logger.Debug("running converter",
		zap.String("source", job.Source),
		zap.String("dest", dest),
		zap.Strings("args", args))

	result, err := p.runner.Run(ctx, bin, args, func(line string) {
		if pct, ok := stageProgress(line); ok {
			emit(pct)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{
			Op:      protocol.CommandConvert,
			Source:  job.Source,
			Message: "iso2god conversion failed",
			CommandLog: CommandLog{
				Command:  bin,
				Args:     args,
				ExitCode: result.ExitCode,
				Output:   result.Output,
			},
			Err: err,
		}
	}

	emit(progressDone)
	return nil
}

// NewProcessForTests constructs an engine with injectable dependencies.
func NewProcessForTests(
	binPath string,
	runner commandRunner,
	report Reporter,
	mkdirAll func(path string, perm os.FileMode) error,
	stat func(name string) (os.FileInfo, error),
) *Process {
	return &Process{
		binPath:  binPath,
		runner:   runner,
		report:   report,
		logger:   zap.NewNop(),
		mkdirAll: mkdirAll,
		stat:     stat,
		tempDir:  os.TempDir,
	}
}
