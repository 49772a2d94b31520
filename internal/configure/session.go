// Package configure holds the form model behind the "configure job" window.
package configure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"iso2god-desktop/internal/domain"
)

// Reader reads title metadata from a source image.
type Reader interface {
	ReadIso(ctx context.Context, path string) (domain.IsoGame, error)
}

// Session is one configure form. Source and title metadata are only ever
// filled from a successful read; the rest is user-editable.
type Session struct {
	reader   Reader
	logger   *zap.Logger
	defaults domain.Job

	mu      sync.Mutex
	job     domain.Job
	loading bool
}

// NewSession creates a form prefilled with defaults taken from settings.
func NewSession(reader Reader, settings domain.Settings, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := domain.Job{
		OutputDirectory: strings.TrimSpace(settings.OutputDir),
		Title:           domain.TitleMetadata{Platform: domain.PlatformXbox360},
		Options:         domain.DefaultOutputOptions(),
	}
	if settings.Layout.Valid() {
		defaults.Options.Layout = settings.Layout
	}
	if settings.Padding.Valid() {
		defaults.Options.Padding = settings.Padding
	}
	return &Session{
		reader:   reader,
		logger:   logger,
		defaults: defaults,
		job:      defaults,
	}
}

// Job returns the current form contents.
func (s *Session) Job() domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.job
}

// Loading reports whether a metadata read is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LoadSource reads path and prefills source and title metadata. On failure
// the form is left as it was.
func (s *Session) LoadSource(ctx context.Context, path string) (domain.Job, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return s.Job(), &domain.ValidationError{Field: "source", Message: "Please select an ISO file."}
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	game, err := s.reader.ReadIso(ctx, path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.logger.Warn("read iso failed", zap.String("path", path), zap.Error(err))
		return s.job, fmt.Errorf("read iso %s: %w", path, err)
	}

	s.job.Source = game.Path
	if s.job.Source == "" {
		s.job.Source = path
	}
	s.job.Title = game.TitleMetadata()
	s.logger.Debug("iso loaded",
		zap.String("path", path),
		zap.String("title", game.Title),
		zap.String("titleId", game.ID))
	return s.job, nil
}

// SetName edits the title name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.Title.Name = name
}

// SetOutputDirectory edits the destination folder.
func (s *Session) SetOutputDirectory(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.OutputDirectory = dir
}

// SetOutputFile edits the destination file name.
func (s *Session) SetOutputFile(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job.OutputFile = file
}

// SetTrim toggles partial padding removal.
func (s *Session) SetTrim(trim bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if trim {
		s.job.Options.Padding = domain.PaddingPartial
	} else {
		s.job.Options.Padding = domain.PaddingUntouched
	}
}

// SetOptions replaces output options. Unknown enum values keep the current value.
func (s *Session) SetOptions(opts domain.OutputOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if opts.Format.Valid() {
		s.job.Options.Format = opts.Format
	}
	if opts.Layout.Valid() {
		s.job.Options.Layout = opts.Layout
	}
	if opts.Padding.Valid() {
		s.job.Options.Padding = opts.Padding
	}
	s.job.Options.AutoRename = opts.AutoRename
}

// Update applies the editable fields of edit in one step. Source and
// read-only title metadata in edit are ignored.
func (s *Session) Update(edit domain.Job) domain.Job {
	s.SetName(edit.Title.Name)
	s.SetOutputDirectory(edit.OutputDirectory)
	s.SetOutputFile(edit.OutputFile)
	s.SetOptions(edit.Options)
	return s.Job()
}

// Save validates the form and returns the job to commit.
func (s *Session) Save() (domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return domain.Job{}, &domain.ValidationError{Field: "source", Message: "Please wait for the ISO to finish loading."}
	}
	job := s.job
	job.Title.Name = strings.TrimSpace(job.Title.Name)
	job.OutputDirectory = strings.TrimSpace(job.OutputDirectory)
	if err := job.Validate(); err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

// Reset returns the form to its defaults.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.job = s.defaults
	s.loading = false
}
