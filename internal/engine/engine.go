// Package engine adapts the external iso2god converter: reading title
// metadata, converting jobs, cancelling a run, and reporting progress.
package engine

import (
	"context"
	"errors"
	"fmt"

	"iso2god-desktop/internal/domain"
)

var (
	// ErrNoRunningConversion is returned by Cancel when nothing is converting.
	ErrNoRunningConversion = errors.New("no running conversion")
	// ErrConversionRunning is returned by Convert while a run is in flight.
	ErrConversionRunning = errors.New("conversion already running")
	// ErrConversionCanceled is returned by Convert when the run was cancelled.
	ErrConversionCanceled = errors.New("conversion was canceled")
	// ErrUnsupportedFormat is returned for output formats the converter cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Engine is the conversion backend driven by the primary window.
type Engine interface {
	// ReadIso reads title metadata from a source image.
	ReadIso(ctx context.Context, path string) (domain.IsoGame, error)
	// Convert runs every job and returns once all of them have finished.
	// Progress is delivered out of band through the reporter.
	Convert(ctx context.Context, jobs []domain.Job) error
	// Cancel requests abort of the in-flight run.
	Cancel(ctx context.Context) error
}

// Reporter receives progress events. Reports for different sources may
// interleave arbitrarily.
type Reporter func(domain.ProgressReport)

// CommandLog captures one external command invocation result.
type CommandLog struct {
	Command  string   `json:"command"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exitCode"`
	Output   string   `json:"output"`
}

// Error is an engine failure tied to one command and, for conversions, one source.
type Error struct {
	Op         string     `json:"op"`
	Source     string     `json:"source,omitempty"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats engine failures for logs and UI alerts.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Op + ": " + e.Message
	if e.Source != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Op, e.Source, e.Message)
	}
	if e.CommandLog.Command != "" {
		msg = fmt.Sprintf("%s (cmd=%s exit=%d)", msg, e.CommandLog.Command, e.CommandLog.ExitCode)
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
