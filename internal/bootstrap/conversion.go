package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/engine"
	"iso2god-desktop/internal/jobs"
	"iso2god-desktop/internal/progress"
	"iso2god-desktop/internal/window"
)

// StartConversion resets progress and converts the current job list in the
// background. It returns the id of the new run.
func (a *App) StartConversion() (string, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if progress.IsConverting(a.Progress.Status()) {
		return "", ErrConversionRunning
	}
	list := a.Jobs.List()
	if len(list) == 0 {
		return "", ErrNoJobs
	}

	a.supersedeRun()
	a.Progress.Reset(context.Background())
	if err := a.Progress.Transition(domain.ConversionStatusConverting); err != nil {
		return "", fmt.Errorf("start conversion: %w", err)
	}

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(a.lifetime)
	a.mu.Lock()
	a.runID = runID
	a.runCancel = cancel
	a.mu.Unlock()

	a.logger.Info("conversion requested", zap.String("run", runID), zap.Int("jobs", len(list)))
	go a.runConversion(ctx, runID, list)
	return runID, nil
}

// StopConversion asks the engine to abort the run. The status moves to ERROR
// without waiting for the engine to wind down.
func (a *App) StopConversion() error {
	if err := a.Engine.Cancel(a.lifetime); err != nil {
		a.alert("", fmt.Sprintf("Failed to cancel conversion: %v", err))
		return fmt.Errorf("cancel conversion: %w", err)
	}
	if err := a.Progress.Transition(domain.ConversionStatusError); err != nil {
		a.logger.Warn("status after cancel", zap.Error(err))
	}
	return nil
}

// ResetProgress clears progress and returns to IDLE, cancelling a live run.
// Completion of the superseded run is ignored.
func (a *App) ResetProgress() {
	a.supersedeRun()
	a.Progress.Reset(a.lifetime)
}

// RemoveJob drops one job. Only allowed while IDLE.
func (a *App) RemoveJob(source string) error {
	if a.Progress.Status() != domain.ConversionStatusIdle {
		return ErrJobsLocked
	}
	a.Jobs.Remove(source)
	return nil
}

// RemoveAllJobs clears the job list and resets progress. Not allowed while converting.
func (a *App) RemoveAllJobs() error {
	if progress.IsConverting(a.Progress.Status()) {
		return ErrJobsLocked
	}
	a.Jobs.RemoveAll()
	a.ResetProgress()
	return nil
}

// JobList returns the committed jobs in insertion order.
func (a *App) JobList() []domain.Job {
	return a.Jobs.List()
}

// ProgressSnapshot returns per-job progress, status, and the aggregate.
func (a *App) ProgressSnapshot() progress.Snapshot {
	return a.Progress.Snapshot()
}

// runConversion drives one engine run and maps its outcome onto the status.
func (a *App) runConversion(ctx context.Context, runID string, list []domain.Job) {
	err := a.Engine.Convert(ctx, list)

	a.mu.Lock()
	current := a.runID == runID
	if current {
		a.runID = ""
		a.runCancel = nil
	}
	a.mu.Unlock()

	if !current {
		a.logger.Debug("ignoring completion of superseded run", zap.String("run", runID), zap.Error(err))
		return
	}

	switch {
	case err == nil:
		if terr := a.Progress.Transition(domain.ConversionStatusCompleted); terr != nil {
			a.logger.Warn("status after conversion", zap.String("run", runID), zap.Error(terr))
			return
		}
		a.logger.Info("conversion completed", zap.String("run", runID))
	case errors.Is(err, engine.ErrConversionCanceled), errors.Is(err, context.Canceled):
		if terr := a.Progress.Transition(domain.ConversionStatusError); terr != nil {
			a.logger.Debug("status after cancel", zap.String("run", runID), zap.Error(terr))
		}
		a.logger.Info("conversion canceled", zap.String("run", runID))
	default:
		a.logger.Error("conversion failed", zap.String("run", runID), zap.Error(err))
		a.alert(runID, fmt.Sprintf("Conversion failed: %v", err))
		if terr := a.Progress.Transition(domain.ConversionStatusError); terr != nil {
			a.logger.Warn("status after failure", zap.String("run", runID), zap.Error(terr))
		}
	}
}

// supersedeRun forgets the live run so its completion is ignored.
func (a *App) supersedeRun() {
	a.mu.Lock()
	cancel := a.runCancel
	a.runID = ""
	a.runCancel = nil
	a.mu.Unlock()
	if cancel != nil {
		defer cancel()
	}
}

// onProgressReport applies one engine progress-report event.
func (a *App) onProgressReport(report domain.ProgressReport) {
	a.Progress.SetProgress(report.Source, report.Progress)
}

func (a *App) onJobsChanged(list []domain.Job) {
	a.publishEvent(jobs.Event{Type: jobs.EventTypeJobs, Jobs: list})
}

// onProgressChanged pushes status changes at once and coalesces progress updates.
func (a *App) onProgressChanged(snap progress.Snapshot) {
	a.mu.Lock()
	statusChanged := snap.Status != a.lastStatus
	a.lastStatus = snap.Status
	runID := a.runID
	a.mu.Unlock()

	if statusChanged {
		a.publishEvent(jobs.Event{Type: jobs.EventTypeStatus, RunID: runID, Status: snap.Status})
	}
	a.pushProgress(a.publishProgress)
}

func (a *App) publishProgress() {
	snap := a.Progress.Snapshot()
	a.publishEvent(jobs.Event{
		Type:      jobs.EventTypeProgress,
		Status:    snap.Status,
		Progress:  snap.Entries,
		Aggregate: &snap.Aggregate,
	})
}

func (a *App) onWindowChanged(change window.StateChange) {
	a.publishEvent(jobs.Event{
		Type:    jobs.EventTypeWindow,
		Window:  change.Handle.Label,
		Message: string(change.State),
		Reason:  string(change.Reason),
	})
}

// alert records a user-facing failure.
func (a *App) alert(runID, message string) {
	a.logger.Warn("alert", zap.String("message", message))
	a.publishEvent(jobs.Event{Type: jobs.EventTypeAlert, RunID: runID, Message: message})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ui := a.ui
	a.mu.Unlock()
	if ui != nil {
		ui.Emit(EventName, published)
	}
}
