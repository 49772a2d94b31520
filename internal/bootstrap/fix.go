package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"iso2god-desktop/internal/config"
	"iso2god-desktop/internal/domain"
	"iso2god-desktop/internal/engine"
)

// InstallOrFixDiagnostic applies a local remediation for one failed diagnostic item.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("resolve user home: %w", err)
	}

	settingsChanged := false
	var fixErr error

	switch id {
	case "engine":
		settings, settingsChanged, fixErr = fixEnginePath(settings, localBinDir(homeDir), os.Stat)
	case "output_dir":
		settings, settingsChanged, fixErr = installOrFixOutputDir(settings)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
		if b, ok := a.Engine.(interface{ SetBinary(string) }); ok {
			b.SetBinary(settings.EnginePath)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

// ensureLocalBinOnPATH prepends the app's private bin dir so a converter
// dropped there is found without configuration.
func ensureLocalBinOnPATH(homeDir string) error {
	binDir := localBinDir(homeDir)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}

	current := os.Getenv("PATH")
	for _, entry := range filepath.SplitList(current) {
		if filepath.Clean(entry) == filepath.Clean(binDir) {
			return nil
		}
	}

	if current == "" {
		return os.Setenv("PATH", binDir)
	}
	return os.Setenv("PATH", binDir+string(os.PathListSeparator)+current)
}

func localBinDir(homeDir string) string {
	return filepath.Join(homeDir, ".iso2god-desktop", "bin")
}

// fixEnginePath points settings at a converter found in binDir.
func fixEnginePath(settings domain.Settings, binDir string, stat func(string) (os.FileInfo, error)) (domain.Settings, bool, error) {
	name := engine.DefaultBinary
	if goruntime.GOOS == "windows" {
		name += ".exe"
	}
	candidate := filepath.Join(binDir, name)

	info, err := stat(candidate)
	if err != nil || info.IsDir() {
		return settings, false, fmt.Errorf("iso2god not found: download a release binary into %s or set its path in settings", binDir)
	}
	if settings.EnginePath == candidate {
		return settings, false, nil
	}
	settings.EnginePath = candidate
	return settings, true, nil
}

func installOrFixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	changed := false
	if outputDir == "" {
		outputDir = config.DefaultSettings().OutputDir
		settings.OutputDir = outputDir
		changed = true
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create output directory %s: %w", outputDir, err)
	}

	return settings, changed, nil
}
