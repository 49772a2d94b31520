package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"iso2god-desktop/internal/domain"
)

var unsafeNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_",
	"/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// DestinationDir returns the package directory for job under its layout.
func DestinationDir(job domain.Job) string {
	name := safeName(job.Title.Name)
	titleID := safeName(job.Title.TitleID)
	if titleID == "" {
		titleID = "UNKNOWN"
	}
	if name == "" {
		name = titleID
	}

	switch job.Options.Layout {
	case domain.LayoutName:
		return filepath.Join(job.OutputDirectory, name)
	case domain.LayoutNameSlashTitleID:
		return filepath.Join(job.OutputDirectory, name, titleID)
	case domain.LayoutNameDashTitleID:
		return filepath.Join(job.OutputDirectory, name+" - "+titleID)
	default:
		return filepath.Join(job.OutputDirectory, titleID)
	}
}

// uniqueDir appends " (n)" to dir until it names a path that does not exist.
func uniqueDir(dir string, stat func(string) (os.FileInfo, error)) string {
	if _, err := stat(dir); err != nil {
		return dir
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", dir, n)
		if _, err := stat(candidate); err != nil {
			return candidate
		}
	}
}

func safeName(raw string) string {
	name := unsafeNameChars.Replace(strings.TrimSpace(raw))
	return strings.TrimRight(name, ". ")
}

// buildConvertArgs builds iso2god args for one job.
func buildConvertArgs(job domain.Job, dest string) []string {
	var args []string
	if job.Options.Padding == domain.PaddingPartial {
		args = append(args, "--trim")
	}
	if name := strings.TrimSpace(job.Title.Name); name != "" {
		args = append(args, "--game-title", name)
	}
	return append(args, job.Source, dest)
}

// buildReadArgs builds iso2god args for a metadata-only dry run.
func buildReadArgs(path, scratchDir string) []string {
	return []string{"--dry-run", path, scratchDir}
}
