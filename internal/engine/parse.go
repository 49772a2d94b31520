package engine

import (
	"regexp"
	"strconv"
	"strings"

	"iso2god-desktop/internal/domain"
)

var (
	partLinePattern = regexp.MustCompile(`(?i)writing part\s+(\d+)\s+of\s+(\d+)`)
	discPattern     = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// Stage weights follow the converter's own progression: metadata, layout,
// data directory, part files, hash chain, CON header.
const (
	progressMetadata = 5.0
	progressLayout   = 15.0
	progressDataDir  = 20.0
	progressPartSpan = 30.0
	progressHashes   = 60.0
	progressHeader   = 75.0
	progressDone     = 100.0
)

// stageProgress maps one converter output line to a percentage. ok is false
// for lines that carry no progress information.
func stageProgress(line string) (float64, bool) {
	if m := partLinePattern.FindStringSubmatch(line); m != nil {
		part, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if total <= 0 {
			return progressDataDir, true
		}
		return progressDataDir + progressPartSpan*float64(part)/float64(total), true
	}

	lower := strings.ToLower(line)
	switch {
	case strings.HasPrefix(lower, "extracting iso metadata"):
		return progressMetadata, true
	case strings.HasPrefix(lower, "title id"):
		return progressLayout, true
	case strings.Contains(lower, "data directory"), strings.HasPrefix(lower, "writing part files"):
		return progressDataDir, true
	case strings.Contains(lower, "mht"), strings.Contains(lower, "hash"):
		return progressHashes, true
	case strings.Contains(lower, "con header"):
		return progressHeader, true
	case lower == "done":
		return progressDone, true
	}
	return 0, false
}

// parseTitleInfo reads "Key: Value" lines printed by a dry run.
func parseTitleInfo(path, output string) (domain.IsoGame, bool) {
	game := domain.IsoGame{Path: path, Platform: domain.PlatformXbox360}
	found := false

	for _, raw := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(raw), ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "title id":
			game.ID = strings.ToUpper(value)
			found = value != ""
		case "media id":
			game.MediaID = strings.ToUpper(value)
		case "title name", "name", "game title":
			game.Title = value
		case "type", "content type":
			game.ContentType = value
		case "disc":
			if m := discPattern.FindStringSubmatch(value); m != nil {
				game.DiscNumber, _ = strconv.Atoi(m[1])
				game.DiscCount, _ = strconv.Atoi(m[2])
			}
		case "platform":
			game.Platform = parsePlatform(value)
		case "executable type":
			game.ExecutableType, _ = strconv.Atoi(value)
		}
	}
	return game, found
}

func parsePlatform(value string) domain.Platform {
	v := strings.ToLower(strings.ReplaceAll(value, " ", ""))
	switch {
	case strings.Contains(v, "360"), v == "0":
		return domain.PlatformXbox360
	case strings.Contains(v, "xbox"), v == "1":
		return domain.PlatformXbox
	default:
		return domain.PlatformXbox360
	}
}
