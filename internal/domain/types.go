package domain

// ConversionStatus is the global state of the conversion run.
type ConversionStatus string

const (
	ConversionStatusIdle       ConversionStatus = "idle"
	ConversionStatusConverting ConversionStatus = "converting"
	ConversionStatusCompleted  ConversionStatus = "completed"
	ConversionStatusError      ConversionStatus = "error"
)

// Platform identifies the console a title was built for.
type Platform string

const (
	PlatformXbox360 Platform = "xbox360"
	PlatformXbox    Platform = "xbox"
)

// Format selects which artifacts a conversion produces.
type Format string

const (
	FormatGOD       Format = "god"
	FormatGODAndISO Format = "god_and_iso"
	FormatISO       Format = "iso"
)

// Layout selects the directory naming scheme for GOD packages.
type Layout string

const (
	LayoutTitleID          Layout = "title_id"
	LayoutName             Layout = "name"
	LayoutNameSlashTitleID Layout = "name_slash_title_id"
	LayoutNameDashTitleID  Layout = "name_dash_title_id"
)

// Padding controls how unused space in the source image is handled.
type Padding string

const (
	PaddingUntouched Padding = "untouched"
	PaddingPartial   Padding = "partial"
	PaddingRemoveAll Padding = "remove_all"
)

// TitleMetadata is derived from the source image by the engine.
type TitleMetadata struct {
	Name           string   `json:"name"`
	TitleID        string   `json:"titleId"`
	MediaID        string   `json:"mediaId"`
	DiscIndex      int      `json:"discIndex"`
	DiscCount      int      `json:"discCount"`
	Platform       Platform `json:"platform"`
	ExecutableType int      `json:"executableType"`
}

// OutputOptions are the user-selected output settings for one job.
type OutputOptions struct {
	Format     Format  `json:"format"`
	AutoRename bool    `json:"autoRename"`
	Layout     Layout  `json:"layout"`
	Padding    Padding `json:"padding"`
}

// Job is one configured conversion unit. Source is its identity.
type Job struct {
	Source          string        `json:"source"`
	OutputDirectory string        `json:"outputDirectory"`
	OutputFile      string        `json:"outputFile"`
	Title           TitleMetadata `json:"titleMetadata"`
	Options         OutputOptions `json:"outputOptions"`
}

// ProgressEntry is the last reported percentage for one source.
type ProgressEntry struct {
	Source     string  `json:"source"`
	Percentage float64 `json:"percentage"`
}

// ProgressReport is a progress event emitted by the engine.
type ProgressReport struct {
	Source   string  `json:"source"`
	Progress float64 `json:"progress"`
}

// IsoGame is the metadata the engine reads from a source image.
type IsoGame struct {
	Path           string   `json:"path"`
	Title          string   `json:"title"`
	ID             string   `json:"id"`
	MediaID        string   `json:"mediaId"`
	ContentType    string   `json:"contentType,omitempty"`
	DiscNumber     int      `json:"discNumber"`
	DiscCount      int      `json:"discCount"`
	Platform       Platform `json:"platform"`
	ExecutableType int      `json:"executableType"`
}

// TitleMetadata converts engine read output into job metadata.
func (g IsoGame) TitleMetadata() TitleMetadata {
	return TitleMetadata{
		Name:           g.Title,
		TitleID:        g.ID,
		MediaID:        g.MediaID,
		DiscIndex:      g.DiscNumber,
		DiscCount:      g.DiscCount,
		Platform:       g.Platform,
		ExecutableType: g.ExecutableType,
	}
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	EnginePath string  `json:"enginePath" toml:"engine_path"`
	OutputDir  string  `json:"outputDir" toml:"output_dir"`
	LogLevel   string  `json:"logLevel" toml:"log_level"`
	LogFormat  string  `json:"logFormat" toml:"log_format"`
	Layout     Layout  `json:"layout" toml:"layout"`
	Padding    Padding `json:"padding" toml:"padding"`
}

// DefaultOutputOptions returns the options a new job starts with.
func DefaultOutputOptions() OutputOptions {
	return OutputOptions{
		Format:  FormatGOD,
		Layout:  LayoutTitleID,
		Padding: PaddingUntouched,
	}
}
