package domain

var formatLabels = map[Format]string{
	FormatGOD:       "GOD Package",
	FormatGODAndISO: "GOD Package and ISO file",
	FormatISO:       "ISO file",
}

var paddingLabels = map[Padding]string{
	PaddingUntouched: "Untouched (no padding)",
	PaddingPartial:   "Partial (padding removed from the end)",
	PaddingRemoveAll: "Remove all",
}

var layoutLabels = map[Layout]string{
	LayoutTitleID:          `\Title ID\`,
	LayoutName:             `\Name\`,
	LayoutNameSlashTitleID: `\Name\Title ID\`,
	LayoutNameDashTitleID:  `\Name - Title ID\`,
}

var platformLabels = map[Platform]string{
	PlatformXbox360: "Xbox 360",
	PlatformXbox:    "Xbox",
}

// Label returns the display name shown in option pickers.
func (f Format) Label() string { return labelOr(formatLabels, f) }

// Label returns the display name shown in option pickers.
func (p Padding) Label() string { return labelOr(paddingLabels, p) }

// Label returns the directory pattern shown in option pickers.
func (l Layout) Label() string { return labelOr(layoutLabels, l) }

// Label returns the console display name.
func (p Platform) Label() string { return labelOr(platformLabels, p) }

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	_, ok := formatLabels[f]
	return ok
}

// Valid reports whether p is a known padding mode.
func (p Padding) Valid() bool {
	_, ok := paddingLabels[p]
	return ok
}

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	_, ok := layoutLabels[l]
	return ok
}

func labelOr[K ~string](labels map[K]string, key K) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return string(key)
}
