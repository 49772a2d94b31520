// Package frontend embeds the desktop page served by the Wails asset server.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed dist
var dist embed.FS

// Assets returns the page files rooted at index.html.
func Assets() (fs.FS, error) {
	return fs.Sub(dist, "dist")
}
