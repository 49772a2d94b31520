package bootstrap

import (
	"context"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var isoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Disc images (*.iso)",
		Pattern:     "*.iso;*.ISO",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// uiRuntime is the slice of the desktop runtime the app drives.
type uiRuntime interface {
	Emit(name string, data ...interface{})
	Show()
	OpenFile(title string) (string, error)
	OpenDirectory(title string) (string, error)
	OnFileDrop(fn func(paths []string))
}

// wailsUI forwards to the Wails runtime bound to ctx.
type wailsUI struct {
	ctx context.Context
}

func newWailsUI(ctx context.Context) *wailsUI {
	return &wailsUI{ctx: ctx}
}

func (u *wailsUI) Emit(name string, data ...interface{}) {
	wailsruntime.EventsEmit(u.ctx, name, data...)
}

func (u *wailsUI) Show() {
	wailsruntime.WindowUnminimise(u.ctx)
	wailsruntime.WindowShow(u.ctx)
}

func (u *wailsUI) OpenFile(title string) (string, error) {
	return wailsruntime.OpenFileDialog(u.ctx, wailsruntime.OpenDialogOptions{
		Title:   title,
		Filters: isoDialogFilter,
	})
}

func (u *wailsUI) OpenDirectory(title string) (string, error) {
	return wailsruntime.OpenDirectoryDialog(u.ctx, wailsruntime.OpenDialogOptions{
		Title:                title,
		CanCreateDirectories: true,
	})
}

func (u *wailsUI) OnFileDrop(fn func(paths []string)) {
	wailsruntime.OnFileDrop(u.ctx, func(_, _ int, paths []string) {
		fn(paths)
	})
}
