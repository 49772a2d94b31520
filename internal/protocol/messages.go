// Package protocol defines the messages exchanged between the primary window,
// the configure window, and the conversion engine.
package protocol

import "iso2god-desktop/internal/domain"

// Kind names a message on the wire.
type Kind string

const (
	KindPageReady      Kind = "iso-page-ready"
	KindIsoSelected    Kind = "iso-selected"
	KindSave           Kind = "save"
	KindCloseRequested Kind = "close-requested"
	KindCreationError  Kind = "creation-error"
)

// Engine command and event names.
const (
	CommandReadIso      = "read_iso"
	CommandConvert      = "convert"
	CommandCancel       = "cancel"
	EventProgressReport = "progress-report"
)

// Message is one of the window protocol variants below.
type Message interface {
	Kind() Kind
	isMessage()
}

// PageReady is sent by the configure window once its page has mounted.
type PageReady struct{}

// IsoSelected pushes a source path into the configure window for prefill.
type IsoSelected struct {
	Path string `json:"path"`
}

// Save commits a complete job from the configure window.
type Save struct {
	Job domain.Job `json:"job"`
}

// CloseRequested reports that the configure window is closing.
type CloseRequested struct{}

// CreationError reports that the configure window could not be constructed.
type CreationError struct {
	Reason string `json:"reason"`
}

func (PageReady) Kind() Kind      { return KindPageReady }
func (IsoSelected) Kind() Kind    { return KindIsoSelected }
func (Save) Kind() Kind           { return KindSave }
func (CloseRequested) Kind() Kind { return KindCloseRequested }
func (CreationError) Kind() Kind  { return KindCreationError }

func (PageReady) isMessage()      {}
func (IsoSelected) isMessage()    {}
func (Save) isMessage()           {}
func (CloseRequested) isMessage() {}
func (CreationError) isMessage()  {}

// FromWindow reports whether k travels from the configure window to the controller.
func (k Kind) FromWindow() bool {
	switch k {
	case KindPageReady, KindSave, KindCloseRequested, KindCreationError:
		return true
	default:
		return false
	}
}
