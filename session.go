// Package battboot implements the host side of firmware upgrades for the
// battery control board.
//
// The battery exposes two USB serial personalities: a ready mode in which
// its firmware reports live version metadata, and a boot mode in which the
// bootloader accepts a new image. Switching between them requires a
// physical button press, so the package only ever detects the active mode
// and fails with actionable guidance when it is wrong.
//
// The package contains the components of the upgrade pipeline: ModeGate
// locates the device and checks its mode, InfoReader retrieves the board
// metadata under a bounded timeout, VersionResolver decides which firmware
// version should be installed, FirmwareAcquirer obtains the binary, and
// Flasher hands it to the external flashing tool. Orchestrator composes
// them into the check and upgrade workflows and maps every result to a
// single Outcome.
//
// Also included is a command line tool, found in the cmd/battboot
// directory, that drives the pipeline and communicates the Outcome through
// its exit status.
package battboot

import "strings"

// BoardInfo holds the metadata the battery reports while in ready mode.
// It is immutable once captured for the duration of one run.
type BoardInfo struct {
	// BoardRevision is the PCB version, e.g. revision "1.6" is 16. It
	// selects the firmware catalog entry and binary that apply.
	BoardRevision int
	// FirmwareVersion is the version string the running firmware
	// reports, e.g. "1.2.0".
	FirmwareVersion string
}

// The Session interface is the port to the low-level battery driver.
//
// Start blocks until the session ends, either because the driver failed
// or because Shutdown was called. Shutdown ends the session and must be
// safe to call more than once and from another goroutine. Info returns
// the board metadata once the driver has captured it.
//
// The serial transport behind a session is exclusively owned for the
// session's duration; concurrent external access surfaces as a busy
// error, never as silent corruption.
type Session interface {
	Start() error
	Shutdown()
	Info() (BoardInfo, bool)
}

// SessionFactory opens a driver session against a ready-mode device.
type SessionFactory func(handle DeviceHandle) Session

// isBusyErr reports whether a transport error indicates that another
// process holds exclusive access to the port.
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "multiple access") ||
		strings.Contains(msg, "resource busy")
}
