package battboot

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// DeviceMode indicates which of the battery's two USB personalities is
// currently active. A physical unit exposes exactly one identifier pair
// at a time; the mode changes only when the user presses the battery
// button, never under software control.
type DeviceMode int

const (
	// ModeReady is the normal operating mode, in which the board's own
	// firmware reports live version metadata.
	ModeReady DeviceMode = iota
	// ModeBoot is the bootloader mode required to accept a new firmware
	// image.
	ModeBoot
)

func (m DeviceMode) String() string {
	switch m {
	case ModeReady:
		return "ready"
	case ModeBoot:
		return "boot"
	}
	return "unknown"
}

// DeviceIdentifier is the stable USB identity (vendor and product ID, hex
// strings without the 0x prefix) a device exposes in one mode.
type DeviceIdentifier struct {
	VendorID  string
	ProductID string
}

// DeviceHandle addresses one attached device for the lifetime of a single
// operation. Handles are re-enumerated on every call and must never be
// cached across mode transitions.
type DeviceHandle struct {
	Address string
	Mode    DeviceMode
}

// Locator finds attached devices matching an identifier, tagging the
// returned handles with the mode that identifier corresponds to. It is
// purely observational: absence is an empty set, not an error.
type Locator interface {
	Locate(id DeviceIdentifier, mode DeviceMode) []DeviceHandle
}

// SerialLocator enumerates the host's USB serial ports.
type SerialLocator struct{}

// Locate returns a handle for every attached serial port whose USB
// descriptor matches id.
func (SerialLocator) Locate(id DeviceIdentifier, mode DeviceMode) []DeviceHandle {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		pkgLog.Debugf("port enumeration failed: %v", err)
		return nil
	}
	var handles []DeviceHandle
	for _, port := range ports {
		if !port.IsUSB {
			continue
		}
		if strings.EqualFold(port.VID, id.VendorID) && strings.EqualFold(port.PID, id.ProductID) {
			handles = append(handles, DeviceHandle{Address: port.Name, Mode: mode})
		}
	}
	return handles
}
