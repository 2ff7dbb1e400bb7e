package battboot

// ModeGate checks that the battery is attached and in the mode an
// operation requires. The wrong-mode message differs by direction because
// the user action differs: a single press of the battery button leaves
// boot mode, a double press enters it.
type ModeGate struct {
	Locator Locator
	Ready   DeviceIdentifier
	Boot    DeviceIdentifier

	// BusList, when set, is used to dump the USB bus at debug level when
	// no device matches either identifier.
	BusList func() ([]USBDevice, error)
}

// Require locates devices for both identifiers and returns a handle in
// the required mode. Ties among multiple devices are broken by taking the
// first enumerated; multi-device operation is not supported.
func (g *ModeGate) Require(mode DeviceMode) (DeviceHandle, error) {
	ready := g.Locator.Locate(g.Ready, ModeReady)
	boot := g.Locator.Locate(g.Boot, ModeBoot)

	if len(ready)+len(boot) == 0 {
		g.dumpBus()
		return DeviceHandle{}, failf(OutcomeHardwareNotFound,
			"battery not detected; please check the connection to the battery and retry")
	}

	switch mode {
	case ModeReady:
		if len(ready) == 0 {
			return DeviceHandle{}, failf(OutcomeHardwareWrongMode,
				"battery detected in boot mode, but it needs to be in normal mode; "+
					"switch mode by pressing the button on the battery ONCE")
		}
		return ready[0], nil
	case ModeBoot:
		if len(boot) == 0 {
			return DeviceHandle{}, failf(OutcomeHardwareWrongMode,
				"battery detected in normal mode, but it needs to be in boot mode; "+
					"switch mode by DOUBLE pressing the button on the battery")
		}
		return boot[0], nil
	}
	return DeviceHandle{}, failf(OutcomeGenericError,
		"invalid mode %v requested; this is most likely a bug", mode)
}

func (g *ModeGate) dumpBus() {
	if g.BusList == nil {
		return
	}
	devs, err := g.BusList()
	if err != nil {
		pkgLog.Debugf("usb bus listing failed: %v", err)
		return
	}
	for _, dev := range devs {
		pkgLog.Debugf("usb bus %03d addr %03d: %s", dev.Bus, dev.Address, dev.ID)
	}
}
