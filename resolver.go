package battboot

// VersionResolver determines which firmware version should be installed.
//
// Three strategies are tried in strict priority order: a forced version
// override, an explicitly supplied board revision, and finally the
// revision read from the live device. Later strategies are never
// consulted once an earlier one applies. The override inputs are
// explicit fields, set once by the caller; the resolver never reads
// process-wide state.
type VersionResolver struct {
	// ForceVersion, when non-empty, short-circuits resolution; no
	// remote lookup occurs.
	ForceVersion string
	// BoardRevision, when positive, selects the catalog entry without
	// touching the device.
	BoardRevision int

	Catalog Catalog
}

// Resolve returns the firmware version that should be installed.
// deviceRevision is consulted only when neither override applies; it
// reads the board revision from the live device.
func (r *VersionResolver) Resolve(deviceRevision func() (int, error)) (FirmwareVersion, error) {
	if r.ForceVersion != "" {
		version, err := ParseVersion(r.ForceVersion)
		if err != nil {
			pkgLog.Debugf("parse forced version: %v", err)
			return FirmwareVersion{}, failf(OutcomeGenericError,
				"error parsing the given version string %q", r.ForceVersion)
		}
		pkgLog.Infof("firmware version forced to %s", version.Display)
		return version, nil
	}

	if r.BoardRevision > 0 {
		pkgLog.Infof("board revision supplied: %d", r.BoardRevision)
		return r.latestFor(r.BoardRevision)
	}

	revision, err := deviceRevision()
	if err != nil {
		return FirmwareVersion{}, err
	}
	pkgLog.Infof("board revision read: %d", revision)
	return r.latestFor(revision)
}

func (r *VersionResolver) latestFor(boardRevision int) (FirmwareVersion, error) {
	version, err := r.Catalog.Latest(boardRevision)
	if err != nil {
		pkgLog.Debugf("catalog lookup: %v", err)
		return FirmwareVersion{}, failf(OutcomeGenericError,
			"error fetching the latest firmware version available from the server")
	}
	pkgLog.Debugf("latest version available for board revision %d is %s", boardRevision, version.Display)
	return version, nil
}
