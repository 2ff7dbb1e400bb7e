package battboot

// RevisionNone is reported on the board-revision exit channel when no
// valid revision could be determined.
const RevisionNone = 0

// RunOptions selects the workflow for one invocation.
type RunOptions struct {
	Battery           bool
	Hut               bool
	Check             bool
	DryRun            bool
	UseLocalFirmware  bool
	FindBoardRevision bool
}

// Orchestrator composes the mode gate, info reader, version resolver,
// firmware acquirer and flasher into the end-to-end check and upgrade
// workflows. Exactly one Outcome is produced per run; all intermediate
// state is scoped to the run and discarded afterwards. The orchestrator
// never switches the device's mode itself, it only detects the mode and
// fails fast with guidance when it is wrong.
type Orchestrator struct {
	Gate     *ModeGate
	Reader   *InfoReader
	Resolver *VersionResolver
	Acquirer *FirmwareAcquirer
	Flasher  *Flasher

	// OpenSession opens a driver session against a ready-mode device.
	OpenSession SessionFactory
	// Probe verifies exclusive access to the boot port before flashing;
	// defaults to ProbePort.
	Probe func(DeviceHandle, int) error
	// Baud used for the exclusivity probe.
	Baud int

	info *BoardInfo
}

// Run executes one invocation and returns its process exit status.
func (o *Orchestrator) Run(opts RunOptions) int {
	if !opts.Battery && !opts.Hut {
		return OutcomeNothingToDo.ExitCode()
	}
	if opts.Battery {
		if opts.FindBoardRevision {
			return o.FindBoardRevision()
		}
		if opts.Check {
			return o.Check().ExitCode()
		}
		return o.Upgrade(opts.DryRun, opts.UseLocalFirmware).ExitCode()
	}
	// HUT firmware is not field-upgradable yet.
	pkgLog.Infof("HUT upgrade not supported at this time")
	return OutcomeNothingToDo.ExitCode()
}

// Check compares the firmware on the device against the latest available
// version and reports whether an update is needed.
func (o *Orchestrator) Check() Outcome {
	info, err := o.obtainInfo()
	if err != nil {
		return OutcomeOf(err)
	}
	current, err := ParseVersion(info.FirmwareVersion)
	if err != nil {
		return OutcomeOf(failf(OutcomeGenericError,
			"cannot parse firmware version %q reported by the battery", info.FirmwareVersion))
	}
	latest, err := o.Resolver.Resolve(o.deviceRevision)
	if err != nil {
		return OutcomeOf(err)
	}
	pkgLog.Infof("battery firmware: current version %s, available version %s", current.Display, latest.Display)
	if latest.NewerThan(current) {
		return OutcomeFirmwareNeedsUpdate
	}
	return OutcomeFirmwareUpToDate
}

// Upgrade acquires a firmware binary and flashes it onto a boot-mode
// device. When useLocal is set the fixed local asset is flashed and no
// version resolution or download occurs.
func (o *Orchestrator) Upgrade(dryRun, useLocal bool) Outcome {
	handle, err := o.Gate.Require(ModeBoot)
	if err != nil {
		return OutcomeOf(err)
	}

	probe := o.Probe
	if probe == nil {
		probe = ProbePort
	}
	if err := probe(handle, o.Baud); err != nil {
		return OutcomeOf(err)
	}

	var firmwarePath string
	if useLocal {
		firmwarePath, err = o.Acquirer.AcquireLocal()
		if err != nil {
			return OutcomeOf(err)
		}
	} else {
		// The device is in boot mode, so its revision cannot be read;
		// it must be supplied explicitly.
		if o.Resolver.BoardRevision <= 0 {
			return OutcomeOf(failf(OutcomeGenericError,
				"board revision not supplied; it cannot be read while the battery is in boot mode"))
		}
		version, err := o.Resolver.Resolve(o.deviceRevision)
		if err != nil {
			return OutcomeOf(err)
		}
		firmwarePath, err = o.Acquirer.Acquire(o.Resolver.BoardRevision, version)
		if err != nil {
			return OutcomeOf(err)
		}
	}

	pkgLog.Infof("using firmware file: %s", firmwarePath)
	if err := o.Flasher.Flash(handle, firmwarePath, dryRun); err != nil {
		return OutcomeOf(err)
	}
	pkgLog.Infof("done!")
	return OutcomeSuccess
}

// FindBoardRevision reads the board revision from a ready-mode device.
// The result travels on a distinct exit channel: the revision itself, or
// RevisionNone when it could not be determined.
func (o *Orchestrator) FindBoardRevision() int {
	info, err := o.obtainInfo()
	if err != nil {
		return RevisionNone
	}
	pkgLog.Infof("fetched battery board revision: %d", info.BoardRevision)
	return info.BoardRevision
}

// obtainInfo reads the board info once per run; a second call within the
// same run reuses the captured value.
func (o *Orchestrator) obtainInfo() (BoardInfo, error) {
	if o.info != nil {
		return *o.info, nil
	}
	handle, err := o.Gate.Require(ModeReady)
	if err != nil {
		return BoardInfo{}, err
	}
	info, err := o.Reader.Read(handle, o.OpenSession)
	if err != nil {
		return BoardInfo{}, err
	}
	o.info = &info
	return info, nil
}

func (o *Orchestrator) deviceRevision() (int, error) {
	info, err := o.obtainInfo()
	if err != nil {
		return 0, err
	}
	return info.BoardRevision, nil
}
