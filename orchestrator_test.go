package battboot

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testReader() *InfoReader {
	return &InfoReader{Timeout: time.Second, Poll: 10 * time.Millisecond}
}

func readySession(info BoardInfo) SessionFactory {
	return func(DeviceHandle) Session {
		s := newFakeSession()
		s.pending = &info
		return s
	}
}

func TestCheckNeedsUpdate(t *testing.T) {
	// Board in ready mode reporting v1.2.0, forced override "2": current
	// v1.2.0 vs latest v2.0.0 means an update is available.
	catalog := &fakeCatalog{}
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeReady: {{Address: "/dev/ttyACM0", Mode: ModeReady}},
		}),
		Reader:      testReader(),
		Resolver:    &VersionResolver{ForceVersion: "2", Catalog: catalog},
		OpenSession: readySession(BoardInfo{BoardRevision: 16, FirmwareVersion: "1.2.0"}),
	}

	if got := orch.Check(); got != OutcomeFirmwareNeedsUpdate {
		t.Fatalf("Check = %v, want %v", got, OutcomeFirmwareNeedsUpdate)
	}
	if catalog.calls != 0 {
		t.Error("catalog consulted despite the forced override")
	}
}

func TestCheckUpToDate(t *testing.T) {
	catalog := &fakeCatalog{version: FirmwareVersion{Numeric: 123, Display: "v1.2.3"}}
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeReady: {{Address: "/dev/ttyACM0", Mode: ModeReady}},
		}),
		Reader:      testReader(),
		Resolver:    &VersionResolver{Catalog: catalog},
		OpenSession: readySession(BoardInfo{BoardRevision: 16, FirmwareVersion: "1.2.3"}),
	}

	if got := orch.Check(); got != OutcomeFirmwareUpToDate {
		t.Fatalf("Check = %v, want %v", got, OutcomeFirmwareUpToDate)
	}
	// The device-derived revision reaches the catalog, and the info read
	// happens once even though both the current version and the
	// resolution path need it.
	if catalog.lastRev != 16 {
		t.Errorf("catalog queried for revision %d, want 16", catalog.lastRev)
	}
}

func TestCheckWrongMode(t *testing.T) {
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeBoot: {{Address: "/dev/ttyACM1", Mode: ModeBoot}},
		}),
		Reader:   testReader(),
		Resolver: &VersionResolver{Catalog: &fakeCatalog{}},
	}
	if got := orch.Check(); got != OutcomeHardwareWrongMode {
		t.Fatalf("Check = %v, want %v", got, OutcomeHardwareWrongMode)
	}
}

func TestUpgradeDryRunLocalFirmware(t *testing.T) {
	// Board in boot mode, local-firmware flag set, asset present: the
	// flashing tool runs in info-probe form only.
	asset := filepath.Join(t.TempDir(), "battery.bin")
	if err := os.WriteFile(asset, []byte{0x00}, 0o644); err != nil {
		t.Fatal(err)
	}

	flasher, calls := recordingFlasher(nil)
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeBoot: {{Address: "/dev/ttyACM1", Mode: ModeBoot}},
		}),
		Reader:   testReader(),
		Resolver: &VersionResolver{Catalog: &fakeCatalog{}},
		Acquirer: &FirmwareAcquirer{LocalPath: asset},
		Flasher:  flasher,
		Probe:    func(DeviceHandle, int) error { return nil },
	}

	if got := orch.Upgrade(true, true); got != OutcomeSuccess {
		t.Fatalf("Upgrade = %v, want %v", got, OutcomeSuccess)
	}
	if len(*calls) != 1 {
		t.Fatalf("tool invoked %d times, want 1", len(*calls))
	}
	args := (*calls)[0].args
	if args[len(args)-1] != "--info" {
		t.Errorf("args = %v, want an info-only probe", args)
	}
}

func TestUpgradeBusyPort(t *testing.T) {
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeBoot: {{Address: "/dev/ttyACM1", Mode: ModeBoot}},
		}),
		Probe: func(DeviceHandle, int) error {
			return failf(OutcomeHardwareBusy, "port held elsewhere")
		},
	}
	if got := orch.Upgrade(false, true); got != OutcomeHardwareBusy {
		t.Fatalf("Upgrade = %v, want %v", got, OutcomeHardwareBusy)
	}
}

func TestUpgradeRemoteRequiresRevision(t *testing.T) {
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeBoot: {{Address: "/dev/ttyACM1", Mode: ModeBoot}},
		}),
		Resolver: &VersionResolver{Catalog: &fakeCatalog{}},
		Probe:    func(DeviceHandle, int) error { return nil },
	}
	if got := orch.Upgrade(false, false); got != OutcomeGenericError {
		t.Fatalf("Upgrade = %v, want %v", got, OutcomeGenericError)
	}
}

func TestFindBoardRevision(t *testing.T) {
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeReady: {{Address: "/dev/ttyACM0", Mode: ModeReady}},
		}),
		Reader:      testReader(),
		OpenSession: readySession(BoardInfo{BoardRevision: 16, FirmwareVersion: "1.2.0"}),
	}
	if got := orch.FindBoardRevision(); got != 16 {
		t.Errorf("FindBoardRevision = %d, want 16", got)
	}
}

func TestFindBoardRevisionNoDevice(t *testing.T) {
	orch := &Orchestrator{
		Gate:   gateWith(nil),
		Reader: testReader(),
	}
	if got := orch.FindBoardRevision(); got != RevisionNone {
		t.Errorf("FindBoardRevision = %d, want %d", got, RevisionNone)
	}
}

func TestRunNothingRequested(t *testing.T) {
	orch := &Orchestrator{}
	if got := orch.Run(RunOptions{}); got != OutcomeNothingToDo.ExitCode() {
		t.Errorf("Run = %d, want %d", got, OutcomeNothingToDo.ExitCode())
	}
}

func TestRunHut(t *testing.T) {
	orch := &Orchestrator{}
	if got := orch.Run(RunOptions{Hut: true}); got != OutcomeNothingToDo.ExitCode() {
		t.Errorf("Run = %d, want %d", got, OutcomeNothingToDo.ExitCode())
	}
}

func TestRunCheckExitCode(t *testing.T) {
	orch := &Orchestrator{
		Gate: gateWith(map[DeviceMode][]DeviceHandle{
			ModeReady: {{Address: "/dev/ttyACM0", Mode: ModeReady}},
		}),
		Reader:      testReader(),
		Resolver:    &VersionResolver{ForceVersion: "2", Catalog: &fakeCatalog{}},
		OpenSession: readySession(BoardInfo{BoardRevision: 16, FirmwareVersion: "1.2.0"}),
	}
	if got := orch.Run(RunOptions{Battery: true, Check: true}); got != 6 {
		t.Errorf("Run = %d, want exit code 6", got)
	}
}
