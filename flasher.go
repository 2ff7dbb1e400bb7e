package battboot

import (
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/tarm/serial"
)

// DefaultFlashTool is the external programmer used to write firmware
// over the bootloader port.
const DefaultFlashTool = "bossac"

// Flasher invokes the external flashing tool against a bootloader-mode
// device.
type Flasher struct {
	// Tool overrides the flashing tool binary; defaults to bossac.
	Tool string

	// run executes the assembled command; replaced in tests.
	run func(name string, args ...string) error
}

func runTool(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Flash writes the firmware image at firmwarePath to the device behind
// handle with erase/write/verify/reset semantics, or runs an info-only
// probe when dryRun is set. The tool is handed the bus-local port name,
// not the full device path.
func (f *Flasher) Flash(handle DeviceHandle, firmwarePath string, dryRun bool) error {
	tool := f.Tool
	if tool == "" {
		tool = DefaultFlashTool
	}
	run := f.run
	if run == nil {
		run = runTool
	}

	port := path.Base(handle.Address)
	args := []string{
		"--port=" + port,
		"--force_usb_port=true",
	}
	if dryRun {
		args = append(args, "--info")
	} else {
		args = append(args, "--erase", "--write", "--verify", "--reset", firmwarePath)
	}

	pkgLog.Infof("flashing firmware to device %s...", port)
	pkgLog.Debugf("$ %s %s", tool, strings.Join(args, " "))
	if err := run(tool, args...); err != nil {
		return failf(OutcomeGenericError, "an error occurred while flashing the battery")
	}
	return nil
}

// ProbePort opens and immediately closes the port behind handle, to
// verify no other process holds it before flashing starts.
func ProbePort(handle DeviceHandle, baud int) error {
	port, err := serial.OpenPort(&serial.Config{Name: handle.Address, Baud: baud})
	if err != nil {
		pkgLog.Debugf("probe %s: %v", handle.Address, err)
		return failf(OutcomeHardwareBusy,
			"battery detected but another process is using it; this should not "+
				"have happened, contact the administrator")
	}
	port.Close()
	return nil
}
