package battboot

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
)

// FirmwareAcquirer obtains a firmware binary for a board revision and
// version, either from a fixed local asset or by downloading it from the
// firmware store.
//
// Downloaded images are not checksummed or signature-checked before they
// are handed to the flasher; the store publishes no digest to check
// against. Known integrity gap.
type FirmwareAcquirer struct {
	// Catalog supplies resource URLs for downloads.
	Catalog *HTTPCatalog
	// LocalPath is the fixed asset used in local-firmware testing mode.
	LocalPath string
	// ScratchDir receives downloaded binaries; defaults to the system
	// temp directory.
	ScratchDir string
	// Progress draws a byte-progress bar on the download stream.
	Progress bool

	Client *http.Client
}

// FirmwareFilename is the deterministic name a binary has both in the
// store and in the scratch directory.
func FirmwareFilename(boardRevision int, version FirmwareVersion) string {
	return fmt.Sprintf("battery_pcb%d_fw_v%d.bin", boardRevision, version.Numeric)
}

// AcquireLocal returns the fixed local asset path, verifying it exists.
func (a *FirmwareAcquirer) AcquireLocal() (string, error) {
	info, err := os.Stat(a.LocalPath)
	if err != nil || info.IsDir() {
		return "", failf(OutcomeGenericError, "local firmware binary not found at %s", a.LocalPath)
	}
	pkgLog.Infof("in local firmware testing mode, will NOT download firmware from the server")
	return a.LocalPath, nil
}

// Acquire downloads the firmware binary for the given revision and
// version into the scratch directory and returns its path.
func (a *FirmwareAcquirer) Acquire(boardRevision int, version FirmwareVersion) (string, error) {
	name := FirmwareFilename(boardRevision, version)
	url := a.Catalog.URL(boardRevision, name)

	dir := a.ScratchDir
	if dir == "" {
		dir = os.TempDir()
	}
	dest := filepath.Join(dir, name)

	pkgLog.Infof("downloading firmware version %s...", version.Display)
	if err := a.download(url, dest); err != nil {
		pkgLog.Debugf("download %s: %v", url, err)
		return "", failf(OutcomeGenericError, "failed to download firmware from %s", url)
	}
	pkgLog.Infof("firmware downloaded")
	return dest, nil
}

func (a *FirmwareAcquirer) download(url, dest string) error {
	client := a.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	resp, err := client.Get(url)
	if err != nil {
		return errors.Wrap(err, "fetch firmware")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetch firmware: %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "create firmware file")
	}
	defer out.Close()

	var w io.Writer = out
	if a.Progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "downloading")
		w = io.MultiWriter(out, bar)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Do not leave a truncated image at the deterministic path; a
		// later run could mistake it for a complete binary.
		out.Close()
		os.Remove(dest)
		return errors.Wrap(err, "write firmware file")
	}
	return nil
}
