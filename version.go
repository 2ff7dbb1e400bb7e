package battboot

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultCatalogURL is the layout of the public firmware store: a base
// URL per board revision, under which "latest" is a plain-text version
// marker and the versioned resources are the firmware binaries.
const DefaultCatalogURL = "https://battkit-public-storage.s3.amazonaws.com/assets/battery/PCBv%d/firmware/%s"

// FirmwareVersion pairs the orderable numeric form of a version with its
// display form. The numeric form is the zero-padded major/minor/patch
// digit string (123 for v1.2.3, 200 for v2.0.0); it is used only for
// ordering, never for display.
type FirmwareVersion struct {
	Numeric int
	Display string
}

// NewerThan reports whether v is strictly newer than other.
func (v FirmwareVersion) NewerThan(other FirmwareVersion) bool {
	return v.Numeric > other.Numeric
}

var nonDigits = regexp.MustCompile(`[^0-9]+`)

// ParseVersion extracts the digits of a version string ("v1.2.3", "123",
// "5") and derives the canonical "v{major}.{minor}.{patch}" display
// form, zero-padding versions shorter than three digits. The numeric
// form comes from the same padded digits, so ordering always agrees
// with the displayed major/minor/patch ("2" is v2.0.0 and numeric 200,
// newer than "1.2.0" at 120).
func ParseVersion(s string) (FirmwareVersion, error) {
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" {
		return FirmwareVersion{}, errors.Errorf("no digits in version %q", s)
	}
	padded := (digits + "000")[:3]
	numeric, err := strconv.Atoi(padded)
	if err != nil {
		return FirmwareVersion{}, errors.Wrapf(err, "version %q", s)
	}
	return FirmwareVersion{
		Numeric: numeric,
		Display: fmt.Sprintf("v%c.%c.%c", padded[0], padded[1], padded[2]),
	}, nil
}

// Catalog answers which firmware version is the latest for a board
// revision.
type Catalog interface {
	Latest(boardRevision int) (FirmwareVersion, error)
}

// HTTPCatalog fetches version markers from the remote firmware store.
type HTTPCatalog struct {
	// BaseURL is expanded with the board revision and resource name,
	// see DefaultCatalogURL.
	BaseURL string
	Client  *http.Client
}

// URL returns the store URL of a resource for a board revision.
func (c *HTTPCatalog) URL(boardRevision int, resource string) string {
	return fmt.Sprintf(c.BaseURL, boardRevision, resource)
}

// Latest fetches and parses the latest-version marker for a board
// revision.
func (c *HTTPCatalog) Latest(boardRevision int) (FirmwareVersion, error) {
	url := c.URL(boardRevision, "latest")
	resp, err := c.httpClient().Get(url)
	if err != nil {
		return FirmwareVersion{}, errors.Wrap(err, "fetch latest version marker")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FirmwareVersion{}, errors.Errorf("fetch latest version marker: %s returned %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FirmwareVersion{}, errors.Wrap(err, "read latest version marker")
	}
	return ParseVersion(strings.TrimSpace(string(body)))
}

func (c *HTTPCatalog) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}
