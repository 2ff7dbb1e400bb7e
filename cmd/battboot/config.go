package main

import (
	"os"
	"strconv"
	"time"

	"github.com/battkit/battboot"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Environment keys for the transient override inputs.
const (
	envForceVersion  = "BATTBOOT_FORCE_FW_VERSION"
	envBoardRevision = "BATTBOOT_BOARD_REVISION"
	envLocalFirmware = "BATTBOOT_LOCAL_FIRMWARE"
)

// Profile describes the battery hardware and the firmware store. The
// defaults match the production board; a YAML profile file overrides
// them for other hardware.
type Profile struct {
	ReadyVID          string  `yaml:"readyVID"`
	ReadyPID          string  `yaml:"readyPID"`
	BootVID           string  `yaml:"bootVID"`
	BootPID           string  `yaml:"bootPID"`
	Baud              int     `yaml:"baud"`
	CatalogURL        string  `yaml:"catalogURL"`
	LocalFirmwarePath string  `yaml:"localFirmwarePath"`
	ScratchDir        string  `yaml:"scratchDir"`
	InfoTimeoutSec    float64 `yaml:"infoTimeoutSec"`
	InfoPollSec       float64 `yaml:"infoPollSec"`
}

func (p Profile) infoTimeout() time.Duration {
	return time.Duration(p.InfoTimeoutSec * float64(time.Second))
}

func (p Profile) infoPoll() time.Duration {
	return time.Duration(p.InfoPollSec * float64(time.Second))
}

func defaultProfile() Profile {
	return Profile{
		ReadyVID:          "16d0",
		ReadyPID:          "0556",
		BootVID:           "16d0",
		BootPID:           "0557",
		Baud:              115200,
		CatalogURL:        battboot.DefaultCatalogURL,
		LocalFirmwarePath: "/data/assets/firmware/battery.bin",
	}
}

func loadProfile(path string) (Profile, error) {
	profile := defaultProfile()
	if path == "" {
		return profile, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return profile, err
	}
	if err := yaml.Unmarshal(raw, &profile); err != nil {
		return profile, err
	}
	return profile, nil
}

// Overrides are the environment-style inputs: a forced firmware version
// and an explicit board revision. They are read exactly once at startup
// and passed on as explicit fields; nothing in the library reads the
// environment.
type Overrides struct {
	ForceVersion  string
	BoardRevision int
	LocalFirmware string
}

func loadOverrides() Overrides {
	// A .env file next to the binary is honored if present.
	_ = godotenv.Load()

	var o Overrides
	o.ForceVersion = os.Getenv(envForceVersion)
	o.LocalFirmware = os.Getenv(envLocalFirmware)
	if v := os.Getenv(envBoardRevision); v != "" {
		revision, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("ignoring malformed %s=%q", envBoardRevision, v)
		} else {
			o.BoardRevision = revision
		}
	}
	return o
}
