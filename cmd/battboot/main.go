package main

import (
	"fmt"
	"os"

	"github.com/battkit/battboot"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const appVersion = "2.0.4"

var (
	batteryFlag      bool
	hutFlag          bool
	checkFlag        bool
	dryRunFlag       bool
	useLocalFlag     bool
	findRevisionFlag bool
	profileFlag      string
	verboseFlag      bool
	versionFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "battboot",
	Short: "Battery control board firmware upgrade utility",
	Long: `battboot checks and upgrades the firmware on the battery control board
over its USB serial link. The board must be switched between modes by
hand: pressing the battery button once leaves boot mode, pressing it
twice enters boot mode.

The exit status communicates the outcome of the run (255 nothing to do,
1 success, 2 hardware not found, 3 hardware busy, 4 wrong mode, 5 up to
date, 6 update available, 9 error). With --find-board-revision the exit
status is the board revision itself, 0 when unknown.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&batteryFlag, "battery", false, "Operate on the battery's firmware")
	rootCmd.Flags().BoolVar(&hutFlag, "hut", false, "Operate on the HUT's firmware")
	rootCmd.Flags().BoolVar(&checkFlag, "check", false, "Only check whether an update is needed")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Probe the flashing tool without writing anything")
	rootCmd.Flags().BoolVar(&useLocalFlag, "use-local-firmware", false, "Flash the preset local firmware binary instead of downloading")
	rootCmd.Flags().BoolVar(&findRevisionFlag, "find-board-revision", false, "Report the board revision as the exit status")
	rootCmd.Flags().StringVar(&profileFlag, "profile", "", "Hardware profile YAML file")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&versionFlag, "version", false, "Print the program version")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(battboot.OutcomeGenericError.ExitCode())
	}
}

func run() int {
	if versionFlag {
		fmt.Println(appVersion)
		return 0
	}
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}
	battboot.SetLogger(log.StandardLogger())

	profile, err := loadProfile(profileFlag)
	if err != nil {
		log.Errorf("failed to load profile: %v", err)
		return battboot.OutcomeGenericError.ExitCode()
	}
	overrides := loadOverrides()
	if overrides.LocalFirmware != "" {
		profile.LocalFirmwarePath = overrides.LocalFirmware
	}

	if batteryFlag || hutFlag {
		target := "Battery"
		if hutFlag && !batteryFlag {
			target = "HUT"
		}
		fmt.Printf("%s Firmware Upgrade Utility.\nVersion %s\n\n", target, appVersion)
	}

	orch := newOrchestrator(profile, overrides)
	return orch.Run(battboot.RunOptions{
		Battery:           batteryFlag,
		Hut:               hutFlag,
		Check:             checkFlag,
		DryRun:            dryRunFlag,
		UseLocalFirmware:  useLocalFlag,
		FindBoardRevision: findRevisionFlag,
	})
}

func newOrchestrator(profile Profile, overrides Overrides) *battboot.Orchestrator {
	catalog := &battboot.HTTPCatalog{BaseURL: profile.CatalogURL}
	return &battboot.Orchestrator{
		Gate: &battboot.ModeGate{
			Locator: battboot.SerialLocator{},
			Ready:   battboot.DeviceIdentifier{VendorID: profile.ReadyVID, ProductID: profile.ReadyPID},
			Boot:    battboot.DeviceIdentifier{VendorID: profile.BootVID, ProductID: profile.BootPID},
			BusList: battboot.ListUSBDevices,
		},
		Reader: &battboot.InfoReader{
			Timeout: profile.infoTimeout(),
			Poll:    profile.infoPoll(),
		},
		Resolver: &battboot.VersionResolver{
			ForceVersion:  overrides.ForceVersion,
			BoardRevision: overrides.BoardRevision,
			Catalog:       catalog,
		},
		Acquirer: &battboot.FirmwareAcquirer{
			Catalog:    catalog,
			LocalPath:  profile.LocalFirmwarePath,
			ScratchDir: profile.ScratchDir,
			Progress:   true,
		},
		Flasher: &battboot.Flasher{},
		OpenSession: func(handle battboot.DeviceHandle) battboot.Session {
			return battboot.NewSerialSession(handle, profile.Baud)
		},
		Baud: profile.Baud,
	}
}
