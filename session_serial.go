package battboot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// stateRecord is one of the periodic JSON records the battery firmware
// writes to its serial port in ready mode. Only the fields needed for
// version resolution are decoded.
type stateRecord struct {
	Version string `json:"version"`
	Boot    struct {
		PCBVersion string `json:"pcb_version"`
	} `json:"boot"`
}

type serialSession struct {
	config serial.Config

	mu   sync.Mutex
	port *serial.Port
	info *BoardInfo
	down bool
}

// NewSerialSession returns a Session that reads the battery's periodic
// state records from its serial port.
func NewSerialSession(handle DeviceHandle, baud int) Session {
	s := new(serialSession)
	s.config.Name = handle.Address
	s.config.Baud = baud
	return s
}

// Start opens the port and consumes state records until Shutdown closes
// it. The first record carrying both a firmware version and a board
// revision is kept.
func (s *serialSession) Start() error {
	s.mu.Lock()
	if s.down {
		s.mu.Unlock()
		return nil
	}
	port, err := serial.OpenPort(&s.config)
	if err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "open battery port")
	}
	s.port = port
	s.mu.Unlock()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		info, ok := parseStateRecord(scanner.Bytes())
		if !ok {
			continue
		}
		s.mu.Lock()
		if s.info == nil {
			s.info = &info
		}
		s.mu.Unlock()
	}

	// A read error after Shutdown closed the port is the normal way out.
	if err := scanner.Err(); err != nil && !s.isShutdown() {
		return errors.Wrap(err, "read battery state")
	}
	return nil
}

func (s *serialSession) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = true
	if s.port != nil {
		s.port.Close()
		s.port = nil
	}
}

func (s *serialSession) Info() (BoardInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return BoardInfo{}, false
	}
	return *s.info, true
}

func (s *serialSession) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

// parseStateRecord decodes one line from the battery's serial stream.
// Lines that are not complete state records are skipped.
func parseStateRecord(line []byte) (BoardInfo, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return BoardInfo{}, false
	}
	var rec stateRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return BoardInfo{}, false
	}
	if rec.Version == "" || rec.Boot.PCBVersion == "" {
		return BoardInfo{}, false
	}
	revision, err := strconv.Atoi(rec.Boot.PCBVersion)
	if err != nil {
		pkgLog.Debugf("unparsable pcb_version %q in state record", rec.Boot.PCBVersion)
		return BoardInfo{}, false
	}
	return BoardInfo{BoardRevision: revision, FirmwareVersion: rec.Version}, true
}
