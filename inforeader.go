package battboot

import (
	"sync"
	"time"
)

// Defaults for the info-read watchdog.
const (
	DefaultInfoTimeout = 10 * time.Second
	DefaultInfoPoll    = 500 * time.Millisecond
)

// InfoReader retrieves board metadata from a ready-mode device under a
// bounded timeout. The zero value uses the default timeout and poll
// granularity.
//
// The main flow of control blocks on the driver session; a single
// watchdog goroutine per read is the sole source of enforced
// cancellation. The two communicate only through the session's shutdown
// and the captured-info flag, and the caller regains control within
// timeout plus one poll interval.
type InfoReader struct {
	Timeout time.Duration
	Poll    time.Duration

	// ShutdownRequested, when non-nil, aborts the read early once
	// closed (process shutdown). The read then fails like a timeout.
	ShutdownRequested <-chan struct{}
}

// Read opens a session against handle and blocks until the board info is
// captured, the session fails, or the watchdog expires. The session is
// shut down exactly once on every path, and the watchdog is joined
// before Read returns, so no work outlives the call.
func (r *InfoReader) Read(handle DeviceHandle, open SessionFactory) (BoardInfo, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultInfoTimeout
	}
	poll := r.Poll
	if poll <= 0 {
		poll = DefaultInfoPoll
	}

	sess := open(handle)

	var once sync.Once
	shutdown := func() { once.Do(sess.Shutdown) }
	defer shutdown()

	done := make(chan struct{})
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		deadline := time.NewTimer(timeout)
		defer deadline.Stop()
		tick := time.NewTicker(poll)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-deadline.C:
				shutdown()
				return
			case <-r.ShutdownRequested:
				shutdown()
				return
			case <-tick.C:
				if _, ok := sess.Info(); ok {
					shutdown()
					return
				}
			}
		}
	}()

	pkgLog.Debugf("trying to communicate with %s...", handle.Address)
	err := sess.Start()
	close(done)
	<-joined

	if err != nil {
		if isBusyErr(err) {
			return BoardInfo{}, failf(OutcomeHardwareBusy,
				"battery detected but another process is using it; "+
					"make sure no other process communicates with the battery")
		}
		pkgLog.Debugf("battery session failed: %v", err)
		return BoardInfo{}, failf(OutcomeGenericError,
			"an error occurred while talking to the battery, make sure "+
				"no other processes are communicating with the battery")
	}

	info, ok := sess.Info()
	if !ok {
		return BoardInfo{}, failf(OutcomeGenericError,
			"an error occurred while talking to the battery, make sure "+
				"no other processes are communicating with the battery")
	}
	return info, nil
}
