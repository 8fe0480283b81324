package browser

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// InstanceManager coordinates reuse of one browser session across automation
// runs. Re-scanning the login QR on every run is unacceptable, so a live
// session is handed back instead of launching a new process each time. The
// *Session pointer stays stable across relaunches, which lets the rest of
// the system hold a reference to it for the life of the process.
type InstanceManager struct {
	mu      sync.Mutex
	session *Session
	log     *zap.SugaredLogger
}

func NewInstanceManager(session *Session, log *zap.SugaredLogger) *InstanceManager {
	return &InstanceManager{session: session, log: log}
}

// GetOrCreate returns the session, relaunching the browser if the current
// process is dead or was never started. The reused flag tells the caller
// whether the login state likely survives.
func (m *InstanceManager) GetOrCreate() (*Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.IsAlive() {
		m.log.Info("reusing existing browser session")
		return m.session, true, nil
	}

	// Tear down whatever is left before relaunching.
	m.session.Close(true)
	if !m.session.Initialize() {
		return nil, false, fmt.Errorf("browser failed to initialize")
	}
	return m.session, false, nil
}

// Cleanup closes the session unless the caller wants the browser kept open
// for the next run, in which case only bookkeeping happens.
func (m *InstanceManager) Cleanup(keepOpen bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keepOpen {
		m.log.Info("keeping browser open for the next run")
		return
	}
	m.session.Close(true)
}
