// Package session drives WhatsApp Web through its startup states into a
// usable, authenticated interface.
package session

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"whatsapp-bulksender/internal/browser"
	"whatsapp-bulksender/internal/selectors"
)

// WebURL is the service root the whole tool automates.
const WebURL = "https://web.whatsapp.com"

// State of the login flow.
type State int

const (
	StateUnknown State = iota
	StateLoggedIn
	StateQRPending
	StateLoading
	StateReady
	StateUnreachable
)

func (s State) String() string {
	switch s {
	case StateLoggedIn:
		return "logged-in"
	case StateQRPending:
		return "qr-pending"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

const (
	mainPanelGrace = 10 * time.Second
	qrGrace        = 5 * time.Second
	qrPollInterval = 2 * time.Second
	progressEvery  = 10 * time.Second
)

// LoginManager brings the chat client to its ready state and re-validates a
// degraded session mid-run. Login depends on a human scanning a QR code, so
// it is the highest-latency step in the system and kept apart from delivery.
type LoginManager struct {
	driver    browser.Driver
	registry  *selectors.Registry
	log       *zap.SugaredLogger
	status    func(string)
	qrTimeout time.Duration

	state State
}

func NewLoginManager(driver browser.Driver, registry *selectors.Registry, qrTimeoutSeconds int, log *zap.SugaredLogger, status func(string)) *LoginManager {
	if status == nil {
		status = func(string) {}
	}
	if qrTimeoutSeconds <= 0 {
		qrTimeoutSeconds = 60
	}
	return &LoginManager{
		driver:    driver,
		registry:  registry,
		log:       log,
		status:    status,
		qrTimeout: time.Duration(qrTimeoutSeconds) * time.Second,
		state:     StateUnknown,
	}
}

// State reports the last observed login state.
func (m *LoginManager) State() State { return m.state }

// OpenAndLogin navigates to the service root and waits until the main
// authenticated interface is present, polling through the QR-pending state
// if needed. Returns the terminal state of the attempt.
func (m *LoginManager) OpenAndLogin() State {
	m.state = StateLoading
	m.status("Abriendo WhatsApp Web...")

	if !m.driver.Navigate(WebURL) {
		m.state = StateUnreachable
		m.status("No se pudo abrir WhatsApp Web")
		return m.state
	}

	if m.mainInterfacePresent(mainPanelGrace) {
		m.state = StateReady
		m.status("Sesión ya iniciada")
		return m.state
	}

	if m.qrPresent(qrGrace) {
		m.state = StateQRPending
		m.status("Escanee el código QR con su teléfono")
		return m.waitForQRScan()
	}

	// Neither the chat list nor a QR code showed up within the grace
	// window; the page likely never rendered.
	m.state = StateUnreachable
	m.status("WhatsApp Web no respondió")
	return m.state
}

func (m *LoginManager) waitForQRScan() State {
	deadline := time.Now().Add(m.qrTimeout)
	lastProgress := time.Now()

	for time.Now().Before(deadline) {
		if m.mainInterfacePresent(qrPollInterval) {
			m.state = StateReady
			m.status("Sesión iniciada correctamente")
			return m.state
		}
		// QR disappearing usually means the scan happened and the chat
		// list is loading; give the main interface another look.
		if !m.qrPresent(qrPollInterval) && m.mainInterfacePresent(qrPollInterval) {
			m.state = StateReady
			m.status("Sesión iniciada correctamente")
			return m.state
		}
		if time.Since(lastProgress) >= progressEvery {
			remaining := time.Until(deadline).Round(time.Second)
			m.status(fmt.Sprintf("Esperando escaneo del código QR (%s restantes)", remaining))
			lastProgress = time.Now()
		}
		time.Sleep(qrPollInterval)
	}

	m.state = StateUnreachable
	m.status("Tiempo de espera del código QR agotado")
	return m.state
}

// ValidateSession re-checks liveness and interface presence. When the
// browser is alive but has wandered off the service URL the full login flow
// is re-run; when it is on-URL with the interface missing the session is
// reported invalid without forcing navigation, since the page may simply be
// mid-load.
func (m *LoginManager) ValidateSession() bool {
	if !m.driver.IsAlive() {
		m.state = StateUnknown
		return false
	}

	url, ok := m.driver.CurrentURL()
	if ok && !strings.Contains(url, "web.whatsapp.com") {
		m.log.Warnf("browser drifted to %s, re-running login", url)
		return m.OpenAndLogin() == StateReady
	}

	if m.mainInterfacePresent(qrGrace) {
		m.state = StateReady
		return true
	}
	m.state = StateLoading
	return false
}

// ReconnectIfNeeded is the mid-run re-entry point used when a send discovers
// the session is gone.
func (m *LoginManager) ReconnectIfNeeded() bool {
	if m.ValidateSession() {
		return true
	}
	if !m.driver.IsAlive() {
		return false
	}
	m.status("Reconectando con WhatsApp Web...")
	return m.OpenAndLogin() == StateReady
}

func (m *LoginManager) mainInterfacePresent(timeout time.Duration) bool {
	return m.driver.WaitForElement(m.registry.Get(selectors.RoleMainPanel), timeout, false) != nil
}

func (m *LoginManager) qrPresent(timeout time.Duration) bool {
	return m.driver.WaitForElement(m.registry.Get(selectors.RoleQRCode), timeout, false) != nil
}
