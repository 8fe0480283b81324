package automation

import (
	"go.uber.org/zap"

	"whatsapp-bulksender/internal/browser"
	"whatsapp-bulksender/internal/session"
)

// BrowserSessionKeeper adapts the instance manager and login manager to the
// controller's SessionKeeper interface.
type BrowserSessionKeeper struct {
	instances *browser.InstanceManager
	login     *session.LoginManager
	driver    browser.Driver
	log       *zap.SugaredLogger
}

func NewBrowserSessionKeeper(instances *browser.InstanceManager, login *session.LoginManager, driver browser.Driver, log *zap.SugaredLogger) *BrowserSessionKeeper {
	return &BrowserSessionKeeper{instances: instances, login: login, driver: driver, log: log}
}

// Acquire gets the shared browser session, reusing a live one when possible,
// and brings the chat client to its ready state. A reused session usually
// still holds the login and just needs validation.
func (k *BrowserSessionKeeper) Acquire() bool {
	_, reused, err := k.instances.GetOrCreate()
	if err != nil {
		k.log.Errorf("could not acquire browser session: %v", err)
		return false
	}
	if reused && k.login.ValidateSession() {
		return true
	}
	return k.login.OpenAndLogin() == session.StateReady
}

func (k *BrowserSessionKeeper) Release(keepOpen bool) {
	k.instances.Cleanup(keepOpen)
}

func (k *BrowserSessionKeeper) Alive() bool {
	return k.driver.IsAlive()
}

func (k *BrowserSessionKeeper) Reconnect() bool {
	return k.login.ReconnectIfNeeded()
}
