package contacts

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"whatsapp-bulksender/internal/browser"
	"whatsapp-bulksender/internal/selectors"
)

const verifyTimeout = 8 * time.Second

// Settle pauses give the client time to filter search results and to finish
// the deep-link page load. Tests shorten them.
var (
	searchSettle = 2 * time.Second
	linkSettle   = 3 * time.Second
)

// Resolver opens the conversation for a phone number, search box first, deep
// link second. Outcomes are cached per number for the lifetime of the run.
type Resolver struct {
	driver   browser.Driver
	registry *selectors.Registry
	log      *zap.SugaredLogger
	status   func(string)

	lastOpened string
	results    map[string]bool
	strategies []openStrategy
}

// openStrategy is one way of reaching a conversation. The fallback chain is
// a list, tried in order until one succeeds.
type openStrategy struct {
	name string
	open func(number string) bool
}

func NewResolver(driver browser.Driver, registry *selectors.Registry, log *zap.SugaredLogger, status func(string)) *Resolver {
	if status == nil {
		status = func(string) {}
	}
	r := &Resolver{
		driver:   driver,
		registry: registry,
		log:      log,
		status:   status,
		results:  make(map[string]bool),
	}
	r.strategies = []openStrategy{
		{name: "search-box", open: r.openViaSearch},
		{name: "deep-link", open: r.openViaDeepLink},
	}
	return r
}

// Open brings the conversation for the given phone number on screen.
// Invalid numbers are rejected before any navigation happens.
func (r *Resolver) Open(phoneNumber string) bool {
	number := Normalize(phoneNumber)
	if !IsValidNumber(number) {
		r.status(fmt.Sprintf("Número inválido: %s", phoneNumber))
		r.log.Warnf("rejecting number %q: %d digits after normalization", phoneNumber, len(number))
		return false
	}

	// Re-opening the conversation we are already in would just waste a
	// page load, as long as the compose box is still there.
	if number == r.lastOpened && r.composeBoxPresent() {
		r.log.Debugf("conversation for %s already open", number)
		return true
	}

	for _, strat := range r.strategies {
		r.log.Debugf("opening conversation for %s via %s", number, strat.name)
		if strat.open(number) {
			r.lastOpened = number
			r.results[number] = true
			return true
		}
		r.log.Warnf("strategy %s failed for %s", strat.name, number)
	}

	r.status(fmt.Sprintf("No se pudo abrir la conversación con %s", number))
	r.results[number] = false
	return false
}

// Result reports the cached outcome for a number, if any.
func (r *Resolver) Result(phoneNumber string) (opened, known bool) {
	opened, known = r.results[Normalize(phoneNumber)]
	return
}

// LastOpened returns the number whose conversation was opened most recently.
func (r *Resolver) LastOpened() string { return r.lastOpened }

func (r *Resolver) openViaSearch(number string) bool {
	searchLocs := r.registry.Get(selectors.RoleSearchBox)
	box := r.driver.WaitForElement(searchLocs, verifyTimeout, true)
	if box == nil {
		return false
	}
	if !r.driver.SafeClick(*box) {
		return false
	}
	r.driver.ClearInput(*box)
	if !r.driver.SendKeys(*box, number) {
		return false
	}
	time.Sleep(searchSettle)
	if !r.driver.KeyEvent("\r", 0) {
		return false
	}
	time.Sleep(searchSettle)
	return r.conversationOpened()
}

func (r *Resolver) openViaDeepLink(number string) bool {
	url := fmt.Sprintf("https://web.whatsapp.com/send?phone=%s", number)
	// The in-page navigation fires a "Leave site?" prompt otherwise.
	r.driver.ExecuteScript(`window.onbeforeunload = null;`, nil)
	if !r.driver.Navigate(url) {
		return false
	}
	time.Sleep(linkSettle)
	return r.conversationOpened()
}

// conversationOpened checks a disjunction of indicators. The compose box is
// the primary one, but a client UI update can silently break that selector,
// so the conversation header counts too; proceeding blind into a send is the
// thing to avoid.
func (r *Resolver) conversationOpened() bool {
	if r.composeBoxPresent() {
		return true
	}
	header := r.driver.WaitForElement(r.registry.Get(selectors.RoleConversationHeader), verifyTimeout, false)
	return header != nil
}

func (r *Resolver) composeBoxPresent() bool {
	return r.driver.WaitForElement(r.registry.Get(selectors.RoleMessageBox), verifyTimeout, false) != nil
}
