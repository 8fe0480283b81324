package browser

import (
	"time"

	"whatsapp-bulksender/internal/selectors"
)

// Driver is the set of browser primitives the login, contact and delivery
// layers are built on. *Session is the chromedp implementation; tests supply
// fakes. Every method converts failure to a bool/nil result, never an error,
// so one bad browser call stays a per-contact failure instead of killing a
// multi-minute run.
type Driver interface {
	// IsAlive probes the browser with a trivial script. Any failure means
	// the process is gone or unresponsive.
	IsAlive() bool

	// Navigate loads a URL and waits for the navigation to settle.
	Navigate(url string) bool

	// CurrentURL reports the active page location.
	CurrentURL() (string, bool)

	// ExecuteScript evaluates JavaScript, optionally unmarshalling the
	// result into out (pass nil to discard).
	ExecuteScript(script string, out any) bool

	// WaitForElement tries each locator in order, splitting the timeout
	// evenly across the list, and returns the first that matched.
	WaitForElement(locs []selectors.Locator, timeout time.Duration, clickable bool) *selectors.Locator

	// SafeClick scrolls the element into view and clicks it, falling back
	// to a script-driven click, with one retry.
	SafeClick(loc selectors.Locator) bool

	// SendKeys types text into the element.
	SendKeys(loc selectors.Locator, text string) bool

	// KeyEvent dispatches raw key input to the focused element.
	KeyEvent(keys string, modifiers int64) bool

	// ClearInput focuses the element and removes its current content.
	ClearInput(loc selectors.Locator) bool

	// SetUploadFiles injects a file path into a file input element.
	SetUploadFiles(loc selectors.Locator, path string) bool
}
