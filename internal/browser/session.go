// Package browser owns the Chrome process lifecycle and the generic DOM
// primitives everything else is built on.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"whatsapp-bulksender/internal/config"
	"whatsapp-bulksender/internal/selectors"
)

const (
	maxLaunchAttempts = 3
	livenessTimeout   = 5 * time.Second
	scriptTimeout     = 10 * time.Second
)

// Session manages one Chrome process: launch with an exclusively-held user
// data directory, generic DOM primitives, teardown.
type Session struct {
	cfg    config.BrowserConfig
	log    *zap.SugaredLogger
	status func(string)

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	userDataDir string
	lock        *os.File
	ephemeral   bool
	alive       bool
}

func NewSession(cfg config.BrowserConfig, log *zap.SugaredLogger, status func(string)) *Session {
	if status == nil {
		status = func(string) {}
	}
	return &Session{cfg: cfg, log: log, status: status}
}

// Initialize resolves a lock-free user data directory and launches Chrome
// with automation-resistant flags. Makes up to three attempts and leaves no
// dangling process behind a false return.
func (s *Session) Initialize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive {
		return true
	}

	attempt := 0
	op := func() error {
		attempt++
		s.log.Infof("launching browser (attempt %d/%d)", attempt, maxLaunchAttempts)
		if err := s.launchLocked(); err != nil {
			s.log.Warnf("browser launch failed: %v", err)
			return err
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(2*time.Second), maxLaunchAttempts-1)
	if err := backoff.Retry(op, bo); err != nil {
		s.status(fmt.Sprintf("No se pudo iniciar el navegador: %v", err))
		return false
	}

	s.alive = true
	s.status("Navegador iniciado")
	return true
}

func (s *Session) launchLocked() error {
	dir, lock, ephemeral, err := resolveUserDataDir(s.cfg.UserDataDir, s.log)
	if err != nil {
		return err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.UserDataDir(dir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("lang", s.cfg.Locale),
		chromedp.WindowSize(1200, 800),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// chromedp starts the process lazily; an empty Run forces the launch
	// so a broken Chrome install fails here, not mid-automation.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		releaseProfileLock(lock)
		if ephemeral {
			os.RemoveAll(dir)
		}
		return fmt.Errorf("chrome failed to start: %w", err)
	}

	s.ctx = ctx
	s.cancel = cancel
	s.allocCancel = allocCancel
	s.userDataDir = dir
	s.lock = lock
	s.ephemeral = ephemeral
	s.log.Infof("browser running with profile %s", dir)
	return nil
}

// IsAlive probes the browser by reading a trivial document property. Any
// error flips the session to dead; it never raises.
func (s *Session) IsAlive() bool {
	s.mu.Lock()
	if !s.alive || s.ctx == nil {
		s.mu.Unlock()
		return false
	}
	ctx := s.ctx
	s.mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, livenessTimeout)
	defer cancel()

	var state string
	if err := chromedp.Run(tctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
		s.log.Warnf("liveness probe failed: %v", err)
		s.mu.Lock()
		s.alive = false
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *Session) run(timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	ctx := s.ctx
	ok := s.alive
	s.mu.Unlock()
	if !ok || ctx == nil {
		return fmt.Errorf("browser session not running")
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return chromedp.Run(tctx, actions...)
}

func (s *Session) Navigate(url string) bool {
	timeout := time.Duration(s.cfg.PageLoadTimeout) * time.Second
	if err := s.run(timeout, chromedp.Navigate(url)); err != nil {
		s.log.Warnf("navigation to %s failed: %v", url, err)
		return false
	}
	return true
}

func (s *Session) CurrentURL() (string, bool) {
	var url string
	if err := s.run(livenessTimeout, chromedp.Location(&url)); err != nil {
		s.log.Warnf("could not read current URL: %v", err)
		return "", false
	}
	return url, true
}

func (s *Session) ExecuteScript(script string, out any) bool {
	var action chromedp.Action
	if out != nil {
		action = chromedp.Evaluate(script, out)
	} else {
		action = chromedp.Evaluate(script, nil)
	}
	if err := s.run(scriptTimeout, action); err != nil {
		s.log.Debugf("script execution failed: %v", err)
		return false
	}
	return true
}

func queryOption(loc selectors.Locator) chromedp.QueryOption {
	if loc.Kind == selectors.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// WaitForElement splits the timeout evenly across the candidate locators and
// returns the first one that matched, or nil.
func (s *Session) WaitForElement(locs []selectors.Locator, timeout time.Duration, clickable bool) *selectors.Locator {
	if len(locs) == 0 {
		return nil
	}
	slice := timeout / time.Duration(len(locs))
	if slice < 250*time.Millisecond {
		slice = 250 * time.Millisecond
	}

	for _, loc := range locs {
		actions := []chromedp.Action{chromedp.WaitVisible(loc.Expr, queryOption(loc))}
		if clickable {
			actions = append(actions, chromedp.WaitEnabled(loc.Expr, queryOption(loc)))
		}
		if err := s.run(slice, actions...); err == nil {
			matched := loc
			s.log.Debugf("element found with locator: %s", loc.Expr)
			return &matched
		}
	}
	return nil
}

// SafeClick scrolls into view and clicks; if the native click fails it falls
// back to a script-driven click, retrying the whole sequence once.
func (s *Session) SafeClick(loc selectors.Locator) bool {
	op := func() error {
		err := s.run(scriptTimeout,
			chromedp.ScrollIntoView(loc.Expr, queryOption(loc)),
			chromedp.Click(loc.Expr, queryOption(loc)),
		)
		if err == nil {
			return nil
		}
		s.log.Debugf("native click failed for %s, trying script click: %v", loc.Expr, err)
		if s.ExecuteScript(scriptClick(loc), nil) {
			return nil
		}
		return fmt.Errorf("click failed: %w", err)
	}

	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1)
	if err := backoff.Retry(op, bo); err != nil {
		s.log.Warnf("could not click element %s: %v", loc.Expr, err)
		return false
	}
	return true
}

func scriptClick(loc selectors.Locator) string {
	expr := jsString(loc.Expr)
	if loc.Kind == selectors.XPath {
		return fmt.Sprintf(
			`(() => { const el = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue; if (el) el.click(); return !!el; })()`,
			expr)
	}
	return fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); if (el) el.click(); return !!el; })()`,
		expr)
}

func (s *Session) SendKeys(loc selectors.Locator, text string) bool {
	if err := s.run(scriptTimeout, chromedp.SendKeys(loc.Expr, text, queryOption(loc))); err != nil {
		s.log.Warnf("typing into %s failed: %v", loc.Expr, err)
		return false
	}
	return true
}

func (s *Session) KeyEvent(keys string, modifiers int64) bool {
	var action chromedp.Action
	if modifiers != 0 {
		action = chromedp.KeyEvent(keys, chromedp.KeyModifiers(input.Modifier(modifiers)))
	} else {
		action = chromedp.KeyEvent(keys)
	}
	if err := s.run(scriptTimeout, action); err != nil {
		s.log.Debugf("key event failed: %v", err)
		return false
	}
	return true
}

// ClearInput focuses the element and wipes its contents with select-all plus
// backspace, the same way a user would.
func (s *Session) ClearInput(loc selectors.Locator) bool {
	err := s.run(scriptTimeout,
		chromedp.Click(loc.Expr, queryOption(loc)),
		chromedp.Sleep(200*time.Millisecond),
		chromedp.KeyEvent("a", chromedp.KeyModifiers(input.ModifierCtrl)),
		chromedp.Sleep(100*time.Millisecond),
		chromedp.KeyEvent("\b"),
	)
	if err != nil {
		s.log.Debugf("clearing input %s failed: %v", loc.Expr, err)
		return false
	}
	return true
}

func (s *Session) SetUploadFiles(loc selectors.Locator, path string) bool {
	if err := s.run(scriptTimeout, chromedp.SetUploadFiles(loc.Expr, []string{path}, queryOption(loc))); err != nil {
		s.log.Debugf("file upload via %s failed: %v", loc.Expr, err)
		return false
	}
	return true
}

// UserDataDir reports the profile directory this session holds.
func (s *Session) UserDataDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userDataDir
}

// Close terminates the browser. Ephemeral fallback profile directories are
// removed when cleanupUserData is set; the primary profile always survives
// because it holds the scanned-QR login.
func (s *Session) Close(cleanupUserData bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.log.Info("closing browser")
		s.cancel()
		s.cancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	releaseProfileLock(s.lock)
	s.lock = nil

	if cleanupUserData && s.ephemeral && s.userDataDir != "" {
		if err := os.RemoveAll(s.userDataDir); err != nil {
			s.log.Warnf("could not remove temporary profile %s: %v", s.userDataDir, err)
		}
	}
	s.alive = false
}

// jsString encodes a Go string as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
