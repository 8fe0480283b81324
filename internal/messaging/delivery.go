package messaging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"whatsapp-bulksender/internal/browser"
	"whatsapp-bulksender/internal/selectors"
)

const maxImageBytes = 64 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

const (
	composeTimeout = 10 * time.Second
	controlTimeout = 5 * time.Second
)

// Settle pauses wait out client-side animations and the upload pipeline.
// Tests shorten them.
var (
	previewSettle = 4 * time.Second
	uploadSettle  = 8 * time.Second
	sendSettle    = time.Second
)

// ImageResolver turns an opaque image reference into an absolute file path.
// Empty result means the reference could not be resolved.
type ImageResolver func(ref string) string

// Engine performs the actual sends into an already-opened conversation.
type Engine struct {
	driver       browser.Driver
	registry     *selectors.Registry
	log          *zap.SugaredLogger
	status       func(string)
	resolveImage ImageResolver

	imageVerdicts map[string]error
}

func NewEngine(driver browser.Driver, registry *selectors.Registry, resolveImage ImageResolver, log *zap.SugaredLogger, status func(string)) *Engine {
	if status == nil {
		status = func(string) {}
	}
	if resolveImage == nil {
		resolveImage = func(string) string { return "" }
	}
	return &Engine{
		driver:        driver,
		registry:      registry,
		log:           log,
		status:        status,
		resolveImage:  resolveImage,
		imageVerdicts: make(map[string]error),
	}
}

// Send dispatches by content shape. Sub-step failures degrade to the
// next-best partial delivery: a failed image with accompanying text still
// attempts the text, a failed caption still ships the bare image.
func (e *Engine) Send(msg Message) bool {
	switch {
	case msg.HasText() && msg.HasImage() && msg.JointSendMode:
		if e.SendImageWithCaption(msg.ImageRef, msg.Text) {
			return true
		}
		e.log.Warn("captioned image send failed, falling back to text only")
		return e.SendText(msg.Text)
	case msg.HasText() && msg.HasImage():
		imgOK := e.SendImageOnly(msg.ImageRef)
		if !imgOK {
			e.log.Warn("image send failed, continuing with the text half")
		}
		txtOK := e.SendText(msg.Text)
		return imgOK || txtOK
	case msg.HasImage():
		return e.SendImageOnly(msg.ImageRef)
	case msg.HasText():
		return e.SendText(msg.Text)
	default:
		e.status("Mensaje vacío: nada que enviar")
		return false
	}
}

// SendText writes the text into the compose box and sends it. Text with
// emoji or other non-BMP characters cannot be typed reliably through
// synthetic keystrokes into the rich-text editable div, so it goes straight
// to the script-injection strategy; plain text tries native keystrokes first
// with script injection as the fallback.
func (e *Engine) SendText(text string) bool {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return false
	}

	strategies := []func(string) bool{e.sendTextNative, e.sendTextScript}
	if containsEmoji(text) {
		strategies = []func(string) bool{e.sendTextScript}
	}
	for _, send := range strategies {
		if send(text) {
			return true
		}
	}
	e.status("No se pudo enviar el mensaje de texto")
	return false
}

func (e *Engine) sendTextNative(text string) bool {
	box := e.driver.WaitForElement(e.registry.Get(selectors.RoleMessageBox), composeTimeout, true)
	if box == nil {
		return false
	}
	if !e.driver.SafeClick(*box) {
		return false
	}
	e.driver.ClearInput(*box)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" && !e.driver.SendKeys(*box, line) {
			return false
		}
		if i < len(lines)-1 {
			// Shift+Enter inserts a soft newline instead of sending.
			if !e.driver.KeyEvent(kb.Enter, int64(input.ModifierShift)) {
				return false
			}
		}
	}

	if !e.driver.KeyEvent(kb.Enter, 0) {
		return false
	}
	time.Sleep(sendSettle)
	return e.composeBoxCleared(*box)
}

func (e *Engine) sendTextScript(text string) bool {
	box := e.driver.WaitForElement(e.registry.Get(selectors.RoleMessageBox), composeTimeout, false)
	if box == nil {
		return false
	}
	if !e.injectText(*box, text) {
		return false
	}
	time.Sleep(sendSettle)

	if !e.clickSendControl() {
		// The send icon may have moved; Enter on the focused box still works.
		if !e.driver.KeyEvent(kb.Enter, 0) {
			return false
		}
	}
	time.Sleep(sendSettle)
	return e.composeBoxCleared(*box)
}

// injectText writes text into an editable div from inside the page: focus,
// clear, insertText command with a text-node fallback, then synthetic events
// so the client's framework notices the change.
func (e *Engine) injectText(loc selectors.Locator, text string) bool {
	script := fmt.Sprintf(`(() => {
	const el = %s;
	if (!el) return false;
	el.focus();
	document.execCommand('selectAll', false, null);
	document.execCommand('delete', false, null);
	let ok = document.execCommand('insertText', false, %s);
	if (!ok || el.innerText.trim() === '') {
		el.textContent = '';
		el.appendChild(document.createTextNode(%s));
	}
	el.dispatchEvent(new InputEvent('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	el.dispatchEvent(new KeyboardEvent('keyup', {bubbles: true}));
	return true;
})()`, elementLookupJS(loc), jsString(text), jsString(text))

	var ok bool
	if !e.driver.ExecuteScript(script, &ok) {
		return false
	}
	return ok
}

func (e *Engine) clickSendControl() bool {
	send := e.driver.WaitForElement(e.registry.Get(selectors.RoleSendButton), controlTimeout, true)
	if send == nil {
		return false
	}
	return e.driver.SafeClick(*send)
}

// composeBoxCleared treats residual text in the compose box as a failed
// send; an empty box is the best available delivery heuristic.
func (e *Engine) composeBoxCleared(loc selectors.Locator) bool {
	script := fmt.Sprintf(`(() => {
	const el = %s;
	return el ? el.innerText.trim() : '';
})()`, elementLookupJS(loc))

	var residual string
	if !e.driver.ExecuteScript(script, &residual) {
		// The probe failing is not proof the send failed.
		return true
	}
	if residual != "" {
		e.log.Warnf("compose box still holds %d characters after send", len(residual))
		return false
	}
	return true
}

// SendImageOnly uploads and sends an image without a caption.
func (e *Engine) SendImageOnly(imageRef string) bool {
	return e.sendImage(imageRef, "")
}

// SendImageWithCaption uploads an image and attaches the text as its
// caption. A caption-write failure still sends the bare image.
func (e *Engine) SendImageWithCaption(imageRef, caption string) bool {
	return e.sendImage(imageRef, caption)
}

func (e *Engine) sendImage(imageRef, caption string) bool {
	path := e.resolveImage(imageRef)
	if path == "" {
		e.status(fmt.Sprintf("No se encontró la imagen: %s", imageRef))
		return false
	}
	if err := e.validateImage(path); err != nil {
		e.status(fmt.Sprintf("Imagen inválida: %v", err))
		return false
	}

	// The attach control opens the menu that reveals the file input. If it
	// cannot be clicked the input is sometimes reachable anyway.
	if attach := e.driver.WaitForElement(e.registry.Get(selectors.RoleAttachButton), controlTimeout, true); attach != nil {
		if e.driver.SafeClick(*attach) {
			time.Sleep(sendSettle)
		}
	} else {
		e.log.Warn("attach button not found, trying the file input directly")
	}

	if !e.uploadViaAny(e.registry.Get(selectors.RoleFileInput), path) {
		// Some client versions hide the input behind a photo submenu.
		if item := e.driver.WaitForElement(e.registry.Get(selectors.RolePhotoMenuItem), controlTimeout, false); item != nil {
			e.driver.SafeClick(*item)
			time.Sleep(sendSettle)
		}
		if !e.uploadViaAny(e.registry.Get(selectors.RoleFileInput), path) {
			e.status("No se encontró el campo de carga de archivos")
			return false
		}
	}

	time.Sleep(previewSettle)

	if strings.TrimSpace(caption) != "" {
		if !e.writeCaption(caption) {
			e.log.Warn("could not write caption, sending image without it")
			e.status("No se pudo escribir el pie de foto; enviando solo la imagen")
		}
	}

	if !e.clickSendControl() {
		e.status("No se encontró el botón de enviar en la vista previa")
		return false
	}
	time.Sleep(uploadSettle)
	return true
}

// uploadViaAny injects the file path into the first locator that accepts it.
// File inputs are typically invisible, so this skips the visibility wait and
// just tries each one.
func (e *Engine) uploadViaAny(locs []selectors.Locator, path string) bool {
	for _, loc := range locs {
		if e.driver.SetUploadFiles(loc, path) {
			e.log.Debugf("image uploaded via %s", loc.Expr)
			return true
		}
	}
	return false
}

func (e *Engine) writeCaption(caption string) bool {
	caption = normalizeNewlines(caption)
	box := e.driver.WaitForElement(e.registry.Get(selectors.RoleCaptionBox), controlTimeout, false)
	if box == nil {
		return false
	}
	if containsEmoji(caption) {
		return e.injectText(*box, caption)
	}
	if !e.driver.SafeClick(*box) {
		return false
	}
	lines := strings.Split(caption, "\n")
	for i, line := range lines {
		if line != "" && !e.driver.SendKeys(*box, line) {
			return false
		}
		if i < len(lines)-1 {
			if !e.driver.KeyEvent(kb.Enter, int64(input.ModifierShift)) {
				return false
			}
		}
	}
	return true
}

// validateImage checks existence, extension and size. Verdicts are cached so
// a campaign reusing one image validates it once.
func (e *Engine) validateImage(path string) error {
	if err, seen := e.imageVerdicts[path]; seen {
		return err
	}
	err := func() error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("cannot resolve image path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("image file not found: %s", abs)
		}
		if info.IsDir() {
			return fmt.Errorf("image path is a directory: %s", abs)
		}
		ext := strings.ToLower(filepath.Ext(abs))
		if !allowedImageExts[ext] {
			return fmt.Errorf("unsupported image extension: %s", ext)
		}
		if info.Size() > maxImageBytes {
			return fmt.Errorf("image exceeds 64MB limit: %d bytes", info.Size())
		}
		return nil
	}()
	e.imageVerdicts[path] = err
	return err
}

// containsEmoji reports whether the text holds emoji or other characters
// outside the Basic Multilingual Plane, which synthetic keystrokes cannot
// reliably type into the editable div.
func containsEmoji(s string) bool {
	for _, r := range s {
		switch {
		case r > 0xFFFF:
			return true
		case r >= 0x2600 && r <= 0x27BF: // misc symbols and dingbats
			return true
		case r == 0xFE0F || r == 0x200D: // variation selector, ZWJ
			return true
		}
	}
	return false
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func elementLookupJS(loc selectors.Locator) string {
	expr := jsString(loc.Expr)
	if loc.Kind == selectors.XPath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, expr)
	}
	return fmt.Sprintf(`document.querySelector(%s)`, expr)
}

// jsString encodes a Go string as a JavaScript string literal.
func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
