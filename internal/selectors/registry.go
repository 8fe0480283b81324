// Package selectors maps logical WhatsApp Web UI roles to ordered lists of
// fallback locators. The client's DOM changes between releases, so every
// lookup site tries each locator in order until one matches.
package selectors

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// Role identifies a logical UI element.
type Role string

const (
	RoleMessageBox         Role = "message_box"
	RoleSearchBox          Role = "search_box"
	RoleAttachButton       Role = "attach_button"
	RoleSendButton         Role = "send_button"
	RoleFileInput          Role = "file_input"
	RoleCaptionBox         Role = "caption_box"
	RoleMainPanel          Role = "main_panel"
	RoleQRCode             Role = "qr_code"
	RoleConversationHeader Role = "conversation_header"
	RolePhotoMenuItem      Role = "photo_menu_item"
)

// Kind discriminates how a locator expression is evaluated.
type Kind int

const (
	CSS Kind = iota
	XPath
)

// Locator is a single element query, classified once at parse time instead of
// by prefix sniffing on every use.
type Locator struct {
	Kind Kind
	Expr string
}

// Parse classifies a raw locator string. Expressions starting with "//" or
// "(" are XPath, everything else is treated as a CSS selector.
func Parse(expr string) Locator {
	if strings.HasPrefix(expr, "//") || strings.HasPrefix(expr, "(") {
		return Locator{Kind: XPath, Expr: expr}
	}
	return Locator{Kind: CSS, Expr: expr}
}

// ParseAll classifies a list of raw locator strings.
func ParseAll(exprs []string) []Locator {
	locs := make([]Locator, 0, len(exprs))
	for _, e := range exprs {
		locs = append(locs, Parse(e))
	}
	return locs
}

func (l Locator) String() string { return l.Expr }

// defaults are the built-in fallback lists. They are never removed; overrides
// shadow them but resetting a role always falls back here.
var defaults = map[Role][]string{
	RoleMessageBox: {
		`//div[@contenteditable='true'][@data-tab='10']`,
		`//div[@contenteditable='true'][@role='textbox'][@title='Type a message']`,
		`//div[@contenteditable='true'][@data-lexical-editor='true']`,
		`//div[contains(@class, 'copyable-text')]//div[@contenteditable='true']`,
	},
	RoleSearchBox: {
		`div[contenteditable='true'][data-tab='3']`,
		`//div[@contenteditable='true'][@data-tab='3']`,
		`//div[@role='textbox'][@title='Search input textbox']`,
		`//label[@data-testid='chatlist-search']//div[@contenteditable='true']`,
	},
	RoleAttachButton: {
		`//div[@title='Attach']`,
		`//button[@aria-label='Attach']`,
		`//div[@aria-label='Attach']`,
		`//span[@data-icon='plus']`,
		`//span[@data-icon='attach-menu-plus']`,
		`div[title='Attach']`,
		`button[aria-label='Attach']`,
	},
	RoleSendButton: {
		`//span[@data-icon='send']`,
		`//button[@aria-label='Send']`,
		`//div[@aria-label='Send']`,
		`//span[@data-icon='send']/ancestor::button`,
		`span[data-icon='send']`,
	},
	RoleFileInput: {
		`input[type="file"][accept*="image"]`,
		`input[type="file"]`,
		`//input[@type='file' and contains(@accept, 'image')]`,
		`//input[@type='file']`,
	},
	RoleCaptionBox: {
		`div[contenteditable='true'][data-tab='10']`,
		`div[contenteditable='true'][role='textbox']`,
		`div.copyable-text[contenteditable='true']`,
		`//div[@contenteditable='true'][@role='textbox']`,
	},
	RoleMainPanel: {
		`//div[@id='side']`,
		`#pane-side`,
		`div[data-testid='chat-list']`,
		`//div[@id='pane-side']`,
	},
	RoleQRCode: {
		`canvas[aria-label*='Scan']`,
		`div[data-ref] canvas`,
		`//canvas`,
	},
	RoleConversationHeader: {
		`#main header`,
		`//div[@id='main']//header`,
		`header[data-testid='conversation-header']`,
		`//header//div[@role='button']`,
	},
	RolePhotoMenuItem: {
		`//span[text()='Photos & videos']`,
		`//li[@data-testid='mi-attach-media']`,
		`input[accept*="image"][accept*="video"]`,
	},
}

// Registry resolves roles to locator lists, overrides first, built-in
// defaults as the non-destructible fallback.
type Registry struct {
	mu        sync.RWMutex
	overrides map[Role][]Locator
}

func NewRegistry() *Registry {
	return &Registry{overrides: make(map[Role][]Locator)}
}

// Get returns the locator list for a role. An override shadows the built-in
// list; without one the defaults are returned. Unknown roles yield nil.
func (r *Registry) Get(role Role) []Locator {
	r.mu.RLock()
	locs, ok := r.overrides[role]
	r.mu.RUnlock()
	if ok {
		out := make([]Locator, len(locs))
		copy(out, locs)
		return out
	}
	if exprs, ok := defaults[role]; ok {
		return ParseAll(exprs)
	}
	return nil
}

// Override replaces the locator list for a role. The built-in defaults stay
// untouched underneath.
func (r *Registry) Override(role Role, exprs []string) error {
	if _, ok := defaults[role]; !ok {
		return fmt.Errorf("unknown selector role: %s", role)
	}
	if len(exprs) == 0 {
		return fmt.Errorf("selector role %s needs at least one locator", role)
	}
	r.mu.Lock()
	r.overrides[role] = ParseAll(exprs)
	r.mu.Unlock()
	return nil
}

// Reset removes the override for a role, restoring the built-in list.
func (r *Registry) Reset(role Role) {
	r.mu.Lock()
	delete(r.overrides, role)
	r.mu.Unlock()
}

// ResetAll removes every override.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	r.overrides = make(map[Role][]Locator)
	r.mu.Unlock()
}

// Roles lists the known roles in stable order.
func Roles() []Role {
	roles := make([]Role, 0, len(defaults))
	for role := range defaults {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Load reads overrides from a flat JSON document mapping role to locator
// strings. Unknown roles in the file are skipped. A missing file is not an
// error; the registry simply keeps its defaults.
func (r *Registry) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read selector config: %w", err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse selector config: %w", err)
	}

	for key, exprs := range raw {
		if len(exprs) == 0 {
			continue
		}
		if err := r.Override(Role(key), exprs); err != nil {
			continue
		}
	}
	return nil
}

// Save persists the current overrides as a flat JSON document.
func (r *Registry) Save(path string) error {
	r.mu.RLock()
	raw := make(map[string][]string, len(r.overrides))
	for role, locs := range r.overrides {
		exprs := make([]string, 0, len(locs))
		for _, l := range locs {
			exprs = append(exprs, l.Expr)
		}
		raw[string(role)] = exprs
	}
	r.mu.RUnlock()

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode selector config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write selector config: %w", err)
	}
	return nil
}
