package selectors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	assert.Equal(t, XPath, Parse(`//div[@id='side']`).Kind)
	assert.Equal(t, XPath, Parse(`(//span[@data-icon='send'])[1]`).Kind)
	assert.Equal(t, CSS, Parse(`div[contenteditable='true']`).Kind)
	assert.Equal(t, CSS, Parse(`#pane-side`).Kind)
}

func TestDefaultsCoverEveryRole(t *testing.T) {
	r := NewRegistry()
	for _, role := range Roles() {
		locs := r.Get(role)
		assert.NotEmpty(t, locs, "role %s has no default locators", role)
	}
}

func TestGetUnknownRole(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get(Role("no_such_role")))
}

func TestOverrideShadowsDefaults(t *testing.T) {
	r := NewRegistry()
	original := r.Get(RoleSendButton)

	require.NoError(t, r.Override(RoleSendButton, []string{`button.send`}))
	locs := r.Get(RoleSendButton)
	require.Len(t, locs, 1)
	assert.Equal(t, "button.send", locs[0].Expr)
	assert.Equal(t, CSS, locs[0].Kind)

	r.Reset(RoleSendButton)
	assert.Equal(t, original, r.Get(RoleSendButton), "reset restores the built-in list")
}

func TestOverrideRejectsUnknownRole(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Override(Role("bogus"), []string{`div`}))
}

func TestOverrideRejectsEmptyList(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Override(RoleSendButton, nil))
	assert.Error(t, r.Override(RoleSendButton, []string{}))
}

func TestResetAll(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Override(RoleSendButton, []string{`a`}))
	require.NoError(t, r.Override(RoleSearchBox, []string{`b`}))
	r.ResetAll()
	assert.NotEqual(t, "a", r.Get(RoleSendButton)[0].Expr)
	assert.NotEqual(t, "b", r.Get(RoleSearchBox)[0].Expr)
}

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Override(RoleSendButton, []string{`button.send`, `span.send`}))
	locs := r.Get(RoleSendButton)
	locs[0].Expr = "mutated"
	assert.Equal(t, "button.send", r.Get(RoleSendButton)[0].Expr)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")

	src := NewRegistry()
	require.NoError(t, src.Override(RoleQRCode, []string{`canvas.qr`, `//canvas`}))
	require.NoError(t, src.Save(path))

	dst := NewRegistry()
	require.NoError(t, dst.Load(path))
	locs := dst.Get(RoleQRCode)
	require.Len(t, locs, 2)
	assert.Equal(t, "canvas.qr", locs[0].Expr)
	assert.Equal(t, XPath, locs[1].Kind)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.Load(filepath.Join(t.TempDir(), "absent.json")))
}

func TestLoadSkipsUnknownRoles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")
	payload := `{"no_such_role": ["div"], "send_button": ["button.send"]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	r := NewRegistry()
	require.NoError(t, r.Load(path))
	assert.Equal(t, "button.send", r.Get(RoleSendButton)[0].Expr)
	assert.Nil(t, r.Get(Role("no_such_role")))
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	assert.Error(t, NewRegistry().Load(path))
}
