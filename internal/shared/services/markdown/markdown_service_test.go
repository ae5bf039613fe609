package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTelegramHTML(t *testing.T) {
	svc := NewService()

	out, err := svc.ToTelegramHTML("# Setup\n\nInstall **Hiddify** and open [the link](https://example.com/sub).\n\n- step one\n- step two")
	require.NoError(t, err)

	assert.Contains(t, out, "<b>Setup</b>")
	assert.Contains(t, out, "<strong>Hiddify</strong>")
	assert.Contains(t, out, `<a href="https://example.com/sub"`)
	assert.Contains(t, out, "• step one")
	assert.NotContains(t, out, "<p>")
	assert.NotContains(t, out, "<ul>")
	assert.NotContains(t, out, "<h1")
}

func TestSanitize_StripsUnsupportedTags(t *testing.T) {
	svc := NewService()

	out := svc.Sanitize(`<b>ok</b><script>alert(1)</script><div>text</div><a href="javascript:x()">bad</a>`)

	assert.Contains(t, out, "<b>ok</b>")
	assert.Contains(t, out, "text")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "<div>")
	assert.NotContains(t, out, "javascript")
}
