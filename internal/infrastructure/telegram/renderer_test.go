package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/shared/services/markdown"
)

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(markdown.NewService(), "ru")

	t.Run("warning in reseller language", func(t *testing.T) {
		msg, err := r.Render(notification.Notice{
			Recipient:  100,
			Template:   notification.TemplateViolationWarning1,
			Allowed:    2,
			Actual:     5,
			SupportURL: "https://t.me/support",
		}, "en", "")
		require.NoError(t, err)
		assert.Equal(t, int64(100), msg.Recipient)
		assert.Contains(t, msg.Text, "<b>Device limit exceeded</b>")
		assert.Contains(t, msg.Text, "allows 2 simultaneous connections, but 5")
		require.Len(t, msg.Buttons, 1)
		require.Len(t, msg.Buttons[0], 1)
		assert.Equal(t, "https://t.me/support", msg.Buttons[0][0].URL)
	})

	t.Run("unknown language falls back to default", func(t *testing.T) {
		msg, err := r.Render(notification.Notice{Template: notification.TemplateViolationWarning2, Allowed: 1, Actual: 3}, "de", "")
		require.NoError(t, err)
		assert.Contains(t, msg.Text, "Повторное нарушение")
		assert.Empty(t, msg.Buttons)
	})

	t.Run("replacement escapes code and appends instructions", func(t *testing.T) {
		msg, err := r.Render(notification.Notice{
			Template:        notification.TemplateKeyReplaced,
			KeyCode:         "AB<CD>",
			SubscriptionURL: "https://panel.example.com/sub/xyz",
			SupportURL:      "javascript:alert(1)",
		}, "en", "Import the link into **v2rayNG**.<script>x</script>")
		require.NoError(t, err)
		assert.Contains(t, msg.Text, "AB&lt;CD&gt;")
		assert.Contains(t, msg.Text, "<strong>v2rayNG</strong>")
		assert.NotContains(t, msg.Text, "<script>")
		require.Len(t, msg.Buttons, 1)
		assert.Equal(t, "https://panel.example.com/sub/xyz", msg.Buttons[0][0].URL)
	})

	t.Run("replacement needs a key", func(t *testing.T) {
		_, err := r.Render(notification.Notice{Template: notification.TemplateKeyReplaced}, "en", "")
		assert.Error(t, err)
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := r.Render(notification.Notice{Template: "promo"}, "en", "")
		assert.Error(t, err)
	})
}

func TestSplitMessage(t *testing.T) {
	long := ""
	for i := 0; i < 300; i++ {
		long += "строка номер десять\n"
	}
	chunks := splitMessage(long, 1000)
	require.Greater(t, len(chunks), 1)
	joined := ""
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000)
		joined += c
	}
	assert.Equal(t, long, joined)
}

func TestSplitMessageKeepsMarkupWhole(t *testing.T) {
	t.Run("tags with spaces", func(t *testing.T) {
		text := strings.Repeat(`<code class="language-sh">vless://key</code> `, 40)
		chunks := splitMessage(text, 70)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), 70)
			assert.Equal(t, strings.Count(c, "<"), strings.Count(c, ">"), "chunk %q", c)
		}
		assert.Equal(t, text, strings.Join(chunks, ""))
	})

	t.Run("entities without separators", func(t *testing.T) {
		text := strings.Repeat("&amp;", 6)
		chunks := splitMessage(text, 7)
		for _, c := range chunks {
			assert.Equal(t, "&amp;", c)
		}
		assert.Len(t, chunks, 6)
	})

	t.Run("short text", func(t *testing.T) {
		assert.Equal(t, []string{"hi"}, splitMessage("hi", 0))
	})
}
