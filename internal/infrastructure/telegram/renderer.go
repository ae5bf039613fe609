package telegram

import (
	"fmt"
	"net/url"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/infrastructure/telegram/i18n"
	"github.com/orris-inc/keyhub/internal/shared/services/markdown"
)

// Renderer turns notices into Telegram HTML messages.
type Renderer struct {
	markdown    markdown.Service
	defaultLang i18n.Lang
}

func NewRenderer(md markdown.Service, defaultLang string) *Renderer {
	return &Renderer{markdown: md, defaultLang: i18n.ParseLang(defaultLang, i18n.RU)}
}

// Render builds the message for n in the language code lang. footer is
// optional reseller-written markdown appended below the text.
func (r *Renderer) Render(n notification.Notice, lang, footer string) (notification.Message, error) {
	l := i18n.ParseLang(lang, r.defaultLang)

	var text string
	switch n.Template {
	case notification.TemplateViolationWarning1:
		text = i18n.MsgViolationWarning1(l, n.Allowed, n.Actual)
	case notification.TemplateViolationWarning2:
		text = i18n.MsgViolationWarning2(l, n.Allowed, n.Actual)
	case notification.TemplateKeyReplaced:
		if n.KeyCode == "" {
			return notification.Message{}, fmt.Errorf("key replaced notice without key code")
		}
		text = i18n.MsgKeyReplaced(l, n.KeyCode)
	default:
		return notification.Message{}, fmt.Errorf("unknown notice template %q", n.Template)
	}

	if footer != "" {
		extra, err := r.markdown.ToTelegramHTML(footer)
		if err != nil {
			return notification.Message{}, err
		}
		if extra != "" {
			text += "\n\n" + extra
		}
	}

	msg := notification.Message{
		Recipient: n.Recipient,
		Text:      r.markdown.Sanitize(text),
	}
	var row []notification.Button
	if isHTTPURL(n.SubscriptionURL) {
		row = append(row, notification.Button{Text: i18n.BtnSubscription(l), URL: n.SubscriptionURL})
	}
	if isHTTPURL(n.SupportURL) {
		row = append(row, notification.Button{Text: i18n.BtnSupport(l), URL: n.SupportURL})
	}
	if len(row) > 0 {
		msg.Buttons = [][]notification.Button{row}
	}
	return msg, nil
}

func isHTTPURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http" || u.Scheme == "tg") && (u.Host != "" || u.Scheme == "tg")
}
