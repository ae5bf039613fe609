package i18n

import (
	"html"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func printer(lang Lang) *message.Printer {
	if lang == RU {
		return message.NewPrinter(language.Russian)
	}
	return message.NewPrinter(language.English)
}

// MsgViolationWarning1 is the first notice about too many devices on one key.
func MsgViolationWarning1(lang Lang, allowed, actual int) string {
	p := printer(lang)
	if lang == RU {
		return p.Sprintf("⚠️ <b>Превышен лимит устройств</b>\n\n"+
			"Ваш ключ рассчитан на %d одновременных подключений, а сейчас их %d.\n"+
			"Отключите лишние устройства. При повторных нарушениях ключ будет заменён.",
			allowed, actual)
	}
	return p.Sprintf("⚠️ <b>Device limit exceeded</b>\n\n"+
		"Your key allows %d simultaneous connections, but %d were detected.\n"+
		"Please disconnect the extra devices. Repeated violations lead to the key being replaced.",
		allowed, actual)
}

// MsgViolationWarning2 is the final warning before the key is replaced.
func MsgViolationWarning2(lang Lang, allowed, actual int) string {
	p := printer(lang)
	if lang == RU {
		return p.Sprintf("⛔ <b>Повторное нарушение</b>\n\n"+
			"Ключ снова используется на %d устройствах при лимите %d.\n"+
			"<b>При следующем нарушении ключ будет заменён</b>, а старый перестанет работать.",
			actual, allowed)
	}
	return p.Sprintf("⛔ <b>Second violation</b>\n\n"+
		"Your key is again in use on %d devices with a limit of %d.\n"+
		"<b>The next violation will replace your key</b> and the old one will stop working.",
		actual, allowed)
}

// MsgKeyReplaced announces the successor key after repeated violations.
func MsgKeyReplaced(lang Lang, keyCode string) string {
	code := html.EscapeString(keyCode)
	if lang == RU {
		return "🔑 <b>Ключ заменён</b>\n\n" +
			"Лимит устройств был превышен несколько раз, поэтому старый ключ отключён.\n" +
			"Новый ключ: <code>" + code + "</code>\n" +
			"Оставшийся срок действия сохранён."
	}
	return "🔑 <b>Your key was replaced</b>\n\n" +
		"The device limit was exceeded several times, so the old key has been disabled.\n" +
		"New key: <code>" + code + "</code>\n" +
		"The remaining period has been kept."
}

func BtnSubscription(lang Lang) string {
	if lang == RU {
		return "📲 Подключить"
	}
	return "📲 Connect"
}

func BtnSupport(lang Lang) string {
	if lang == RU {
		return "💬 Поддержка"
	}
	return "💬 Support"
}
