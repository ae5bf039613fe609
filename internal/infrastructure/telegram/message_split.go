package telegram

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Telegram's per-message limit, counted in characters.
const maxMessageLength = 4096

var splitSeparators = []string{"\n\n", "\n", " "}

// splitMessage cuts rendered HTML into chunks of at most limit runes. It
// prefers a paragraph break, then a line break, then a space, and never cuts
// inside a tag or an entity.
func splitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		head := prefixRunes(text, limit)
		cut := bestCut(head)
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

func prefixRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i]
}

// bestCut returns how many bytes of head go into the current chunk.
func bestCut(head string) int {
	for _, sep := range splitSeparators {
		end := len(head)
		for {
			idx := strings.LastIndex(head[:end], sep)
			if idx <= 0 {
				break
			}
			if !openMarkup(head[:idx]) {
				return idx + len(sep)
			}
			end = idx
		}
	}

	if openMarkup(head) {
		if at := strings.LastIndexAny(head, "<&"); at > 0 {
			return at
		}
	}
	return len(head)
}

// openMarkup reports whether s ends inside a tag or an entity.
func openMarkup(s string) bool {
	if strings.LastIndexByte(s, '<') > strings.LastIndexByte(s, '>') {
		return true
	}
	amp := strings.LastIndexByte(s, '&')
	return amp >= 0 && amp > strings.LastIndexByte(s, ';') && len(s)-amp <= 8
}
