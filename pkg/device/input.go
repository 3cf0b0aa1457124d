package device

import (
	"strings"
)

// inputScript encodes text as `input` shell calls. Letters, digits, spaces
// and newlines become key events; anything else goes through `input text`.
// Adjacent key events share one call, as do adjacent literal characters.
func inputScript(text string) string {
	var calls, keys []string
	var literal strings.Builder

	flushKeys := func() {
		if len(keys) > 0 {
			calls = append(calls, "input keyevent "+strings.Join(keys, " "))
			keys = keys[:0]
		}
	}
	flushLiteral := func() {
		if literal.Len() > 0 {
			calls = append(calls, "input text "+shellQuote(literal.String()))
			literal.Reset()
		}
	}

	for _, r := range text {
		code := keyCode(r)
		if code == "" {
			flushKeys()
			literal.WriteRune(r)
			continue
		}
		flushLiteral()
		keys = append(keys, code)
	}
	flushKeys()
	flushLiteral()
	return strings.Join(calls, "; ")
}

// keyCode returns the key event for r, or "" when r has none.
func keyCode(r rune) string {
	switch {
	case r == '\n':
		return "66"
	case r == ' ':
		return "KEYCODE_SPACE"
	case r >= 'a' && r <= 'z':
		return "KEYCODE_" + string(r-'a'+'A')
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return "KEYCODE_" + string(r)
	}
	return ""
}

// shellQuote wraps s in single quotes for the device shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
