package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// maxInputLen is the maximum number of runes allowed in any field.
const maxInputLen = 2000

// editField applies a keystroke to a field. Keys that do not edit text leave
// it unchanged.
func editField(text string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	case tea.KeySpace:
		return appendClamped(text, " ")
	case tea.KeyRunes:
		return appendClamped(text, string(msg.Runes))
	}
	return text
}

func appendClamped(text, add string) string {
	room := maxInputLen - utf8.RuneCountInString(text)
	if room <= 0 {
		return text
	}
	if runes := []rune(add); len(runes) > room {
		add = string(runes[:room])
	}
	return text + add
}

func mask(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}
