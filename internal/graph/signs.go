package graph

import (
	"fmt"
	"strings"
)

// ParseSigns normalizes the text of a Sum block's Inputs parameter.
//
// Accepted forms:
//   - "" or an input count such as "3": all inputs add, returns ""
//   - a pattern such as "+-" or "|+-|": '|' separators are dropped
func ParseSigns(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" || isDigits(text) {
		return "", nil
	}

	var b strings.Builder
	for _, r := range text {
		switch r {
		case '+', '-':
			b.WriteRune(r)
		case '|':
		default:
			return "", fmt.Errorf("unexpected character %q in sign pattern %q", r, text)
		}
	}
	return b.String(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
