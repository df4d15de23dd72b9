package chat

import "strings"

// IsExit reports whether the user asked to leave the session.
func IsExit(input string) bool {
	input = strings.TrimSpace(input)
	return strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit")
}

// IsBlank reports whether input has nothing worth sending.
func IsBlank(input string) bool {
	return strings.TrimSpace(input) == ""
}
