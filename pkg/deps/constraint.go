package deps

import "strings"

// Normalize reduces a constraint to a version token by trimming whitespace
// and stripping one leading caret or tilde. The remainder is returned as is
// and treated as an exact version; no range matching is done.
//
//	Normalize("^1.2.3") == "1.2.3"
//	Normalize("~2.0.0") == "2.0.0"
//	Normalize("1.0.0")  == "1.0.0"
func Normalize(constraint string) string {
	s := strings.TrimSpace(constraint)
	if strings.HasPrefix(s, "^") || strings.HasPrefix(s, "~") {
		s = s[1:]
	}
	return s
}
