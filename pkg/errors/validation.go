package errors

import (
	"strings"
	"unicode"
)

// ValidatePackageName validates a registry package name before it is used to
// build URLs or local file names.
//
// The rules are conservative:
//   - No empty names
//   - Maximum length of 214 characters (npm's limit)
//   - No control characters or whitespace
//   - No path traversal sequences (.., //, backslash)
//   - No segment starting with a dot
//   - At most one slash, and only in scoped names (@scope/name)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "package name cannot be empty")
	}

	if len(name) > 214 {
		return New(ErrCodeInvalidInput, "package name too long (max 214 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "package name %q contains whitespace or control characters", name)
		}
	}

	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") {
			return New(ErrCodeInvalidInput, "package name %q: segments cannot start with a dot", name)
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "package name contains invalid characters: %q", pattern)
		}
	}

	if n := strings.Count(name, "/"); n > 1 || (n == 1 && !strings.HasPrefix(name, "@")) {
		return New(ErrCodeInvalidInput, "package name %q: only scoped names (@scope/name) may contain a slash", name)
	}

	return nil
}

// ValidateVersion validates a concrete version token before it is used in a
// registry URL or a local archive path. Versions come from manifests and
// config files, so they are checked like names:
//   - No empty versions
//   - Maximum length of 256 characters
//   - No control characters or whitespace
//   - No slash, backslash or ".." and no leading dot
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidInput, "version cannot be empty")
	}

	if len(version) > 256 {
		return New(ErrCodeInvalidInput, "version too long (max 256 characters)")
	}

	for _, r := range version {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "version %q contains whitespace or control characters", version)
		}
	}

	if strings.HasPrefix(version, ".") {
		return New(ErrCodeInvalidInput, "version %q cannot start with a dot", version)
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(version, pattern) {
			return New(ErrCodeInvalidInput, "version %q contains invalid characters: %q", version, pattern)
		}
	}

	return nil
}
