package errors

import (
	"strings"
	"testing"
)

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "left-pad", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "lodash.merge", false},
		{"valid scoped npm", "@scope/package", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 215), true},
		{"path traversal ..", "foo/../bar", true},
		{"path traversal //", "foo//bar", true},
		{"unscoped slash", "foo/bar", true},
		{"two slashes", "@scope/foo/bar", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
		{"space", "foo bar", true},
		{"newline", "foo\nbar", true},
		{"leading dot", ".hidden", true},
		{"scoped leading dot", "@scope/.bin", true},
		{"scope leading dot", "@./x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidatePackageName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"release", "1.3.0", false},
		{"prerelease", "1.0.0-beta.2", false},
		{"build metadata", "1.0.0+sha.5114f85", false},
		{"dist-tag", "latest", false},

		{"empty", "", true},
		{"too long", strings.Repeat("1", 257), true},
		{"relative escape", "../../../escaped", true},
		{"dot dot", "1..0", true},
		{"leading dot", ".1.0", true},
		{"slash", "1.0/evil", true},
		{"absolute", "/etc/passwd", true},
		{"backslash", "..\\evil", true},
		{"space", "1.0 0", true},
		{"null byte", "1.0\x00", true},
		{"tab", "1.0\t", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateVersion(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}
