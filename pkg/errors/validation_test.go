package errors

import (
	"strings"
	"testing"
)

func TestValidators(t *testing.T) {
	name := func(s string) error { return ValidateName(s) }
	path := func(s string) error { return ValidatePath(s) }
	url := func(s string) error { return ValidateURL(s) }
	src := func(s string) error { return ValidateSource(s) }

	tests := []struct {
		label string
		fn    func(string) error
		input string
		want  Code // empty means valid
	}{
		{"name plain", name, "head", ""},
		{"name spaces", name, "left arm", ""},
		{"name dotted", name, "eye.v2", ""},
		{"name unicode", name, "頭", ""},
		{"name empty", name, "", ErrCodeInvalidName},
		{"name blank", name, "   ", ErrCodeInvalidName},
		{"name long", name, strings.Repeat("a", 200), ErrCodeInvalidName},
		{"name slash", name, "arms/left", ErrCodeInvalidName},
		{"name backslash", name, `arms\left`, ErrCodeInvalidName},
		{"name dotdot", name, "..", ErrCodeInvalidName},
		{"name nul", name, "foo\x00bar", ErrCodeInvalidName},
		{"name newline", name, "foo\nbar", ErrCodeInvalidName},

		{"path plain", path, "parts/head.png", ""},
		{"path nested", path, "parts/body/torso.webp", ""},
		{"path bare file", path, "hat.bmp", ""},
		{"path dotted dir", path, "v1.2.3/eye.png", ""},
		{"path empty", path, "", ErrCodeInvalidPath},
		{"path long", path, strings.Repeat("a", 600), ErrCodeInvalidPath},
		{"path absolute", path, "/etc/passwd", ErrCodeInvalidPath},
		{"path leading dotdot", path, "../x.png", ErrCodeInvalidPath},
		{"path inner dotdot", path, "foo/../bar", ErrCodeInvalidPath},
		{"path backslash", path, `foo\bar`, ErrCodeInvalidPath},
		{"path control", path, "foo\x01bar", ErrCodeInvalidPath},

		{"url https", url, "https://example.com/head.png", ""},
		{"url http", url, "http://example.com/head.png", ""},
		{"url empty", url, "", ErrCodeInvalidInput},
		{"url ftp", url, "ftp://example.com", ErrCodeInvalidInput},
		{"url javascript", url, "javascript:alert(1)", ErrCodeInvalidInput},
		{"url bare host", url, "example.com", ErrCodeInvalidInput},

		{"source path", src, "parts/head.png", ""},
		{"source url", src, "https://example.com/head.png", ""},
		{"source absolute", src, "/abs/head.png", ErrCodeInvalidPath},
		{"source scheme", src, "ftp://example.com/head.png", ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			err := tt.fn(tt.input)
			if tt.want == "" {
				if err != nil {
					t.Errorf("%q: unexpected error %v", tt.input, err)
				}
				return
			}
			if !Is(err, tt.want) {
				t.Errorf("%q: code = %v, want %v", tt.input, GetCode(err), tt.want)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	for ref, want := range map[string]bool{
		"https://a/b.png": true,
		"http://a/b.png":  true,
		"parts/b.png":     false,
		"ftp://a/b.png":   false,
	} {
		if got := IsURL(ref); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	seen := make(map[Code]bool)
	for _, code := range []Code{
		ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodeInvalidColor,
		ErrCodeInvalidCanvas, ErrCodeInvalidManifest, ErrCodeInvalidPath,
		ErrCodeInvalidName, ErrCodeDecodeFailed, ErrCodeNotFound,
		ErrCodeProjectNotFound, ErrCodeFileNotFound, ErrCodeNetwork,
		ErrCodeTimeout, ErrCodeInternal, ErrCodeUnsupported,
	} {
		if seen[code] {
			t.Errorf("duplicate code %s", code)
		}
		seen[code] = true
	}
}
