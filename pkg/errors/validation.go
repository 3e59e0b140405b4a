package errors

import (
	"strings"
	"unicode"
)

const (
	maxNameLength = 128
	maxPathLength = 500
)

// rule rejects a value when bad returns true.
type rule struct {
	bad func(string) bool
	msg string
}

func check(code Code, value string, rules []rule) error {
	for _, r := range rules {
		if r.bad(value) {
			return New(code, "%s", r.msg)
		}
	}
	return nil
}

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

func isDotSegment(s string) bool {
	return s == "." || s == ".."
}

// Part and group names end up in archive entry and file names, so they
// follow filename rules.
var nameRules = []rule{
	{func(s string) bool { return strings.TrimSpace(s) == "" }, "name cannot be empty"},
	{func(s string) bool { return len(s) > maxNameLength }, "name too long (max 128 bytes)"},
	{hasControl, "name contains control characters"},
	{func(s string) bool { return strings.ContainsAny(s, `/\`) }, "name cannot contain path separators"},
	{isDotSegment, "name cannot be . or .."},
}

// Paths are relative, slash-separated and stay below their root.
var pathRules = []rule{
	{func(s string) bool { return s == "" }, "path cannot be empty"},
	{func(s string) bool { return len(s) > maxPathLength }, "path too long (max 500 bytes)"},
	{hasControl, "path contains control characters"},
	{func(s string) bool { return strings.HasPrefix(s, "/") }, "path must be relative"},
	{func(s string) bool { return strings.Contains(s, `\`) }, "path cannot contain backslashes"},
	{func(s string) bool {
		for _, seg := range strings.Split(s, "/") {
			if seg == ".." {
				return true
			}
		}
		return false
	}, "path cannot leave its directory (..)"},
}

// ValidateName checks a part or group name.
func ValidateName(name string) error {
	return check(ErrCodeInvalidName, name, nameRules)
}

// ValidatePath checks a relative source or artifact path.
func ValidatePath(path string) error {
	return check(ErrCodeInvalidPath, path, pathRules)
}

// ValidateURL accepts http and https URLs only.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !IsURL(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

// IsURL reports whether ref looks like an http(s) URL rather than a path.
func IsURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ValidateSource checks a part source reference: an http(s) URL or a
// relative path. Other schemes are rejected.
func ValidateSource(ref string) error {
	if IsURL(ref) {
		return ValidateURL(ref)
	}
	if strings.Contains(ref, "://") {
		return New(ErrCodeInvalidInput, "unsupported source scheme in %q", ref)
	}
	return ValidatePath(ref)
}
