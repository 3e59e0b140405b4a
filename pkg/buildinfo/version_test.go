package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	old := Version
	defer func() { Version = old }()
	Version = "v1.2.3"

	if got := String(); !strings.HasPrefix(got, "version: v1.2.3\n") {
		t.Errorf("String() = %q", got)
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version: v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
	if got := UserAgent(); got != "kitbash/v1.2.3" {
		t.Errorf("UserAgent() = %q, want kitbash/v1.2.3", got)
	}
}
