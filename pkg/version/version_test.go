package version

import (
	"strings"
	"testing"
)

// setBuild overrides the build variables for the duration of a test.
func setBuild(t *testing.T, version, commit, buildTime, dirty string) {
	t.Helper()
	orig := [4]string{Version, GitCommit, BuildTime, GitDirty}
	t.Cleanup(func() {
		Version, GitCommit, BuildTime, GitDirty = orig[0], orig[1], orig[2], orig[3]
	})
	Version, GitCommit, BuildTime, GitDirty = version, commit, buildTime, dirty
}

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name  string
		bin   string
		dirty string
		want  string
	}{
		{"server", ServerName, "false", "ou-toggle v1.0.0 (abc1234 2025-03-01T12:00:00Z)"},
		{"client", ClientName, "false", "ou-toggle-client v1.0.0 (abc1234 2025-03-01T12:00:00Z)"},
		{"dirty tree", ServerName, "true", "ou-toggle v1.0.0 (abc1234-dirty 2025-03-01T12:00:00Z)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, "v1.0.0", "abc1234", "2025-03-01T12:00:00Z", tt.dirty)

			if got := GetVersion(tt.bin); got != tt.want {
				t.Errorf("GetVersion(%q) = %q, want %q", tt.bin, got, tt.want)
			}
		})
	}
}

func TestGetVersion_UnstampedBuild(t *testing.T) {
	setBuild(t, "dev", "unknown", "unknown", "")

	if got := GetVersion(ServerName); got != "ou-toggle dev (unknown unknown)" {
		t.Errorf("GetVersion = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	setBuild(t, "v0.3.1", "abc1234", "unknown", "")

	if got := UserAgent(ClientName); got != "ou-toggle-client/v0.3.1" {
		t.Errorf("UserAgent = %q", got)
	}
}

func TestGetVersionInfo(t *testing.T) {
	setBuild(t, "v1.2.3", "abc1234", "2025-01-15T10:00:00Z", "false")

	info := GetVersionInfo()
	for _, field := range []string{
		"Version:    v1.2.3",
		"Git commit: abc1234 (clean)",
		"Built:      2025-01-15T10:00:00Z",
		"Go version:",
	} {
		if !strings.Contains(info, field) {
			t.Errorf("GetVersionInfo() missing field %q\nGot:\n%s", field, info)
		}
	}

	GitDirty = "true"
	if info := GetVersionInfo(); !strings.Contains(info, "(dirty)") {
		t.Errorf("GetVersionInfo() should show (dirty)\nGot:\n%s", info)
	}
}
