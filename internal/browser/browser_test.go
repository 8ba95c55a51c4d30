package browser

import (
	"os/exec"
	"testing"
)

func TestOpenValidatesScheme(t *testing.T) {
	var launched []string
	start = func(cmd *exec.Cmd) error {
		launched = append(launched, cmd.Args[len(cmd.Args)-1])
		return nil
	}
	t.Cleanup(func() { start = func(cmd *exec.Cmd) error { return cmd.Start() } })

	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://www.linkedin.com/feed/?shareActive=true&text=hi", false},
		{"http://example.com", false},
		{"mailto:?subject=Rates&body=hi", false},
		{"https:///nohost", true},
		{"file:///etc/passwd", true},
		{"javascript:alert(1)", true},
		{"", true},
	}

	for _, tt := range tests {
		err := Open(tt.url)
		if tt.wantErr && err == nil {
			t.Errorf("Open(%q): expected error, got nil", tt.url)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Open(%q): unexpected error %v", tt.url, err)
		}
	}
	if len(launched) != 3 {
		t.Errorf("expected 3 launches, got %d", len(launched))
	}
}

func TestCommandPerPlatform(t *testing.T) {
	tests := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"freebsd": "xdg-open",
		"windows": "rundll32",
	}
	for goos, want := range tests {
		if got := command(goos, "https://example.com").Args[0]; got != want {
			t.Errorf("%s: expected %s, got %s", goos, want, got)
		}
	}
}
