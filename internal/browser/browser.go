// Package browser opens share and source links from the terminal.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// start launches cmd without waiting for it. Tests replace it.
var start = func(cmd *exec.Cmd) error { return cmd.Start() }

// Open hands rawURL to the desktop's default handler. Only web and mailto
// links are accepted.
func Open(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("invalid URL %q: missing host", rawURL)
		}
	case "mailto":
	default:
		return fmt.Errorf("refusing to open URL with scheme %q (only http, https and mailto allowed)", u.Scheme)
	}
	return start(command(runtime.GOOS, rawURL))
}

func command(goos, rawURL string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.Command("open", rawURL)
	case "windows":
		// Use rundll32 instead of cmd /c start to avoid shell interpretation
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return exec.Command("xdg-open", rawURL)
	}
}
