// Package browser opens the provider's authorization page in the user's default web browser.
// It abstracts the underlying operating system commands behind a single call.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// linuxBrowsers lists launchers tried in order when open-golang cannot start xdg-open.
var linuxBrowsers = []string{"xdg-open", "x-www-browser", "www-browser", "firefox", "chromium", "google-chrome"}

// runOpen is swapped in tests to avoid launching real processes.
var runOpen = open.Start

// OpenURL opens the specified URL in the default web browser.
// It first attempts open-golang and falls back to platform-specific commands if that fails.
// The launched process is never waited on.
func OpenURL(url string) error {
	err := runOpen(url)
	if err == nil {
		log.Debug("opened authorization URL with open-golang")
		return nil
	}

	log.Debugf("open-golang failed: %v, trying platform-specific commands", err)
	return openURLPlatformSpecific(url)
}

func openURLPlatformSpecific(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, name := range linuxBrowsers {
			if _, err := exec.LookPath(name); err == nil {
				cmd = exec.Command(name, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("no suitable browser found on %s", runtime.GOOS)
		}
	default:
		return fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	log.Debugf("Running command: %s %v", cmd.Path, cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser command: %w", err)
	}
	go func() {
		// Reap the launcher; its exit status is irrelevant.
		_ = cmd.Wait()
	}()
	return nil
}

// IsAvailable reports whether a browser launcher exists for the current platform.
// It only inspects PATH and never opens a window.
func IsAvailable() bool {
	switch runtime.GOOS {
	case "darwin":
		_, err := exec.LookPath("open")
		return err == nil
	case "windows":
		_, err := exec.LookPath("rundll32")
		return err == nil
	case "linux", "freebsd", "openbsd", "netbsd":
		for _, name := range linuxBrowsers {
			if _, err := exec.LookPath(name); err == nil {
				return true
			}
		}
		return false
	default:
		return false
	}
}
