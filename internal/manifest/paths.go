package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Browser names a Chromium-based browser whose per-user manifest directory we know.
type Browser string

const (
	BrowserChrome   Browser = "chrome"
	BrowserChromium Browser = "chromium"
	BrowserBrave    Browser = "brave"
	BrowserEdge     Browser = "edge"
)

var ErrUnsupportedBrowser = errors.New("unsupported browser")

// Browsers lists every supported browser.
func Browsers() []Browser {
	return []Browser{BrowserChrome, BrowserChromium, BrowserBrave, BrowserEdge}
}

// HostsDir returns the per-user NativeMessagingHosts directory of browser on
// the current OS. On Windows Chrome locates manifests through the registry,
// so the returned directory is only where the file is kept; see RegistryKey.
func HostsDir(browser Browser) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return hostsDir(browser, runtime.GOOS, homeDir, os.Getenv("LOCALAPPDATA"))
}

func hostsDir(browser Browser, goos, homeDir, localAppData string) (string, error) {
	switch goos {
	case "darwin":
		base := filepath.Join(homeDir, "Library", "Application Support")
		switch browser {
		case BrowserChrome:
			return filepath.Join(base, "Google", "Chrome", HostsDirName), nil
		case BrowserChromium:
			return filepath.Join(base, "Chromium", HostsDirName), nil
		case BrowserBrave:
			return filepath.Join(base, "BraveSoftware", "Brave-Browser", HostsDirName), nil
		case BrowserEdge:
			return filepath.Join(base, "Microsoft Edge", HostsDirName), nil
		}
	case "linux":
		base := filepath.Join(homeDir, ".config")
		switch browser {
		case BrowserChrome:
			return filepath.Join(base, "google-chrome", HostsDirName), nil
		case BrowserChromium:
			return filepath.Join(base, "chromium", HostsDirName), nil
		case BrowserBrave:
			return filepath.Join(base, "BraveSoftware", "Brave-Browser", HostsDirName), nil
		case BrowserEdge:
			return filepath.Join(base, "microsoft-edge", HostsDirName), nil
		}
	case "windows":
		if localAppData == "" {
			localAppData = filepath.Join(homeDir, "AppData", "Local")
		}
		switch browser {
		case BrowserChrome, BrowserChromium, BrowserBrave, BrowserEdge:
			return filepath.Join(localAppData, "task-agents", HostsDirName, string(browser)), nil
		}
	default:
		return "", fmt.Errorf("unsupported operating system: %s", goos)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedBrowser, browser)
}

// RegistryKey returns the HKCU key Chrome reads on Windows to find the
// manifest of host name. It is empty on other systems.
func RegistryKey(browser Browser, name string) string {
	return registryKey(browser, runtime.GOOS, name)
}

func registryKey(browser Browser, goos, name string) string {
	if goos != "windows" {
		return ""
	}
	vendor := `Google\Chrome`
	switch browser {
	case BrowserChromium:
		vendor = `Chromium`
	case BrowserBrave:
		vendor = `BraveSoftware\Brave-Browser`
	case BrowserEdge:
		vendor = `Microsoft\Edge`
	}
	return `HKCU\Software\` + vendor + `\NativeMessagingHosts\` + name
}
