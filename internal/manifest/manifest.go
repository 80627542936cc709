package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrInvalidName        = errors.New("invalid host name")
	ErrInvalidExtensionID = errors.New("invalid extension id")
	ErrRelativePath       = errors.New("host path must be absolute")
)

// Manifest is the JSON document Chrome reads to launch the host.
type Manifest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Path           string   `json:"path"`
	Type           string   `json:"type"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// New builds a manifest for the binary at path. Each extension may be given
// as a bare id or as a chrome-extension:// origin; duplicates are dropped.
func New(name, path string, extensions []string) (Manifest, error) {
	if name == "" {
		name = HostName
	}
	if !validName(name) {
		return Manifest{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if !filepath.IsAbs(path) {
		return Manifest{}, fmt.Errorf("%w: %s", ErrRelativePath, path)
	}
	if len(extensions) == 0 {
		return Manifest{}, fmt.Errorf("%w: at least one extension is required", ErrInvalidExtensionID)
	}

	origins := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		origin, err := Origin(ext)
		if err != nil {
			return Manifest{}, err
		}
		origins = append(origins, origin)
	}

	return Manifest{
		Name:           name,
		Description:    Description,
		Path:           path,
		Type:           TypeStdio,
		AllowedOrigins: lo.Uniq(origins),
	}, nil
}

// Origin normalizes an extension id or origin to "chrome-extension://<id>/".
func Origin(ext string) (string, error) {
	id := strings.TrimSpace(ext)
	id = strings.TrimPrefix(id, OriginScheme)
	id = strings.TrimSuffix(id, "/")
	if !validExtensionID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidExtensionID, ext)
	}
	return OriginScheme + id + "/", nil
}

// Filename returns the manifest file name for a host name.
func Filename(name string) string {
	return name + ".json"
}

// Write stores m as <dir>/<name>.json, creating dir when needed, and returns
// the written path.
func Write(m Manifest, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode manifest: %w", err)
	}
	path := filepath.Join(dir, Filename(m.Name))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}
	return path, nil
}

// Read loads the manifest called name from dir.
func Read(dir, name string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, Filename(name)))
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}

// Remove deletes the manifest called name from dir. It reports whether a
// file was removed.
func Remove(dir, name string) (bool, error) {
	err := os.Remove(filepath.Join(dir, Filename(name)))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to remove manifest: %w", err)
	}
}

// Chrome only accepts lowercase alphanumerics, underscores and dots, and the
// name may not start or end with a dot or contain "..".
func validName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		return false
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.') {
			return false
		}
	}
	return true
}

// Extension ids are 32 characters from a to p.
func validExtensionID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, r := range id {
		if r < 'a' || r > 'p' {
			return false
		}
	}
	return true
}
