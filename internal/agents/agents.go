// Package agents discovers agent prompt templates under an agents root.
//
// Two layouts are recognized among the root's direct children: a directory
// holding a descriptor file (agent.md by default), and a standalone file with
// the template extension (.md by default).
package agents

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/task-agents/native-host/internal/diag"
)

const (
	TypeFolder = "folder"
	TypeFile   = "file"

	DefaultDescriptor = "agent.md"
	DefaultExtension  = ".md"

	maxDescription = 100
)

// Descriptor describes one agent template.
type Descriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Template    string `json:"template"`
	Type        string `json:"type"`
}

// Catalog lists agents found directly under Root.
type Catalog struct {
	Root       string
	Descriptor string
	Extension  string
	Sink       diag.Sink
}

// List scans the root non-recursively. Entries that cannot be read are
// logged and skipped. A missing root yields no agents.
func (c *Catalog) List(ctx context.Context) ([]Descriptor, error) {
	sink := c.Sink
	if sink == nil {
		sink = diag.Discard
	}
	descriptor, ext := c.Descriptor, c.Extension
	if descriptor == "" {
		descriptor = DefaultDescriptor
	}
	if ext == "" {
		ext = DefaultExtension
	}

	entries, err := os.ReadDir(c.Root)
	if err != nil {
		if os.IsNotExist(err) {
			diag.Warn(sink, "agents root does not exist", "root", c.Root)
			return []Descriptor{}, nil
		}
		return nil, fmt.Errorf("failed to read agents root %s: %w", c.Root, err)
	}

	agents := []Descriptor{}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(c.Root, name)

		info, err := os.Stat(path)
		if err != nil {
			diag.Warn(sink, "skipping unreadable agent entry", "path", path, "err", err.Error())
			continue
		}

		switch {
		case info.IsDir():
			descriptorPath := filepath.Join(path, descriptor)
			if _, err := os.Stat(descriptorPath); os.IsNotExist(err) {
				continue
			}
			content, err := os.ReadFile(descriptorPath)
			if err != nil {
				diag.Warn(sink, "skipping unreadable agent", "path", descriptorPath, "err", err.Error())
				continue
			}
			agents = append(agents, newDescriptor(name, content, TypeFolder))

		case info.Mode().IsRegular() && strings.EqualFold(filepath.Ext(name), ext):
			content, err := os.ReadFile(path)
			if err != nil {
				diag.Warn(sink, "skipping unreadable agent", "path", path, "err", err.Error())
				continue
			}
			agents = append(agents, newDescriptor(strings.TrimSuffix(name, filepath.Ext(name)), content, TypeFile))
		}
	}

	diag.Debug(sink, "listed agents", "root", c.Root, "count", len(agents))
	return agents, nil
}

// Find returns the agent called name.
func (c *Catalog) Find(ctx context.Context, name string) (Descriptor, bool, error) {
	agents, err := c.List(ctx)
	if err != nil {
		return Descriptor{}, false, err
	}
	for _, a := range agents {
		if a.Name == name {
			return a, true, nil
		}
	}
	return Descriptor{}, false, nil
}

func newDescriptor(name string, content []byte, kind string) Descriptor {
	return Descriptor{
		Name:        name,
		DisplayName: DisplayName(name),
		Description: Describe(content),
		Template:    string(content),
		Type:        kind,
	}
}

// DisplayName turns "ui-sketch_creator" into "Ui Sketch Creator".
func DisplayName(name string) string {
	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.Und).String(strings.Join(strings.Fields(spaced), " "))
}

type frontMatter struct {
	Description string `yaml:"description"`
}

// Describe picks a one-line description: the front matter "description" if
// set, otherwise the first line that is neither a heading nor a fence.
func Describe(content []byte) string {
	body := content
	if meta, rest, ok := splitFrontMatter(content); ok {
		var fm frontMatter
		if err := yaml.Unmarshal(meta, &fm); err == nil && strings.TrimSpace(fm.Description) != "" {
			return truncate(strings.TrimSpace(fm.Description))
		}
		body = rest
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "---") {
			continue
		}
		return truncate(line)
	}
	return ""
}

// splitFrontMatter separates a leading "---" delimited block from the rest.
func splitFrontMatter(content []byte) (meta, rest []byte, ok bool) {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	if !bytes.HasPrefix(content, []byte("---")) {
		return nil, content, false
	}
	lines := bytes.SplitAfter(content, []byte("\n"))
	offset := len(lines[0])
	for _, line := range lines[1:] {
		if bytes.Equal(bytes.TrimSpace(line), []byte("---")) {
			return content[len(lines[0]):offset], content[offset+len(line):], true
		}
		offset += len(line)
	}
	return nil, content, false
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxDescription {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxDescription]) + "..."
}
