// Package resolver turns a bare file or folder name into an absolute path on
// the local filesystem.
//
// Resolution runs in tiers, strictly in order, and the first match wins:
//
//   - direct: the caller's search paths joined with the name (files only)
//   - fast: an unbounded in-process search of each fallback directory,
//     limited by a timeout
//   - recursive: a depth-bounded walk of each fallback directory
//
// Failures on individual candidates are never returned to the caller; they
// only move resolution on to the next candidate.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/task-agents/native-host/internal/diag"
)

// Tier identifies the strategy that produced a result.
type Tier string

const (
	TierNone      Tier = ""
	TierDirect    Tier = "direct"
	TierFast      Tier = "fast"
	TierRecursive Tier = "recursive"
)

// TypeFolder is the type tag on folder results.
const TypeFolder = "folder"

// modifiedLayout matches JavaScript's Date.prototype.toISOString.
const modifiedLayout = "2006-01-02T15:04:05.000Z"

// Finder locates an entry by exact name somewhere below base.
type Finder interface {
	FindFile(ctx context.Context, base, name string) (string, bool)
	FindDir(ctx context.Context, base, name string) (string, bool)
}

// Result is the JSON answer sent back to the extension.
type Result struct {
	Success       bool      `json:"success"`
	Path          string    `json:"path,omitempty"`
	Size          *int64    `json:"size,omitempty"`
	Modified      string    `json:"modified,omitempty"`
	Type          string    `json:"type,omitempty"`
	Error         string    `json:"error,omitempty"`
	SearchedPaths *[]string `json:"searchedPaths,omitempty"`

	// Tier is kept for diagnostics and never sent.
	Tier Tier `json:"-"`
}

// Failure builds an unsuccessful result with msg.
func Failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Options configures a Resolver.
type Options struct {
	// FallbackDirectories are searched in order by the fast and recursive tiers.
	FallbackDirectories []string

	// Fast runs the fast tier. Nil skips it.
	Fast Finder

	// Deep runs the recursive tier. Nil skips it.
	Deep Finder

	Sink diag.Sink
}

// Resolver resolves names against the configured directories.
type Resolver struct {
	fallbacks []string
	fast      Finder
	deep      Finder
	sink      diag.Sink
}

// New returns a Resolver. The fallback list is copied; its order is the
// priority order.
func New(opts Options) *Resolver {
	sink := opts.Sink
	if sink == nil {
		sink = diag.Discard
	}
	return &Resolver{
		fallbacks: append([]string(nil), opts.FallbackDirectories...),
		fast:      opts.Fast,
		deep:      opts.Deep,
		sink:      sink,
	}
}

// FallbackDirectories returns the search universe in priority order.
func (r *Resolver) FallbackDirectories() []string {
	return append([]string(nil), r.fallbacks...)
}

// ResolveFile finds a regular file called filename. searchPaths are tried
// first, in the given order. On failure the result echoes searchPaths.
func (r *Resolver) ResolveFile(ctx context.Context, filename string, searchPaths []string) Result {
	if filename == "" {
		return r.fileMiss("filename is required", searchPaths)
	}
	diag.Debug(r.sink, "searching for file", "filename", filename, "searchPaths", searchPaths)

	for _, dir := range searchPaths {
		candidate := filepath.Join(dir, filename)
		diag.Debug(r.sink, "checking", "path", candidate)

		info, err := os.Stat(candidate)
		if err != nil {
			if !os.IsNotExist(err) {
				diag.Debug(r.sink, "candidate unreadable", "path", candidate, "err", err.Error())
			}
			continue
		}
		if info.Mode().IsRegular() {
			diag.Info(r.sink, "found file", "path", candidate, "tier", TierDirect)
			return fileHit(candidate, info, TierDirect)
		}
	}

	// Only bare names are searched for outside the caller's directories.
	if filepath.Base(filename) != filename {
		return r.fileMiss(fmt.Sprintf("File \"%s\" not found in search paths", filename), searchPaths)
	}

	for _, tier := range r.fallbackTiers() {
		for _, base := range r.fallbacks {
			diag.Debug(r.sink, "searching fallback directory", "tier", tier.id, "base", base)
			found, ok := tier.finder.FindFile(ctx, base, filename)
			if !ok {
				continue
			}
			info, err := os.Stat(found)
			if err != nil || !info.Mode().IsRegular() {
				diag.Debug(r.sink, "match vanished", "path", found)
				continue
			}
			diag.Info(r.sink, "found file", "path", found, "tier", tier.id)
			return fileHit(found, info, tier.id)
		}
	}

	diag.Info(r.sink, "file not found", "filename", filename)
	return r.fileMiss(fmt.Sprintf("File \"%s\" not found in search paths", filename), searchPaths)
}

// ResolveFolder finds a directory called foldername in the fallback
// directories. Caller search paths are not consulted.
func (r *Resolver) ResolveFolder(ctx context.Context, foldername string) Result {
	if foldername == "" {
		return Failure("foldername is required")
	}
	if filepath.Base(foldername) != foldername {
		return Failure(fmt.Sprintf("Folder \"%s\" must be a bare name", foldername))
	}
	diag.Debug(r.sink, "searching for folder", "foldername", foldername)

	for _, tier := range r.fallbackTiers() {
		for _, base := range r.fallbacks {
			diag.Debug(r.sink, "searching fallback directory", "tier", tier.id, "base", base)
			found, ok := tier.finder.FindDir(ctx, base, foldername)
			if !ok {
				continue
			}
			if info, err := os.Stat(found); err != nil || !info.IsDir() {
				diag.Debug(r.sink, "match vanished", "path", found)
				continue
			}
			diag.Info(r.sink, "found folder", "path", found, "tier", tier.id)
			return Result{Success: true, Path: found, Type: TypeFolder, Tier: tier.id}
		}
	}

	diag.Info(r.sink, "folder not found", "foldername", foldername)
	return Failure(fmt.Sprintf("Folder \"%s\" not found", foldername))
}

type fallbackTier struct {
	id     Tier
	finder Finder
}

// fallbackTiers lists the enabled tiers that search the fallback directories.
func (r *Resolver) fallbackTiers() []fallbackTier {
	var tiers []fallbackTier
	if r.fast != nil {
		tiers = append(tiers, fallbackTier{TierFast, r.fast})
	}
	if r.deep != nil {
		tiers = append(tiers, fallbackTier{TierRecursive, r.deep})
	}
	return tiers
}

func fileHit(path string, info os.FileInfo, tier Tier) Result {
	size := info.Size()
	return Result{
		Success:  true,
		Path:     path,
		Size:     &size,
		Modified: FormatModified(info.ModTime()),
		Tier:     tier,
	}
}

func (r *Resolver) fileMiss(msg string, searchPaths []string) Result {
	echo := make([]string, len(searchPaths))
	copy(echo, searchPaths)
	res := Failure(msg)
	res.SearchedPaths = &echo
	return res
}

// FormatModified renders t the way the extension expects: UTC, millisecond
// precision, trailing Z.
func FormatModified(t time.Time) string {
	return t.UTC().Format(modifiedLayout)
}
