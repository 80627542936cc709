package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boyter/gocodewalker"
)

// FastFinder searches a whole directory tree without a depth bound and gives
// up once Timeout elapses. Hidden entries are skipped and ignore files are
// not honored.
type FastFinder struct {
	Timeout time.Duration
}

// FindFile streams files from a gocodewalker walk and stops at the first
// whose name equals name.
func (f FastFinder) FindFile(ctx context.Context, base, name string) (string, bool) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	fileQueue := make(chan *gocodewalker.File, 256)
	walker := gocodewalker.NewFileWalker(base, fileQueue)
	walker.IgnoreGitIgnore = true
	walker.IgnoreIgnoreFile = true
	walker.IncludeHidden = false
	walker.SetErrorHandler(func(error) bool { return true })

	done := make(chan error, 1)
	go func() {
		done <- walker.Start()
	}()

	var found string
walk:
	for {
		select {
		case file, ok := <-fileQueue:
			if !ok {
				break walk
			}
			if file.Filename == name {
				found = file.Location
				walker.Terminate()
				break walk
			}
		case <-ctx.Done():
			walker.Terminate()
			break walk
		}
	}

	// Let the walker goroutines finish before returning.
	for range fileQueue {
	}
	<-done

	return found, found != ""
}

// FindDir walks breadth first so shallow matches are found before deep ones,
// and checks the deadline between directories.
func (f FastFinder) FindDir(ctx context.Context, base, name string) (string, bool) {
	ctx, cancel := f.withTimeout(ctx)
	defer cancel()

	queue := []string{base}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return "", false
		}
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if entry.Name() == name {
				return path, true
			}
			if !isHidden(entry.Name()) {
				queue = append(queue, path)
			}
		}
	}
	return "", false
}

func (f FastFinder) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, f.Timeout)
}

// DepthFinder walks depth first with a level bound. The base directory is
// level one. At every level the direct children are checked for a match
// before any subdirectory is entered. Directories that cannot be read count
// as containing nothing, and symlinked directories are not followed.
type DepthFinder struct {
	FileDepth   int
	FolderDepth int
}

func (d DepthFinder) FindFile(ctx context.Context, base, name string) (string, bool) {
	return walkBounded(ctx, base, name, d.FileDepth, isRegularFile)
}

func (d DepthFinder) FindDir(ctx context.Context, base, name string) (string, bool) {
	return walkBounded(ctx, base, name, d.FolderDepth, isDirectory)
}

func walkBounded(ctx context.Context, dir, name string, depth int, match func(string) bool) (string, bool) {
	if depth <= 0 || ctx.Err() != nil {
		return "", false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		if entry.Name() != name {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if match(path) {
			return path, true
		}
	}

	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		if path, ok := walkBounded(ctx, filepath.Join(dir, entry.Name()), name, depth-1, match); ok {
			return path, true
		}
	}
	return "", false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
