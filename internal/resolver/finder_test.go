package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nest returns base joined with n single-letter directories.
func nest(base string, n int) string {
	parts := []string{base}
	for i := 0; i < n; i++ {
		parts = append(parts, string(rune('a'+i)))
	}
	return filepath.Join(parts...)
}

func TestDepthFinderRespectsBound(t *testing.T) {
	const bound = 4

	t.Run("deepest allowed level", func(t *testing.T) {
		base := t.TempDir()
		target := filepath.Join(nest(base, bound-1), "target.md")
		writeFile(t, target, "x")

		got, ok := DepthFinder{FileDepth: bound}.FindFile(context.Background(), base, "target.md")
		require.True(t, ok)
		assert.Equal(t, target, got)
	})

	t.Run("one level past the bound", func(t *testing.T) {
		base := t.TempDir()
		writeFile(t, filepath.Join(nest(base, bound), "target.md"), "x")

		_, ok := DepthFinder{FileDepth: bound}.FindFile(context.Background(), base, "target.md")
		assert.False(t, ok)
	})

	t.Run("folders use their own bound", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(nest(base, 2), "wanted"), 0755))

		_, ok := DepthFinder{FolderDepth: 2}.FindDir(context.Background(), base, "wanted")
		assert.False(t, ok)

		got, ok := DepthFinder{FolderDepth: 3}.FindDir(context.Background(), base, "wanted")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(nest(base, 2), "wanted"), got)
	})
}

func TestDepthFinderSkipsHiddenDirectories(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, ".cache", "target.md"), "hidden")
	writeFile(t, filepath.Join(base, "visible", ".git", "target.md"), "hidden too")

	_, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), base, "target.md")
	assert.False(t, ok)
}

func TestDepthFinderChecksChildrenBeforeDescending(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a", "b", "target.md"), "deeper")
	writeFile(t, filepath.Join(base, "a", "target.md"), "shallower")

	got, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), base, "target.md")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "a", "target.md"), got)
}

func TestDepthFinderMatchesFilesOnly(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "target.md"), 0755))
	writeFile(t, filepath.Join(base, "z", "target.md"), "file")

	got, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), base, "target.md")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "z", "target.md"), got)
}

func TestDepthFinderSwallowsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	base := t.TempDir()
	locked := filepath.Join(base, "a-locked")
	writeFile(t, filepath.Join(locked, "target.md"), "unreachable")
	writeFile(t, filepath.Join(base, "b-open", "target.md"), "reachable")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	got, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), base, "target.md")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "b-open", "target.md"), got)
}

func TestDepthFinderSkipsNamesThatAreNotFiles(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a-dangling"), 0755))
	require.NoError(t, os.Symlink(filepath.Join(base, "gone.md"), filepath.Join(base, "a-dangling", "target.md")))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "b-dir", "target.md"), 0755))
	writeFile(t, filepath.Join(base, "c-open", "target.md"), "reachable")

	got, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), base, "target.md")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "c-open", "target.md"), got)
}

func TestDepthFinderMissingBase(t *testing.T) {
	_, ok := DepthFinder{FileDepth: 15}.FindFile(context.Background(), filepath.Join(t.TempDir(), "nope"), "x")
	assert.False(t, ok)
}

func TestFastFinderFindsFileAtAnyDepth(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(nest(base, 20), "far.md")
	writeFile(t, target, "far")
	writeFile(t, filepath.Join(base, "near.md"), "near")

	got, ok := FastFinder{Timeout: 10 * time.Second}.FindFile(context.Background(), base, "far.md")
	require.True(t, ok)
	assert.Equal(t, target, got)
}

func TestFastFinderMissReturnsFalse(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "a", "b.md"), "b")

	_, ok := FastFinder{Timeout: 5 * time.Second}.FindFile(context.Background(), base, "c.md")
	assert.False(t, ok)

	_, ok = FastFinder{Timeout: 5 * time.Second}.FindFile(context.Background(), filepath.Join(base, "nope"), "c.md")
	assert.False(t, ok)
}

func TestFastFinderDirPrefersShallowMatch(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a", "b", "c", "output"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "z", "output"), 0755))

	got, ok := FastFinder{Timeout: 5 * time.Second}.FindDir(context.Background(), base, "output")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "z", "output"), got)
}

func TestFastFinderDirStopsWhenContextDone(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "a", "target"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := FastFinder{Timeout: time.Minute}.FindDir(ctx, base, "target")
	assert.False(t, ok)
}

func TestIsHidden(t *testing.T) {
	for _, name := range []string{".git", ".DS_Store", "."} {
		assert.True(t, isHidden(name), name)
	}
	for _, name := range []string{"docs", "a.b", strings.Repeat("x", 3)} {
		assert.False(t, isHidden(name), name)
	}
}
