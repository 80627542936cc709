package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var outBuf bytes.Buffer

// setupStdoutCapture sends everything pterm prints to outBuf, unstyled.
func setupStdoutCapture(t *testing.T) {
	t.Helper()
	outBuf.Reset()
	pterm.SetDefaultOutput(&outBuf)
	pterm.DisableStyling()

	// Prefix printers keep the writer they were built with.
	printers := []*pterm.PrefixPrinter{&pterm.Info, &pterm.Success, &pterm.Warning, &pterm.Error}
	saved := make([]io.Writer, len(printers))
	for i, p := range printers {
		saved[i] = p.Writer
		p.Writer = &outBuf
	}

	t.Cleanup(func() {
		for i, p := range printers {
			p.Writer = saved[i]
		}
		pterm.SetDefaultOutput(os.Stdout)
		pterm.EnableStyling()
	})
}

// captureStdout redirects os.Stdout until the returned function is called,
// which yields everything written in between.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	t.Cleanup(func() {
		os.Stdout = oldStdout
	})

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	return func() string {
		w.Close()
		os.Stdout = oldStdout
		return <-done
	}
}

func TestSetupStdoutCaptureCoversPrefixPrinters(t *testing.T) {
	setupStdoutCapture(t)

	pterm.Info.Println("info-line")
	pterm.Success.Println("success-line")
	pterm.Warning.Println("warning-line")
	pterm.Println("plain-line")

	out := outBuf.String()
	for _, want := range []string{"info-line", "success-line", "warning-line", "plain-line"} {
		assert.Contains(t, out, want)
	}
}
