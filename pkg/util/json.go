package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// PrintPrettyJSON writes v to stdout as indented JSON.
func PrintPrettyJSON(v any) error {
	return WritePrettyJSON(os.Stdout, v)
}

// WritePrettyJSON writes v to w as indented JSON followed by a newline.
// Nil slices are written as [] rather than null.
func WritePrettyJSON(w io.Writer, v any) error {
	if isNilSlice(v) {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func isNilSlice(v any) bool {
	switch s := v.(type) {
	case []string:
		return s == nil
	case []any:
		return s == nil
	}
	return false
}
