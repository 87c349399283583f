// Package highlight ships the browser script that marks search keywords in
// a served document.
package highlight

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// FileName is the default on-disk name of the script.
const FileName = "highlight.js"

//go:embed highlight.js
var script []byte

// modTime is fixed at process start so conditional requests work.
var modTime = time.Now()

// Script returns a copy of the embedded script.
func Script() []byte {
	return bytes.Clone(script)
}

// Handler serves the embedded script.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		http.ServeContent(w, r, FileName, modTime, bytes.NewReader(script))
	})
}

// Export writes the script into dir and returns the written path and size.
func Export(dir string) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, script, 0o644); err != nil {
		return "", 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return path, int64(len(script)), nil
}
