// Package initassets materializes msaada's starter project files for
// the --init flag: index.html, style.css, main.js, written only if
// absent.
package initassets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed assets/index.html assets/style.css assets/main.js
var files embed.FS

var starterFiles = []string{"index.html", "style.css", "main.js"}

// Materialize writes each starter file into dir if it does not already
// exist there, leaving any existing file untouched. It returns the list
// of files it actually created.
func Materialize(dir string) ([]string, error) {
	var created []string
	for _, name := range starterFiles {
		target := filepath.Join(dir, name)
		if _, err := os.Stat(target); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return created, fmt.Errorf("checking %s: %w", target, err)
		}

		data, err := files.ReadFile("assets/" + name)
		if err != nil {
			return created, fmt.Errorf("reading embedded asset %s: %w", name, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return created, fmt.Errorf("writing %s: %w", target, err)
		}
		created = append(created, name)
	}
	return created, nil
}
