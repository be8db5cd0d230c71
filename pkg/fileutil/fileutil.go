package fileutil

import (
	"path/filepath"
	"strings"
)

// GetFileExtension returns the lowercased extension of path without the
// leading dot, or an empty string if there is none.
func GetFileExtension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
