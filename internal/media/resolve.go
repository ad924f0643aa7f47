// Package media implements sandboxed file resolution and HTTP range
// semantics for the media streaming endpoint.
package media

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when a requested path escapes the media root.
// Callers must turn this into a 403 before touching the filesystem.
var ErrOutsideRoot = errors.New("requested path escapes media root")

// ResolveWithin resolves a client-supplied relative path against root and
// guarantees the result stays inside it. The check is purely lexical: the
// path is cleaned and compared before any filesystem access, so traversal
// probes never reach the disk.
func ResolveWithin(root, requested string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}

	// Backslashes are separators on no platform we serve from, but clients
	// send them in traversal probes. Normalize before cleaning.
	requested = strings.ReplaceAll(requested, "\\", "/")

	joined := filepath.Join(rootAbs, filepath.FromSlash(requested))
	cleaned := filepath.Clean(joined)

	if cleaned != rootAbs && !strings.HasPrefix(cleaned, rootAbs+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return cleaned, nil
}
