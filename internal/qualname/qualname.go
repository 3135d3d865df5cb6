// Package qualname derives fully-qualified dotted names for Python symbols.
package qualname

import (
	"path/filepath"
	"strings"

	"github.com/phobologic/pyscope/internal/scan"
)

// Resolve returns the dotted qualified name of the definition chain
// enclosing cursorLine, or ok=false when no enclosing definition exists.
// Absence is distinct from an empty name: the result is never the bare
// module path and never "".
func Resolve(lines []string, cursorLine int, modulePath string) (string, bool) {
	chain := scan.EnclosingChainAt(lines, cursorLine)
	if len(chain) == 0 {
		return "", false
	}
	parts := make([]string, 0, len(chain)+1)
	parts = append(parts, modulePath)
	for _, m := range chain {
		parts = append(parts, m.Name)
	}
	return strings.Join(parts, "."), true
}

// ModulePath derives the dotted module path for a file: its path relative
// to root, separators turned into dots, extension stripped. When root is
// empty or does not contain the file, only the bare filename without
// extension is used.
func ModulePath(path, root string) string {
	p := filepath.Base(path)
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	p = strings.TrimSuffix(p, filepath.Ext(p))
	return strings.ReplaceAll(filepath.ToSlash(p), "/", ".")
}
