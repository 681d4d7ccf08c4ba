package cpp

import (
	"path/filepath"
	"regexp"

	"github.com/Alia5/dynbind/internal/codegen/common"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func isIdentifier(s string) bool { return identPattern.MatchString(s) }

func writeFileHeader() string {
	return common.FileHeader("//", "C++")
}

// includePaths turns source paths into include directives relative to the
// directory of outputFile. Duplicates are dropped, order is kept.
func includePaths(outputFile string, sources []string) []string {
	outDir := filepath.Dir(outputFile)
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}

	seen := make(map[string]bool, len(sources))
	out := make([]string, 0, len(sources))
	for _, src := range sources {
		inc := src
		if abs, err := filepath.Abs(src); err == nil {
			if rel, err := filepath.Rel(outDir, abs); err == nil {
				inc = rel
			}
		}
		inc = filepath.ToSlash(inc)
		if seen[inc] {
			continue
		}
		seen[inc] = true
		out = append(out, inc)
	}
	return out
}
