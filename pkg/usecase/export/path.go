package export

import (
	"regexp"
	"strings"

	"github.com/flashfusion/forge/pkg/utils/idgen"
)

// normalizePath converts p into a relative slash separated path that cannot
// escape the archive root. It returns "" when nothing usable remains.
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")

	segments := strings.Split(p, "/")
	kept := segments[:0]
	for _, s := range segments {
		switch s {
		case "", ".", "..":
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, "/")
}

// maxNameLength bounds the file name stem, and with it the archive comment
const maxNameLength = 100

var (
	// unsafeNameChars matches runs of characters not allowed in file names
	unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// sanitizeName turns a project name into a file name stem of at most
// maxNameLength bytes. Names with no usable characters fall back to a
// generated one.
func sanitizeName(name string) string {
	result := unsafeNameChars.ReplaceAllString(strings.TrimSpace(name), "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > maxNameLength {
		result = strings.TrimRight(result[:maxNameLength], "-")
	}
	if result == "" {
		id := idgen.New("")
		if len(id) > 8 {
			id = id[:8]
		}
		return "flashfusion-project-" + id
	}
	return result
}
