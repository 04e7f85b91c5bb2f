// Package images expands ad image glob patterns into a deduplicated,
// deterministically ordered list of absolute file paths.
package images

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResourceError signals an unresolvable image pattern or an unsupported
// image file. Fatal for the ad it belongs to.
type ResourceError struct {
	File   string
	Reason string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s @ [%s]", e.Reason, e.File)
}

var allowedExtensions = map[string]struct{}{
	".gif": {}, ".jpg": {}, ".jpeg": {}, ".png": {},
}

// Resolve expands each pattern against baseDir in order. Supported pattern
// syntax is globstar (`**`), braces (`{a,b}`) and character classes; extglob
// forms like `!(x)` or `@(a|b)` are not. Resolve sorts every pattern's
// matches lexicographically,
// and concatenates them with first-occurrence deduplication, so an earlier
// pattern's sort position wins over a later duplicate match. A match with an
// extension outside {gif,jpg,jpeg,png} is fatal, as is an overall empty
// result for a non-empty pattern list. adFile only labels errors.
func Resolve(patterns []string, baseDir, adFile string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var ordered []string
	for _, pattern := range patterns {
		p := pattern
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, &ResourceError{File: adFile, Reason: fmt.Sprintf("invalid image file pattern [%s]: %v", pattern, err)}
		}

		set := map[string]struct{}{}
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if _, ok := allowedExtensions[ext]; !ok {
				return nil, &ResourceError{File: adFile, Reason: fmt.Sprintf("unsupported image file type [%s]", m)}
			}
			abs, err := filepath.Abs(m)
			if err != nil {
				return nil, &ResourceError{File: adFile, Reason: fmt.Sprintf("resolve image path [%s]: %v", m, err)}
			}
			set[abs] = struct{}{}
		}

		sorted := make([]string, 0, len(set))
		for m := range set {
			sorted = append(sorted, m)
		}
		slices.Sort(sorted)
		ordered = append(ordered, sorted...)
	}

	if len(ordered) == 0 {
		return nil, &ResourceError{File: adFile, Reason: fmt.Sprintf("no images found for given file patterns %v at %s", patterns, baseDir)}
	}

	seen := make(map[string]struct{}, len(ordered))
	out := ordered[:0]
	for _, m := range ordered {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}
