// Package expand turns declared file mappings (glob patterns plus a
// destination) into concrete source/destination pairs.
package expand

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pkg/errors"
)

// ExtDot values select which dot starts the extension replaced by Ext.
const (
	ExtDotFirst = "first"
	ExtDotLast  = "last"
)

// Mapping is one declared file mapping.
type Mapping struct {
	// Src holds the glob patterns. Nil means no source list was declared.
	// Patterns starting with "!" exclude paths matched by earlier patterns.
	Src []string

	// Dest is the destination file, or the destination directory when
	// Expand is set.
	Dest string

	// Expand produces one result per matched source file.
	Expand bool

	// Cwd is the directory patterns are matched relative to.
	Cwd string

	// Ext replaces the extension of each expanded destination.
	Ext string

	// ExtDot is ExtDotFirst (default) or ExtDotLast.
	ExtDot string

	// Flatten drops the directory part of each expanded destination.
	Flatten bool
}

// Result is one source/destination pair. Src is nil when the mapping
// declared no sources and empty (non-nil) when nothing matched.
type Result struct {
	Src  []string
	Dest string
}

// Files expands a mapping.
func Files(m Mapping) ([]Result, error) {
	if m.Src == nil {
		return []Result{{Dest: m.Dest}}, nil
	}

	matches, err := match(m.Cwd, m.Src)
	if err != nil {
		return nil, err
	}

	if !m.Expand {
		src := make([]string, 0, len(matches))
		for _, rel := range matches {
			src = append(src, filepath.Join(m.Cwd, rel))
		}
		return []Result{{Src: src, Dest: m.Dest}}, nil
	}

	results := make([]Result, 0, len(matches))
	for _, rel := range matches {
		dest := rel
		if m.Flatten {
			dest = filepath.Base(dest)
		}
		if m.Ext != "" {
			dest = replaceExt(dest, m.Ext, m.ExtDot)
		}
		results = append(results, Result{
			Src:  []string{filepath.Join(m.Cwd, rel)},
			Dest: filepath.Join(m.Dest, dest),
		})
	}
	return results, nil
}

// match returns the paths, relative to cwd, matched by the patterns in order
// of first appearance.
func match(cwd string, patterns []string) ([]string, error) {
	var result []string
	seen := make(map[string]bool)

	for _, p := range patterns {
		if strings.HasPrefix(p, "!") {
			exclude := filepath.ToSlash(p[1:])
			kept := result[:0]
			for _, r := range result {
				ok, err := doublestar.Match(exclude, filepath.ToSlash(r))
				if err != nil {
					return nil, errors.Wrapf(err, "pattern %q", p)
				}
				if ok {
					delete(seen, r)
					continue
				}
				kept = append(kept, r)
			}
			result = kept
			continue
		}

		found, err := doublestar.Glob(filepath.Join(cwd, p))
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", p)
		}
		sort.Strings(found)
		for _, f := range found {
			rel := f
			if cwd != "" {
				if rel, err = filepath.Rel(cwd, f); err != nil {
					return nil, err
				}
			}
			if seen[rel] {
				continue
			}
			seen[rel] = true
			result = append(result, rel)
		}
	}
	return result, nil
}

// replaceExt swaps everything after the first (or last) dot of the base name
// for ext.
func replaceExt(path, ext, extDot string) string {
	dir, base := filepath.Split(path)
	var i int
	if extDot == ExtDotLast {
		i = strings.LastIndex(base, ".")
	} else {
		i = strings.Index(base, ".")
	}
	if i >= 0 {
		base = base[:i]
	}
	return dir + base + ext
}
