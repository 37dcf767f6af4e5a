package watch

import (
	"path/filepath"
	"strings"
)

// ignoreSet matches paths against glob patterns.
//
// A pattern without a slash matches the base name of a path ("*.swp",
// ".git"). A pattern with a slash matches the path relative to the watch
// root ("build/*.o"). A trailing slash restricts the pattern to
// directories.
type ignoreSet struct {
	root     string
	patterns []ignorePattern
}

type ignorePattern struct {
	pattern string
	dirOnly bool
	anchor  bool // match against the relative path
}

func newIgnoreSet(root string, patterns []string) (*ignoreSet, error) {
	s := &ignoreSet{root: root}
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		p := ignorePattern{}
		if strings.HasSuffix(raw, "/") {
			p.dirOnly = true
			raw = strings.TrimSuffix(raw, "/")
		}
		raw = strings.TrimPrefix(raw, "/")
		p.anchor = strings.Contains(raw, "/")
		p.pattern = filepath.FromSlash(raw)

		// Validate syntax up front.
		if _, err := filepath.Match(p.pattern, ""); err != nil {
			return nil, err
		}
		s.patterns = append(s.patterns, p)
	}
	return s, nil
}

// match reports whether path, or any directory between the root and path,
// is ignored.
func (s *ignoreSet) match(path string, isDir bool) bool {
	if len(s.patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." {
		return false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for i := range parts {
		// Every element but the last is a directory.
		dir := isDir || i < len(parts)-1
		if s.matchOne(filepath.Join(parts[:i+1]...), parts[i], dir) {
			return true
		}
	}
	return false
}

func (s *ignoreSet) matchOne(rel, base string, isDir bool) bool {
	for _, p := range s.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		target := base
		if p.anchor {
			target = rel
		}
		if ok, _ := filepath.Match(p.pattern, target); ok {
			return true
		}
	}
	return false
}
