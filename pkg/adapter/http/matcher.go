package http

import (
	"path"
	"strings"
)

// pathSet matches request paths against a fixed list of patterns. A "*"
// segment matches any single segment, and a trailing "*" matches the
// prefix and everything below it.
type pathSet struct {
	patterns [][]string
}

func newPathSet(patterns []string) *pathSet {
	s := &pathSet{patterns: make([][]string, 0, len(patterns))}
	for _, p := range patterns {
		s.patterns = append(s.patterns, splitPath(p))
	}
	return s
}

func splitPath(p string) []string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Matches reports whether reqPath matches any pattern in the set.
func (s *pathSet) Matches(reqPath string) bool {
	if s == nil || len(s.patterns) == 0 {
		return false
	}

	segments := splitPath(reqPath)
	for _, pattern := range s.patterns {
		if matchSegments(segments, pattern) {
			return true
		}
	}
	return false
}

func matchSegments(segments, pattern []string) bool {
	if n := len(pattern); n > 0 && pattern[n-1] == "*" {
		prefix := pattern[:n-1]
		return len(segments) >= len(prefix) && matchEach(segments[:len(prefix)], prefix)
	}
	if len(segments) != len(pattern) {
		return false
	}
	return matchEach(segments, pattern)
}

func matchEach(segments, pattern []string) bool {
	for i, p := range pattern {
		if p != "*" && p != segments[i] {
			return false
		}
	}
	return true
}
