// Package paths translates dotted path strings to and from locations in a
// nested state tree. Array indices may be written either as bracket suffixes
// ("items[2].sku") or as bare numeric segments ("items.2.sku"); both parse to
// the same normalized form.
package paths

import (
	"strconv"
	"strings"
)

// Parse splits path into normalized segments. Bracket indices become their
// own numeric segments, so "a.b[0].c" yields ["a", "b", "0", "c"]. An empty
// path yields nil.
func Parse(path string) []string {
	if path == "" {
		return nil
	}
	var segments []string
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		for {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				segments = append(segments, part)
				break
			}
			close := strings.IndexByte(part[open:], ']')
			if close < 0 {
				segments = append(segments, part)
				break
			}
			if open > 0 {
				segments = append(segments, part[:open])
			}
			segments = append(segments, part[open+1:open+close])
			part = part[open+close+1:]
			if part == "" {
				break
			}
		}
	}
	return segments
}

// Join composes segments back into a normalized dotted path.
func Join(segments ...string) string {
	return strings.Join(segments, ".")
}

// Normalize rewrites path into its canonical dotted form.
func Normalize(path string) string {
	return Join(Parse(path)...)
}

// Head returns the top-level segment of path, or "" for an empty path.
func Head(path string) string {
	segments := Parse(path)
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// Prefixes enumerates every dotted prefix of path from shortest to longest,
// so "a.b.c" yields ["a", "a.b", "a.b.c"].
func Prefixes(path string) []string {
	segments := Parse(path)
	if len(segments) == 0 {
		return nil
	}
	out := make([]string, len(segments))
	for i := range segments {
		out[i] = Join(segments[:i+1]...)
	}
	return out
}

// Get resolves path inside root, traversing nested maps and slices. The
// second return reports whether every segment resolved.
func Get(root map[string]any, path string) (any, bool) {
	segments := Parse(path)
	if len(segments) == 0 {
		return nil, false
	}
	var current any = root
	for _, segment := range segments {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Set writes value at path inside root, creating intermediate maps for
// missing segments. Slice elements can be replaced but not appended; an out
// of range index reports false. The final segment's container must be a map
// or a slice.
func Set(root map[string]any, path string, value any) bool {
	segments := Parse(path)
	if len(segments) == 0 || root == nil {
		return false
	}
	var current any = root
	for _, segment := range segments[:len(segments)-1] {
		next, ok := step(current, segment)
		if !ok || next == nil {
			container, ok := makeChild(current, segment)
			if !ok {
				return false
			}
			next = container
		}
		current = next
	}
	return assign(current, segments[len(segments)-1], value)
}

func step(container any, segment string) (any, bool) {
	switch typed := container.(type) {
	case map[string]any:
		value, ok := typed[segment]
		return value, ok
	case []any:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(typed) {
			return nil, false
		}
		return typed[index], true
	default:
		return nil, false
	}
}

func makeChild(container any, segment string) (any, bool) {
	parent, ok := container.(map[string]any)
	if !ok {
		return nil, false
	}
	child := map[string]any{}
	parent[segment] = child
	return child, true
}

func assign(container any, segment string, value any) bool {
	switch typed := container.(type) {
	case map[string]any:
		typed[segment] = value
		return true
	case []any:
		index, err := strconv.Atoi(segment)
		if err != nil || index < 0 || index >= len(typed) {
			return false
		}
		typed[index] = value
		return true
	default:
		return false
	}
}
