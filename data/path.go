package data

import (
	"path"
	"strings"
)

// NormalizePath canonicalizes a virtual asset path: forward slashes,
// lower-cased, exactly one leading slash, no trailing slash except for
// the root itself. Returns ErrInvalidPath for empty input or paths
// that escape the root ("..").
func NormalizePath(p string) (string, error) {
	if len(p) == 0 {
		return "", ErrInvalidPath
	}

	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.ToLower(p)

	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	// Escape detection has to happen before Clean, which silently
	// collapses "/../x" to "/x".
	depth := 0
	for _, segment := range strings.Split(p[1:], "/") {
		switch segment {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", ErrInvalidPath
			}
		default:
			depth++
		}
	}

	return path.Clean(p), nil
}

// BaseName returns the last element of a virtual path without its
// extension, used as the default display name.
func BaseName(p string) string {
	base := path.Base(p)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Extension returns the lower-cased extension including the dot, or
// an empty string when the path has none.
func Extension(p string) string {
	return strings.ToLower(path.Ext(p))
}

// ParentDir returns the parent of a virtual path; the root is its own
// parent.
func ParentDir(p string) string {
	dir := path.Dir(p)
	if dir == "." {
		return "/"
	}
	return dir
}

// JoinPath joins path elements with forward slashes and cleans the
// result. It does not normalize case.
func JoinPath(elems ...string) string {
	return path.Join(elems...)
}

// HasPathPrefix reports whether p sits at or below prefix, respecting
// path segment boundaries ("/tex" does not match "/textures").
func HasPathPrefix(p, prefix string) bool {
	if prefix == "/" || prefix == "" {
		return true
	}

	if p == prefix {
		return true
	}

	return strings.HasPrefix(p, prefix+"/")
}
