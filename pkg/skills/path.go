package skills

import (
	"fmt"
	"path"
	"strings"
)

// ValidatePath decides whether a requested skill-relative path is safe
// to resolve against a skill directory. It is a pure function applied
// before any storage access. The only accepted shapes are the literal
// main file name and "<subdir>/<filename>" where subdir is one of the
// whitelisted resource directories.
func ValidatePath(requested string) error {
	if strings.HasPrefix(requested, "/") {
		return &InvalidPathError{Path: requested, Reason: "absolute paths are not allowed"}
	}
	if strings.Contains(requested, ":") {
		return &InvalidPathError{Path: requested, Reason: "drive or scheme qualified paths are not allowed"}
	}

	cleaned := path.Clean(requested)
	for _, seg := range strings.Split(cleaned, "/") {
		if seg == ".." {
			return &InvalidPathError{Path: requested, Reason: "parent directory traversal is not allowed"}
		}
	}

	if cleaned == MainFileName {
		return nil
	}

	segments := strings.Split(cleaned, "/")
	if len(segments) == 2 && isResourceDir(segments[0]) {
		return nil
	}

	return &InvalidPathError{
		Path: requested,
		Reason: fmt.Sprintf("path must be %q or <subdir>/<filename> with subdir one of %s",
			MainFileName, strings.Join(resourceDirs, ", ")),
	}
}

func isResourceDir(name string) bool {
	for _, dir := range resourceDirs {
		if name == dir {
			return true
		}
	}
	return false
}
