package extract

import (
	"path/filepath"
	"strings"
)

// SafeMemberPath computes the output path for an archive member and
// guarantees it stays within destDir. Absolute member names are
// rejected outright; relative names are joined onto destDir, cleaned,
// and the result must be destDir itself or a descendant of it.
//
// Lexical containment is sufficient here because the extractor never
// materializes symlinks, so no intermediate path component can point
// outside destDir.
func SafeMemberPath(destDir, memberName string) (string, error) {
	if strings.HasPrefix(memberName, "/") || strings.HasPrefix(memberName, `\`) {
		return "", &TraversalError{Member: memberName, Reason: "absolute path"}
	}

	dest := filepath.Clean(destDir)
	out := filepath.Join(dest, filepath.FromSlash(memberName))

	if out != dest && !strings.HasPrefix(out, dest+string(filepath.Separator)) {
		return "", &TraversalError{Member: memberName, Reason: "resolves outside destination"}
	}
	return out, nil
}
