// Package validate performs lightweight structural checks on manifests and
// diff files loaded from disk before they are reused. It aggregates every
// issue into a single error.
package validate

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"res-patcher/internal/manifest"
)

// List validates a manifest or diff file:
//
//   - Each entry has a non-empty name without path separators.
//   - Names are unique.
//   - Paths are non-empty, relative, forward-slash separated, without "..".
//   - The path's last segment equals the name.
//   - Size >= 0.
//   - Digest is 32 lowercase hex chars (md5).
func List(l *manifest.List) error {
	var errs errlist
	if l == nil {
		errs.add("list is missing")
		return errs.err()
	}

	seen := make(map[string]struct{}, len(l.List))
	for i, e := range l.List {
		prefix := fmt.Sprintf("list[%d] (%s)", i, e.Name)

		if strings.TrimSpace(e.Name) == "" {
			errs.add("%s: name must be non-empty", prefix)
		} else if strings.ContainsAny(e.Name, `/\`) {
			errs.add("%s: name must not contain path separators", prefix)
		}
		if _, dup := seen[e.Name]; dup {
			errs.add("%s: duplicate name %q", prefix, e.Name)
		} else if e.Name != "" {
			seen[e.Name] = struct{}{}
		}

		switch {
		case e.Path == "":
			errs.add("%s: path must be non-empty", prefix)
		case strings.HasPrefix(e.Path, "/"):
			errs.add("%s: path must be relative, got %q", prefix, e.Path)
		case strings.Contains(e.Path, `\`):
			errs.add("%s: path must use forward slashes ('/'), found backslash", prefix)
		case hasDotDot(e.Path):
			errs.add("%s: path must not contain '..' segments (got %q)", prefix, e.Path)
		case e.Name != "" && path.Base(e.Path) != e.Name:
			errs.add("%s: path %q does not end in name", prefix, e.Path)
		}

		if e.Size < 0 {
			errs.add("%s: size must be >= 0 (got %d)", prefix, e.Size)
		}
		if !reHex32.MatchString(e.Digest) {
			errs.add("%s: digest must be 32 lowercase hex chars (md5), got %q", prefix, e.Digest)
		}
	}
	return errs.err()
}

// --- helpers -----------------------------------------------------------------

var reHex32 = regexp.MustCompile(`^[0-9a-f]{32}$`)

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// errlist aggregates multiple validation issues into a single error.
type errlist struct {
	msgs []string
}

func (e *errlist) add(format string, args ...any) {
	if e == nil {
		return
	}
	e.msgs = append(e.msgs, fmt.Sprintf(format, args...))
}

func (e *errlist) err() error {
	if e == nil || len(e.msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(e.msgs, "\n"))
}
