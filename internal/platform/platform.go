// Package platform defines the closed set of client platforms that receive
// resource patches, and their on-disk names.
package platform

import (
	"fmt"
	"strings"
)

// Platform is a client platform. The zero value is invalid.
type Platform int

const (
	Android Platform = iota + 1
	IOS
)

// All lists every platform in processing order.
var All = []Platform{Android, IOS}

var names = map[Platform]string{
	Android: "android",
	IOS:     "ios",
}

// Name returns the lowercase directory and path-segment name ("android", "ios").
func (p Platform) Name() string {
	if n, ok := names[p]; ok {
		return n
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

func (p Platform) String() string { return p.Name() }

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	_, ok := names[p]
	return ok
}

// Parse resolves a platform from its name, case-insensitively.
func Parse(s string) (Platform, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for p, n := range names {
		if n == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown platform %q", s)
}

// ParseList resolves a comma-separated list of platform names. Duplicates are
// dropped; order follows first appearance.
func ParseList(s string) ([]Platform, error) {
	var out []Platform
	seen := make(map[Platform]struct{})
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := Parse(part)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

// MarshalText encodes the platform as its lowercase name.
func (p Platform) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid platform %d", int(p))
	}
	return []byte(p.Name()), nil
}

// UnmarshalText decodes a platform name.
func (p *Platform) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
