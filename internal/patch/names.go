package patch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"res-patcher/internal/platform"
)

// FileName returns the diff file name for (p, from, to):
// diff_<platform>_<from>_<to>.json.
func FileName(p platform.Platform, from, to int) string {
	return fmt.Sprintf("diff_%s_%d_%d.json", p.Name(), from, to)
}

// ParseFileName is the inverse of FileName. ok is false for any other name.
func ParseFileName(name string) (p platform.Platform, from, to int, ok bool) {
	rest, found := strings.CutPrefix(filepath.Base(name), "diff_")
	if !found {
		return 0, 0, 0, false
	}
	rest, found = strings.CutSuffix(rest, ".json")
	if !found {
		return 0, 0, 0, false
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	p, err := platform.Parse(parts[0])
	if err != nil || parts[0] != p.Name() {
		return 0, 0, 0, false
	}
	from, err1 := strconv.Atoi(parts[1])
	to, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || from < 0 || to < 0 {
		return 0, 0, 0, false
	}
	return p, from, to, true
}
