package patch

import (
	"fmt"

	"res-patcher/internal/manifest"
)

// Finding is a resource that reappears in a version with the digest of its
// previous appearance, i.e. a version directory that carries an unchanged file.
type Finding struct {
	Name     string `json:"name"`
	Version  int    `json:"version"`
	Previous int    `json:"previous"`
	Digest   string `json:"digest"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s in version %d is unchanged since version %d (%s)", f.Name, f.Version, f.Previous, f.Digest)
}

// Verify checks that every listed version only carries new or changed
// resources. vs must be ascending. Findings are informational: clients still
// receive correct files, just more than needed.
func (e *Engine) Verify(vs []int) ([]Finding, error) {
	if e.manifests == nil {
		e.manifests = make(map[int]*manifest.List)
	}
	u := newUnion()
	var out []Finding
	for _, v := range vs {
		l, err := e.manifest(v)
		if err != nil {
			return out, err
		}
		for _, ent := range l.List {
			prev, ok := u.byName[ent.Name]
			if ok && prev.entry.Digest == ent.Digest {
				out = append(out, Finding{Name: ent.Name, Version: v, Previous: prev.version, Digest: ent.Digest})
			}
		}
		u.apply(l, v)
	}
	for _, f := range out {
		e.Log.Warn().Str("platform", e.Platform.Name()).Msg(f.String())
	}
	return out, nil
}
