package patch

import "res-patcher/internal/manifest"

// sourced is an entry together with the version it was taken from.
// Version is 0 when the entry came from a prior diff file.
type sourced struct {
	entry   manifest.Entry
	version int
}

// union is an ordered map from resource name to entry. Lists must be applied
// in strictly increasing version order; a later apply replaces the entry of an
// existing name (last write wins) but keeps its first-seen position.
type union struct {
	order  []string
	byName map[string]sourced
}

func newUnion() *union {
	return &union{byName: make(map[string]sourced)}
}

// apply overlays l onto u, attributing its entries to version v.
func (u *union) apply(l *manifest.List, v int) {
	if l == nil {
		return
	}
	for _, e := range l.List {
		if _, ok := u.byName[e.Name]; !ok {
			u.order = append(u.order, e.Name)
		}
		u.byName[e.Name] = sourced{entry: e, version: v}
	}
}

// list returns the entries in first-seen order.
func (u *union) list() *manifest.List {
	out := &manifest.List{List: make([]manifest.Entry, 0, len(u.order))}
	for _, name := range u.order {
		out.List = append(out.List, u.byName[name].entry)
	}
	return out
}
