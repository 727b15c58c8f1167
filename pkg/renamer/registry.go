package renamer

import (
	"strconv"
	"strings"
)

// registry hands out collision-free names. Each generated base name keeps
// its own counter: the first occurrence gets no suffix, later ones get
// "(1)", "(2)" and so on.
type registry struct {
	counters map[string]int
	used     map[string]bool
}

func newRegistry() *registry {
	return &registry{
		counters: make(map[string]int),
		used:     make(map[string]bool),
	}
}

// next returns the next free name for stem+ext. Names in reserved are
// skipped. Comparison ignores case so the result is also safe on
// case-insensitive filesystems.
func (r *registry) next(stem, ext string, reserved map[string]bool) string {
	key := strings.ToLower(stem + ext)
	n := r.counters[key]

	for {
		name := stem + ext
		if n > 0 {
			name = stem + "(" + strconv.Itoa(n) + ")" + ext
		}
		n++

		lower := strings.ToLower(name)
		if r.used[lower] || reserved[lower] {
			continue
		}
		r.counters[key] = n
		r.used[lower] = true
		return name
	}
}

func reservedSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
	return set
}
