package alignment

import "sort"

type set map[string]struct{}

func newSet(values ...string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) add(v string) {
	s[v] = struct{}{}
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s set) clone() set {
	c := make(set, len(s))
	for v := range s {
		c[v] = struct{}{}
	}
	return c
}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
