package repository

import (
	"sort"
	"strings"
)

// Mirror rewrites requests for any groupId under Prefix to RepositoryID
// instead of the repository the coordinate would otherwise resolve against.
// The closest analog in the teacher's alias.go/deduce.go is rewriting an
// import path to an alternate source; here the rewrite target is a
// repository id keyed on a groupId prefix rather than a whole import path.
type Mirror struct {
	Prefix       string
	RepositoryID string
	// Mirrored is the set of upstream repository ids this mirror serves as a
	// substitute for. An empty set mirrors any repository.
	Mirrored map[string]struct{}
}

// MirrorSelector picks, for a given groupId and upstream repository id, the
// mirror repository id that should actually be contacted, if any.
type MirrorSelector struct {
	mirrors []Mirror
}

// NewMirrorSelector builds a selector from the given mirrors, longest
// groupId-prefix first so a more specific mirror outranks a catch-all one.
func NewMirrorSelector(mirrors []Mirror) *MirrorSelector {
	sorted := append([]Mirror(nil), mirrors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})
	return &MirrorSelector{mirrors: sorted}
}

// Select returns the mirror repository id for groupId fetched from
// upstreamRepositoryID, or ("", false) if no mirror applies.
func (s *MirrorSelector) Select(groupID, upstreamRepositoryID string) (string, bool) {
	for _, m := range s.mirrors {
		if !strings.HasPrefix(groupID, m.Prefix) {
			continue
		}
		if len(m.Mirrored) > 0 {
			if _, ok := m.Mirrored[upstreamRepositoryID]; !ok {
				continue
			}
		}
		return m.RepositoryID, true
	}
	return "", false
}

// Add registers an additional mirror, re-sorting to preserve longest-prefix
// precedence.
func (s *MirrorSelector) Add(m Mirror) {
	s.mirrors = append(s.mirrors, m)
	sort.SliceStable(s.mirrors, func(i, j int) bool {
		return len(s.mirrors[i].Prefix) > len(s.mirrors[j].Prefix)
	})
}
