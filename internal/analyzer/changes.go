package analyzer

import (
	"path"
	"sort"
	"strings"

	"github.com/thomas-vilte/mateissue/internal/models"
)

type fileState int

const (
	stateNew fileState = iota
	stateModified
	stateDeleted
	stateRenamed
)

// changeTracker folds per-commit changes into the net classification of the
// window. Commits must be fed oldest first.
type changeTracker struct {
	state   map[string]fileState
	origin  map[string]string
	perFile map[string]int
}

func newChangeTracker() *changeTracker {
	return &changeTracker{
		state:   make(map[string]fileState),
		origin:  make(map[string]string),
		perFile: make(map[string]int),
	}
}

func (t *changeTracker) insert(p string) {
	if st, ok := t.state[p]; ok && st == stateDeleted {
		t.state[p] = stateModified
		return
	}
	t.state[p] = stateNew
}

func (t *changeTracker) modify(p string) {
	if st, ok := t.state[p]; ok && (st == stateNew || st == stateRenamed) {
		return
	}
	t.state[p] = stateModified
}

func (t *changeTracker) remove(p string) {
	st, ok := t.state[p]
	switch {
	case ok && st == stateNew:
		delete(t.state, p)
	case ok && st == stateRenamed:
		orig := t.origin[p]
		delete(t.state, p)
		delete(t.origin, p)
		t.state[orig] = stateDeleted
	default:
		t.state[p] = stateDeleted
	}
}

func (t *changeTracker) rename(from, to string) {
	st, ok := t.state[from]
	delete(t.state, from)

	if ok && st == stateNew {
		t.state[to] = stateNew
	} else {
		orig := from
		if o, had := t.origin[from]; had {
			orig = o
		}
		delete(t.origin, from)
		t.state[to] = stateRenamed
		t.origin[to] = orig
	}

	if n, had := t.perFile[from]; had {
		t.perFile[to] += n
		delete(t.perFile, from)
	}
}

func (t *changeTracker) touch(paths []string) {
	for _, p := range paths {
		t.perFile[p]++
	}
}

func (t *changeTracker) summary() models.FileChangeSummary {
	s := models.FileChangeSummary{
		New:      []string{},
		Modified: []string{},
		Deleted:  []string{},
		Renamed:  []models.RenamedFile{},
		PerFile:  make(map[string]int, len(t.perFile)),
	}
	for p, st := range t.state {
		switch st {
		case stateNew:
			s.New = append(s.New, p)
		case stateModified:
			s.Modified = append(s.Modified, p)
		case stateDeleted:
			s.Deleted = append(s.Deleted, p)
		case stateRenamed:
			s.Renamed = append(s.Renamed, models.RenamedFile{From: t.origin[p], To: p})
		}
	}
	for p, n := range t.perFile {
		s.PerFile[p] = n
	}
	sort.Strings(s.New)
	sort.Strings(s.Modified)
	sort.Strings(s.Deleted)
	sort.Slice(s.Renamed, func(i, j int) bool { return s.Renamed[i].To < s.Renamed[j].To })
	return s
}

// ignoreMatcher matches glob patterns against the full slash path or its base
// name. A trailing slash marks a directory pattern.
type ignoreMatcher []string

func newIgnoreMatcher(patterns []string) ignoreMatcher {
	var m ignoreMatcher
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			m = append(m, strings.TrimPrefix(p, "./"))
		}
	}
	return m
}

func (m ignoreMatcher) Match(p string) bool {
	if p == "" {
		return false
	}
	for _, pattern := range m {
		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			if p == dir || strings.HasPrefix(p, dir+"/") || strings.Contains(p, "/"+dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, p); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	return false
}

type contributorSet struct {
	byEmail map[string]*models.Contributor
	order   []string
}

func newContributorSet() *contributorSet {
	return &contributorSet{byEmail: make(map[string]*models.Contributor)}
}

func (s *contributorSet) add(info models.CommitInfo) {
	key := strings.ToLower(info.Email)
	if key == "" {
		key = info.Author
	}
	c, ok := s.byEmail[key]
	if !ok {
		c = &models.Contributor{Email: info.Email}
		s.byEmail[key] = c
		s.order = append(s.order, key)
	}
	// commits are replayed oldest first, so the latest name wins
	c.Name = info.Author
	c.Commits++
	c.Insertions += info.Insertions
	c.Deletions += info.Deletions
}

func (s *contributorSet) list() []models.Contributor {
	out := make([]models.Contributor, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byEmail[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Commits != out[j].Commits {
			return out[i].Commits > out[j].Commits
		}
		return out[i].Name < out[j].Name
	})
	return out
}
