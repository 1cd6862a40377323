package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Study is the top-level plan: credit target, hours per credit and all
// semesters.
type Study struct {
	ECTS         int
	HoursPerECTS int
	PlannedEnd   time.Time
	// ModuleDefaults apply to modules created by AddEntry. Not persisted.
	ModuleDefaults ModuleDefaults

	semesters []*Semester
	byName    map[string]*Semester
	last      lastTracked
}

// lastTracked identifies the most recently stopped tracking triple. It is
// resolved against the tree on demand.
type lastTracked struct {
	semesterID string
	moduleID   string
	entryID    string
}

// NewStudy creates an empty study.
func NewStudy(ects, hoursPerECTS int, plannedEnd time.Time) *Study {
	return &Study{
		ECTS:           ects,
		HoursPerECTS:   hoursPerECTS,
		PlannedEnd:     plannedEnd,
		ModuleDefaults: DefaultModuleDefaults,
		byName:         map[string]*Semester{},
	}
}

// Semesters returns the semesters in insertion order.
func (s *Study) Semesters() []*Semester {
	return slices.Clone(s.semesters)
}

// AddSemester appends sem. Duplicate names are tolerated; lookups by name
// keep returning the first semester with that name.
func (s *Study) AddSemester(sem *Semester) {
	s.semesters = append(s.semesters, sem)
	if s.byName == nil {
		s.byName = map[string]*Semester{}
	}
	if _, ok := s.byName[sem.Name]; !ok {
		s.byName[sem.Name] = sem
	}
}

// Semester returns the first semester with the exact name, or nil.
func (s *Study) Semester(name string) *Semester {
	return s.byName[name]
}

// AddEntry adds a running entry below the named semester and module,
// creating both when needed.
func (s *Study) AddEntry(semesterName, moduleName, category, comment string) (*Semester, *Module, *Entry) {
	sem := s.Semester(semesterName)
	if sem == nil {
		sem = NewSemester(semesterName)
		s.AddSemester(sem)
	}
	defaults := s.ModuleDefaults
	if defaults == (ModuleDefaults{}) {
		defaults = DefaultModuleDefaults
	}
	m, e := sem.addEntry(defaults, moduleName, category, comment)
	return sem, m, e
}

// RemoveEntry removes e and drops the semester when it has no modules left.
func (s *Study) RemoveEntry(sem *Semester, m *Module, e *Entry) error {
	owner := s.FindSemester(sem.ID)
	if owner == nil {
		return fmt.Errorf("semester %q: %w", sem.Name, ErrNotFound)
	}
	if err := owner.RemoveEntry(m, e); err != nil {
		return err
	}
	if len(owner.modules) == 0 {
		s.semesters = slices.DeleteFunc(s.semesters, func(x *Semester) bool { return x == owner })
		s.reindex()
	}
	return nil
}

func (s *Study) reindex() {
	s.byName = make(map[string]*Semester, len(s.semesters))
	for _, sem := range s.semesters {
		if _, ok := s.byName[sem.Name]; !ok {
			s.byName[sem.Name] = sem
		}
	}
}

// Durations returns the total duration per semester name.
func (s *Study) Durations() ([]NamedDuration, time.Duration) {
	var g grouping
	for _, sem := range s.semesters {
		_, d := sem.Durations()
		g.add(sem.Name, d)
	}
	return g.items, g.total
}

// Modules returns the modules of every semester whose name contains
// semFilter.
func (s *Study) Modules(semFilter string) []*Module {
	var out []*Module
	for _, sem := range s.semesters {
		if strings.Contains(sem.Name, semFilter) {
			out = append(out, sem.modules...)
		}
	}
	return out
}

// Categories returns the distinct categories below the semesters and
// modules whose names contain the filters.
func (s *Study) Categories(semFilter, modFilter string) []string {
	var out []string
	for _, m := range s.Modules(semFilter) {
		if !strings.Contains(m.Name, modFilter) {
			continue
		}
		for _, c := range m.Categories() {
			out = appendUnique(out, c)
		}
	}
	return out
}

// SetLastTracked records the most recently stopped tracking triple.
func (s *Study) SetLastTracked(sem *Semester, m *Module, e *Entry) {
	s.last = lastTracked{semesterID: sem.ID, moduleID: m.ID, entryID: e.ID}
}

// LastTracked resolves the most recently stopped tracking triple. ok is
// false when nothing was tracked yet or a part has been removed since.
func (s *Study) LastTracked() (sem *Semester, m *Module, e *Entry, ok bool) {
	if s.last == (lastTracked{}) {
		return nil, nil, nil, false
	}
	sem = s.FindSemester(s.last.semesterID)
	if sem == nil {
		return nil, nil, nil, false
	}
	m = sem.findModule(s.last.moduleID)
	if m == nil {
		return nil, nil, nil, false
	}
	e = m.findEntry(s.last.entryID)
	if e == nil {
		return nil, nil, nil, false
	}
	return sem, m, e, true
}

// ActiveEntry returns the most recently started entry without a stop time,
// or ok=false when every entry is stopped.
func (s *Study) ActiveEntry() (sem *Semester, m *Module, e *Entry, ok bool) {
	for _, cs := range s.semesters {
		for _, cm := range cs.modules {
			for _, ce := range cm.entries {
				if !ce.Running() {
					continue
				}
				if e == nil || ce.StartTime.After(e.StartTime) {
					sem, m, e = cs, cm, ce
				}
			}
		}
	}
	return sem, m, e, e != nil
}
