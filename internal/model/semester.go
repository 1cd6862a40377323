package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Semester is a named grouping of modules.
type Semester struct {
	ID         string
	Name       string
	ECTS       int
	PlannedEnd *time.Time

	modules []*Module
	// byName points at the first module carrying a name.
	byName map[string]*Module
}

// NewSemester creates an empty semester.
func NewSemester(name string) *Semester {
	return &Semester{ID: newID(), Name: name, byName: map[string]*Module{}}
}

// Modules returns the modules in insertion order.
func (s *Semester) Modules() []*Module {
	return slices.Clone(s.modules)
}

// AddModule appends m. Duplicate names are tolerated; lookups by name keep
// returning the first module with that name.
func (s *Semester) AddModule(m *Module) {
	s.modules = append(s.modules, m)
	if s.byName == nil {
		s.byName = map[string]*Module{}
	}
	if _, ok := s.byName[m.Name]; !ok {
		s.byName[m.Name] = m
	}
}

// Module returns the first module with the exact name, or nil.
func (s *Semester) Module(name string) *Module {
	return s.byName[name]
}

// AddEntry adds an entry to the module with the given name, creating the
// module with the default settings when it does not exist.
func (s *Semester) AddEntry(moduleName, category, comment string) (*Module, *Entry) {
	return s.addEntry(DefaultModuleDefaults, moduleName, category, comment)
}

func (s *Semester) addEntry(defaults ModuleDefaults, moduleName, category, comment string) (*Module, *Entry) {
	m := s.Module(moduleName)
	if m == nil {
		m = NewModule(moduleName, defaults.ECTS, defaults.DurationWeeks)
		s.AddModule(m)
	}
	return m, m.AddEntry(category, comment)
}

// RemoveEntry removes e from m and drops m when it has no entries left.
func (s *Semester) RemoveEntry(m *Module, e *Entry) error {
	mod := s.findModule(m.ID)
	if mod == nil {
		return fmt.Errorf("module %q in semester %q: %w", m.Name, s.Name, ErrNotFound)
	}
	if err := mod.RemoveEntry(e); err != nil {
		return err
	}
	if len(mod.entries) == 0 {
		s.removeModule(mod)
	}
	return nil
}

func (s *Semester) removeModule(m *Module) {
	s.modules = slices.DeleteFunc(s.modules, func(x *Module) bool { return x == m })
	s.reindex()
}

func (s *Semester) reindex() {
	s.byName = make(map[string]*Module, len(s.modules))
	for _, m := range s.modules {
		if _, ok := s.byName[m.Name]; !ok {
			s.byName[m.Name] = m
		}
	}
}

func (s *Semester) findModule(id string) *Module {
	for _, m := range s.modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Durations returns the total duration per module name.
func (s *Semester) Durations() ([]NamedDuration, time.Duration) {
	var g grouping
	for _, m := range s.modules {
		_, d := m.Durations()
		g.add(m.Name, d)
	}
	return g.items, g.total
}

// Categories returns the distinct categories of all modules whose name
// contains modFilter.
func (s *Semester) Categories(modFilter string) []string {
	var out []string
	for _, m := range s.modules {
		if !strings.Contains(m.Name, modFilter) {
			continue
		}
		for _, c := range m.Categories() {
			out = appendUnique(out, c)
		}
	}
	return out
}
