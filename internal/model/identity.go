package model

import (
	"fmt"
	"strings"
)

// Kind tags an identifier with the entity type it refers to.
type Kind string

const (
	KindSemester Kind = "semester"
	KindModule   Kind = "module"
	KindEntry    Kind = "entry"
)

// ObjectID returns the kind-tagged identifier "<kind>:<id>" of a semester,
// module or entry. Entities without an identifier get one assigned.
func ObjectID(obj any) (string, error) {
	var kind Kind
	var id *string
	switch o := obj.(type) {
	case *Semester:
		if o != nil {
			kind, id = KindSemester, &o.ID
		}
	case *Module:
		if o != nil {
			kind, id = KindModule, &o.ID
		}
	case *Entry:
		if o != nil {
			kind, id = KindEntry, &o.ID
		}
	}
	if id == nil {
		return "", fmt.Errorf("%w: no object id for %T", ErrInvalidArgument, obj)
	}
	if *id == "" {
		*id = newID()
	}
	return string(kind) + ":" + *id, nil
}

// ParseObjectID splits a kind-tagged identifier. Unknown kinds yield
// ErrNotFound, strings without a tag ErrInvalidArgument.
func ParseObjectID(ref string) (Kind, string, error) {
	kind, id, ok := strings.Cut(ref, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: malformed object id %q", ErrInvalidArgument, ref)
	}
	switch Kind(kind) {
	case KindSemester, KindModule, KindEntry:
		return Kind(kind), id, nil
	}
	return "", "", fmt.Errorf("object kind %q: %w", kind, ErrNotFound)
}

// Lookup resolves a kind-tagged identifier to the entity stored in the
// tree. The search covers the whole study when parent is nil and the
// transitive children of parent otherwise. A well-formed identifier that
// matches nothing yields (nil, nil).
func (s *Study) Lookup(ref string, parent any) (any, error) {
	kind, id, err := ParseObjectID(ref)
	if err != nil {
		return nil, err
	}

	// modules are the modules below parent; entries are searched in them.
	// A nil pointer parent searches the whole study like a nil interface.
	var semesters []*Semester
	var modules []*Module
	underModule := false
	switch p := parent.(type) {
	case nil:
		semesters = s.semesters
	case *Study:
		if p == nil {
			p = s
		}
		semesters = p.semesters
	case *Semester:
		if p == nil {
			semesters = s.semesters
		} else {
			modules = p.modules
		}
	case *Module:
		if p == nil {
			semesters = s.semesters
		} else {
			modules, underModule = []*Module{p}, true
		}
	default:
		return nil, fmt.Errorf("%w: cannot search below %T", ErrInvalidArgument, parent)
	}
	for _, sem := range semesters {
		modules = append(modules, sem.modules...)
	}

	switch kind {
	case KindSemester:
		if sem := findSemesterIn(semesters, id); sem != nil {
			return sem, nil
		}
	case KindModule:
		if underModule {
			return nil, nil
		}
		if m := findModuleInList(modules, id); m != nil {
			return m, nil
		}
	case KindEntry:
		if _, e := findEntryInModules(modules, id); e != nil {
			return e, nil
		}
	}
	return nil, nil
}

// FindSemester returns the semester with the identifier, or nil.
func (s *Study) FindSemester(id string) *Semester {
	return findSemesterIn(s.semesters, id)
}

// FindModule returns the module with the identifier and its semester.
func (s *Study) FindModule(id string) (*Semester, *Module) {
	return findModuleIn(s.semesters, id)
}

// FindEntry returns the entry with the identifier and its containers.
func (s *Study) FindEntry(id string) (*Semester, *Module, *Entry) {
	return findEntryIn(s.semesters, id)
}

func findSemesterIn(semesters []*Semester, id string) *Semester {
	for _, sem := range semesters {
		if sem.ID == id {
			return sem
		}
	}
	return nil
}

func findModuleIn(semesters []*Semester, id string) (*Semester, *Module) {
	for _, sem := range semesters {
		if m := findModuleInList(sem.modules, id); m != nil {
			return sem, m
		}
	}
	return nil, nil
}

func findModuleInList(modules []*Module, id string) *Module {
	for _, m := range modules {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func findEntryIn(semesters []*Semester, id string) (*Semester, *Module, *Entry) {
	for _, sem := range semesters {
		if m, e := findEntryInModules(sem.modules, id); e != nil {
			return sem, m, e
		}
	}
	return nil, nil, nil
}

func findEntryInModules(modules []*Module, id string) (*Module, *Entry) {
	for _, m := range modules {
		if e := m.findEntry(id); e != nil {
			return m, e
		}
	}
	return nil, nil
}
