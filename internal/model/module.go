package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

// ModuleDefaults holds the values used for modules created implicitly by
// an upsert.
type ModuleDefaults struct {
	ECTS          int
	DurationWeeks int
}

// DefaultModuleDefaults is used when nothing else is configured.
var DefaultModuleDefaults = ModuleDefaults{ECTS: 5, DurationWeeks: 6}

// Module is a named unit of coursework holding entries.
type Module struct {
	ID         string
	Name       string
	ECTS       int
	Start      time.Time
	PlannedEnd time.Time
	// Stop marks the module as finished. It is unrelated to entry stop times.
	Stop *time.Time

	entries []*Entry
}

// NewModule creates a module that starts now and is planned to run for
// weeks weeks.
func NewModule(name string, ects, weeks int) *Module {
	m := &Module{
		ID:   newID(),
		Name: name,
		ECTS: ects,
	}
	m.StartModule(weeks)
	return m
}

// StartModule (re)starts the module now and clears the finished marker.
func (m *Module) StartModule(weeks int) {
	m.Start = timecalc.Now()
	m.PlannedEnd = m.Start.Add(time.Duration(weeks) * timecalc.Week)
	m.Stop = nil
}

// FinishModule marks the module as finished now. Running entries are left
// untouched.
func (m *Module) FinishModule() {
	now := timecalc.Now()
	m.Stop = &now
}

// DurationWeeks returns the planned duration in whole weeks.
func (m *Module) DurationWeeks() int {
	return timecalc.WeeksBetween(m.Start, m.PlannedEnd)
}

// SetDurationWeeks recomputes the planned end from the current start.
func (m *Module) SetDurationWeeks(weeks int) {
	m.PlannedEnd = m.Start.Add(time.Duration(weeks) * timecalc.Week)
}

// Entries returns the entries in insertion order.
func (m *Module) Entries() []*Entry {
	return slices.Clone(m.entries)
}

// AddEntry creates a running entry and appends it.
func (m *Module) AddEntry(category, comment string) *Entry {
	e := NewEntry(category, comment)
	m.entries = append(m.entries, e)
	return e
}

func (m *Module) appendEntry(e *Entry) {
	m.entries = append(m.entries, e)
}

// RemoveEntry removes e, matched by identifier.
func (m *Module) RemoveEntry(e *Entry) error {
	i := slices.IndexFunc(m.entries, func(x *Entry) bool { return x.ID == e.ID })
	if i < 0 {
		return fmt.Errorf("entry %s in module %q: %w", e.ID, m.Name, ErrNotFound)
	}
	m.entries = slices.Delete(m.entries, i, i+1)
	return nil
}

// Durations groups entry durations by category.
func (m *Module) Durations() ([]NamedDuration, time.Duration) {
	var g grouping
	for _, e := range m.entries {
		g.add(e.Category, e.Duration())
	}
	return g.items, g.total
}

// Categories returns the distinct categories in first-seen order.
func (m *Module) Categories() []string {
	var out []string
	for _, e := range m.entries {
		out = appendUnique(out, e.Category)
	}
	return out
}

func (m *Module) findEntry(id string) *Entry {
	for _, e := range m.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}
