package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

// Timestamp encodes a time as a timezone-naive ISO-8601 string.
type Timestamp struct {
	time.Time
}

func newTimestamp(t *time.Time) *Timestamp {
	if t == nil || t.IsZero() {
		return nil
	}
	return &Timestamp{*t}
}

func (t *Timestamp) ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

func (t *Timestamp) value() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.Time
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(timecalc.FormatISO(t.Time))
}

// UnmarshalJSON implements json.Unmarshaler. null is a no-op.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := timecalc.ParseISO(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// EntryDoc is the persisted form of an Entry.
type EntryDoc struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	Comment    string     `json:"comment"`
	StartTime  *Timestamp `json:"start_time"`
	StopTime   *Timestamp `json:"stop_time"`
	ExternalID string     `json:"external_id,omitempty"`
}

// ModuleDoc is the persisted form of a Module.
type ModuleDoc struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	ECTS       int        `json:"ECTS"`
	Start      *Timestamp `json:"start"`
	PlannedEnd *Timestamp `json:"plannedEnd"`
	Stop       *Timestamp `json:"stop"`
	Entries    []EntryDoc `json:"entries"`
}

// SemesterDoc is the persisted form of a Semester.
type SemesterDoc struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	ECTS       int         `json:"ECTS"`
	PlannedEnd *Timestamp  `json:"plannedEnd"`
	Modules    []ModuleDoc `json:"modules"`
}

// StudyDoc is the persisted form of a Study. The last_* fields carry full
// copies of the most recently stopped tracking triple.
type StudyDoc struct {
	ECTS         int           `json:"ECTS"`
	HoursPerECTS int           `json:"hoursPerECTS"`
	PlannedEnd   *Timestamp    `json:"plannedEnd"`
	Semesters    []SemesterDoc `json:"semesters"`
	LastSemester *SemesterDoc  `json:"last_semester"`
	LastModule   *ModuleDoc    `json:"last_module"`
	LastEntry    *EntryDoc     `json:"last_entry"`
}

// Doc encodes the entry.
func (e *Entry) Doc() EntryDoc {
	return EntryDoc{
		ID:         e.ID,
		Category:   e.Category,
		Comment:    e.Comment,
		StartTime:  newTimestamp(&e.StartTime),
		StopTime:   newTimestamp(e.StopTime),
		ExternalID: e.ExternalID,
	}
}

// EntryFromDoc decodes an entry. A missing identifier is replaced by a
// fresh one.
func EntryFromDoc(d EntryDoc) *Entry {
	e := &Entry{
		ID:         d.ID,
		Category:   d.Category,
		Comment:    d.Comment,
		StartTime:  d.StartTime.value(),
		StopTime:   d.StopTime.ptr(),
		ExternalID: d.ExternalID,
	}
	if e.ID == "" {
		e.ID = newID()
	}
	return e
}

// Doc encodes the module and its entries.
func (m *Module) Doc() ModuleDoc {
	entries := make([]EntryDoc, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e.Doc())
	}
	return ModuleDoc{
		ID:         m.ID,
		Name:       m.Name,
		ECTS:       m.ECTS,
		Start:      newTimestamp(&m.Start),
		PlannedEnd: newTimestamp(&m.PlannedEnd),
		Stop:       newTimestamp(m.Stop),
		Entries:    entries,
	}
}

// ModuleFromDoc decodes a module and its entries.
func ModuleFromDoc(d ModuleDoc) *Module {
	m := &Module{
		ID:         d.ID,
		Name:       d.Name,
		ECTS:       d.ECTS,
		Start:      d.Start.value(),
		PlannedEnd: d.PlannedEnd.value(),
		Stop:       d.Stop.ptr(),
	}
	if m.ID == "" {
		m.ID = newID()
	}
	for _, ed := range d.Entries {
		m.appendEntry(EntryFromDoc(ed))
	}
	return m
}

// Doc encodes the semester and its modules.
func (s *Semester) Doc() SemesterDoc {
	modules := make([]ModuleDoc, 0, len(s.modules))
	for _, m := range s.modules {
		modules = append(modules, m.Doc())
	}
	return SemesterDoc{
		ID:         s.ID,
		Name:       s.Name,
		ECTS:       s.ECTS,
		PlannedEnd: newTimestamp(s.PlannedEnd),
		Modules:    modules,
	}
}

// SemesterFromDoc decodes a semester and its modules.
func SemesterFromDoc(d SemesterDoc) *Semester {
	s := NewSemester(d.Name)
	if d.ID != "" {
		s.ID = d.ID
	}
	s.ECTS = d.ECTS
	s.PlannedEnd = d.PlannedEnd.ptr()
	for _, md := range d.Modules {
		s.AddModule(ModuleFromDoc(md))
	}
	return s
}

// Doc encodes the whole study. The last tracked triple is written as full
// copies of the entities it resolves to.
func (s *Study) Doc() StudyDoc {
	semesters := make([]SemesterDoc, 0, len(s.semesters))
	for _, sem := range s.semesters {
		semesters = append(semesters, sem.Doc())
	}
	d := StudyDoc{
		ECTS:         s.ECTS,
		HoursPerECTS: s.HoursPerECTS,
		PlannedEnd:   newTimestamp(&s.PlannedEnd),
		Semesters:    semesters,
	}
	if sem, m, e, ok := s.LastTracked(); ok {
		sd, md, ed := sem.Doc(), m.Doc(), e.Doc()
		d.LastSemester, d.LastModule, d.LastEntry = &sd, &md, &ed
	}
	return d
}

// StudyFromDoc decodes a study. The last tracked triple is restored from
// the identifiers of the embedded copies, so it resolves to the entities
// inside the decoded tree.
func StudyFromDoc(d StudyDoc) *Study {
	s := NewStudy(d.ECTS, d.HoursPerECTS, d.PlannedEnd.value())
	for _, sd := range d.Semesters {
		s.AddSemester(SemesterFromDoc(sd))
	}
	if d.LastSemester != nil && d.LastModule != nil && d.LastEntry != nil {
		s.last = lastTracked{
			semesterID: d.LastSemester.ID,
			moduleID:   d.LastModule.ID,
			entryID:    d.LastEntry.ID,
		}
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (s *Study) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Doc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Study) UnmarshalJSON(data []byte) error {
	var d StudyDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decoding study: %w", err)
	}
	defaults := s.ModuleDefaults
	*s = *StudyFromDoc(d)
	if defaults != (ModuleDefaults{}) {
		s.ModuleDefaults = defaults
	}
	return nil
}
