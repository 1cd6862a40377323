// Package tracker implements the tracking session on top of a study: the
// Idle/Tracking state machine, the periodic elapsed-time notifier and the
// operations a front end needs to inspect and edit the study.
package tracker

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
)

// DefaultInterval is the notifier period.
const DefaultInterval = time.Second

// Settings is the persistent key/value store used for the last used file.
type Settings interface {
	Get(key string, def any) any
	Set(key string, value any) error
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the notifier period.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithStatusSink registers fn for elapsed-time notifications. A zero
// duration signals that tracking stopped. fn runs on the notifier
// goroutine and must not call StopTracking, ToggleTracking, CreateNewStudy
// or ImportJSON directly: they wait for that goroutine to finish. Start a
// new goroutine for such calls.
func WithStatusSink(fn func(elapsed time.Duration)) Option {
	return func(t *Tracker) { t.statusSinks = append(t.statusSinks, fn) }
}

// WithRefreshSink registers fn for structural changes of the study.
func WithRefreshSink(fn func()) Option {
	return func(t *Tracker) { t.refreshSinks = append(t.refreshSinks, fn) }
}

// WithSettings sets the store consulted by ExportJSON and ImportJSON.
func WithSettings(s Settings) Option {
	return func(t *Tracker) { t.settings = s }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithModuleDefaults sets the defaults applied to studies created or
// imported by the tracker.
func WithModuleDefaults(d model.ModuleDefaults) Option {
	return func(t *Tracker) { t.defaults = d }
}

// StatusChannel returns an option delivering status notifications on a
// channel with the given buffer. Notifications are dropped while the buffer
// is full.
func StatusChannel(buffer int) (Option, <-chan time.Duration) {
	ch := make(chan time.Duration, buffer)
	return WithStatusSink(func(d time.Duration) {
		select {
		case ch <- d:
		default:
		}
	}), ch
}

// Row is one line of FilteredDataList.
type Row struct {
	Semester *model.Semester
	Module   *model.Module
	Entry    *model.Entry
}

// Parameters are the study-level settings.
type Parameters struct {
	ECTS         int
	HoursPerECTS int
	PlannedEnd   time.Time
}

// LastInfo names the most recently stopped tracking session.
type LastInfo struct {
	Semester string
	Module   string
	Category string
	Comment  string
}

type session struct {
	semester *model.Semester
	module   *model.Module
	entry    *model.Entry
}

// Tracker owns a study and at most one running tracking session. It is
// safe for concurrent use.
type Tracker struct {
	mu       sync.Mutex
	study    *model.Study
	current  *session
	notifier *notifier

	interval     time.Duration
	statusSinks  []func(time.Duration)
	refreshSinks []func()
	settings     Settings
	logger       zerolog.Logger
	defaults     model.ModuleDefaults
}

// New creates an idle tracker for study.
func New(study *model.Study, opts ...Option) *Tracker {
	t := &Tracker{
		study:    study,
		interval: DefaultInterval,
		logger:   zerolog.Nop(),
		defaults: model.DefaultModuleDefaults,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.study.ModuleDefaults = t.defaults
	return t
}

// Study returns the tracked study.
func (t *Tracker) Study() *model.Study {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study
}

// IsTracking reports whether a session is running.
func (t *Tracker) IsTracking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current != nil
}

// Current returns the running session.
func (t *Tracker) Current() (*model.Semester, *model.Module, *model.Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil, nil, nil, false
	}
	return t.current.semester, t.current.module, t.current.entry, true
}

// StartTracking upserts semester and module, starts a new entry and the
// notifier. It fails with model.ErrInvalidState while a session runs.
func (t *Tracker) StartTracking(semester, module, category, comment string) (*model.Entry, error) {
	t.mu.Lock()
	if t.current != nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: tracking is already active", model.ErrInvalidState)
	}
	sem, mod, e := t.study.AddEntry(semester, module, category, comment)
	t.attach(&session{semester: sem, module: mod, entry: e})
	t.mu.Unlock()

	t.logger.Info().
		Str("semester", semester).
		Str("module", module).
		Str("category", category).
		Msg("tracking started")
	return e, nil
}

// ResumeRunning attaches the session to the most recently started entry
// that has no stop time, e.g. after importing a study saved while tracking.
// It reports whether such an entry exists.
func (t *Tracker) ResumeRunning() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		return false, fmt.Errorf("%w: tracking is already active", model.ErrInvalidState)
	}
	sem, mod, e, ok := t.study.ActiveEntry()
	if !ok {
		return false, nil
	}
	t.attach(&session{semester: sem, module: mod, entry: e})
	t.logger.Debug().Str("entry", e.ID).Msg("resumed running entry")
	return true, nil
}

// attach must be called with t.mu held.
func (t *Tracker) attach(s *session) {
	t.current = s
	t.notifier = startNotifier(t.interval, t.tick)
}

// StopTracking stops the running entry, records it as last tracked and
// emits a final zero status. It fails with model.ErrInvalidState when idle.
func (t *Tracker) StopTracking() (*model.Entry, error) {
	t.mu.Lock()
	if t.current == nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: currently no tracking is active", model.ErrInvalidState)
	}
	cur := t.current
	d := cur.entry.Stop()
	t.study.SetLastTracked(cur.semester, cur.module, cur.entry)
	t.current = nil
	n := t.notifier
	t.notifier = nil
	t.mu.Unlock()

	n.cancel()
	t.emitStatus(0)

	t.logger.Info().
		Str("semester", cur.semester.Name).
		Str("module", cur.module.Name).
		Str("category", cur.entry.Category).
		Dur("duration", d).
		Msg("tracking stopped")
	return cur.entry, nil
}

// ToggleTracking stops a running session or starts a new one and then
// emits a refresh notification.
func (t *Tracker) ToggleTracking(semester, module, category, comment string) (started bool, err error) {
	if t.IsTracking() {
		_, err = t.StopTracking()
	} else {
		_, err = t.StartTracking(semester, module, category, comment)
		started = err == nil
	}
	if err != nil {
		return false, err
	}
	t.emitRefresh()
	return started, nil
}

func (t *Tracker) tick() {
	t.mu.Lock()
	cur := t.current
	var elapsed time.Duration
	if cur != nil {
		elapsed = timecalc.Now().Sub(cur.entry.StartTime)
	}
	t.mu.Unlock()

	if cur == nil {
		return
	}
	t.logger.Debug().Dur("elapsed", elapsed).Msg("tick")
	t.emitStatus(elapsed)
}

func (t *Tracker) emitStatus(d time.Duration) {
	for _, fn := range t.statusSinks {
		fn(d)
	}
}

func (t *Tracker) emitRefresh() {
	for _, fn := range t.refreshSinks {
		fn()
	}
}

// FinishModule marks the named module as finished now.
func (t *Tracker) FinishModule(semester, module string) error {
	t.mu.Lock()
	mod, err := t.module(semester, module)
	if err == nil {
		mod.FinishModule()
	}
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.logger.Info().Str("semester", semester).Str("module", module).Msg("module finished")
	t.emitRefresh()
	return nil
}

func (t *Tracker) module(semester, module string) (*model.Module, error) {
	sem := t.study.Semester(semester)
	if sem == nil {
		return nil, fmt.Errorf("semester %q: %w", semester, model.ErrNotFound)
	}
	mod := sem.Module(module)
	if mod == nil {
		return nil, fmt.Errorf("module %q in semester %q: %w", module, semester, model.ErrNotFound)
	}
	return mod, nil
}

// AddNewEntry upserts semester and module and adds an entry with the given
// times. stop may be nil for a running entry.
func (t *Tracker) AddNewEntry(semester, module, category, comment string, start time.Time, stop *time.Time) (*model.Entry, error) {
	t.mu.Lock()
	sem, mod, e := t.study.AddEntry(semester, module, category, comment)
	if err := e.SetTimes(start, stop); err != nil {
		// Drops semester and module again when they were just created.
		_ = t.study.RemoveEntry(sem, mod, e)
		t.mu.Unlock()
		return nil, err
	}
	t.mu.Unlock()

	t.emitRefresh()
	return e, nil
}

// RemoveEntry removes e and cascades to empty containers. The running entry
// cannot be removed.
func (t *Tracker) RemoveEntry(sem *model.Semester, mod *model.Module, e *model.Entry) error {
	t.mu.Lock()
	if t.current != nil && t.current.entry.ID == e.ID {
		t.mu.Unlock()
		return fmt.Errorf("%w: entry %s is being tracked", model.ErrInvalidState, e.ID)
	}
	err := t.study.RemoveEntry(sem, mod, e)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	t.logger.Info().Str("entry", e.ID).Msg("entry removed")
	t.emitRefresh()
	return nil
}

// EntryEdit carries the edited fields of an entry and optional overrides
// for its target module.
type EntryEdit struct {
	Semester string
	Module   string
	Category string
	Comment  string
	Start    time.Time
	Stop     *time.Time

	ModuleStart   *time.Time
	ModuleStop    *time.Time
	ECTS          *int
	DurationWeeks *int
}

// EditFrom returns an edit that leaves e unchanged.
func EditFrom(sem *model.Semester, mod *model.Module, e *model.Entry) EntryEdit {
	return EntryEdit{
		Semester: sem.Name,
		Module:   mod.Name,
		Category: e.Category,
		Comment:  e.Comment,
		Start:    e.StartTime,
		Stop:     e.StopTime,
	}
}

// EditEntry replaces e by a new entry built from edit and removes e. The
// replacement gets a new identifier. Module overrides apply to the module
// holding the replacement.
func (t *Tracker) EditEntry(sem *model.Semester, mod *model.Module, e *model.Entry, edit EntryEdit) (*model.Entry, error) {
	if edit.Stop != nil && edit.Stop.Before(edit.Start) {
		return nil, fmt.Errorf("%w: stop time %s before start time %s", model.ErrInvalidValue,
			timecalc.FormatISO(*edit.Stop), timecalc.FormatISO(edit.Start))
	}

	t.mu.Lock()
	if t.current != nil && t.current.entry.ID == e.ID {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: entry %s is being tracked", model.ErrInvalidState, e.ID)
	}
	if owner, _, found := t.study.FindEntry(e.ID); found == nil || owner.ID != sem.ID {
		t.mu.Unlock()
		return nil, fmt.Errorf("entry %s: %w", e.ID, model.ErrNotFound)
	}
	_, _, lastEntry, hadLast := t.study.LastTracked()

	newSem, newMod, newEntry := t.study.AddEntry(edit.Semester, edit.Module, edit.Category, edit.Comment)
	_ = newEntry.SetTimes(edit.Start, edit.Stop)
	newEntry.ExternalID = e.ExternalID
	if err := t.study.RemoveEntry(sem, mod, e); err != nil {
		_ = t.study.RemoveEntry(newSem, newMod, newEntry)
		t.mu.Unlock()
		return nil, err
	}
	if hadLast && lastEntry.ID == e.ID {
		t.study.SetLastTracked(newSem, newMod, newEntry)
	}

	if edit.ModuleStart != nil {
		weeks := newMod.DurationWeeks()
		newMod.Start = timecalc.Normalize(*edit.ModuleStart)
		newMod.SetDurationWeeks(weeks)
	}
	if edit.DurationWeeks != nil {
		newMod.SetDurationWeeks(*edit.DurationWeeks)
	}
	if edit.ModuleStop != nil {
		stop := timecalc.Normalize(*edit.ModuleStop)
		newMod.Stop = &stop
	}
	if edit.ECTS != nil {
		newMod.ECTS = *edit.ECTS
	}
	t.mu.Unlock()

	t.logger.Info().Str("old", e.ID).Str("new", newEntry.ID).Msg("entry edited")
	t.emitRefresh()
	return newEntry, nil
}

// Semester returns the first semester with the name, or nil.
func (t *Tracker) Semester(name string) *model.Semester {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Semester(name)
}

// Semesters returns all semesters in order.
func (t *Tracker) Semesters() []*model.Semester {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Semesters()
}

// SemesterNames returns the names of all semesters in order.
func (t *Tracker) SemesterNames() []string {
	var names []string
	for _, s := range t.Semesters() {
		names = append(names, s.Name)
	}
	return names
}

// Modules returns the modules of the semesters whose name contains semester.
func (t *Tracker) Modules(semester string) []*model.Module {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Modules(semester)
}

// ModuleNames returns the names of Modules(semester).
func (t *Tracker) ModuleNames(semester string) []string {
	var names []string
	for _, m := range t.Modules(semester) {
		names = append(names, m.Name)
	}
	return names
}

// CategoryNames returns the distinct categories below the matching
// semesters and modules.
func (t *Tracker) CategoryNames(semester, module string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Categories(semester, module)
}

// FilteredDataList returns every entry whose semester name, module name and
// category start with the respective filter. Empty filters match all.
func (t *Tracker) FilteredDataList(semester, module, category string) []Row {
	t.mu.Lock()
	defer t.mu.Unlock()

	var rows []Row
	for _, sem := range t.study.Semesters() {
		if !strings.HasPrefix(sem.Name, semester) {
			continue
		}
		for _, mod := range sem.Modules() {
			if !strings.HasPrefix(mod.Name, module) {
				continue
			}
			for _, e := range mod.Entries() {
				if !strings.HasPrefix(e.Category, category) {
					continue
				}
				rows = append(rows, Row{Semester: sem, Module: mod, Entry: e})
			}
		}
	}
	return rows
}

// StudyParameters returns the study-level settings.
func (t *Tracker) StudyParameters() Parameters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Parameters{
		ECTS:         t.study.ECTS,
		HoursPerECTS: t.study.HoursPerECTS,
		PlannedEnd:   t.study.PlannedEnd,
	}
}

// LastTrackingInformation names the most recently stopped session.
func (t *Tracker) LastTrackingInformation() (LastInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sem, mod, e, ok := t.study.LastTracked()
	if !ok {
		return LastInfo{}, false
	}
	return LastInfo{Semester: sem.Name, Module: mod.Name, Category: e.Category, Comment: e.Comment}, true
}

// ObjectID returns the kind-tagged identifier of a semester, module or entry.
func (t *Tracker) ObjectID(obj any) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.ObjectID(obj)
}

// ObjectByID resolves a kind-tagged identifier below parent, or in the whole
// study when parent is nil. Unknown identifiers yield nil without error.
func (t *Tracker) ObjectByID(ref string, parent any) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.study.Lookup(ref, parent)
}

// CreateNewStudy stops a running session and replaces the study.
func (t *Tracker) CreateNewStudy(ects, hoursPerECTS int, plannedEnd time.Time) error {
	if t.IsTracking() {
		if _, err := t.StopTracking(); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.study = model.NewStudy(ects, hoursPerECTS, timecalc.Normalize(plannedEnd))
	t.study.ModuleDefaults = t.defaults
	t.mu.Unlock()

	t.logger.Info().Int("ects", ects).Int("hours_per_ects", hoursPerECTS).Msg("new study created")
	t.emitRefresh()
	return nil
}

// UpdateStudy overwrites the study-level settings.
func (t *Tracker) UpdateStudy(ects, hoursPerECTS int, plannedEnd time.Time) {
	t.mu.Lock()
	t.study.ECTS = ects
	t.study.HoursPerECTS = hoursPerECTS
	t.study.PlannedEnd = timecalc.Normalize(plannedEnd)
	t.mu.Unlock()
	t.emitRefresh()
}

// UpdateSemester sets a semester field from its text form. field is "ECTS"
// (an integer) or "plannedEnd" (one of timecalc.DateFormats).
func (t *Tracker) UpdateSemester(sem *model.Semester, field, value string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.study.FindSemester(sem.ID) == nil {
		return fmt.Errorf("semester %q: %w", sem.Name, model.ErrNotFound)
	}

	switch field {
	case "ECTS":
		ects, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: ECTS must be an integer, got %q", model.ErrInvalidValue, value)
		}
		sem.ECTS = ects
	case "plannedEnd":
		d, err := timecalc.ParseDate(value)
		if err != nil {
			return fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
		}
		sem.PlannedEnd = &d
	default:
		return fmt.Errorf("%w: unknown semester field %q", model.ErrInvalidArgument, field)
	}
	return nil
}
