package tracker_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/study-time-tracker/internal/model"
	"github.com/Tiliavir/study-time-tracker/internal/timecalc"
	"github.com/Tiliavir/study-time-tracker/internal/tracker"
)

var epoch = time.Date(2026, 2, 27, 9, 0, 0, 0, time.Local)

func useClock(t *testing.T) *timecalc.TestClock {
	t.Helper()
	c := &timecalc.TestClock{CurrentTime: epoch}
	t.Cleanup(timecalc.SetClock(c))
	return c
}

func newTracker(t *testing.T, opts ...tracker.Option) *tracker.Tracker {
	t.Helper()
	tr := tracker.New(model.NewStudy(180, 30, epoch.AddDate(3, 0, 0)), opts...)
	t.Cleanup(func() {
		if tr.IsTracking() {
			_, _ = tr.StopTracking()
		}
	})
	return tr
}

func drain(ch <-chan time.Duration) []time.Duration {
	var out []time.Duration
	for {
		select {
		case d := <-ch:
			out = append(out, d)
		default:
			return out
		}
	}
}

func TestNotifierScenario(t *testing.T) {
	const interval = 100 * time.Millisecond
	status, ch := tracker.StatusChannel(32)
	tr := newTracker(t, tracker.WithInterval(interval), status)

	_, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	time.Sleep(interval*5/2 - 10*time.Millisecond)

	started, err := tr.ToggleTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	assert.False(t, started)

	events := drain(ch)
	ticks := make([]int, len(events))
	for i, d := range events {
		ticks[i] = int(math.Round(float64(d) / float64(interval)))
	}
	assert.Equal(t, []int{0, 1, 2, 0}, ticks)
	assert.Equal(t, time.Duration(0), events[len(events)-1])

	time.Sleep(2 * interval)
	assert.Empty(t, drain(ch), "no tick after stop")
}

func TestStateMachine(t *testing.T) {
	tr := newTracker(t)

	_, err := tr.StopTracking()
	assert.ErrorIs(t, err, model.ErrInvalidState)
	assert.False(t, tr.IsTracking())

	e, err := tr.StartTracking("S1", "M1", "cat", "note")
	require.NoError(t, err)
	assert.True(t, tr.IsTracking())
	assert.True(t, e.Running())

	_, err = tr.StartTracking("S1", "M1", "other", "")
	assert.ErrorIs(t, err, model.ErrInvalidState)

	sem, mod, cur, ok := tr.Current()
	require.True(t, ok)
	assert.Same(t, e, cur)
	assert.Equal(t, "S1", sem.Name)
	assert.Equal(t, "M1", mod.Name)

	stopped, err := tr.StopTracking()
	require.NoError(t, err)
	assert.Same(t, e, stopped)
	assert.False(t, e.Running())
	assert.False(t, tr.IsTracking())

	_, _, _, ok = tr.Current()
	assert.False(t, ok)

	_, err = tr.StopTracking()
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestStopRecordsLastTracked(t *testing.T) {
	tr := newTracker(t)

	_, ok := tr.LastTrackingInformation()
	assert.False(t, ok)

	_, err := tr.StartTracking("S1", "M1", "reading", "chapter 2")
	require.NoError(t, err)
	_, err = tr.StopTracking()
	require.NoError(t, err)

	info, ok := tr.LastTrackingInformation()
	require.True(t, ok)
	assert.Equal(t, tracker.LastInfo{Semester: "S1", Module: "M1", Category: "reading", Comment: "chapter 2"}, info)
}

func TestToggleEmitsRefresh(t *testing.T) {
	var refreshes int
	tr := newTracker(t, tracker.WithRefreshSink(func() { refreshes++ }))

	started, err := tr.ToggleTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	assert.True(t, started)
	assert.Equal(t, 1, refreshes)

	started, err = tr.ToggleTracking("", "", "", "")
	require.NoError(t, err)
	assert.False(t, started)
	assert.Equal(t, 2, refreshes)
}

func TestResumeRunning(t *testing.T) {
	study := model.NewStudy(180, 30, epoch)
	_, _, running := study.AddEntry("S1", "M1", "cat", "")
	tr := tracker.New(study)

	ok, err := tr.ResumeRunning()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = tr.ResumeRunning()
	assert.ErrorIs(t, err, model.ErrInvalidState)

	stopped, err := tr.StopTracking()
	require.NoError(t, err)
	assert.Same(t, running, stopped)
	assert.False(t, running.Running())

	ok, err = tr.ResumeRunning()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinishModule(t *testing.T) {
	useClock(t)
	tr := newTracker(t)
	_, err := tr.AddNewEntry("S1", "M1", "cat", "", epoch.Add(-time.Hour), &epoch)
	require.NoError(t, err)

	assert.ErrorIs(t, tr.FinishModule("S2", "M1"), model.ErrNotFound)
	assert.ErrorIs(t, tr.FinishModule("S1", "M2"), model.ErrNotFound)

	require.NoError(t, tr.FinishModule("S1", "M1"))
	mod := tr.Semester("S1").Module("M1")
	require.NotNil(t, mod.Stop)
	assert.Equal(t, epoch, *mod.Stop)
}

func TestAddNewEntry(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(90 * time.Minute)

	e, err := tr.AddNewEntry("S1", "M1", "exam prep", "", epoch, &stop)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, e.Duration())
	assert.Equal(t, []string{"S1"}, tr.SemesterNames())

	early := epoch.Add(-time.Minute)
	_, err = tr.AddNewEntry("S2", "M9", "cat", "", epoch, &early)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	assert.Equal(t, []string{"S1"}, tr.SemesterNames(), "failed add leaves no containers behind")
}

func TestRemoveEntry(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(time.Hour)
	e, err := tr.AddNewEntry("S1", "M1", "cat", "", epoch, &stop)
	require.NoError(t, err)

	running, err := tr.StartTracking("S1", "M2", "cat", "")
	require.NoError(t, err)
	sem := tr.Semester("S1")
	assert.ErrorIs(t, tr.RemoveEntry(sem, sem.Module("M2"), running), model.ErrInvalidState)

	require.NoError(t, tr.RemoveEntry(sem, sem.Module("M1"), e))
	assert.Equal(t, []string{"M2"}, tr.ModuleNames("S1"))
	assert.ErrorIs(t, tr.RemoveEntry(sem, sem.Module("M2"), e), model.ErrNotFound)
}

func TestEditEntry(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(time.Hour)
	old, err := tr.AddNewEntry("S1", "M1", "cat", "before", epoch, &stop)
	require.NoError(t, err)
	old.ExternalID = "evt-1"
	sem := tr.Semester("S1")
	mod := sem.Module("M1")

	edit := tracker.EditFrom(sem, mod, old)
	edit.Module = "M2"
	edit.Comment = "after"
	newStop := epoch.Add(2 * time.Hour)
	edit.Stop = &newStop
	moduleStart := epoch.AddDate(0, 0, -7)
	ects, weeks := 10, 3
	edit.ModuleStart = &moduleStart
	edit.ECTS = &ects
	edit.DurationWeeks = &weeks

	edited, err := tr.EditEntry(sem, mod, old, edit)
	require.NoError(t, err)

	assert.NotEqual(t, old.ID, edited.ID, "edit assigns a new identifier")
	assert.Equal(t, "after", edited.Comment)
	assert.Equal(t, "evt-1", edited.ExternalID)
	assert.Equal(t, 2*time.Hour, edited.Duration())

	got, err := tr.ObjectByID("entry:"+old.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got, "old entry is gone")

	assert.Nil(t, sem.Module("M1"), "emptied module is removed")
	target := sem.Module("M2")
	require.NotNil(t, target)
	assert.Equal(t, moduleStart, target.Start)
	assert.Equal(t, 10, target.ECTS)
	assert.Equal(t, 3, target.DurationWeeks())
}

func TestEditEntryKeepsLastTracked(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	e, err := tr.StopTracking()
	require.NoError(t, err)

	sem := tr.Semester("S1")
	edit := tracker.EditFrom(sem, sem.Module("M1"), e)
	edit.Category = "renamed"
	_, err = tr.EditEntry(sem, sem.Module("M1"), e, edit)
	require.NoError(t, err)

	info, ok := tr.LastTrackingInformation()
	require.True(t, ok)
	assert.Equal(t, "renamed", info.Category)
}

func TestEditEntryErrors(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(time.Hour)
	e, err := tr.AddNewEntry("S1", "M1", "cat", "", epoch, &stop)
	require.NoError(t, err)
	sem := tr.Semester("S1")
	mod := sem.Module("M1")

	edit := tracker.EditFrom(sem, mod, e)
	early := epoch.Add(-time.Hour)
	edit.Stop = &early
	_, err = tr.EditEntry(sem, mod, e, edit)
	assert.ErrorIs(t, err, model.ErrInvalidValue)
	assert.Len(t, mod.Entries(), 1, "rejected edit leaves the entry alone")

	_, err = tr.EditEntry(sem, mod, model.NewEntry("cat", ""), tracker.EditFrom(sem, mod, e))
	assert.ErrorIs(t, err, model.ErrNotFound)

	running, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	_, err = tr.EditEntry(sem, mod, running, tracker.EditFrom(sem, mod, running))
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestFilteredDataListUsesPrefix(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(time.Hour)
	for _, r := range [][3]string{
		{"WS 2025", "Analysis I", "lecture"},
		{"WS 2025", "Linear Algebra", "exercise"},
		{"SS 2026", "Analysis II", "lecture"},
	} {
		_, err := tr.AddNewEntry(r[0], r[1], r[2], "", epoch, &stop)
		require.NoError(t, err)
	}

	assert.Len(t, tr.FilteredDataList("", "", ""), 3)
	assert.Len(t, tr.FilteredDataList("WS", "", ""), 2)
	assert.Len(t, tr.FilteredDataList("", "Analysis", ""), 2)
	assert.Len(t, tr.FilteredDataList("", "", "lect"), 2)
	assert.Empty(t, tr.FilteredDataList("2025", "", ""), "filters are prefixes, not substrings")

	rows := tr.FilteredDataList("SS", "Analysis", "lecture")
	require.Len(t, rows, 1)
	assert.Equal(t, "SS 2026", rows[0].Semester.Name)
	assert.Equal(t, "Analysis II", rows[0].Module.Name)
	assert.Equal(t, "lecture", rows[0].Entry.Category)
}

func TestQueries(t *testing.T) {
	tr := newTracker(t)
	stop := epoch.Add(time.Hour)
	_, err := tr.AddNewEntry("WS 2025", "Analysis", "lecture", "", epoch, &stop)
	require.NoError(t, err)
	_, err = tr.AddNewEntry("WS 2025", "Algebra", "exercise", "", epoch, &stop)
	require.NoError(t, err)

	assert.Equal(t, []string{"WS 2025"}, tr.SemesterNames())
	assert.Len(t, tr.Semesters(), 1)
	assert.Equal(t, []string{"Analysis", "Algebra"}, tr.ModuleNames("WS 2025"))
	assert.Len(t, tr.Modules(""), 2)
	assert.Equal(t, []string{"lecture", "exercise"}, tr.CategoryNames("WS", ""))
	assert.Equal(t, []string{"exercise"}, tr.CategoryNames("", "Alg"))
	assert.Equal(t, tracker.Parameters{ECTS: 180, HoursPerECTS: 30, PlannedEnd: epoch.AddDate(3, 0, 0)}, tr.StudyParameters())
}

func TestObjectIdentity(t *testing.T) {
	tr := newTracker(t)
	e, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	sem := tr.Semester("S1")

	ref, err := tr.ObjectID(e)
	require.NoError(t, err)
	got, err := tr.ObjectByID(ref, sem)
	require.NoError(t, err)
	assert.Same(t, e, got)

	_, err = tr.ObjectID(tr.Study())
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestUpdateSemester(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)
	sem := tr.Semester("S1")

	tests := []struct {
		field   string
		value   string
		wantErr error
	}{
		{"ECTS", "30", nil},
		{"ECTS", " 25 ", nil},
		{"ECTS", "thirty", model.ErrInvalidValue},
		{"ECTS", "2.5", model.ErrInvalidValue},
		{"plannedEnd", "2026-09-30", nil},
		{"plannedEnd", "30.09.2026 18:00", nil},
		{"plannedEnd", "09/30/2026", model.ErrInvalidValue},
		{"name", "S2", model.ErrInvalidArgument},
	}
	for _, tt := range tests {
		err := tr.UpdateSemester(sem, tt.field, tt.value)
		if tt.wantErr != nil {
			assert.ErrorIs(t, err, tt.wantErr, "%s=%q", tt.field, tt.value)
			continue
		}
		assert.NoError(t, err, "%s=%q", tt.field, tt.value)
	}

	assert.Equal(t, 25, sem.ECTS)
	require.NotNil(t, sem.PlannedEnd)
	assert.Equal(t, time.Date(2026, 9, 30, 18, 0, 0, 0, time.Local), *sem.PlannedEnd)

	err = tr.UpdateSemester(sem, "plannedEnd", "someday")
	require.Error(t, err)
	for _, layout := range timecalc.DateFormats {
		assert.Contains(t, err.Error(), layout)
	}

	assert.ErrorIs(t, tr.UpdateSemester(model.NewSemester("S1"), "ECTS", "1"), model.ErrNotFound)
}

func TestCreateNewStudyStopsSession(t *testing.T) {
	tr := newTracker(t)
	e, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)

	require.NoError(t, tr.CreateNewStudy(90, 25, epoch))
	assert.False(t, tr.IsTracking())
	assert.False(t, e.Running())
	assert.Empty(t, tr.Semesters())
	assert.Equal(t, tracker.Parameters{ECTS: 90, HoursPerECTS: 25, PlannedEnd: epoch}, tr.StudyParameters())

	tr.UpdateStudy(120, 28, epoch.AddDate(1, 0, 0))
	assert.Equal(t, 120, tr.StudyParameters().ECTS)
	assert.Equal(t, 28, tr.StudyParameters().HoursPerECTS)
}

func TestModuleDefaultsApplyToNewModules(t *testing.T) {
	tr := newTracker(t, tracker.WithModuleDefaults(model.ModuleDefaults{ECTS: 8, DurationWeeks: 10}))
	_, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)

	mod := tr.Semester("S1").Module("M1")
	assert.Equal(t, 8, mod.ECTS)
	assert.Equal(t, 10, mod.DurationWeeks())
}

func TestStatusSinkStopsSessionAsynchronously(t *testing.T) {
	useClock(t)
	stopped := make(chan error, 1)
	var (
		mu   sync.Mutex
		seen []time.Duration
		once sync.Once
		tr   *tracker.Tracker
	)
	tr = newTracker(t, tracker.WithInterval(10*time.Millisecond), tracker.WithStatusSink(func(d time.Duration) {
		mu.Lock()
		seen = append(seen, d)
		mu.Unlock()
		once.Do(func() {
			go func() {
				_, err := tr.StopTracking()
				stopped <- err
			}()
		})
	}))

	_, err := tr.StartTracking("S1", "M1", "cat", "")
	require.NoError(t, err)

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("StopTracking started from a status sink did not return")
	}
	assert.False(t, tr.IsTracking())

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(seen), 2)
	assert.Equal(t, time.Duration(0), seen[len(seen)-1])
}
