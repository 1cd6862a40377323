package tracker

import (
	"fmt"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/model"
)

// EntryByExternalID returns the first entry of the named module linked to
// externalID.
func (t *Tracker) EntryByExternalID(semester, module, externalID string) (Row, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if externalID == "" {
		return Row{}, false
	}
	mod, err := t.module(semester, module)
	if err != nil {
		return Row{}, false
	}
	for _, e := range mod.Entries() {
		if e.ExternalID == externalID {
			return Row{Semester: t.study.Semester(semester), Module: mod, Entry: e}, true
		}
	}
	return Row{}, false
}

// ImportEntry adds a stopped entry linked to externalID.
func (t *Tracker) ImportEntry(semester, module, category, comment string, start, stop time.Time, externalID string) (*model.Entry, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: empty external id", model.ErrInvalidArgument)
	}
	e, err := t.AddNewEntry(semester, module, category, comment, start, &stop)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	e.ExternalID = externalID
	t.mu.Unlock()
	return e, nil
}
