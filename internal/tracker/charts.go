package tracker

import (
	"fmt"
	"sort"
	"time"

	"github.com/Tiliavir/study-time-tracker/internal/chart"
	"github.com/Tiliavir/study-time-tracker/internal/model"
)

// durationScope is implemented by Study, Semester and Module.
type durationScope interface {
	Durations() ([]model.NamedDuration, time.Duration)
}

// GenerateChart computes a chart for scope, which is a *model.Study,
// *model.Semester or *model.Module.
func (t *Tracker) GenerateChart(scope any, kind chart.Kind) (chart.Chart, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch kind {
	case chart.KindPie:
		ds, ok := scope.(durationScope)
		if !ok || isNilScope(scope) {
			return nil, fmt.Errorf("%w: cannot chart %T", model.ErrInvalidArgument, scope)
		}
		items, _ := ds.Durations()
		labels := make([]string, len(items))
		values := make([]float64, len(items))
		for i, it := range items {
			labels[i] = it.Name
			values[i] = it.Duration.Seconds()
		}
		return chart.New(kind, chart.Data{Labels: labels, Values: values})

	case chart.KindBurndown:
		data, err := burndownData(scope)
		if err != nil {
			return nil, err
		}
		return chart.New(kind, data)
	}
	return nil, fmt.Errorf("chart type %q is not supported", kind)
}

func isNilScope(scope any) bool {
	switch s := scope.(type) {
	case *model.Study:
		return s == nil
	case *model.Semester:
		return s == nil
	case *model.Module:
		return s == nil
	}
	return false
}

// burndownData burns down credits: every finished module contributes its
// ECTS at its stop time, starting from the earliest module start.
func burndownData(scope any) (chart.Data, error) {
	var modules []*model.Module
	var total float64
	switch s := scope.(type) {
	case *model.Study:
		modules = s.Modules("")
		total = float64(s.ECTS)
	case *model.Semester:
		modules = s.Modules()
		for _, m := range modules {
			total += float64(m.ECTS)
		}
	case *model.Module:
		return chart.Data{}, fmt.Errorf("burndown for a single module: %w", chart.ErrEmptyData)
	default:
		return chart.Data{}, fmt.Errorf("%w: cannot chart %T", model.ErrInvalidArgument, scope)
	}
	if len(modules) == 0 {
		return chart.Data{}, chart.ErrEmptyData
	}

	first := modules[0].Start
	plannedEnd := modules[0].PlannedEnd
	var finished []chart.Point
	for _, m := range modules {
		if m.Start.Before(first) {
			first = m.Start
		}
		if m.PlannedEnd.After(plannedEnd) {
			plannedEnd = m.PlannedEnd
		}
		if m.Stop != nil {
			finished = append(finished, chart.Point{Date: *m.Stop, Value: float64(m.ECTS)})
		}
	}
	sort.SliceStable(finished, func(i, j int) bool { return finished[i].Date.Before(finished[j].Date) })

	points := append([]chart.Point{{Date: first}}, finished...)
	return chart.Data{Points: points, Total: total, PlannedEnd: plannedEnd}, nil
}
