// Package chart computes the data behind the pie and burndown charts.
// Rendering is left to the caller.
package chart

import (
	"errors"
	"fmt"
	"time"
)

// Kind selects a chart type.
type Kind string

const (
	KindPie      Kind = "pie"
	KindBurndown Kind = "burndown"
)

// ErrEmptyData is returned when there is nothing to chart.
var ErrEmptyData = errors.New("sum of sizes is zero")

// ParseKind validates a chart kind given by name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindPie, KindBurndown:
		return k, nil
	}
	return "", fmt.Errorf("chart type %q is not supported", s)
}

// Chart is implemented by Pie and Burndown.
type Chart interface {
	Kind() Kind
	Title() string
}

// Data is the input of New. Pie charts use Labels and Values, burndown
// charts use Points, Total and PlannedEnd.
type Data struct {
	Labels []string
	Values []float64

	Points     []Point
	Total      float64
	PlannedEnd time.Time
}

// New creates a chart of the given kind.
func New(kind Kind, d Data) (Chart, error) {
	switch kind {
	case KindPie:
		return NewPie(d.Labels, d.Values)
	case KindBurndown:
		return NewBurndown(d.Points, d.Total, d.PlannedEnd)
	}
	return nil, fmt.Errorf("chart type %q is not supported", kind)
}

// Pie holds the share of each label in percent.
type Pie struct {
	Labels  []string
	Percent []float64
}

// NewPie converts absolute sizes into percentages.
func NewPie(labels []string, sizes []float64) (*Pie, error) {
	if len(labels) != len(sizes) {
		return nil, fmt.Errorf("pie chart: %d labels for %d sizes", len(labels), len(sizes))
	}
	var sum float64
	for _, s := range sizes {
		sum += s
	}
	if sum == 0 {
		return nil, ErrEmptyData
	}
	p := &Pie{Labels: labels, Percent: make([]float64, len(sizes))}
	for i, s := range sizes {
		p.Percent[i] = 100 * s / sum
	}
	return p, nil
}

func (*Pie) Kind() Kind { return KindPie }
func (*Pie) Title() string { return "Pie Chart" }

// Legend returns "<label> - <percent>%" lines.
func (p *Pie) Legend() []string {
	out := make([]string, len(p.Labels))
	for i, l := range p.Labels {
		out[i] = fmt.Sprintf("%s - %.1f%%", l, p.Percent[i])
	}
	return out
}

// Point is a dated amount of work.
type Point struct {
	Date  time.Time
	Value float64
}

// Burndown holds the remaining work after each point and the straight plan
// line from the first date to the planned end.
type Burndown struct {
	Dates     []time.Time
	Remaining []float64
	PlanDates [2]time.Time
	PlanWork  [2]float64
}

// NewBurndown subtracts the work of each point from total in order.
func NewBurndown(done []Point, total float64, plannedEnd time.Time) (*Burndown, error) {
	if len(done) == 0 {
		return nil, ErrEmptyData
	}
	b := &Burndown{
		Dates:     make([]time.Time, len(done)),
		Remaining: make([]float64, len(done)),
		PlanDates: [2]time.Time{done[0].Date, plannedEnd},
		PlanWork:  [2]float64{total, 0},
	}
	remaining := total
	for i, p := range done {
		remaining -= p.Value
		b.Dates[i] = p.Date
		b.Remaining[i] = remaining
	}
	return b, nil
}

func (*Burndown) Kind() Kind { return KindBurndown }
func (*Burndown) Title() string { return "Burndown Chart" }

// PlanAt interpolates the plan line at t, clamped to the plan's range.
func (b *Burndown) PlanAt(t time.Time) float64 {
	start, end := b.PlanDates[0], b.PlanDates[1]
	span := end.Sub(start)
	switch {
	case !t.After(start) || span <= 0:
		return b.PlanWork[0]
	case !t.Before(end):
		return b.PlanWork[1]
	}
	frac := float64(t.Sub(start)) / float64(span)
	return b.PlanWork[0] + frac*(b.PlanWork[1]-b.PlanWork[0])
}
