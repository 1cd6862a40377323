package model

import (
	"slices"
	"time"
)

// NamedDuration is one aggregated duration record.
type NamedDuration struct {
	Name     string
	Duration time.Duration
}

// grouping sums durations per name, keeping first-seen order.
type grouping struct {
	items []NamedDuration
	total time.Duration
}

func (g *grouping) add(name string, d time.Duration) {
	g.total += d
	for i := range g.items {
		if g.items[i].Name == name {
			g.items[i].Duration += d
			return
		}
	}
	g.items = append(g.items, NamedDuration{Name: name, Duration: d})
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
