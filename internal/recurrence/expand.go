package recurrence

import (
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/model"
)

// Safety limit to prevent unbounded series.
const maxIterations = 10000

// step advances base by one interval. Month steps clamp to the last day of
// the target month, so Jan 31 becomes Feb 29 and then Mar 29.
func (r Rule) step(base time.Time) time.Time {
	n := max(r.Interval, 1)
	switch r.Freq {
	case Daily:
		return base.AddDate(0, 0, n)
	case Weekly:
		return base.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonthsClamped(base, n)
	}
	return time.Time{}
}

// Next returns the occurrence after base, given that produced occurrences
// (including the original) already exist. ok is false when the series has
// ended by count or end date.
func (r Rule) Next(base time.Time, produced int) (time.Time, bool) {
	return r.bounded(r.step(base), produced)
}

func (r Rule) bounded(next time.Time, produced int) (time.Time, bool) {
	if r.Count > 0 && produced >= r.Count {
		return time.Time{}, false
	}
	if r.Until != nil && next.After(*r.Until) {
		return time.Time{}, false
	}
	return next, true
}

// Expand lists the series starting at anchor, stopping at the rule's end
// conditions or after limit entries (limit <= 0 means the safety limit).
func Expand(rule Rule, anchor time.Time, limit int) []time.Time {
	if limit <= 0 || limit > maxIterations {
		limit = maxIterations
	}
	out := []time.Time{anchor}
	for len(out) < limit {
		next, ok := rule.Next(out[len(out)-1], len(out))
		if !ok {
			break
		}
		out = append(out, next)
	}
	return out
}

// NextTask builds the successor of a recurring task, or returns ok=false when
// the task does not recur or its series has ended.
func NextTask(t model.Task, now time.Time) (model.Task, bool, error) {
	rule, recurring, err := FromTask(t.Recurrence, t.CustomRecurrence)
	if err != nil || !recurring {
		return model.Task{}, false, err
	}

	anchor := t.SeriesStart
	if anchor.IsZero() {
		anchor = t.DueDate
	}
	produced := max(t.Occurrence, 1)
	due, ok := rule.Next(t.DueDate, produced)
	if !ok {
		return model.Task{}, false, nil
	}

	next := model.Task{
		ID:          uuid.NewString(),
		FamilyID:    t.FamilyID,
		ChildID:     t.ChildID,
		AssignedBy:  t.AssignedBy,
		Title:       t.Title,
		Description: t.Description,
		Points:      t.Points,
		DueDate:     due,
		Category:    t.Category,
		Priority:    t.Priority,
		Recurrence:  t.Recurrence,
		SeriesID:    t.SeriesID,
		SeriesStart: anchor,
		Occurrence:  produced + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.CustomRecurrence != nil {
		cr := *t.CustomRecurrence
		next.CustomRecurrence = &cr
	}
	if next.SeriesID == "" {
		next.SeriesID = t.ID
	}
	return next, true, nil
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	ty, tm, _ := target.Date()
	if last := daysInMonth(ty, tm); day > last {
		day = last
	}
	return time.Date(ty, tm, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
