package recurrence

import (
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func TestFromTaskStandardTags(t *testing.T) {
	tests := []struct {
		tag  model.Recurrence
		freq Freq
	}{
		{model.RecurrenceDaily, Daily},
		{model.RecurrenceWeekly, Weekly},
		{model.RecurrenceMonthly, Monthly},
	}

	for _, tt := range tests {
		r, ok, err := FromTask(tt.tag, nil)
		if err != nil || !ok {
			t.Errorf("FromTask(%q) = ok %v, err %v", tt.tag, ok, err)
			continue
		}
		if r.Freq != tt.freq || r.Interval != 1 {
			t.Errorf("FromTask(%q) = %+v, want Freq=%v Interval=1", tt.tag, r, tt.freq)
		}
	}
}

func TestFromTaskIgnoresCustomUnlessTagged(t *testing.T) {
	custom := &model.CustomRecurrence{Unit: model.UnitDays, Interval: 3, MaxOccurrences: 2}
	r, ok, err := FromTask(model.RecurrenceWeekly, custom)
	if err != nil || !ok {
		t.Fatalf("FromTask: ok %v err %v", ok, err)
	}
	if r.Freq != Weekly || r.Interval != 1 || r.Count != 0 {
		t.Errorf("custom config leaked into weekly rule: %+v", r)
	}
}

func TestFromTaskNone(t *testing.T) {
	_, ok, err := FromTask(model.RecurrenceNone, nil)
	if err != nil || ok {
		t.Errorf("FromTask(none) = ok %v, err %v; want false, nil", ok, err)
	}
}

func TestFromTaskErrors(t *testing.T) {
	tests := []struct {
		tag    model.Recurrence
		custom *model.CustomRecurrence
	}{
		{model.RecurrenceCustom, nil},
		{model.RecurrenceCustom, &model.CustomRecurrence{Unit: "years", Interval: 1}},
		{model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitDays, Interval: 0}},
		{model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitDays, Interval: 1, MaxOccurrences: -1}},
		{"hourly", nil},
	}

	for _, tt := range tests {
		if _, _, err := FromTask(tt.tag, tt.custom); err == nil {
			t.Errorf("FromTask(%q, %+v) should error", tt.tag, tt.custom)
		}
	}
}

func TestNextStandard(t *testing.T) {
	base := d(2024, 3, 10)
	tests := []struct {
		tag  model.Recurrence
		want time.Time
	}{
		{model.RecurrenceDaily, d(2024, 3, 11)},
		{model.RecurrenceWeekly, d(2024, 3, 17)},
		{model.RecurrenceMonthly, d(2024, 4, 10)},
	}

	for _, tt := range tests {
		r, _, _ := FromTask(tt.tag, nil)
		got, ok := r.Next(base, 1)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("%s Next = %v (ok %v), want %v", tt.tag, got, ok, tt.want)
		}
	}
}

func TestNextMonthlyLeapYearClamp(t *testing.T) {
	r, _, _ := FromTask(model.RecurrenceMonthly, nil)
	got, ok := r.Next(d(2024, 1, 31), 1)
	if !ok {
		t.Fatal("expected next occurrence")
	}
	if want := d(2024, 2, 29); !got.Equal(want) {
		t.Errorf("Next = %v, want %v", got, want)
	}

	got, _ = r.Next(d(2023, 1, 31), 1)
	if want := d(2023, 2, 28); !got.Equal(want) {
		t.Errorf("non-leap Next = %v, want %v", got, want)
	}
}

func TestNextCustomUnits(t *testing.T) {
	base := d(2024, 1, 31)
	tests := []struct {
		unit     model.RecurrenceUnit
		interval int
		want     time.Time
	}{
		{model.UnitDays, 3, d(2024, 2, 3)},
		{model.UnitWeeks, 2, d(2024, 2, 14)},
		{model.UnitMonths, 1, d(2024, 2, 29)},
		{model.UnitMonths, 3, d(2024, 4, 30)},
	}

	for _, tt := range tests {
		r, _, err := FromTask(model.RecurrenceCustom, &model.CustomRecurrence{Unit: tt.unit, Interval: tt.interval})
		if err != nil {
			t.Fatalf("FromTask: %v", err)
		}
		got, ok := r.Next(base, 1)
		if !ok || !got.Equal(tt.want) {
			t.Errorf("every %d %s: Next = %v (ok %v), want %v", tt.interval, tt.unit, got, ok, tt.want)
		}
	}
}

func TestExpandMonthlyStepsFromPreviousDate(t *testing.T) {
	r, _, _ := FromTask(model.RecurrenceMonthly, nil)
	got := Expand(r, d(2024, 1, 31), 4)
	want := []time.Time{d(2024, 1, 31), d(2024, 2, 29), d(2024, 3, 29), d(2024, 4, 29)}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("occ[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMaxOccurrencesTerminates(t *testing.T) {
	r, _, err := FromTask(model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitDays, Interval: 1, MaxOccurrences: 3})
	if err != nil {
		t.Fatalf("FromTask: %v", err)
	}

	occs := Expand(r, d(2024, 5, 1), 0)
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}

	if _, ok := r.Next(occs[2], 3); ok {
		t.Error("expected no occurrence after the third")
	}
}

func TestEndDateTerminates(t *testing.T) {
	end := d(2024, 5, 15)
	r, _, _ := FromTask(model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitWeeks, Interval: 1, EndDate: &end})

	occs := Expand(r, d(2024, 5, 1), 0)
	// May 1, 8, 15; May 22 is past the end date
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	if !occs[2].Equal(end) {
		t.Errorf("last occurrence = %v, want %v", occs[2], end)
	}
	if _, ok := r.Next(occs[2], 3); ok {
		t.Error("expected no occurrence after the end date")
	}
}

func TestEndDateAndCountFirstWins(t *testing.T) {
	end := d(2024, 12, 31)
	r, _, _ := FromTask(model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitMonths, Interval: 1, EndDate: &end, MaxOccurrences: 2})
	if occs := Expand(r, d(2024, 1, 1), 0); len(occs) != 2 {
		t.Errorf("got %d occurrences, want 2", len(occs))
	}
}

func TestExpandUnboundedHitsLimit(t *testing.T) {
	r, _, _ := FromTask(model.RecurrenceDaily, nil)
	if occs := Expand(r, d(2024, 1, 1), 10); len(occs) != 10 {
		t.Errorf("got %d occurrences, want 10", len(occs))
	}
}

func TestNextTask(t *testing.T) {
	now := d(2024, 1, 31)
	task := model.Task{
		ID:          "t1",
		FamilyID:    "f1",
		ChildID:     "c1",
		AssignedBy:  "p1",
		Title:       "Feed the cat",
		Description: "Wet food",
		Points:      15,
		DueDate:     d(2024, 1, 31),
		Completed:   true,
		CompletedAt: &now,
		Category:    model.CategoryChores,
		Priority:    model.PriorityHigh,
		Recurrence:  model.RecurrenceMonthly,
		Occurrence:  1,
	}

	next, ok, err := NextTask(task, now)
	if err != nil || !ok {
		t.Fatalf("NextTask: ok %v err %v", ok, err)
	}
	if next.ID == "" || next.ID == task.ID {
		t.Errorf("next task id = %q, want a fresh id", next.ID)
	}
	if !next.DueDate.Equal(d(2024, 2, 29)) {
		t.Errorf("due = %v, want 2024-02-29", next.DueDate)
	}
	if next.Completed || next.CompletedAt != nil {
		t.Error("next task should not be completed")
	}
	if next.Title != task.Title || next.Description != task.Description || next.ChildID != task.ChildID ||
		next.Points != task.Points || next.Category != task.Category || next.Priority != task.Priority ||
		next.Recurrence != task.Recurrence {
		t.Errorf("next task did not copy fields: %+v", next)
	}
	if next.SeriesID != "t1" || next.Occurrence != 2 || !next.SeriesStart.Equal(task.DueDate) {
		t.Errorf("series = %q/%d/%v, want t1/2/%v", next.SeriesID, next.Occurrence, next.SeriesStart, task.DueDate)
	}

	third, ok, _ := NextTask(next, now)
	if !ok || !third.DueDate.Equal(d(2024, 3, 29)) {
		t.Errorf("third due = %v (ok %v), want 2024-03-29", third.DueDate, ok)
	}
}

func TestNextTaskStepsFromCurrentDueDate(t *testing.T) {
	task := model.Task{
		ID:          "t1",
		DueDate:     d(2030, 1, 20),
		SeriesStart: d(2030, 1, 10),
		Recurrence:  model.RecurrenceDaily,
		Occurrence:  1,
	}

	next, ok, err := NextTask(task, task.DueDate)
	if err != nil || !ok {
		t.Fatalf("NextTask: ok %v err %v", ok, err)
	}
	if want := d(2030, 1, 21); !next.DueDate.Equal(want) {
		t.Errorf("due = %v, want %v", next.DueDate, want)
	}
}

func TestNextTaskSeriesEnds(t *testing.T) {
	task := model.Task{
		ID:               "t1",
		DueDate:          d(2024, 1, 1),
		Recurrence:       model.RecurrenceCustom,
		CustomRecurrence: &model.CustomRecurrence{Unit: model.UnitDays, Interval: 2, MaxOccurrences: 3},
		Occurrence:       1,
	}

	count := 1
	for {
		next, ok, err := NextTask(task, task.DueDate)
		if err != nil {
			t.Fatalf("NextTask: %v", err)
		}
		if !ok {
			break
		}
		count++
		task = next
		if count > 10 {
			t.Fatal("series did not terminate")
		}
	}
	if count != 3 {
		t.Errorf("series produced %d tasks, want 3", count)
	}
}

func TestNextTaskNotRecurring(t *testing.T) {
	_, ok, err := NextTask(model.Task{ID: "t1", DueDate: d(2024, 1, 1)}, d(2024, 1, 1))
	if err != nil || ok {
		t.Errorf("NextTask(non-recurring) = ok %v err %v", ok, err)
	}
}

func TestDescribe(t *testing.T) {
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		rule Rule
		want string
	}{
		{Rule{Freq: Daily, Interval: 1}, "Repeats daily"},
		{Rule{Freq: Weekly, Interval: 1}, "Repeats weekly"},
		{Rule{Freq: Weekly, Interval: 2}, "Repeats every 2 weeks"},
		{Rule{Freq: Monthly, Interval: 1}, "Repeats monthly"},
		{Rule{Freq: Daily, Interval: 3, Count: 5}, "Repeats every 3 days, 5 times"},
		{Rule{Freq: Monthly, Interval: 1, Until: &end}, "Repeats monthly, until Mar 1, 2026"},
	}

	for _, tt := range tests {
		if got := tt.rule.Describe(); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
