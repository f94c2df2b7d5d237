package task

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

func validTask() model.Task {
	return model.Task{
		ID: "t1", ChildID: "c1", Title: "Homework", Points: 10,
		DueDate:  time.Date(2026, 2, 5, 17, 0, 0, 0, time.UTC),
		Category: model.CategoryHomework, Priority: model.PriorityHigh,
	}
}

func TestComputeStatus(t *testing.T) {
	due := time.Date(2026, 2, 5, 17, 0, 0, 0, time.UTC)
	completedAt := due

	tests := []struct {
		name      string
		completed bool
		now       time.Time
		want      Status
	}{
		{"before due day", false, time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC), StatusPending},
		{"due today, after due hour", false, time.Date(2026, 2, 5, 22, 0, 0, 0, time.UTC), StatusPending},
		{"day after", false, time.Date(2026, 2, 6, 0, 30, 0, 0, time.UTC), StatusOverdue},
		{"completed late", true, time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC), StatusCompleted},
	}

	for _, tt := range tests {
		tk := validTask()
		tk.DueDate = due
		tk.Completed = tt.completed
		if tt.completed {
			tk.CompletedAt = &completedAt
		}
		if got := ComputeStatus(tk, tt.now); got != tt.want {
			t.Errorf("%s: status = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsDueOnDate(t *testing.T) {
	tk := validTask()
	if !IsDueOnDate(tk, time.Date(2026, 2, 5, 1, 0, 0, 0, time.UTC)) {
		t.Error("expected due on Feb 5")
	}
	if IsDueOnDate(tk, time.Date(2026, 2, 6, 1, 0, 0, 0, time.UTC)) {
		t.Error("not due on Feb 6")
	}
}

func TestAnnotate(t *testing.T) {
	weekly := validTask()
	weekly.Recurrence = model.RecurrenceWeekly
	once := validTask()
	once.ID = "t2"

	out := Annotate([]model.Task{weekly, once}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if len(out) != 2 {
		t.Fatalf("got %d, want 2", len(out))
	}
	if out[0].Schedule != "Repeats weekly" {
		t.Errorf("schedule = %q, want %q", out[0].Schedule, "Repeats weekly")
	}
	if out[1].Schedule != "" {
		t.Errorf("one-off schedule = %q, want empty", out[1].Schedule)
	}
	if out[0].Status != StatusPending {
		t.Errorf("status = %q, want pending", out[0].Status)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(validTask()); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*model.Task)
	}{
		{"empty title", func(t *model.Task) { t.Title = "  " }},
		{"no child", func(t *model.Task) { t.ChildID = "" }},
		{"zero points", func(t *model.Task) { t.Points = 0 }},
		{"no due date", func(t *model.Task) { t.DueDate = time.Time{} }},
		{"bad category", func(t *model.Task) { t.Category = "errands" }},
		{"bad priority", func(t *model.Task) { t.Priority = "urgent" }},
		{"bad recurrence", func(t *model.Task) { t.Recurrence = "yearly" }},
		{"custom without config", func(t *model.Task) { t.Recurrence = model.RecurrenceCustom }},
		{"custom zero interval", func(t *model.Task) {
			t.Recurrence = model.RecurrenceCustom
			t.CustomRecurrence = &model.CustomRecurrence{Unit: model.UnitDays}
		}},
	}

	for _, tt := range tests {
		tk := validTask()
		tt.mutate(&tk)
		if err := Validate(tk); !errors.Is(err, model.ErrValidation) {
			t.Errorf("%s: err = %v, want ErrValidation", tt.name, err)
		}
	}
}
