package task

import (
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

type WithStatus struct {
	model.Task
	Status   Status `json:"status"`
	Schedule string `json:"schedule,omitempty"`
}

// ComputeStatus derives a task's status at read time. A task is overdue once
// the calendar day of its due date has passed without completion.
func ComputeStatus(t model.Task, now time.Time) Status {
	if t.Completed {
		return StatusCompleted
	}
	if startOfDay(t.DueDate).Before(startOfDay(now.In(t.DueDate.Location()))) {
		return StatusOverdue
	}
	return StatusPending
}

// IsDueOnDate reports whether the task falls on the given calendar day.
func IsDueOnDate(t model.Task, date time.Time) bool {
	return startOfDay(t.DueDate).Equal(startOfDay(date.In(t.DueDate.Location())))
}

// Annotate attaches status and a schedule label to each task.
func Annotate(tasks []model.Task, now time.Time) []WithStatus {
	out := make([]WithStatus, 0, len(tasks))
	for _, t := range tasks {
		ws := WithStatus{Task: t, Status: ComputeStatus(t, now)}
		if rule, ok, err := recurrence.FromTask(t.Recurrence, t.CustomRecurrence); err == nil && ok {
			ws.Schedule = rule.Describe()
		}
		out = append(out, ws)
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
