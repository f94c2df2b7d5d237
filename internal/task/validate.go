package task

import (
	"fmt"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
)

// Validate checks the fields a parent supplies when creating or editing a task.
func Validate(t model.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if t.ChildID == "" {
		return fmt.Errorf("%w: assigned_to is required", model.ErrValidation)
	}
	if t.Points <= 0 {
		return fmt.Errorf("%w: points must be positive", model.ErrValidation)
	}
	if t.DueDate.IsZero() {
		return fmt.Errorf("%w: due_date is required", model.ErrValidation)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", model.ErrValidation, t.Category)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", model.ErrValidation, t.Priority)
	}
	if !t.Recurrence.Valid() {
		return fmt.Errorf("%w: unknown recurrence %q", model.ErrValidation, t.Recurrence)
	}
	if _, _, err := recurrence.FromTask(t.Recurrence, t.CustomRecurrence); err != nil {
		return fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	return nil
}
