package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
	"github.com/dukerupert/chorely/internal/store"
)

// Service applies ledger changes through the gateway as single atomic batches.
type Service struct {
	gw     *store.Gateway
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a ledger service that writes through gw.
func NewService(gw *store.Gateway, logger *slog.Logger) *Service {
	return &Service{gw: gw, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Toggle requests a completion state change. ExpectedVersion, when non-zero,
// is the task version the caller last saw. ChildID, when set, restricts the
// toggle to tasks assigned to that child.
type Toggle struct {
	FamilyID        string
	ChildID         string
	TaskID          string
	Completed       bool
	ExpectedVersion int64
}

type ToggleResult struct {
	Task  model.Task  `json:"task"`
	Child model.Child `json:"child"`
	Next  *model.Task `json:"next,omitempty"`
}

// SetTaskCompletion marks a task complete or incomplete and adjusts the
// assigned child's ledger in the same batch. Completing a recurring task for
// the first time also creates its next occurrence.
func (s *Service) SetTaskCompletion(ctx context.Context, req Toggle) (ToggleResult, error) {
	task, err := s.gw.GetTask(ctx, req.FamilyID, req.TaskID)
	if err != nil {
		return ToggleResult{}, err
	}
	if req.ChildID != "" && task.ChildID != req.ChildID {
		return ToggleResult{}, model.ErrTaskNotFound
	}
	if req.ExpectedVersion != 0 && task.Version != req.ExpectedVersion {
		return ToggleResult{}, fmt.Errorf("task version %d, expected %d: %w", task.Version, req.ExpectedVersion, model.ErrConflict)
	}
	if task.Completed == req.Completed {
		return ToggleResult{}, fmt.Errorf("task already in requested state: %w", model.ErrConflict)
	}
	if _, err := s.gw.GetChild(ctx, req.FamilyID, task.ChildID); err != nil {
		return ToggleResult{}, err
	}

	now := s.now()
	var next *model.Task
	if req.Completed && !task.NextCreated {
		n, ok, err := recurrence.NextTask(task, now)
		if err != nil {
			return ToggleResult{}, fmt.Errorf("next occurrence: %w", err)
		}
		if ok {
			next = &n
		}
	}

	var res ToggleResult
	ops := []store.WriteOp{
		store.UpdateTask(req.FamilyID, task.ID, task.Version, func(t *model.Task) error {
			if t.Completed == req.Completed {
				return model.ErrConflict
			}
			t.Completed = req.Completed
			t.CompletedAt = nil
			if req.Completed {
				t.CompletedAt = &now
			}
			if next != nil {
				t.NextCreated = true
			}
			t.UpdatedAt = now
			res.Task = *t
			return nil
		}),
		store.UpdateChild(req.FamilyID, task.ChildID, func(c *model.Child) error {
			*c = ApplyTaskCompletionDelta(*c, task.Points, req.Completed)
			c.UpdatedAt = now
			res.Child = *c
			return nil
		}),
	}
	if next != nil {
		ops = append(ops, store.InsertTask(*next))
	}

	if err := s.gw.WriteAtomic(ctx, ops...); err != nil {
		return ToggleResult{}, err
	}

	res.Task.Version++
	res.Child.Version++
	res.Next = next
	if next != nil {
		res.Next.Version = 1
	}

	s.logger.Info("task completion set",
		"task_id", task.ID,
		"child_id", task.ChildID,
		"completed", req.Completed,
		"points", res.Child.Points,
		"level", res.Child.Level,
		"next_task_id", nextID(next),
	)
	return res, nil
}

func nextID(t *model.Task) string {
	if t == nil {
		return ""
	}
	return t.ID
}
