package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/ledger"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
	"github.com/dukerupert/chorely/internal/task"
)

type TaskHandler struct {
	gw     *store.Gateway
	ledger *ledger.Service
	logger *slog.Logger
}

func NewTaskHandler(gw *store.Gateway, ls *ledger.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{gw: gw, ledger: ls, logger: logger}
}

type taskRequest struct {
	Title            *string                 `json:"title"`
	Description      *string                 `json:"description"`
	Points           *int                    `json:"points"`
	DueDate          *string                 `json:"due_date"`
	AssignedTo       *string                 `json:"assigned_to"`
	Category         *model.TaskCategory     `json:"category"`
	Priority         *model.TaskPriority     `json:"priority"`
	Recurrence       *model.Recurrence       `json:"recurrence"`
	CustomRecurrence *model.CustomRecurrence `json:"custom_recurrence"`
	Version          int64                   `json:"version"`
}

func (req *taskRequest) apply(t *model.Task) error {
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.Points != nil {
		t.Points = *req.Points
	}
	if req.DueDate != nil {
		due, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			return invalid("due_date: %v", err)
		}
		t.DueDate = due
	}
	if req.AssignedTo != nil {
		t.ChildID = *req.AssignedTo
	}
	if req.Category != nil {
		t.Category = *req.Category
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Recurrence != nil {
		t.Recurrence = *req.Recurrence
	}
	if req.CustomRecurrence != nil {
		t.CustomRecurrence = req.CustomRecurrence
	}
	if t.Recurrence != model.RecurrenceCustom {
		t.CustomRecurrence = nil
	}
	return task.Validate(*t)
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	id := uuid.NewString()
	now := nowUTC()
	t := model.Task{
		ID:         id,
		FamilyID:   auth.FamilyID(r.Context()),
		AssignedBy: auth.AccountID(r.Context()),
		Category:   model.CategoryChores,
		Priority:   model.PriorityMedium,
		SeriesID:   id,
		Occurrence: 1,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := req.apply(&t); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	t.SeriesStart = t.DueDate

	if _, err := h.gw.GetChild(r.Context(), t.FamilyID, t.ChildID); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.gw.WriteAtomic(r.Context(), store.InsertTask(t)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task.Annotate([]model.Task{t}, now)[0])
}

// List handles GET /api/tasks. Children only ever see their own tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	q := r.URL.Query()

	f := store.TaskFilter{
		FamilyID: id.FamilyID,
		ChildID:  q.Get("child_id"),
		Category: model.TaskCategory(q.Get("category")),
	}
	if id.Role == model.RoleChild {
		f.ChildID = id.ChildID
	}
	if f.Category != "" && !f.Category.Valid() {
		respondError(w, r, h.logger, invalid("unknown category %q", f.Category))
		return
	}
	var err error
	if f.Completed, err = parseBoolParam(r, "completed"); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if f.DueFrom, err = parseTimeParam(r, "due_from"); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if f.DueTo, err = parseTimeParam(r, "due_to"); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	tasks, err := h.gw.ListTasks(r.Context(), f)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	annotated := task.Annotate(tasks, nowUTC())
	if s := task.Status(q.Get("status")); s != "" {
		filtered := annotated[:0]
		for _, t := range annotated {
			if t.Status == s {
				filtered = append(filtered, t)
			}
		}
		annotated = filtered
	}
	writeJSON(w, http.StatusOK, annotated)
}

func (h *TaskHandler) load(r *http.Request) (model.Task, error) {
	t, err := h.gw.GetTask(r.Context(), auth.FamilyID(r.Context()), r.PathValue("id"))
	if err != nil {
		return model.Task{}, err
	}
	if !auth.CanActFor(r.Context(), t.ChildID) {
		return model.Task{}, model.ErrTaskNotFound
	}
	return t, nil
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task.Annotate([]model.Task{t}, nowUTC())[0])
}

// Update handles PUT /api/tasks/{id}. Points and assignee are frozen once a
// task is complete so the ledger can be reversed exactly.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	familyID := auth.FamilyID(r.Context())
	if req.AssignedTo != nil {
		if _, err := h.gw.GetChild(r.Context(), familyID, *req.AssignedTo); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	}

	var updated model.Task
	err := h.gw.WriteAtomic(r.Context(), store.UpdateTask(familyID, r.PathValue("id"), req.Version, func(t *model.Task) error {
		before := *t
		if err := req.apply(t); err != nil {
			return err
		}
		if t.Completed && (t.Points != before.Points || t.ChildID != before.ChildID) {
			return model.ErrInvalidState
		}
		if rescheduled(before, *t) {
			t.SeriesID = t.ID
			t.SeriesStart = t.DueDate
			t.Occurrence = 1
		}
		t.UpdatedAt = nowUTC()
		updated = *t
		return nil
	}))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	updated.Version++
	writeJSON(w, http.StatusOK, task.Annotate([]model.Task{updated}, nowUTC())[0])
}

// rescheduled reports whether an edit moved the due date or changed how the
// task repeats. Such a task starts a new series.
func rescheduled(before, after model.Task) bool {
	if !before.DueDate.Equal(after.DueDate) || before.Recurrence != after.Recurrence {
		return true
	}
	a, b := before.CustomRecurrence, after.CustomRecurrence
	if a == nil || b == nil {
		return a != b
	}
	if a.Unit != b.Unit || a.Interval != b.Interval || a.MaxOccurrences != b.MaxOccurrences {
		return true
	}
	if a.EndDate == nil || b.EndDate == nil {
		return a.EndDate != b.EndDate
	}
	return !a.EndDate.Equal(*b.EndDate)
}

// Delete handles DELETE /api/tasks/{id}. Points already earned are kept.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.gw.WriteAtomic(r.Context(), store.DeleteTask(auth.FamilyID(r.Context()), r.PathValue("id"))); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completionRequest struct {
	Completed *bool `json:"completed"`
	Version   int64 `json:"version"`
}

// SetCompletion handles POST /api/tasks/{id}/completion.
func (h *TaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Completed == nil {
		respondError(w, r, h.logger, invalid("completed is required"))
		return
	}

	id, _ := auth.FromContext(r.Context())
	toggle := ledger.Toggle{
		FamilyID:        id.FamilyID,
		TaskID:          r.PathValue("id"),
		Completed:       *req.Completed,
		ExpectedVersion: req.Version,
	}
	if id.Role == model.RoleChild {
		toggle.ChildID = id.ChildID
	}

	res, err := h.ledger.SetTaskCompletion(r.Context(), toggle)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
