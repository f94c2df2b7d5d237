package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dukerupert/chorely/internal/model"
)

const taskCols = `id, family_id, child_id, assigned_by, title, description, points, due_date, completed, completed_at, ` +
	`category, priority, recurrence, custom_unit, custom_interval, custom_end_date, custom_max_occurrences, ` +
	`series_id, series_start, occurrence, next_created, version, created_at, updated_at`

var (
	taskColCount  = len(strings.Split(taskCols, ","))
	taskUpdateSet = updateSet(strings.Split(taskCols, ",")[2:])
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func updateSet(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = strings.TrimSpace(c) + " = ?"
	}
	return strings.Join(parts, ", ")
}

func scanTask(s scanner) (*model.Task, error) {
	var t model.Task
	var completed, nextCreated int
	var completedAt, customEnd sql.NullTime
	var customUnit sql.NullString
	var customInterval, customMax sql.NullInt64

	err := s.Scan(&t.ID, &t.FamilyID, &t.ChildID, &t.AssignedBy, &t.Title, &t.Description, &t.Points,
		&t.DueDate, &completed, &completedAt, &t.Category, &t.Priority, &t.Recurrence,
		&customUnit, &customInterval, &customEnd, &customMax,
		&t.SeriesID, &t.SeriesStart, &t.Occurrence, &nextCreated, &t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.DueDate = t.DueDate.UTC()
	t.SeriesStart = t.SeriesStart.UTC()
	t.Completed = completed != 0
	t.CompletedAt = timePtr(completedAt)
	t.NextCreated = nextCreated != 0
	if customUnit.Valid {
		t.CustomRecurrence = &model.CustomRecurrence{
			Unit:           model.RecurrenceUnit(customUnit.String),
			Interval:       int(customInterval.Int64),
			EndDate:        timePtr(customEnd),
			MaxOccurrences: int(customMax.Int64),
		}
	}
	return &t, nil
}

// taskArgs returns the column values in taskCols order.
func taskArgs(t model.Task) []any {
	var customUnit sql.NullString
	var customInterval, customMax sql.NullInt64
	var customEnd sql.NullTime
	if cr := t.CustomRecurrence; cr != nil {
		customUnit = sql.NullString{String: string(cr.Unit), Valid: true}
		customInterval = sql.NullInt64{Int64: int64(cr.Interval), Valid: true}
		customMax = sql.NullInt64{Int64: int64(cr.MaxOccurrences), Valid: true}
		customEnd = nullTime(cr.EndDate)
	}
	seriesStart := t.SeriesStart
	if seriesStart.IsZero() {
		seriesStart = t.DueDate
	}
	return []any{
		t.ID, t.FamilyID, t.ChildID, t.AssignedBy, t.Title, t.Description, t.Points,
		t.DueDate.UTC(), boolInt(t.Completed), nullTime(t.CompletedAt), t.Category, t.Priority, t.Recurrence,
		customUnit, customInterval, customEnd, customMax,
		t.SeriesID, seriesStart.UTC(), max(t.Occurrence, 1), boolInt(t.NextCreated), t.Version,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	}
}

func getTask(ctx context.Context, q querier, familyID, id string) (*model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskCols+` FROM tasks WHERE id = ? AND family_id = ?`, id, familyID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// GetTask returns the task or model.ErrTaskNotFound.
func (g *Gateway) GetTask(ctx context.Context, familyID, id string) (model.Task, error) {
	t, err := getTask(ctx, g.db, familyID, id)
	if err != nil {
		return model.Task{}, err
	}
	if t == nil {
		return model.Task{}, model.ErrTaskNotFound
	}
	return *t, nil
}

// TaskFilter narrows ListTasks. Zero fields do not filter.
type TaskFilter struct {
	FamilyID  string
	ChildID   string
	Category  model.TaskCategory
	Completed *bool
	DueFrom   *time.Time
	DueTo     *time.Time
}

// ListTasks returns matching tasks ordered by due date.
func (g *Gateway) ListTasks(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	qb := sq.Select(taskCols).From("tasks").Where(sq.Eq{"family_id": f.FamilyID})
	if f.ChildID != "" {
		qb = qb.Where(sq.Eq{"child_id": f.ChildID})
	}
	if f.Category != "" {
		qb = qb.Where(sq.Eq{"category": f.Category})
	}
	if f.Completed != nil {
		qb = qb.Where(sq.Eq{"completed": boolInt(*f.Completed)})
	}
	if f.DueFrom != nil {
		qb = qb.Where(sq.GtOrEq{"due_date": f.DueFrom.UTC()})
	}
	if f.DueTo != nil {
		qb = qb.Where(sq.Lt{"due_date": f.DueTo.UTC()})
	}

	query, args, err := qb.OrderBy("due_date ASC", "created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
