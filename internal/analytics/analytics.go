// Package analytics computes progress summaries from a family's children,
// tasks and redemptions. All functions are pure; callers supply the data,
// usually from the entity cache.
package analytics

import (
	"math"
	"time"

	"github.com/dukerupert/chorely/internal/ledger"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/redemption"
	"github.com/dukerupert/chorely/internal/task"
)

type CategoryProgress struct {
	Category  model.TaskCategory `json:"category"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
}

type DayProgress struct {
	Day    string    `json:"day"`
	Date   time.Time `json:"date"`
	Tasks  int       `json:"tasks"`
	Points int       `json:"points"`
}

type ChildSummary struct {
	ChildID           string             `json:"child_id"`
	Name              string             `json:"name"`
	Points            int                `json:"points"`
	Level             int                `json:"level"`
	PointsToNextLevel int                `json:"points_to_next_level"`
	TotalTasks        int                `json:"total_tasks"`
	CompletedTasks    int                `json:"completed_tasks"`
	PendingTasks      int                `json:"pending_tasks"`
	OverdueTasks      int                `json:"overdue_tasks"`
	CompletionRate    int                `json:"completion_rate"`
	ActiveRewards     int                `json:"active_rewards"`
	Categories        []CategoryProgress `json:"categories"`
	Week              []DayProgress      `json:"week"`
}

type FamilySummary struct {
	Children          int                `json:"children"`
	TotalTasks        int                `json:"total_tasks"`
	CompletedTasks    int                `json:"completed_tasks"`
	TotalPoints       int                `json:"total_points"`
	AverageCompletion int                `json:"average_completion"`
	Categories        []CategoryProgress `json:"categories"`
	Week              []DayProgress      `json:"week"`
	PerChild          []ChildSummary     `json:"per_child"`
}

// Percent returns part/total as a whole percentage, rounded half away from zero.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Family summarizes every child and task in a family.
func Family(children []model.Child, tasks []model.Task, redemptions []model.RedeemedReward, now time.Time) FamilySummary {
	s := FamilySummary{
		Children:   len(children),
		TotalTasks: len(tasks),
		Categories: Categories(tasks),
		Week:       Week(tasks, now),
		PerChild:   make([]ChildSummary, 0, len(children)),
	}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
		}
	}
	for _, c := range children {
		s.TotalPoints += c.Points
		s.PerChild = append(s.PerChild, Child(c, tasks, redemptions, now))
	}
	s.AverageCompletion = Percent(s.CompletedTasks, s.TotalTasks)
	return s
}

// Child summarizes one child. Tasks and redemptions belonging to other
// children are ignored, so callers may pass the whole family's data.
func Child(c model.Child, tasks []model.Task, redemptions []model.RedeemedReward, now time.Time) ChildSummary {
	own := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ChildID == c.ID {
			own = append(own, t)
		}
	}

	s := ChildSummary{
		ChildID:           c.ID,
		Name:              c.Name,
		Points:            c.Points,
		Level:             c.Level,
		PointsToNextLevel: ledger.PointsPerLevel - c.Points%ledger.PointsPerLevel,
		TotalTasks:        len(own),
		Categories:        Categories(own),
		Week:              Week(own, now),
	}
	for _, t := range own {
		switch task.ComputeStatus(t, now) {
		case task.StatusCompleted:
			s.CompletedTasks++
		case task.StatusOverdue:
			s.OverdueTasks++
		default:
			s.PendingTasks++
		}
	}
	for _, rr := range redemptions {
		if rr.ChildID == c.ID && redemption.EffectiveStatus(rr, now) == model.RedemptionActive {
			s.ActiveRewards++
		}
	}
	s.CompletionRate = Percent(s.CompletedTasks, s.TotalTasks)
	return s
}

// Categories counts completed and total tasks for every category, in
// catalog order. Categories with no tasks are included with zero counts.
func Categories(tasks []model.Task) []CategoryProgress {
	idx := make(map[model.TaskCategory]int, len(model.TaskCategories))
	out := make([]CategoryProgress, len(model.TaskCategories))
	for i, c := range model.TaskCategories {
		out[i].Category = c
		idx[c] = i
	}
	for _, t := range tasks {
		i, ok := idx[t.Category]
		if !ok {
			continue
		}
		out[i].Total++
		if t.Completed {
			out[i].Completed++
		}
	}
	return out
}

// Week buckets completed tasks by completion day for the Monday-to-Sunday
// week containing now. Days are computed in now's location.
func Week(tasks []model.Task, now time.Time) []DayProgress {
	monday := weekStart(now)
	out := make([]DayProgress, 7)
	for i := range out {
		day := monday.AddDate(0, 0, i)
		out[i] = DayProgress{Day: day.Weekday().String()[:3], Date: day}
	}
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		at := t.CompletedAt.In(now.Location())
		d := dayOf(at).Sub(monday)
		if d < 0 {
			continue
		}
		// rounding absorbs 23h and 25h days across DST changes
		i := int(math.Round(d.Hours() / 24))
		if i > 6 {
			continue
		}
		out[i].Tasks++
		out[i].Points += t.Points
	}
	return out
}

func weekStart(now time.Time) time.Time {
	offset := (int(now.Weekday()) + 6) % 7
	return dayOf(now).AddDate(0, 0, -offset)
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
