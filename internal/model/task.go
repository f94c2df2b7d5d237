package model

import "time"

type TaskCategory string

const (
	CategoryChores   TaskCategory = "chores"
	CategoryHomework TaskCategory = "homework"
	CategoryPersonal TaskCategory = "personal"
	CategoryFamily   TaskCategory = "family"
	CategoryOther    TaskCategory = "other"
)

var TaskCategories = []TaskCategory{CategoryChores, CategoryHomework, CategoryPersonal, CategoryFamily, CategoryOther}

func (c TaskCategory) Valid() bool {
	for _, v := range TaskCategories {
		if c == v {
			return true
		}
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceCustom  Recurrence = "custom"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceCustom:
		return true
	}
	return false
}

type RecurrenceUnit string

const (
	UnitDays   RecurrenceUnit = "days"
	UnitWeeks  RecurrenceUnit = "weeks"
	UnitMonths RecurrenceUnit = "months"
)

// CustomRecurrence is only interpreted when Task.Recurrence is RecurrenceCustom.
type CustomRecurrence struct {
	Unit           RecurrenceUnit `json:"unit"`
	Interval       int            `json:"interval"`
	EndDate        *time.Time     `json:"end_date,omitempty"`
	MaxOccurrences int            `json:"max_occurrences,omitempty"`
}

type Task struct {
	ID               string            `json:"id"`
	FamilyID         string            `json:"family_id"`
	ChildID          string            `json:"assigned_to"`
	AssignedBy       string            `json:"assigned_by"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Points           int               `json:"points"`
	DueDate          time.Time         `json:"due_date"`
	Completed        bool              `json:"completed"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	Category         TaskCategory      `json:"category"`
	Priority         TaskPriority      `json:"priority"`
	Recurrence       Recurrence        `json:"recurrence,omitempty"`
	CustomRecurrence *CustomRecurrence `json:"custom_recurrence,omitempty"`
	SeriesID         string            `json:"series_id"`
	SeriesStart      time.Time         `json:"series_start"`
	Occurrence       int               `json:"occurrence"`
	NextCreated      bool              `json:"next_created"`
	Version          int64             `json:"version"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
