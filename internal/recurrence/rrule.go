package recurrence

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

type Freq int

const (
	Daily Freq = iota
	Weekly
	Monthly
)

var freqNames = map[Freq]string{
	Daily:   "daily",
	Weekly:  "weekly",
	Monthly: "monthly",
}

type Rule struct {
	Freq     Freq
	Interval int        // default 1
	Until    *time.Time // no occurrence after this instant (nil = no limit)
	Count    int        // max occurrences including the first (0 = unlimited)
}

// FromTask builds the rule for a task's recurrence settings. ok is false for
// non-recurring tasks. CustomRecurrence is only read when the tag is custom.
func FromTask(tag model.Recurrence, custom *model.CustomRecurrence) (Rule, bool, error) {
	switch tag {
	case model.RecurrenceNone:
		return Rule{}, false, nil
	case model.RecurrenceDaily:
		return Rule{Freq: Daily, Interval: 1}, true, nil
	case model.RecurrenceWeekly:
		return Rule{Freq: Weekly, Interval: 1}, true, nil
	case model.RecurrenceMonthly:
		return Rule{Freq: Monthly, Interval: 1}, true, nil
	case model.RecurrenceCustom:
		if custom == nil {
			return Rule{}, false, fmt.Errorf("custom recurrence requires a configuration")
		}
		if err := ValidateCustom(*custom); err != nil {
			return Rule{}, false, err
		}
		r := Rule{Interval: custom.Interval, Until: custom.EndDate, Count: custom.MaxOccurrences}
		switch custom.Unit {
		case model.UnitDays:
			r.Freq = Daily
		case model.UnitWeeks:
			r.Freq = Weekly
		case model.UnitMonths:
			r.Freq = Monthly
		}
		return r, true, nil
	}
	return Rule{}, false, fmt.Errorf("unknown recurrence: %q", tag)
}

// ValidateCustom checks a custom recurrence configuration.
func ValidateCustom(c model.CustomRecurrence) error {
	switch c.Unit {
	case model.UnitDays, model.UnitWeeks, model.UnitMonths:
	default:
		return fmt.Errorf("unknown recurrence unit: %q", c.Unit)
	}
	if c.Interval < 1 {
		return fmt.Errorf("invalid interval: %d", c.Interval)
	}
	if c.MaxOccurrences < 0 {
		return fmt.Errorf("invalid max occurrences: %d", c.MaxOccurrences)
	}
	return nil
}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	var s string
	interval := max(r.Interval, 1)
	switch r.Freq {
	case Daily:
		s = "Repeats daily"
		if interval > 1 {
			s = fmt.Sprintf("Repeats every %d days", interval)
		}
	case Weekly:
		s = "Repeats weekly"
		if interval > 1 {
			s = fmt.Sprintf("Repeats every %d weeks", interval)
		}
	case Monthly:
		s = "Repeats monthly"
		if interval > 1 {
			s = fmt.Sprintf("Repeats every %d months", interval)
		}
	default:
		return ""
	}
	if r.Count > 0 {
		s += fmt.Sprintf(", %d times", r.Count)
	}
	if r.Until != nil {
		s += ", until " + r.Until.Format("Jan 2, 2006")
	}
	return s
}

func (f Freq) String() string {
	return freqNames[f]
}
