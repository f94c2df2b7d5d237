// Package ledger keeps a child's points, level and completed-task count consistent.
package ledger

import "github.com/dukerupert/chorely/internal/model"

// PointsPerLevel is the number of points between consecutive levels.
const PointsPerLevel = 100

// Level returns the level for a point balance: floor(points/100) + 1.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// ApplyTaskCompletionDelta returns the child after a task worth pointValue is
// marked complete (completed=true) or incomplete. Decrements clamp at zero.
func ApplyTaskCompletionDelta(c model.Child, pointValue int, completed bool) model.Child {
	if completed {
		c.Points += pointValue
		c.CompletedTasks++
	} else {
		c.Points = max(0, c.Points-pointValue)
		c.CompletedTasks = max(0, c.CompletedTasks-1)
	}
	c.Level = Level(c.Points)
	return c
}

// ApplyRedemptionDeduction returns the child after spending cost points.
// The balance clamps at zero; affordability is checked by the caller.
func ApplyRedemptionDeduction(c model.Child, cost int) model.Child {
	c.Points = max(0, c.Points-cost)
	c.Level = Level(c.Points)
	return c
}

// CanAfford reports whether the child's balance covers cost.
func CanAfford(c model.Child, cost int) bool {
	return c.Points >= cost
}
