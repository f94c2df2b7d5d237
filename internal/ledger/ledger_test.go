package ledger

import (
	"testing"

	"github.com/dukerupert/chorely/internal/model"
)

func child(points, completed int) model.Child {
	return model.Child{ID: "c1", Points: points, CompletedTasks: completed, Level: Level(points)}
}

func assertInvariants(t *testing.T, c model.Child) {
	t.Helper()
	if c.Level != c.Points/100+1 {
		t.Errorf("level = %d, want %d for %d points", c.Level, c.Points/100+1, c.Points)
	}
	if c.Points < 0 {
		t.Errorf("points = %d, want >= 0", c.Points)
	}
	if c.CompletedTasks < 0 {
		t.Errorf("completed_tasks = %d, want >= 0", c.CompletedTasks)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		points int
		want   int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{115, 2},
		{250, 3},
		{-5, 1},
	}
	for _, tt := range tests {
		if got := Level(tt.points); got != tt.want {
			t.Errorf("Level(%d) = %d, want %d", tt.points, got, tt.want)
		}
	}
}

func TestCompleteScenario(t *testing.T) {
	c := child(80, 0)
	if c.Level != 1 {
		t.Fatalf("start level = %d, want 1", c.Level)
	}

	c = ApplyTaskCompletionDelta(c, 30, true)
	if c.Points != 110 || c.Level != 2 || c.CompletedTasks != 1 {
		t.Errorf("after 30pt task: points=%d level=%d completed=%d, want 110/2/1", c.Points, c.Level, c.CompletedTasks)
	}

	c = ApplyTaskCompletionDelta(c, 5, true)
	if c.Points != 115 || c.Level != 2 || c.CompletedTasks != 2 {
		t.Errorf("after 5pt task: points=%d level=%d completed=%d, want 115/2/2", c.Points, c.Level, c.CompletedTasks)
	}
}

func TestCompleteThenUncompleteIsExact(t *testing.T) {
	for _, start := range []int{0, 1, 42, 99, 100, 250, 1000} {
		for _, pts := range []int{1, 5, 50, 100, 375} {
			before := child(start, 3)
			after := ApplyTaskCompletionDelta(ApplyTaskCompletionDelta(before, pts, true), pts, false)
			if after.Points != before.Points || after.CompletedTasks != before.CompletedTasks || after.Level != before.Level {
				t.Errorf("start=%d pts=%d: got %+v, want %+v", start, pts, after, before)
			}
			assertInvariants(t, after)
		}
	}
}

func TestUncompleteClampsAtZero(t *testing.T) {
	c := ApplyTaskCompletionDelta(child(20, 0), 50, false)
	if c.Points != 0 {
		t.Errorf("points = %d, want 0", c.Points)
	}
	if c.CompletedTasks != 0 {
		t.Errorf("completed_tasks = %d, want 0", c.CompletedTasks)
	}
	if c.Level != 1 {
		t.Errorf("level = %d, want 1", c.Level)
	}
}

func TestUncompleteDropsLevel(t *testing.T) {
	c := ApplyTaskCompletionDelta(child(120, 4), 30, false)
	if c.Points != 90 || c.Level != 1 || c.CompletedTasks != 3 {
		t.Errorf("got points=%d level=%d completed=%d, want 90/1/3", c.Points, c.Level, c.CompletedTasks)
	}
}

// Applying the same transition twice double-counts: the ledger has no
// memory of which tasks it has seen. Callers guard with version tokens.
func TestDuplicateCompletionDoubleCounts(t *testing.T) {
	c := child(0, 0)
	c = ApplyTaskCompletionDelta(c, 10, true)
	c = ApplyTaskCompletionDelta(c, 10, true)
	if c.Points != 20 || c.CompletedTasks != 2 {
		t.Errorf("got points=%d completed=%d, want 20/2", c.Points, c.CompletedTasks)
	}
}

func TestRedemptionDeduction(t *testing.T) {
	c := ApplyRedemptionDeduction(child(215, 7), 120)
	if c.Points != 95 || c.Level != 1 {
		t.Errorf("got points=%d level=%d, want 95/1", c.Points, c.Level)
	}
	if c.CompletedTasks != 7 {
		t.Errorf("completed_tasks changed to %d", c.CompletedTasks)
	}

	c = ApplyRedemptionDeduction(child(30, 0), 50)
	if c.Points != 0 {
		t.Errorf("points = %d, want 0", c.Points)
	}
}

func TestInvariantsHoldForSequences(t *testing.T) {
	c := child(0, 0)
	steps := []struct {
		pts       int
		completed bool
		redeem    bool
	}{
		{30, true, false}, {80, true, false}, {45, false, false}, {200, true, false},
		{150, false, true}, {500, false, false}, {10, true, false}, {999, false, true},
	}
	for _, s := range steps {
		if s.redeem {
			c = ApplyRedemptionDeduction(c, s.pts)
		} else {
			c = ApplyTaskCompletionDelta(c, s.pts, s.completed)
		}
		assertInvariants(t, c)
	}
}

func TestCanAfford(t *testing.T) {
	if CanAfford(child(40, 0), 50) {
		t.Error("40 points should not afford 50")
	}
	if !CanAfford(child(50, 0), 50) {
		t.Error("50 points should afford 50")
	}
}
