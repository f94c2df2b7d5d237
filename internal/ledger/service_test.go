package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorely/internal/database"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/realtime"
	"github.com/dukerupert/chorely/internal/store"
)

var fixedNow = time.Date(2024, 1, 31, 18, 0, 0, 0, time.UTC)

type fixture struct {
	gw     *store.Gateway
	svc    *Service
	family string
	child  model.Child
}

func setup(t *testing.T, points int) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gw := store.NewGateway(db, realtime.NewHub(slog.Default()), slog.Default())
	svc := NewService(gw, slog.Default())
	svc.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	fam := model.Family{ID: uuid.NewString(), Name: "Smith", CreatedAt: fixedNow, UpdatedAt: fixedNow}
	c := model.Child{ID: uuid.NewString(), FamilyID: fam.ID, Name: "Ava", Points: points, Level: Level(points),
		Version: 1, CreatedAt: fixedNow, UpdatedAt: fixedNow}
	require.NoError(t, gw.WriteAtomic(ctx, store.InsertFamily(fam), store.InsertChild(c)))

	return &fixture{gw: gw, svc: svc, family: fam.ID, child: c}
}

func (f *fixture) addTask(t *testing.T, points int, rec model.Recurrence, custom *model.CustomRecurrence) model.Task {
	t.Helper()
	task := model.Task{
		ID: uuid.NewString(), FamilyID: f.family, ChildID: f.child.ID, AssignedBy: "parent",
		Title: "Walk the dog", Points: points, DueDate: time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC),
		Category: model.CategoryChores, Priority: model.PriorityMedium, Recurrence: rec, CustomRecurrence: custom,
		CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	require.NoError(t, f.gw.WriteAtomic(context.Background(), store.InsertTask(task)))
	return task
}

func (f *fixture) reloadChild(t *testing.T) model.Child {
	t.Helper()
	c, err := f.gw.GetChild(context.Background(), f.family, f.child.ID)
	require.NoError(t, err)
	return c
}

func TestSetTaskCompletionAppliesDelta(t *testing.T) {
	f := setup(t, 80)
	task := f.addTask(t, 30, model.RecurrenceNone, nil)

	res, err := f.svc.SetTaskCompletion(context.Background(), Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)
	assert.Equal(t, 110, res.Child.Points)
	assert.Equal(t, 2, res.Child.Level)
	assert.Equal(t, 1, res.Child.CompletedTasks)
	assert.True(t, res.Task.Completed)
	require.NotNil(t, res.Task.CompletedAt)
	assert.True(t, res.Task.CompletedAt.Equal(fixedNow))
	assert.Nil(t, res.Next)

	stored := f.reloadChild(t)
	assert.Equal(t, 110, stored.Points)
	assert.Equal(t, 2, stored.Level)
	assert.Equal(t, res.Child.Version, stored.Version)

	got, err := f.gw.GetTask(context.Background(), f.family, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, res.Task.Version, got.Version)
}

func TestSetTaskCompletionIsReversible(t *testing.T) {
	f := setup(t, 40)
	task := f.addTask(t, 25, model.RecurrenceNone, nil)
	ctx := context.Background()

	_, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)
	res, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: false})
	require.NoError(t, err)

	assert.Equal(t, 40, res.Child.Points)
	assert.Equal(t, 0, res.Child.CompletedTasks)
	assert.False(t, res.Task.Completed)
	assert.Nil(t, res.Task.CompletedAt)
}

func TestStaleToggleRejected(t *testing.T) {
	f := setup(t, 0)
	task := f.addTask(t, 10, model.RecurrenceNone, nil)
	ctx := context.Background()

	_, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true, ExpectedVersion: 1})
	require.NoError(t, err)

	// A second device still holding version 1 tries to uncomplete.
	_, err = f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: false, ExpectedVersion: 1})
	require.ErrorIs(t, err, model.ErrConflict)

	assert.Equal(t, 10, f.reloadChild(t).Points)
}

func TestDuplicateToggleRejected(t *testing.T) {
	f := setup(t, 0)
	task := f.addTask(t, 10, model.RecurrenceNone, nil)
	ctx := context.Background()

	_, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)
	_, err = f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.ErrorIs(t, err, model.ErrConflict)

	c := f.reloadChild(t)
	assert.Equal(t, 10, c.Points, "points must not double count")
	assert.Equal(t, 1, c.CompletedTasks)
}

func TestToggleMissingTask(t *testing.T) {
	f := setup(t, 0)
	_, err := f.svc.SetTaskCompletion(context.Background(), Toggle{FamilyID: f.family, TaskID: "missing", Completed: true})
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
}

func TestToggleOtherChildsTask(t *testing.T) {
	f := setup(t, 0)
	task := f.addTask(t, 10, model.RecurrenceNone, nil)

	_, err := f.svc.SetTaskCompletion(context.Background(),
		Toggle{FamilyID: f.family, ChildID: "someone-else", TaskID: task.ID, Completed: true})
	assert.ErrorIs(t, err, model.ErrTaskNotFound)
	assert.Equal(t, 0, f.reloadChild(t).Points)
}

func TestRecurringCompletionCreatesOneSuccessor(t *testing.T) {
	f := setup(t, 0)
	task := f.addTask(t, 10, model.RecurrenceMonthly, nil)
	ctx := context.Background()

	res, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)
	require.NotNil(t, res.Next)
	assert.True(t, res.Next.DueDate.Equal(time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)))
	assert.True(t, res.Task.NextCreated)

	// complete -> incomplete -> complete must not create a second successor
	_, err = f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: false})
	require.NoError(t, err)
	res, err = f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)
	assert.Nil(t, res.Next)

	tasks, err := f.gw.ListTasks(ctx, store.TaskFilter{FamilyID: f.family})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	next, err := f.gw.GetTask(ctx, f.family, tasks[1].ID)
	require.NoError(t, err)
	assert.False(t, next.Completed)
	assert.Equal(t, task.ID, next.SeriesID)
	assert.Equal(t, 2, next.Occurrence)
}

func TestRecurringSeriesStopsAtMaxOccurrences(t *testing.T) {
	f := setup(t, 0)
	ctx := context.Background()
	task := f.addTask(t, 5, model.RecurrenceCustom, &model.CustomRecurrence{Unit: model.UnitDays, Interval: 1, MaxOccurrences: 3})

	created := 1
	current := task
	for i := 0; i < 5; i++ {
		res, err := f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: current.ID, Completed: true})
		require.NoError(t, err)
		if res.Next == nil {
			break
		}
		created++
		current = *res.Next
	}
	assert.Equal(t, 3, created)
	assert.Equal(t, 15, f.reloadChild(t).Points)
}

func TestCompletionPublishesOneChildSnapshot(t *testing.T) {
	f := setup(t, 80)
	task := f.addTask(t, 30, model.RecurrenceNone, nil)
	ctx := context.Background()

	var snaps []realtime.Snapshot
	unsub, err := f.gw.SubscribeToCollection(ctx, store.ChildrenPath(f.family), func(s realtime.Snapshot) {
		snaps = append(snaps, s)
	})
	require.NoError(t, err)
	defer unsub()

	_, err = f.svc.SetTaskCompletion(ctx, Toggle{FamilyID: f.family, TaskID: task.ID, Completed: true})
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	children := snaps[1].Docs.([]model.Child)
	require.Len(t, children, 1)
	assert.Equal(t, 110, children[0].Points)
	assert.Equal(t, 2, children[0].Level)
}
