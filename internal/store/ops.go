package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/chorely/internal/model"
)

// WriteOp is one step of an atomic batch. Ops that take a mutate func read
// the current record inside the transaction, apply the func, and write the
// result back, so the change is computed against committed state.
type WriteOp struct {
	name  string
	apply func(ctx context.Context, tx *sql.Tx, touch func(Path)) error
}

func (op WriteOp) String() string { return op.name }

func persistErr(op string, err error) error {
	return &model.PersistenceError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Family and account ops ---

func InsertFamily(f model.Family) WriteOp {
	return WriteOp{name: "insert family", apply: func(ctx context.Context, tx *sql.Tx, _ func(Path)) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO families (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			f.ID, f.Name, f.CreatedAt.UTC(), f.UpdatedAt.UTC(),
		)
		if err != nil {
			return persistErr("insert family", err)
		}
		return nil
	}}
}

func InsertAccount(a model.Account) WriteOp {
	return WriteOp{name: "insert account", apply: func(ctx context.Context, tx *sql.Tx, _ func(Path)) error {
		var childID sql.NullString
		if a.ChildID != nil {
			childID = sql.NullString{String: *a.ChildID, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO accounts (`+accountCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.FamilyID, a.Email, a.Name, a.Role, childID, a.PasswordHash, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
		)
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		if err != nil {
			return persistErr("insert account", err)
		}
		return nil
	}}
}

// --- Child ops ---

func InsertChild(c model.Child) WriteOp {
	return WriteOp{name: "insert child", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO children (`+childCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.FamilyID, c.Name, c.Age, c.Avatar, c.Points, c.Level, c.CompletedTasks,
			max(c.Version, 1), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		)
		if err != nil {
			return persistErr("insert child", err)
		}
		touch(ChildrenPath(c.FamilyID))
		return nil
	}}
}

// UpdateChild reads the child inside the transaction, applies mutate and
// writes it back with the version bumped. Identity fields are not writable.
func UpdateChild(familyID, childID string, mutate func(*model.Child) error) WriteOp {
	return WriteOp{name: "update child", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		c, err := getChild(ctx, tx, familyID, childID)
		if err != nil {
			return persistErr("read child", err)
		}
		if c == nil {
			return model.ErrChildNotFound
		}

		version := c.Version
		if err := mutate(c); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE children SET name = ?, age = ?, avatar = ?, points = ?, level = ?, completed_tasks = ?,
			 version = version + 1, updated_at = ?
			 WHERE id = ? AND family_id = ? AND version = ?`,
			c.Name, c.Age, c.Avatar, c.Points, c.Level, c.CompletedTasks, c.UpdatedAt.UTC(),
			childID, familyID, version,
		)
		if err != nil {
			return persistErr("update child", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrConflict
		}
		touch(ChildrenPath(familyID))
		return nil
	}}
}

// DeleteChild removes the child together with its tasks and login account.
// Redemption records stay in the family history.
func DeleteChild(familyID, childID string) WriteOp {
	return WriteOp{name: "delete child", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM children WHERE id = ? AND family_id = ?`, childID, familyID)
		if err != nil {
			return persistErr("delete child", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrChildNotFound
		}
		touch(ChildrenPath(familyID))
		touch(TasksPath(familyID))
		touch(ChildTasksPath(familyID, childID))
		return nil
	}}
}

// --- Task ops ---

func InsertTask(t model.Task) WriteOp {
	return WriteOp{name: "insert task", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		if t.Version == 0 {
			t.Version = 1
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (`+taskCols+`) VALUES (`+placeholders(taskColCount)+`)`,
			taskArgs(t)...,
		)
		if err != nil {
			return persistErr("insert task", err)
		}
		touch(TasksPath(t.FamilyID))
		touch(ChildTasksPath(t.FamilyID, t.ChildID))
		return nil
	}}
}

// UpdateTask applies mutate to the stored task. A non-zero expectVersion
// must match the stored version or the op fails with ErrConflict.
func UpdateTask(familyID, taskID string, expectVersion int64, mutate func(*model.Task) error) WriteOp {
	return WriteOp{name: "update task", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		t, err := getTask(ctx, tx, familyID, taskID)
		if err != nil {
			return persistErr("read task", err)
		}
		if t == nil {
			return model.ErrTaskNotFound
		}
		if expectVersion != 0 && t.Version != expectVersion {
			return model.ErrConflict
		}

		version, prevChild := t.Version, t.ChildID
		if err := mutate(t); err != nil {
			return err
		}
		t.ID, t.FamilyID, t.Version = taskID, familyID, version+1

		args := append(taskArgs(*t)[2:], taskID, familyID, version)
		res, err := tx.ExecContext(ctx,
			`UPDATE tasks SET `+taskUpdateSet+` WHERE id = ? AND family_id = ? AND version = ?`,
			args...,
		)
		if err != nil {
			return persistErr("update task", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrConflict
		}
		touch(TasksPath(familyID))
		touch(ChildTasksPath(familyID, prevChild))
		touch(ChildTasksPath(familyID, t.ChildID))
		return nil
	}}
}

func DeleteTask(familyID, taskID string) WriteOp {
	return WriteOp{name: "delete task", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		t, err := getTask(ctx, tx, familyID, taskID)
		if err != nil {
			return persistErr("read task", err)
		}
		if t == nil {
			return model.ErrTaskNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID); err != nil {
			return persistErr("delete task", err)
		}
		touch(TasksPath(familyID))
		touch(ChildTasksPath(familyID, t.ChildID))
		return nil
	}}
}

// --- Reward ops ---

func InsertReward(r model.Reward) WriteOp {
	return WriteOp{name: "insert reward", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO rewards (`+rewardCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.FamilyID, r.Title, r.Description, r.PointsCost, r.Category, boolInt(r.Available),
			r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
		)
		if err != nil {
			return persistErr("insert reward", err)
		}
		touch(RewardsPath(r.FamilyID))
		return nil
	}}
}

func UpdateReward(familyID, rewardID string, mutate func(*model.Reward) error) WriteOp {
	return WriteOp{name: "update reward", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		r, err := getReward(ctx, tx, familyID, rewardID)
		if err != nil {
			return persistErr("read reward", err)
		}
		if r == nil {
			return model.ErrRewardNotFound
		}
		if err := mutate(r); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE rewards SET title = ?, description = ?, points_cost = ?, category = ?, available = ?, updated_at = ?
			 WHERE id = ? AND family_id = ?`,
			r.Title, r.Description, r.PointsCost, r.Category, boolInt(r.Available), r.UpdatedAt.UTC(),
			rewardID, familyID,
		)
		if err != nil {
			return persistErr("update reward", err)
		}
		touch(RewardsPath(familyID))
		return nil
	}}
}

func DeleteReward(familyID, rewardID string) WriteOp {
	return WriteOp{name: "delete reward", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM rewards WHERE id = ? AND family_id = ?`, rewardID, familyID)
		if err != nil {
			return persistErr("delete reward", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return model.ErrRewardNotFound
		}
		touch(RewardsPath(familyID))
		return nil
	}}
}

// CheckReward re-reads the reward inside the transaction and fails the batch
// if check returns an error. It writes nothing.
func CheckReward(familyID, rewardID string, check func(model.Reward) error) WriteOp {
	return WriteOp{name: "check reward", apply: func(ctx context.Context, tx *sql.Tx, _ func(Path)) error {
		r, err := getReward(ctx, tx, familyID, rewardID)
		if err != nil {
			return persistErr("read reward", err)
		}
		if r == nil {
			return model.ErrRewardNotFound
		}
		return check(*r)
	}}
}

// --- Redemption ops ---

func InsertRedemption(rr model.RedeemedReward) WriteOp {
	return WriteOp{name: "insert redemption", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO redeemed_rewards (`+redemptionCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			redemptionArgs(rr)...,
		)
		if err != nil {
			return persistErr("insert redemption", err)
		}
		touch(RedemptionsPath(rr.FamilyID))
		return nil
	}}
}

func UpdateRedemption(familyID, id string, mutate func(*model.RedeemedReward) error) WriteOp {
	return WriteOp{name: "update redemption", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		rr, err := getRedemption(ctx, tx, familyID, id)
		if err != nil {
			return persistErr("read redemption", err)
		}
		if rr == nil {
			return model.ErrRedemptionNotFound
		}
		if err := mutate(rr); err != nil {
			return err
		}
		if err := saveRedemptionStatus(ctx, tx, *rr); err != nil {
			return persistErr("update redemption", err)
		}
		touch(RedemptionsPath(familyID))
		return nil
	}}
}

// SweepRedemptions offers every active redemption to mutate and saves the
// ones it reports as changed. The number saved is stored in *count.
func SweepRedemptions(mutate func(*model.RedeemedReward) bool, count *int) WriteOp {
	return WriteOp{name: "sweep redemptions", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		active, err := queryRedemptions(ctx, tx, RedemptionFilter{Status: model.RedemptionActive})
		if err != nil {
			return persistErr("list active redemptions", err)
		}

		n := 0
		for i := range active {
			rr := &active[i]
			if !mutate(rr) {
				continue
			}
			if err := saveRedemptionStatus(ctx, tx, *rr); err != nil {
				return persistErr("expire redemption", err)
			}
			touch(RedemptionsPath(rr.FamilyID))
			n++
		}
		if count != nil {
			*count = n
		}
		return nil
	}}
}

// --- Notification ops ---

func InsertNotification(n model.Notification) WriteOp {
	return WriteOp{name: "insert notification", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO notifications (`+notificationCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, n.FamilyID, n.Type, n.ChildID, n.RewardID, n.Title, n.PointsCost, boolInt(n.Read), n.CreatedAt.UTC(),
		)
		if err != nil {
			return persistErr("insert notification", err)
		}
		touch(NotificationsPath(n.FamilyID))
		return nil
	}}
}

func MarkNotificationRead(familyID, id string) WriteOp {
	return WriteOp{name: "mark notification read", apply: func(ctx context.Context, tx *sql.Tx, touch func(Path)) error {
		res, err := tx.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ? AND family_id = ?`, id, familyID)
		if err != nil {
			return persistErr("mark notification read", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("notification %w", model.ErrNotFound)
		}
		touch(NotificationsPath(familyID))
		return nil
	}}
}

// IsPersistence reports whether err came from the database rather than from
// a domain check.
func IsPersistence(err error) bool {
	var pe *model.PersistenceError
	return errors.As(err, &pe)
}
