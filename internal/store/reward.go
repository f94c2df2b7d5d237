package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/dukerupert/chorely/internal/model"
)

// --- Reward methods ---

func scanReward(s scanner) (*model.Reward, error) {
	var r model.Reward
	var available int

	err := s.Scan(&r.ID, &r.FamilyID, &r.Title, &r.Description, &r.PointsCost, &r.Category, &available,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.Available = available != 0
	return &r, nil
}

const rewardCols = `id, family_id, title, description, points_cost, category, available, created_at, updated_at`

func getReward(ctx context.Context, q querier, familyID, id string) (*model.Reward, error) {
	row := q.QueryRowContext(ctx, `SELECT `+rewardCols+` FROM rewards WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// GetReward returns the reward or model.ErrRewardNotFound.
func (g *Gateway) GetReward(ctx context.Context, familyID, id string) (model.Reward, error) {
	r, err := getReward(ctx, g.db, familyID, id)
	if err != nil {
		return model.Reward{}, err
	}
	if r == nil {
		return model.Reward{}, model.ErrRewardNotFound
	}
	return *r, nil
}

// ListRewards returns the family's catalog, available first, then by cost.
func (g *Gateway) ListRewards(ctx context.Context, familyID string, availableOnly bool) ([]model.Reward, error) {
	query := `SELECT ` + rewardCols + ` FROM rewards WHERE family_id = ?`
	if availableOnly {
		query += ` AND available = 1`
	}
	query += ` ORDER BY available DESC, points_cost ASC, title ASC`

	rows, err := g.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

// --- Redemption methods ---

func scanRedemption(s scanner) (*model.RedeemedReward, error) {
	var r model.RedeemedReward
	var usedAt sql.NullTime

	err := s.Scan(&r.ID, &r.FamilyID, &r.ChildID, &r.RewardID, &r.RewardTitle, &r.RewardDescription,
		&r.RewardCategory, &r.PointsCost, &r.RedeemedAt, &r.ExpiresAt, &r.Status, &usedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}

	r.RedeemedAt = r.RedeemedAt.UTC()
	r.ExpiresAt = r.ExpiresAt.UTC()
	r.UsedAt = timePtr(usedAt)
	return &r, nil
}

const redemptionCols = `id, family_id, child_id, reward_id, reward_title, reward_description, reward_category, ` +
	`points_cost, redeemed_at, expires_at, status, used_at, updated_at`

func redemptionArgs(r model.RedeemedReward) []any {
	return []any{
		r.ID, r.FamilyID, r.ChildID, r.RewardID, r.RewardTitle, r.RewardDescription, r.RewardCategory,
		r.PointsCost, r.RedeemedAt.UTC(), r.ExpiresAt.UTC(), r.Status, nullTime(r.UsedAt), r.UpdatedAt.UTC(),
	}
}

func saveRedemptionStatus(ctx context.Context, tx *sql.Tx, r model.RedeemedReward) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE redeemed_rewards SET status = ?, used_at = ?, updated_at = ? WHERE id = ? AND family_id = ?`,
		r.Status, nullTime(r.UsedAt), r.UpdatedAt.UTC(), r.ID, r.FamilyID,
	)
	return err
}

func getRedemption(ctx context.Context, q querier, familyID, id string) (*model.RedeemedReward, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+redemptionCols+` FROM redeemed_rewards WHERE id = ? AND family_id = ?`, id, familyID)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// GetRedemption returns the stored record or model.ErrRedemptionNotFound.
// Status is as stored; callers apply lazy expiry.
func (g *Gateway) GetRedemption(ctx context.Context, familyID, id string) (model.RedeemedReward, error) {
	r, err := getRedemption(ctx, g.db, familyID, id)
	if err != nil {
		return model.RedeemedReward{}, err
	}
	if r == nil {
		return model.RedeemedReward{}, model.ErrRedemptionNotFound
	}
	return *r, nil
}

// RedemptionFilter narrows ListRedemptions. An empty FamilyID matches every
// family, which only the expiry sweep uses.
type RedemptionFilter struct {
	FamilyID string
	ChildID  string
	Status   model.RedemptionStatus
}

func queryRedemptions(ctx context.Context, q querier, f RedemptionFilter) ([]model.RedeemedReward, error) {
	qb := sq.Select(redemptionCols).From("redeemed_rewards")
	if f.FamilyID != "" {
		qb = qb.Where(sq.Eq{"family_id": f.FamilyID})
	}
	if f.ChildID != "" {
		qb = qb.Where(sq.Eq{"child_id": f.ChildID})
	}
	if f.Status != "" {
		qb = qb.Where(sq.Eq{"status": f.Status})
	}

	query, args, err := qb.OrderBy("redeemed_at DESC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build redemption query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var out []model.RedeemedReward
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ListRedemptions returns stored redemptions, newest first.
func (g *Gateway) ListRedemptions(ctx context.Context, f RedemptionFilter) ([]model.RedeemedReward, error) {
	return queryRedemptions(ctx, g.db, f)
}
