// Package redemption turns rewards into time-boxed redemption records and
// moves those records through active, used and expired.
package redemption

import (
	"fmt"
	"time"

	"github.com/dukerupert/chorely/internal/model"
)

// ValidFor is how long a redemption stays usable.
const ValidFor = 7 * 24 * time.Hour

// New snapshots the reward into an active redemption for the child.
func New(id string, r model.Reward, childID string, now time.Time) model.RedeemedReward {
	now = now.UTC()
	return model.RedeemedReward{
		ID:                id,
		FamilyID:          r.FamilyID,
		ChildID:           childID,
		RewardID:          r.ID,
		RewardTitle:       r.Title,
		RewardDescription: r.Description,
		RewardCategory:    r.Category,
		PointsCost:        r.PointsCost,
		RedeemedAt:        now,
		ExpiresAt:         now.Add(ValidFor),
		Status:            model.RedemptionActive,
		UpdatedAt:         now,
	}
}

// EffectiveStatus is the status a reader should see: an active record past
// its expiry reads as expired before the sweep stores it.
func EffectiveStatus(rr model.RedeemedReward, now time.Time) model.RedemptionStatus {
	if rr.Status == model.RedemptionActive && now.After(rr.ExpiresAt) {
		return model.RedemptionExpired
	}
	return rr.Status
}

// MarkUsed moves an active record to used. Used and expired are terminal.
func MarkUsed(rr *model.RedeemedReward, now time.Time) error {
	if st := EffectiveStatus(*rr, now); st != model.RedemptionActive {
		return fmt.Errorf("redemption is %s: %w", st, model.ErrInvalidState)
	}
	now = now.UTC()
	rr.Status = model.RedemptionUsed
	rr.UsedAt = &now
	rr.UpdatedAt = now
	return nil
}

// Expire stores the expired status on an active record whose expiry is
// before now. It reports whether the record changed.
func Expire(rr *model.RedeemedReward, now time.Time) bool {
	if rr.Status != model.RedemptionActive || !rr.ExpiresAt.Before(now) {
		return false
	}
	rr.Status = model.RedemptionExpired
	rr.UpdatedAt = now.UTC()
	return true
}
