package redemption

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/ledger"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

// Notifier is told about committed redemptions. Delivery failures are its
// own concern; the redemption has already happened.
type Notifier interface {
	NotifyRedemption(ctx context.Context, rr model.RedeemedReward, childName string)
}

// Service redeems rewards and moves redemptions through their lifecycle.
type Service struct {
	gw       *store.Gateway
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a redemption service. notifier may be nil.
func NewService(gw *store.Gateway, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{gw: gw, notifier: notifier, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Redeem spends the child's points on the reward. The balance and the
// reward are checked up front and again inside the write, so a stale read
// cannot overspend. The deduction, the redemption record and the parent
// notification commit together.
func (s *Service) Redeem(ctx context.Context, familyID, childID, rewardID string) (model.RedeemedReward, error) {
	reward, err := s.gw.GetReward(ctx, familyID, rewardID)
	if err != nil {
		return model.RedeemedReward{}, err
	}
	if !reward.Available {
		return model.RedeemedReward{}, model.ErrRewardUnavailable
	}
	child, err := s.gw.GetChild(ctx, familyID, childID)
	if err != nil {
		return model.RedeemedReward{}, err
	}
	if !ledger.CanAfford(child, reward.PointsCost) {
		return model.RedeemedReward{}, fmt.Errorf("balance %d, cost %d: %w", child.Points, reward.PointsCost, model.ErrInsufficientPoints)
	}

	now := s.now()
	rr := New(uuid.NewString(), reward, childID, now)
	note := model.Notification{
		ID:         uuid.NewString(),
		FamilyID:   familyID,
		Type:       model.NotifTypeRewardRedeemed,
		ChildID:    childID,
		RewardID:   reward.ID,
		Title:      reward.Title,
		PointsCost: reward.PointsCost,
		CreatedAt:  now,
	}

	err = s.gw.WriteAtomic(ctx,
		store.CheckReward(familyID, rewardID, func(r model.Reward) error {
			if !r.Available {
				return model.ErrRewardUnavailable
			}
			if r.PointsCost != reward.PointsCost {
				return fmt.Errorf("reward cost changed: %w", model.ErrConflict)
			}
			return nil
		}),
		store.UpdateChild(familyID, childID, func(c *model.Child) error {
			if !ledger.CanAfford(*c, reward.PointsCost) {
				return fmt.Errorf("balance %d, cost %d: %w", c.Points, reward.PointsCost, model.ErrInsufficientPoints)
			}
			*c = ledger.ApplyRedemptionDeduction(*c, reward.PointsCost)
			c.UpdatedAt = now
			return nil
		}),
		store.InsertRedemption(rr),
		store.InsertNotification(note),
	)
	if err != nil {
		return model.RedeemedReward{}, err
	}

	s.logger.Info("reward redeemed", "redemption_id", rr.ID, "child_id", childID, "reward_id", rewardID, "cost", reward.PointsCost)
	if s.notifier != nil {
		s.notifier.NotifyRedemption(ctx, rr, child.Name)
	}
	return rr, nil
}

// MarkUsed moves an active redemption to used.
func (s *Service) MarkUsed(ctx context.Context, familyID, id string) (model.RedeemedReward, error) {
	now := s.now()
	var out model.RedeemedReward
	err := s.gw.WriteAtomic(ctx, store.UpdateRedemption(familyID, id, func(rr *model.RedeemedReward) error {
		if err := MarkUsed(rr, now); err != nil {
			return err
		}
		out = *rr
		return nil
	}))
	if err != nil {
		return model.RedeemedReward{}, err
	}
	return out, nil
}

// SweepExpired stores the expired status on every active redemption whose
// expiry is before now and returns how many changed.
func (s *Service) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := s.gw.WriteAtomic(ctx, store.SweepRedemptions(func(rr *model.RedeemedReward) bool {
		return Expire(rr, now)
	}, &n))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("redemptions expired", "count", n)
	}
	return n, nil
}

type Filter struct {
	FamilyID   string
	ChildID    string
	ActiveOnly bool
}

// List returns redemptions newest first with their effective status.
func (s *Service) List(ctx context.Context, f Filter) ([]model.RedeemedReward, error) {
	all, err := s.gw.ListRedemptions(ctx, store.RedemptionFilter{FamilyID: f.FamilyID, ChildID: f.ChildID})
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]model.RedeemedReward, 0, len(all))
	for _, rr := range all {
		rr.Status = EffectiveStatus(rr, now)
		if f.ActiveOnly && rr.Status != model.RedemptionActive {
			continue
		}
		out = append(out, rr)
	}
	return out, nil
}

// Get returns one redemption with its effective status.
func (s *Service) Get(ctx context.Context, familyID, id string) (model.RedeemedReward, error) {
	rr, err := s.gw.GetRedemption(ctx, familyID, id)
	if err != nil {
		return model.RedeemedReward{}, err
	}
	rr.Status = EffectiveStatus(rr, s.now())
	return rr, nil
}
