package model

import "time"

type RewardCategory string

const (
	RewardScreenTime RewardCategory = "screen-time"
	RewardTreats     RewardCategory = "treats"
	RewardActivities RewardCategory = "activities"
	RewardMoney      RewardCategory = "money"
	RewardPrivileges RewardCategory = "privileges"
)

func (c RewardCategory) Valid() bool {
	switch c {
	case RewardScreenTime, RewardTreats, RewardActivities, RewardMoney, RewardPrivileges:
		return true
	}
	return false
}

type Reward struct {
	ID          string         `json:"id"`
	FamilyID    string         `json:"family_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	PointsCost  int            `json:"points_cost"`
	Category    RewardCategory `json:"category"`
	Available   bool           `json:"available"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type RedemptionStatus string

const (
	RedemptionActive  RedemptionStatus = "active"
	RedemptionUsed    RedemptionStatus = "used"
	RedemptionExpired RedemptionStatus = "expired"
)

// RedeemedReward copies the reward's display fields at redemption time so
// later catalog edits or deletes leave the history intact.
type RedeemedReward struct {
	ID                string           `json:"id"`
	FamilyID          string           `json:"family_id"`
	ChildID           string           `json:"child_id"`
	RewardID          string           `json:"reward_id"`
	RewardTitle       string           `json:"reward_title"`
	RewardDescription string           `json:"reward_description"`
	RewardCategory    RewardCategory   `json:"reward_category"`
	PointsCost        int              `json:"points_cost"`
	RedeemedAt        time.Time        `json:"redeemed_at"`
	ExpiresAt         time.Time        `json:"expires_at"`
	Status            RedemptionStatus `json:"status"`
	UsedAt            *time.Time       `json:"used_at,omitempty"`
	UpdatedAt         time.Time        `json:"updated_at"`
}
