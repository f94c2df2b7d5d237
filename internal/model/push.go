package model

import "time"

const NotifTypeRewardRedeemed = "reward_redeemed"

// Notification is an in-app message for the family's parents.
type Notification struct {
	ID         string    `json:"id"`
	FamilyID   string    `json:"family_id"`
	Type       string    `json:"type"`
	ChildID    string    `json:"child_id"`
	RewardID   string    `json:"reward_id"`
	Title      string    `json:"title"`
	PointsCost int       `json:"points_cost"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

type PushSubscription struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	FamilyID  string    `json:"family_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"p256dh_key"`
	AuthKey   string    `json:"auth_key"`
	CreatedAt time.Time `json:"created_at"`
}
