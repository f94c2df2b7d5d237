package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

const notificationCols = `id, family_id, type, child_id, reward_id, title, points_cost, read, created_at`

// ListNotifications returns the family's notifications, newest first.
func (g *Gateway) ListNotifications(ctx context.Context, familyID string) ([]model.Notification, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE family_id = ? ORDER BY created_at DESC, id ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.FamilyID, &n.Type, &n.ChildID, &n.RewardID, &n.Title, &n.PointsCost,
			&read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Read = read != 0
		out = append(out, n)
	}
	return out, rows.Err()
}
