package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

func scanChild(s scanner) (*model.Child, error) {
	var c model.Child
	err := s.Scan(&c.ID, &c.FamilyID, &c.Name, &c.Age, &c.Avatar, &c.Points, &c.Level,
		&c.CompletedTasks, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const childCols = `id, family_id, name, age, avatar, points, level, completed_tasks, version, created_at, updated_at`

func getChild(ctx context.Context, q querier, familyID, id string) (*model.Child, error) {
	row := q.QueryRowContext(ctx, `SELECT `+childCols+` FROM children WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

// GetChild returns the child or model.ErrChildNotFound.
func (g *Gateway) GetChild(ctx context.Context, familyID, id string) (model.Child, error) {
	c, err := getChild(ctx, g.db, familyID, id)
	if err != nil {
		return model.Child{}, err
	}
	if c == nil {
		return model.Child{}, model.ErrChildNotFound
	}
	return *c, nil
}

// ListChildren returns a family's children ordered by name.
func (g *Gateway) ListChildren(ctx context.Context, familyID string) ([]model.Child, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT `+childCols+` FROM children WHERE family_id = ? ORDER BY name ASC, created_at ASC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}
