package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/chorely/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var childID sql.NullString
	err := s.Scan(&a.ID, &a.FamilyID, &a.Email, &a.Name, &a.Role, &childID, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if childID.Valid {
		a.ChildID = &childID.String
	}
	return &a, nil
}

const accountCols = `id, family_id, email, name, role, child_id, password_hash, created_at, updated_at`

func (s *AccountStore) GetByID(ctx context.Context, id string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

// ListParents returns the parent accounts of a family.
func (s *AccountStore) ListParents(ctx context.Context, familyID string) ([]model.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE family_id = ? AND role = ? ORDER BY created_at ASC`,
		familyID, model.RoleParent,
	)
	if err != nil {
		return nil, fmt.Errorf("list parents: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) GetFamily(ctx context.Context, id string) (*model.Family, error) {
	var f model.Family
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM families WHERE id = ?`, id,
	).Scan(&f.ID, &f.Name, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return &f, nil
}
