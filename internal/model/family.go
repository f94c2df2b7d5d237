package model

import "time"

type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Account is a credential-holding login. Child accounts point at their Child record.
type Account struct {
	ID           string    `json:"id"`
	FamilyID     string    `json:"family_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	ChildID      *string   `json:"child_id,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Child holds a child's profile and ledger. Points, Level and CompletedTasks
// are only written through ledger operations.
type Child struct {
	ID             string    `json:"id"`
	FamilyID       string    `json:"family_id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Avatar         string    `json:"avatar"`
	Points         int       `json:"points"`
	Level          int       `json:"level"`
	CompletedTasks int       `json:"completed_tasks"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
