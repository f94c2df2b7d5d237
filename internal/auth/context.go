package auth

import (
	"context"

	"github.com/dukerupert/chorely/internal/model"
)

type contextKey struct{}

// Identity is the authenticated caller. ChildID is set only for child accounts.
type Identity struct {
	AccountID string
	FamilyID  string
	Role      model.Role
	ChildID   string
	SessionID string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

func FamilyID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.FamilyID
}

func AccountID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.AccountID
}

func IsParent(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.Role == model.RoleParent
}

// CanActFor reports whether the caller may act on behalf of childID. Parents
// may act for any child in their family; a child only for themself.
func CanActFor(ctx context.Context, childID string) bool {
	id, ok := FromContext(ctx)
	if !ok {
		return false
	}
	if id.Role == model.RoleParent {
		return true
	}
	return id.ChildID != "" && id.ChildID == childID
}
