package usecase

import (
	"context"
	"fmt"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
	"github.com/ScriptSmith/hadrian-sub004/internal/core/ports"
)

// AccessEvaluator decides whether a caller may query a vector store.
//
// Credential-scope and identity-claim checks are in-memory and always
// evaluated before the membership lookups, which are the only path that
// costs a database round trip.
type AccessEvaluator struct {
	members ports.MembershipRepository
}

func NewAccessEvaluator(members ports.MembershipRepository) *AccessEvaluator {
	return &AccessEvaluator{members: members}
}

// CanAccess applies the ownership decision table. A nil auth context is a
// trusted internal caller and is granted unconditionally.
func (e *AccessEvaluator) CanAccess(
	ctx context.Context,
	store *domain.VectorStore,
	auth *domain.SearchAuthContext,
) (bool, error) {
	if auth == nil {
		return true, nil
	}

	switch store.OwnerType {
	case domain.OwnerUser:
		// User-owned: user id must match the owner exactly, no fallback.
		return auth.UserID != nil && *auth.UserID == store.OwnerID, nil

	case domain.OwnerOrganization:
		if auth.GrantsOrg(store.OwnerID) {
			return true, nil
		}
		if auth.UserID == nil {
			return false, nil
		}
		ok, err := e.members.IsOrgMember(ctx, store.OwnerID, *auth.UserID)
		if err != nil {
			return false, fmt.Errorf("org membership lookup: %w", err)
		}
		return ok, nil

	case domain.OwnerTeam:
		if auth.UserID == nil {
			return false, nil
		}
		ok, err := e.members.IsTeamMember(ctx, store.OwnerID, *auth.UserID)
		if err != nil {
			return false, fmt.Errorf("team membership lookup: %w", err)
		}
		return ok, nil

	case domain.OwnerProject:
		if auth.GrantsProject(store.OwnerID) {
			return true, nil
		}
		if auth.UserID == nil {
			return false, nil
		}
		ok, err := e.members.IsProjectMember(ctx, store.OwnerID, *auth.UserID)
		if err != nil {
			return false, fmt.Errorf("project membership lookup: %w", err)
		}
		return ok, nil

	default:
		return false, nil
	}
}
