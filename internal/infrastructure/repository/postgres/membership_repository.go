package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// MembershipRepository answers access-control membership questions with
// EXISTS probes. Rows here are written by the tenancy control plane;
// this service only reads them.
type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) IsOrgMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2)`, orgID, userID)
}

func (r *MembershipRepository) IsTeamMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`, teamID, userID)
}

func (r *MembershipRepository) IsProjectMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`, projectID, userID)
}

func (r *MembershipRepository) exists(ctx context.Context, query string, ownerID, userID uuid.UUID) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, ownerID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("membership probe: %w", err)
	}
	return ok, nil
}
