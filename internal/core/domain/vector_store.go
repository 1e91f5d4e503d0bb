package domain

import (
	"time"

	"github.com/google/uuid"
)

// OwnerType identifies which tenancy model owns a vector store.
type OwnerType string

const (
	OwnerUser         OwnerType = "user"
	OwnerOrganization OwnerType = "organization"
	OwnerTeam         OwnerType = "team"
	OwnerProject      OwnerType = "project"
)

func (t OwnerType) Valid() bool {
	switch t {
	case OwnerUser, OwnerOrganization, OwnerTeam, OwnerProject:
		return true
	}
	return false
}

// VectorStore is the metadata record for a searchable collection of
// embedded chunks. EmbeddingModel and EmbeddingDimensions are immutable
// for the store's lifetime; changing them would invalidate every vector
// already indexed under it.
type VectorStore struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	OwnerType           OwnerType `json:"owner_type"`
	OwnerID             uuid.UUID `json:"owner_id"`
	EmbeddingModel      string    `json:"embedding_model"`
	EmbeddingDimensions int       `json:"embedding_dimensions"`
	CreatedAt           time.Time `json:"created_at"`
}

// SearchAuthContext carries the caller identity resolved from the
// presented credential plus any org/project ids asserted by a federated
// identity token. It is read-only; a nil *SearchAuthContext means a
// trusted internal caller and grants access unconditionally.
type SearchAuthContext struct {
	UserID             *uuid.UUID
	OrgID              *uuid.UUID
	ProjectID          *uuid.UUID
	IdentityOrgIDs     []string
	IdentityProjectIDs []string
}

func (a *SearchAuthContext) hasIdentityOrg(id uuid.UUID) bool {
	for _, s := range a.IdentityOrgIDs {
		if s == id.String() {
			return true
		}
	}
	return false
}

func (a *SearchAuthContext) hasIdentityProject(id uuid.UUID) bool {
	for _, s := range a.IdentityProjectIDs {
		if s == id.String() {
			return true
		}
	}
	return false
}

// GrantsOrg reports whether the credential scope or identity claims alone
// (no membership lookup) grant access to an org-owned store.
func (a *SearchAuthContext) GrantsOrg(orgID uuid.UUID) bool {
	if a.OrgID != nil && *a.OrgID == orgID {
		return true
	}
	return a.hasIdentityOrg(orgID)
}

// GrantsProject reports whether the credential scope or identity claims
// alone grant access to a project-owned store.
func (a *SearchAuthContext) GrantsProject(projectID uuid.UUID) bool {
	if a.ProjectID != nil && *a.ProjectID == projectID {
		return true
	}
	return a.hasIdentityProject(projectID)
}
