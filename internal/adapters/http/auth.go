package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

// Identity headers set by the trusting edge gateway. The service never
// verifies credentials itself; an upstream proxy strips these headers
// from external traffic and injects the resolved identity.
const (
	headerAuthUserID         = "X-Auth-User-Id"
	headerAuthOrgID          = "X-Auth-Org-Id"
	headerAuthProjectID      = "X-Auth-Project-Id"
	headerIdentityOrgIDs     = "X-Identity-Org-Ids"
	headerIdentityProjectIDs = "X-Identity-Project-Ids"
)

// authContextFromHeaders builds the caller's access context. No identity
// headers at all means a trusted internal caller and returns nil, which
// the access evaluator treats as unrestricted.
func authContextFromHeaders(h http.Header) (*domain.SearchAuthContext, error) {
	userID, err := parseUUIDHeader(h, headerAuthUserID)
	if err != nil {
		return nil, err
	}
	orgID, err := parseUUIDHeader(h, headerAuthOrgID)
	if err != nil {
		return nil, err
	}
	projectID, err := parseUUIDHeader(h, headerAuthProjectID)
	if err != nil {
		return nil, err
	}
	identityOrgs := splitIDList(h.Get(headerIdentityOrgIDs))
	identityProjects := splitIDList(h.Get(headerIdentityProjectIDs))

	if userID == nil && orgID == nil && projectID == nil &&
		len(identityOrgs) == 0 && len(identityProjects) == 0 {
		return nil, nil
	}

	return &domain.SearchAuthContext{
		UserID:             userID,
		OrgID:              orgID,
		ProjectID:          projectID,
		IdentityOrgIDs:     identityOrgs,
		IdentityProjectIDs: identityProjects,
	}, nil
}

func parseUUIDHeader(h http.Header, name string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("header %s must be a uuid", name)
	}
	return &id, nil
}

func splitIDList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
