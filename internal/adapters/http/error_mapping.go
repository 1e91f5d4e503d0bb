package httpadapter

import (
	"net/http"

	"github.com/ScriptSmith/hadrian-sub004/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrNoVectorStores),
		domain.IsKind(err, domain.ErrIncompatibleStores):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrVectorStoreNotFound),
		domain.IsKind(err, domain.ErrFileNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrCircuitOpen),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrEmbedding),
		domain.IsKind(err, domain.ErrSearch),
		domain.IsKind(err, domain.ErrRerank):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
