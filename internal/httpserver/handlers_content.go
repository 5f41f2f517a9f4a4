package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reelbrief/server/internal/content"
	apierrors "github.com/reelbrief/server/internal/errors"
	"github.com/reelbrief/server/pkg/responders"
)

// listContent serves the classified dashboard listing. The optional filter
// query selects a display bucket; the drafts bucket includes failed items.
func (s *Server) listContent(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")

	filter := content.VisibilityState(r.URL.Query().Get("filter"))
	switch filter {
	case "", content.StateProcessing, content.StateDraft, content.StateScheduled,
		content.StatePartiallyPublished, content.StateCompleted:
	default:
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, "unknown filter value")
		return
	}

	items, err := s.content.Dashboard(r.Context(), businessID, filter)
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeDatabaseError, "content listing failed")
		return
	}

	responders.JSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}
