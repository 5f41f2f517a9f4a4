package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/reelbrief/server/internal/errors"
	"github.com/reelbrief/server/internal/subscriptions"
	"github.com/reelbrief/server/pkg/responders"
)

// getAccessStatus returns the gate's verdict for a business: whether the
// tenant may use the product, the banner to show, and where to redirect when
// denied. The page-routing layer calls this on every protected navigation.
func (s *Server) getAccessStatus(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	if businessID == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "businessID is required")
		return
	}

	result := s.gate.Check(r.Context(), businessID)
	responders.JSON(w, http.StatusOK, result)
}

// getSubscription returns the stored subscription record plus its current
// evaluation, for the billing settings page.
func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	if businessID == "" {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeMissingField, "businessID is required")
		return
	}

	rec, err := s.repo.GetByBusinessID(r.Context(), businessID)
	if errors.Is(err, subscriptions.ErrNotFound) {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeSubscriptionNotFound, "no subscription for business")
		return
	}
	if err != nil {
		apierrors.WriteSimpleError(w, apierrors.ErrCodeDatabaseError, "subscription lookup failed")
		return
	}

	responders.JSON(w, http.StatusOK, map[string]any{
		"subscription": rec,
		"decision":     s.gate.Evaluate(&rec, time.Now()),
	})
}
