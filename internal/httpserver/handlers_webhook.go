package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	apierrors "github.com/reelbrief/server/internal/errors"
	"github.com/reelbrief/server/internal/logger"
	stripesvc "github.com/reelbrief/server/internal/stripe"
	"github.com/reelbrief/server/pkg/responders"
)

// maxWebhookBody bounds the webhook request body. Stripe events are small;
// anything bigger is not Stripe.
const maxWebhookBody = 1 << 20

// handleStripeWebhook processes one inbound Stripe event. The body must
// reach the verifier as the exact bytes received, so it is read raw before
// any decoding. Returns 2xx only after successful processing or a confirmed
// duplicate; any non-2xx leaves storage untouched or retriable.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	signature := r.Header.Get("Stripe-Signature")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Error().Err(err).Msg("stripe.webhook.read_body_failed")
		apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidField, fmt.Sprintf("read body: %v", err))
		return
	}

	if err := s.reconciler.Process(r.Context(), body, signature); err != nil {
		switch {
		case errors.Is(err, stripesvc.ErrInvalidSignature):
			log.Warn().Err(err).Msg("stripe.webhook.invalid_signature")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidSignature, err.Error())
		case errors.Is(err, stripesvc.ErrValidation):
			log.Warn().Err(err).Msg("stripe.webhook.invalid_event")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeInvalidEvent, err.Error())
		case errors.Is(err, stripesvc.ErrTenantNotFound):
			log.Warn().Err(err).Msg("stripe.webhook.unknown_tenant")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeUnknownTenant, err.Error())
		case errors.Is(err, stripesvc.ErrProviderUnavailable):
			log.Error().Err(err).Msg("stripe.webhook.provider_unavailable")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeStripeError, err.Error())
		default:
			log.Error().Err(err).Msg("stripe.webhook.failed")
			apierrors.WriteSimpleError(w, apierrors.ErrCodeInternalError, err.Error())
		}
		return
	}

	responders.JSON(w, http.StatusOK, map[string]any{
		"received": true,
	})
}
