package access

import (
	"context"
	"net/http"

	"github.com/reelbrief/server/pkg/responders"
)

type contextKey string

const contextKeyDecision contextKey = "access.decision"

// BusinessResolver extracts the tenant identifier from the request.
type BusinessResolver func(*http.Request) (string, error)

// Middleware enforces the access gate before calling the downstream handler.
// Denied requests get a 403 with the redirect path the frontend should send
// the user to; fail-open passes look identical to allowed requests.
func (g *Gate) Middleware(resolver BusinessResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			businessID, err := resolver(r)
			if err != nil || businessID == "" {
				responders.JSON(w, http.StatusBadRequest, map[string]any{
					"error": "missing business identifier",
				})
				return
			}

			result := g.Check(r.Context(), businessID)
			if !result.Allow {
				responders.JSON(w, http.StatusForbidden, result)
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyDecision, result.Decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DecisionFromContext returns the decision stored by the middleware, if any.
func DecisionFromContext(ctx context.Context) (Decision, bool) {
	d, ok := ctx.Value(contextKeyDecision).(Decision)
	return d, ok
}
