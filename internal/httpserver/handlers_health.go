package httpserver

import (
	"net/http"
	"time"

	"github.com/reelbrief/server/pkg/responders"
)

// health reports liveness and uptime.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	responders.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uptime":  time.Since(serverStartTime).String(),
		"service": "reelbrief-server",
	})
}
