package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wireheat/afterhours/internal/models"
)

// guestTokenTTL bounds how long a dashboard session stays valid before the
// client must fetch a fresh token.
const guestTokenTTL = 24 * time.Hour

// tokenHandler mints a short-lived guest JWT for the dashboard client.
func (s *Server) tokenHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if len(s.tokenSecret) == 0 {
		slog.Error("Server.tokenHandler: no token secret configured")
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Token service not configured"))
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": "guest-" + uuid.NewString(),
		"iss": "afterhours",
		"iat": now.Unix(),
		"exp": now.Add(guestTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		slog.Error("Server.tokenHandler: failed to sign token", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to issue token"))
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"access_token": signed,
		"token_type":   "bearer",
		"expires_in":   int(guestTokenTTL.Seconds()),
	})
}
