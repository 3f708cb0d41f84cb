package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"campusid/internal/session"
)

type verdictClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

type shareVerdictResp struct {
	ShareableURL string `json:"shareable_url"`
	Token        string `json:"token"`
}

func (h *Handlers) shareSecret() ([]byte, error) {
	if h.Cfg.ShareTokenSecret != "" {
		return []byte(h.Cfg.ShareTokenSecret), nil
	}
	return nil, errors.New("missing SHARE_TOKEN_SECRET/JWT_SECRET")
}

// ShareVerdict: POST /api/v1/verification/{id}/share
// Mints a short-lived signed link the approval workflow can follow to
// read the verdict without any other credential. Only submitted
// sessions are shareable.
func (h *Handlers) ShareVerdict(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing session id"})
		return
	}

	// Be liberal in what we accept from the frontend
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		payload = map[string]any{}
	}
	parseHours := func(x any) (int, bool) {
		switch t := x.(type) {
		case float64:
			return int(t), true
		case json.Number:
			if i, err := strconv.Atoi(t.String()); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return i, true
			}
		}
		return 0, false
	}
	expires := 24
	for _, key := range []string{"expires_in_hours", "expiresInHours", "duration"} {
		if v, ok := payload[key]; ok {
			if i, ok2 := parseHours(v); ok2 {
				expires = i
				break
			}
		}
	}
	// Enforce 1..168 hours to avoid immediately-expired tokens
	if expires < 1 || expires > 168 {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "expires_in_hours must be between 1 and 168"})
		return
	}

	rec, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeSessionErr(w, err)
		return
	}
	if rec.State != session.StateSubmitted {
		writeJSONResp(w, http.StatusConflict, map[string]any{"status": "Invalid_State", "message": "only submitted sessions can be shared"})
		return
	}

	secret, err := h.shareSecret()
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "server misconfigured"})
		return
	}

	exp := time.Now().Add(time.Duration(expires) * time.Hour)
	claims := verdictClaims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(secret)
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "failed to sign share token"})
		return
	}

	url := fmt.Sprintf("%s/verdict/%s?token=%s", trimRightSlash(h.Cfg.FrontendBaseURL), id, signed)
	writeJSONResp(w, http.StatusOK, shareVerdictResp{ShareableURL: url, Token: signed})
}

// VerdictInfo: GET /api/v1/verdict-info/{id}?token=...
// Token-gated read of a submitted session's verdict and match lists.
func (h *Handlers) VerdictInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{"status": "Bad_Request", "message": "missing session id"})
		return
	}
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verdict link is invalid or has expired."})
		return
	}

	secret, err := h.shareSecret()
	if err != nil {
		writeJSONResp(w, http.StatusInternalServerError, map[string]any{"status": "Server_Error", "message": "server misconfigured"})
		return
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &verdictClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verdict link is invalid or has expired."})
		return
	}
	claims, ok := parsed.Claims.(*verdictClaims)
	if !ok || claims.SessionID == "" || claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		writeJSONResp(w, http.StatusUnauthorized, map[string]any{"status": "Unauthorized", "message": "This verdict link is invalid or has expired."})
		return
	}
	if claims.SessionID != id {
		writeJSONResp(w, http.StatusForbidden, map[string]any{"status": "Forbidden", "message": "session id mismatch"})
		return
	}

	rec, err := h.Manager.Get(r.Context(), id)
	if err != nil {
		writeSessionErr(w, err)
		return
	}
	writeJSONResp(w, http.StatusOK, map[string]any{
		"verdict":     rec.Verdict,
		"match":       rec.Match,
		"confidence":  rec.Confidence,
		"valid_until": claims.ExpiresAt.Time,
	})
}
