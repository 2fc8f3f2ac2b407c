package public

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
	"github.com/sngm3741/revision-landing-services/api/internal/public/session"
)

const (
	sessionCookieName   = "rl_funnel_session"
	sessionCookieTTL    = 30 * 24 * time.Hour
	sessionCookieMaxAge = int(sessionCookieTTL / time.Second)
)

type sessionCategoryRequest struct {
	RevisionTypeID int `json:"revisionTypeId"`
}

type sessionResponse struct {
	session.State
	SelectedTypeTitle string `json:"selectedTypeTitle,omitempty"`
}

func newSessionResponse(state session.State) sessionResponse {
	resp := sessionResponse{State: state}
	if state.SelectedTypeID != nil {
		resp.SelectedTypeTitle = domain.RevisionTypeTitle(*state.SelectedTypeID)
	}
	return resp
}

func (h *Handler) sessionGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := h.ensureSession(w, r)
		if err != nil {
			h.logf("funnel session cookie error: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "세션을 처리하지 못했습니다."})
			return
		}

		if store.SetUTM(domain.UTMFromQuery(r.URL.Query())) {
			h.logf("UTM を記録しました: source=%s", domain.StringValue(store.UTM().Source))
		}

		common.WriteJSON(h.logger, w, http.StatusOK, newSessionResponse(store.Snapshot()))
	}
}

func (h *Handler) sessionCategoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req sessionCategoryRequest
		if err := common.DecodeJSON(r.Body, common.MaxLeadRequestBody, &req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "요청 형식이 올바르지 않습니다."})
			return
		}

		store, err := h.ensureSession(w, r)
		if err != nil {
			h.logf("funnel session cookie error: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "세션을 처리하지 못했습니다."})
			return
		}

		if err := store.SetSelectedTypeID(req.RevisionTypeID); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{
				"error": domain.MsgInvalidRevisionType,
				"field": domain.FieldRevisionTypeID,
			})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, newSessionResponse(store.Snapshot()))
	}
}

func (h *Handler) sessionResetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := h.sessionIDFromRequest(r); ok {
			if store, found := h.sessions.Lookup(id); found {
				store.Reset()
			}
		}
		common.WriteJSON(h.logger, w, http.StatusOK, newSessionResponse(session.State{}))
	}
}

// currentSession returns the caller's session without creating one.
func (h *Handler) currentSession(r *http.Request) (*session.Store, bool) {
	id, ok := h.sessionIDFromRequest(r)
	if !ok {
		return nil, false
	}
	return h.sessions.Lookup(id)
}

// ensureSession returns the caller's session, issuing a fresh cookie when the
// request carries none or an invalid one.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (*session.Store, error) {
	if len(h.sessionSecret) == 0 {
		return nil, errors.New("session secret not configured")
	}
	if id, ok := h.sessionIDFromRequest(r); ok {
		store, _ := h.sessions.Get(id)
		return store, nil
	}
	id := session.NewID()
	h.issueSessionCookie(w, id)
	store, _ := h.sessions.Get(id)
	return store, nil
}

func (h *Handler) sessionIDFromRequest(r *http.Request) (string, bool) {
	if len(h.sessionSecret) == 0 {
		return "", false
	}
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	id, issuedAt, ok := h.parseSessionCookie(cookie.Value)
	if !ok || h.now().Sub(issuedAt) >= sessionCookieTTL {
		return "", false
	}
	return id, true
}

func (h *Handler) issueSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    h.signSessionCookie(id, h.now().UTC()),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.sessionSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sessionCookieMaxAge,
	})
}

func (h *Handler) signSessionCookie(id string, issuedAt time.Time) string {
	payload := fmt.Sprintf("v=%s&ts=%d", id, issuedAt.Unix())
	return payload + "&sig=" + h.sessionSignature(payload)
}

func (h *Handler) sessionSignature(payload string) string {
	mac := hmac.New(sha256.New, h.sessionSecret)
	io.WriteString(mac, payload)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) parseSessionCookie(raw string) (string, time.Time, bool) {
	values := make(map[string]string, 3)
	for _, part := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		values[key] = value
	}
	id, timestamp, sig := values["v"], values["ts"], values["sig"]
	if id == "" || timestamp == "" || sig == "" {
		return "", time.Time{}, false
	}

	expected := h.sessionSignature(fmt.Sprintf("v=%s&ts=%s", id, timestamp))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", time.Time{}, false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return id, time.Unix(ts, 0), true
}
