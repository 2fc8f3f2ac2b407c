package public

import (
	"context"
	"net/http"
	"strings"

	"github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	publicapp "github.com/sngm3741/revision-landing-services/api/internal/public/application"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

const msgMalformedRequest = "요청 형식이 올바르지 않습니다."

type utmPayload struct {
	Source   string `json:"source"`
	Medium   string `json:"medium"`
	Campaign string `json:"campaign"`
	Term     string `json:"term"`
	Content  string `json:"content"`
}

func (p utmPayload) params() domain.UTMParams {
	opt := func(v string) *string {
		if v = strings.TrimSpace(v); v == "" {
			return nil
		}
		return &v
	}
	return domain.UTMParams{
		Source:   opt(p.Source),
		Medium:   opt(p.Medium),
		Campaign: opt(p.Campaign),
		Term:     opt(p.Term),
		Content:  opt(p.Content),
	}
}

type createLeadRequest struct {
	Name              string      `json:"name"`
	Phone             string      `json:"phone"`
	RevisionTypeID    *int        `json:"revisionTypeId"`
	RevisionTypeTitle string      `json:"revisionTypeTitle"`
	Consent           bool        `json:"consent"`
	UTM               *utmPayload `json:"utm,omitempty"`
}

type validateLeadResponse struct {
	Valid  bool               `json:"valid"`
	Lead   *domain.LeadForm   `json:"lead,omitempty"`
	Errors domain.FieldErrors `json:"errors,omitempty"`
}

func (h *Handler) leadCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req createLeadRequest
		if err := common.DecodeJSON(r.Body, common.MaxLeadRequestBody, &req); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, publicapp.SubmitLeadResult{
				Success: false,
				Message: msgMalformedRequest,
				Error:   msgMalformedRequest,
			})
			return
		}

		store, hasSession := h.currentSession(r)

		typeID := domain.RevisionTypeNone
		switch {
		case req.RevisionTypeID != nil:
			typeID = *req.RevisionTypeID
		case hasSession && store.SelectedTypeID() != nil:
			typeID = *store.SelectedTypeID()
		}
		title := strings.TrimSpace(req.RevisionTypeTitle)
		if title == "" {
			title = domain.RevisionTypeTitle(typeID)
		}

		reqCtx := publicapp.RequestContext{
			UserAgent: r.UserAgent(),
			IPAddress: common.ClientIP(r, h.trustedProxies),
			Referrer:  r.Referer(),
		}
		if req.UTM != nil {
			if params := req.UTM.params(); params.HasAny() {
				reqCtx.UTM = &params
			}
		}
		if reqCtx.UTM == nil && hasSession {
			if params := store.UTM(); params.HasAny() {
				reqCtx.UTM = &params
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
		defer cancel()

		result := h.intake.SubmitLead(ctx, publicapp.SubmitLeadInput{
			Name:              req.Name,
			Phone:             req.Phone,
			RevisionTypeID:    typeID,
			RevisionTypeTitle: title,
			Consent:           req.Consent,
		}, reqCtx)

		if result.Success && hasSession {
			store.MarkSubmitted(strings.TrimSpace(req.Name))
		}

		common.WriteJSON(h.logger, w, statusForResult(result), result)
	}
}

func (h *Handler) leadValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var form domain.LeadForm
		if err := common.DecodeJSON(r.Body, common.MaxLeadRequestBody, &form); err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": msgMalformedRequest})
			return
		}

		normalized, errs := domain.ValidateForm(form)
		if !errs.Empty() {
			common.WriteJSON(h.logger, w, http.StatusUnprocessableEntity, validateLeadResponse{Valid: false, Errors: errs})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, validateLeadResponse{Valid: true, Lead: &normalized})
	}
}

func statusForResult(result publicapp.SubmitLeadResult) int {
	switch result.Kind {
	case publicapp.ResultOK:
		return http.StatusCreated
	case publicapp.ResultValidation:
		return http.StatusBadRequest
	case publicapp.ResultDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
