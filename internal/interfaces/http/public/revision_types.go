package public

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	"github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

type revisionTypeResponse struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Cause        string  `json:"cause"`
	Method       string  `json:"method"`
	Thumb        string  `json:"thumb"`
	BeforeAfter  *string `json:"beforeAfter,omitempty"`
	SelfieBefore *string `json:"selfieBefore,omitempty"`
	SelfieAfter  *string `json:"selfieAfter,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

type revisionTypeListResponse struct {
	Items []revisionTypeResponse `json:"items"`
}

func (h *Handler) revisionTypeListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		catalog := domain.RevisionTypes()
		items := make([]revisionTypeResponse, 0, len(catalog))
		for _, rt := range catalog {
			items = append(items, h.toRevisionTypeResponse(rt))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, revisionTypeListResponse{Items: items})
	}
}

func (h *Handler) revisionTypeDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": domain.MsgInvalidRevisionType})
			return
		}
		rt, ok := domain.RevisionTypeByID(id)
		if !ok {
			common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "해당 유형을 찾을 수 없습니다."})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, h.toRevisionTypeResponse(rt))
	}
}

func (h *Handler) toRevisionTypeResponse(rt domain.RevisionType) revisionTypeResponse {
	return revisionTypeResponse{
		ID:           rt.ID,
		Title:        rt.Title,
		Cause:        rt.Cause,
		Method:       rt.Method,
		Thumb:        h.mediaURL(rt.Thumb),
		BeforeAfter:  h.optionalMediaURL(rt.BeforeAfter),
		SelfieBefore: h.optionalMediaURL(rt.SelfieBefore),
		SelfieAfter:  h.optionalMediaURL(rt.SelfieAfter),
		ProfileImage: h.optionalMediaURL(rt.ProfileImage),
	}
}

// mediaURL prefixes a catalog file name with MEDIA_BASE_URL when configured.
func (h *Handler) mediaURL(file string) string {
	if h.mediaBaseURL == "" || file == "" {
		return file
	}
	return h.mediaBaseURL + "/" + strings.TrimLeft(file, "/")
}

func (h *Handler) optionalMediaURL(file *string) *string {
	if file == nil {
		return nil
	}
	url := h.mediaURL(*file)
	return &url
}
