package admin

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/revision-landing-services/api/internal/admin/application"
	"github.com/sngm3741/revision-landing-services/api/internal/interfaces/http/common"
	publicdomain "github.com/sngm3741/revision-landing-services/api/internal/public/domain"
)

func (h *Handler) leadListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		typeID, err := common.ParseOptionalInt(query.Get("revisionTypeId"))
		if err != nil || (typeID != nil && !publicdomain.ValidRevisionTypeID(*typeID)) {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "revisionTypeId が不正です"})
			return
		}
		page, _ := common.ParsePositiveInt(query.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(query.Get("limit"), common.DefaultAdminPageSize)

		filter := adminapp.LeadFilter{
			Status:         strings.TrimSpace(query.Get("status")),
			RevisionTypeID: typeID,
			Keyword:        strings.TrimSpace(query.Get("keyword")),
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		result, err := h.leadService.List(ctx, filter, adminapp.Paging{Page: page, Limit: limit})
		if err != nil {
			h.logger.Printf("admin lead list fetch failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "リード一覧の取得に失敗しました"})
			return
		}

		items := make([]adminLeadResponse, 0, len(result.Items))
		for _, lead := range result.Items {
			items = append(items, adminLeadResponseFromDomain(lead, h.location))
		}
		common.WriteJSON(h.logger, w, http.StatusOK, adminLeadListResponse{
			Items: items,
			Total: result.Total,
			Page:  result.Page,
			Limit: result.Limit,
		})
	}
}

func (h *Handler) leadDetailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idParam := strings.TrimSpace(chi.URLParam(r, "id"))
		if idParam == "" {
			common.WriteJSON(h.logger, w, http.StatusBadRequest, map[string]string{"error": "リードIDが指定されていません"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		lead, err := h.leadService.Detail(ctx, idParam)
		if err != nil {
			if errors.Is(err, publicdomain.ErrLeadNotFound) {
				common.WriteJSON(h.logger, w, http.StatusNotFound, map[string]string{"error": "リードが見つかりません"})
				return
			}
			h.logger.Printf("admin lead detail fetch failed id=%s err=%v", idParam, err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "リードの取得に失敗しました"})
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, adminLeadResponseFromDomain(*lead, h.location))
	}
}

func (h *Handler) leadStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		stats, err := h.leadService.Stats(ctx)
		if err != nil {
			h.logger.Printf("admin lead stats failed: %v", err)
			common.WriteJSON(h.logger, w, http.StatusInternalServerError, map[string]string{"error": "集計に失敗しました"})
			return
		}
		common.WriteJSON(h.logger, w, http.StatusOK, stats)
	}
}
