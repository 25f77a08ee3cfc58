package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/pulsecrm/backend/api/transport"
	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/pkg/httpcontext"
	"github.com/pulsecrm/backend/repository"
	campaignUC "github.com/pulsecrm/backend/usecase/campaign"
)

type CampaignHandler struct {
	baseHandler
	uc *campaignUC.UseCase
}

func NewCampaignHandler(uc *campaignUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List campaigns
// @Tags campaigns
// @Router /api/v1/campaigns [get]
func (h *CampaignHandler) List(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	filter := repository.CampaignFilter{
		SegmentID: string(ctx.QueryArgs().Peek("segment_id")),
		Status:    string(ctx.QueryArgs().Peek("status")),
		Limit:     parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:    parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	campaigns, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, campaigns)
}

// @Summary Get a campaign
// @Tags campaigns
// @Router /api/v1/campaigns/{id} [get]
func (h *CampaignHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing campaign id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	campaign, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, campaign)
}

// @Summary Launch a campaign against a segment's audience
// @Tags campaigns
// @Router /api/v1/campaigns [post]
func (h *CampaignHandler) Create(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.CampaignRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	campaign, err := h.uc.Create(stdCtx, req.SegmentID, req.Name, req.Message)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, campaign)
}

// @Summary List a campaign's delivery logs
// @Tags campaigns
// @Router /api/v1/campaigns/{id}/logs [get]
func (h *CampaignHandler) Logs(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing campaign id", nil))
		return
	}

	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	logs, err := h.uc.Logs(stdCtx, id, limit, offset)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, logs)
}

// @Summary Suggest campaign messages for an objective
// @Tags campaigns
// @Router /api/v1/campaigns/suggest [post]
func (h *CampaignHandler) Suggest(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.SuggestRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	suggestions, err := h.uc.Suggest(stdCtx, req.Objective)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}

// @Summary Apply a vendor delivery receipt
// @Tags deliveries
// @Router /api/v1/deliveries/receipt [post]
func (h *CampaignHandler) Receipt(ctx *fasthttp.RequestCtx) {
	var req transport.ReceiptRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.DeliveryID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.HandleReceipt(stdCtx, req.DeliveryID, req.Status, req.VendorMessageID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, nil)
}
