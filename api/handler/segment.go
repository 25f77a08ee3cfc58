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
	segmentUC "github.com/pulsecrm/backend/usecase/segment"
)

type SegmentHandler struct {
	baseHandler
	uc *segmentUC.UseCase
}

func NewSegmentHandler(uc *segmentUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *SegmentHandler {
	return &SegmentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Preview a segment rule without persisting
// @Tags segments
// @Router /api/v1/segments/preview [post]
func (h *SegmentHandler) Preview(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.SegmentPreviewRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	preview, err := h.uc.Preview(stdCtx, req.Rules)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, preview)
}

// @Summary Translate a free-text objective into a segment rule
// @Tags segments
// @Router /api/v1/segments/translate [post]
func (h *SegmentHandler) Translate(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.TranslateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	rulesDoc, err := h.uc.Translate(stdCtx, req.Objective)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{"rules": json.RawMessage(rulesDoc)})
}

// @Summary List segments
// @Tags segments
// @Router /api/v1/segments [get]
func (h *SegmentHandler) List(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	filter := repository.SegmentFilter{
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	segments, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, segments)
}

// @Summary Get a segment
// @Tags segments
// @Router /api/v1/segments/{id} [get]
func (h *SegmentHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing segment id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	segment, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, segment)
}

// @Summary Create segment (materializes the audience snapshot)
// @Tags segments
// @Router /api/v1/segments [post]
func (h *SegmentHandler) Create(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.SegmentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	segment, err := h.uc.Create(stdCtx, req.Name, req.Description, req.Rules)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, segment)
}

// @Summary Update segment (re-evaluates its rule, replaces the snapshot)
// @Tags segments
// @Router /api/v1/segments/{id} [put]
func (h *SegmentHandler) Update(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing segment id", nil))
		return
	}

	var req transport.SegmentRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	segment, err := h.uc.Update(stdCtx, id, req.Name, req.Description, req.Rules)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, segment)
}

// @Summary Delete segment
// @Tags segments
// @Router /api/v1/segments/{id} [delete]
func (h *SegmentHandler) Delete(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing segment id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
