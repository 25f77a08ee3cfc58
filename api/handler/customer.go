package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/pulsecrm/backend/api/transport"
	"github.com/pulsecrm/backend/domain"
	"github.com/pulsecrm/backend/pkg/httpcontext"
	"github.com/pulsecrm/backend/repository"
	customerUC "github.com/pulsecrm/backend/usecase/customer"
)

type CustomerHandler struct {
	baseHandler
	uc *customerUC.UseCase
}

func NewCustomerHandler(uc *customerUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List customers
// @Tags customers
// @Router /api/v1/customers [get]
func (h *CustomerHandler) List(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	filter := repository.CustomerFilter{
		Search: string(ctx.QueryArgs().Peek("search")),
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	customers, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, customers)
}

// @Summary Get a customer
// @Tags customers
// @Router /api/v1/customers/{id} [get]
func (h *CustomerHandler) Get(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing customer id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	customer, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, customer)
}

// @Summary Create customer
// @Tags customers
// @Router /api/v1/customers [post]
func (h *CustomerHandler) Create(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	customer, ok := h.parseCustomer(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, customer)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update customer
// @Tags customers
// @Router /api/v1/customers/{id} [put]
func (h *CustomerHandler) Update(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	customer, ok := h.parseCustomer(ctx)
	if !ok {
		return
	}
	if customer.ID == "" {
		customer.ID = pathParam(ctx, "id")
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, customer)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete customer
// @Tags customers
// @Router /api/v1/customers/{id} [delete]
func (h *CustomerHandler) Delete(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing customer id", nil))
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

// @Summary Ingest an order event
// @Tags orders
// @Router /api/v1/orders [post]
func (h *CustomerHandler) IngestOrder(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	var req transport.OrderRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	order := &domain.Order{
		CustomerID: req.CustomerID,
		Amount:     req.Amount,
		Items:      req.Items,
	}
	if req.PlacedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, req.PlacedAt); err == nil {
			order.PlacedAt = parsed
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	customer, err := h.uc.IngestOrder(stdCtx, order)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, customer)
}

// @Summary List a customer's orders
// @Tags orders
// @Router /api/v1/customers/{id}/orders [get]
func (h *CustomerHandler) Orders(ctx *fasthttp.RequestCtx) {
	if h.userID(ctx) == "" {
		return
	}

	id := pathParam(ctx, "id")
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing customer id", nil))
		return
	}

	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	orders, err := h.uc.Orders(stdCtx, id, limit, offset)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, orders)
}

func (h *CustomerHandler) parseCustomer(ctx *fasthttp.RequestCtx) (*domain.Customer, bool) {
	var req transport.CustomerRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return nil, false
	}
	return &domain.Customer{
		ID:       req.ID,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Location: req.Location,
	}, true
}
