package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstore "github.com/playhub/backend/internal/application/store"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/interfaces/http/dto"
)

const maxWebhookPayloadSize = 65536

// OrderHandler handles order and payment webhook requests
type OrderHandler struct {
	BaseHandler
	orderService *appstore.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *appstore.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// ListMine godoc
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending, paid, fulfilled or cancelled"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstore.OrderDTO,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	h.list(c, h.orderService.ListMyOrders)
}

// ListSales godoc
// @Summary      List sales
// @Description  Orders containing the caller's products
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "pending, paid, fulfilled or cancelled"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstore.OrderDTO,meta=dto.Meta}
// @Router       /orders/sales [get]
func (h *OrderHandler) ListSales(c *gin.Context) {
	h.list(c, h.orderService.ListSales)
}

func (h *OrderHandler) list(c *gin.Context, fetch func(context.Context, uuid.UUID, store.OrderFilter) ([]appstore.OrderDTO, int64, error)) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var query OrderListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter := store.OrderFilter{
		Filter: query.ToFilter(),
		Status: store.OrderStatus(query.Status),
	}

	orders, total, err := fetch(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Filter)
}

// Get godoc
// @Summary      Get order
// @Description  Visible to the buyer, the sellers in the order and admins
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=appstore.OrderDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel godoc
// @Summary      Cancel order
// @Description  Buyer only, pending orders only; items are restocked
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Param        request body CancelOrderRequest false "Reason"
// @Success      200 {object} dto.Response{data=appstore.OrderDTO}
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Fulfill godoc
// @Summary      Fulfill order
// @Description  Seller of every item or admin, paid orders only
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=appstore.OrderDTO}
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /orders/{id}/fulfill [post]
func (h *OrderHandler) Fulfill(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.FulfillOrder(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// PaymentWebhook godoc
// @Summary      Payment webhook
// @Description  Signed payment gateway notifications. Duplicate events are acknowledged.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature header string true "Webhook signature"
// @Success      200 {object} dto.Response
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Router       /payments/webhook [post]
func (h *OrderHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidSignature, "Missing Stripe-Signature header")
		return
	}

	if err := h.orderService.HandlePaymentWebhook(c.Request.Context(), payload, signature); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Webhook received")
}

func (h *OrderHandler) actor(c *gin.Context) (appstore.Actor, bool) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return appstore.Actor{}, false
	}
	return appstore.Actor{UserID: userID, IsAdmin: isAdmin(c)}, true
}
