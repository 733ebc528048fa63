package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstore "github.com/playhub/backend/internal/application/store"
)

// IdempotencyKeyHeader deduplicates checkout submissions
const IdempotencyKeyHeader = "Idempotency-Key"

// CartHandler handles cart and checkout requests
type CartHandler struct {
	BaseHandler
	cartService     *appstore.CartService
	checkoutService *appstore.CheckoutService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *appstore.CartService, checkoutService *appstore.CheckoutService) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		checkoutService: checkoutService,
	}
}

// Get godoc
// @Summary      Get cart
// @Description  Reconciles the cart against current products and reports adjustments
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=appstore.CartDTO}
// @Failure      401 {object} ErrorResponse
// @Router       /cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	cart, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddItem godoc
// @Summary      Add to cart
// @Description  Merges with an existing line for the same product
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CartItemRequest true "Item"
// @Success      200 {object} dto.Response{data=appstore.CartDTO}
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req CartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// UpdateItem godoc
// @Summary      Set cart line quantity
// @Description  Quantity 0 removes the line
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        productId path string true "Product ID"
// @Param        request body UpdateCartItemRequest true "Quantity"
// @Success      200 {object} dto.Response{data=appstore.CartDTO}
// @Failure      422 {object} ErrorResponse
// @Router       /cart/items/{productId} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), userID, productID, *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveItem godoc
// @Summary      Remove cart line
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        productId path string true "Product ID"
// @Success      200 {object} dto.Response{data=appstore.CartDTO}
// @Router       /cart/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	productID, ok := h.ParamUUID(c, "productId")
	if !ok {
		return
	}
	cart, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear godoc
// @Summary      Clear cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=appstore.CartDTO}
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	cart, err := h.cartService.ClearCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Checkout godoc
// @Summary      Checkout
// @Description  Places a pending order from the cart and starts payment. A cart that
// @Description  changed since it was last viewed is rejected with CART_CHANGED.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Deduplication key"
// @Param        request body CheckoutRequest false "Shipping address"
// @Success      201 {object} dto.Response{data=appstore.OrderDTO}
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /cart/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	buyerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}

	order, err := h.checkoutService.Checkout(c.Request.Context(), appstore.CheckoutInput{
		BuyerID:         buyerID,
		ShippingAddress: req.ShippingAddress.toValueObject(),
		IdempotencyKey:  strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}
