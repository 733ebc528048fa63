package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstore "github.com/playhub/backend/internal/application/store"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/interfaces/http/dto"
)

// ProductHandler handles storefront and seller product requests
type ProductHandler struct {
	BaseHandler
	productService *appstore.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *appstore.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ListStoreItems godoc
// @Summary      List store items
// @Description  Active products with stock information
// @Tags         store
// @Produce      json
// @Param        search query string false "Search term"
// @Param        category query string false "Category"
// @Param        kind query string false "physical or digital"
// @Param        seller_id query string false "Seller ID"
// @Param        min_price query string false "Minimum price"
// @Param        max_price query string false "Maximum price"
// @Param        in_stock query bool false "Only items in stock"
// @Param        sort query string false "newest, price_asc, price_desc or best_selling"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstore.ProductDTO,meta=dto.Meta}
// @Failure      400 {object} ErrorResponse
// @Router       /store/items [get]
func (h *ProductHandler) ListStoreItems(c *gin.Context) {
	var query StoreItemQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := store.StoreItemFilter{
		Filter:   query.ToFilter(),
		Category: query.Category,
		Kind:     store.ProductKind(query.Kind),
		InStock:  query.InStock,
		Sort:     store.StoreItemSort(query.Sort),
	}
	if query.SellerID != "" {
		id := uuid.MustParse(query.SellerID)
		filter.SellerID = &id
	}
	var err error
	if filter.MinPrice, err = parseDecimalPtr(query.MinPrice); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid min_price")
		return
	}
	if filter.MaxPrice, err = parseDecimalPtr(query.MaxPrice); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Invalid max_price")
		return
	}

	items, total, err := h.productService.ListStoreItems(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Filter)
}

// GetStoreItem godoc
// @Summary      Get store item
// @Tags         store
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /store/items/{id} [get]
func (h *ProductHandler) GetStoreItem(c *gin.Context) {
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	item, err := h.productService.GetStoreItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Categories godoc
// @Summary      List categories
// @Description  Distinct categories of active products
// @Tags         store
// @Produce      json
// @Success      200 {object} dto.Response{data=[]string}
// @Router       /store/categories [get]
func (h *ProductHandler) Categories(c *gin.Context) {
	categories, err := h.productService.Categories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Create godoc
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateProductRequest true "Product"
// @Success      201 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      400 {object} ErrorResponse
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var req CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), sellerID, appstore.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Kind:        req.Kind,
		Price:       req.Price,
		Currency:    req.Currency,
		Stock:       req.Stock,
		Images:      req.Images,
		Tags:        req.Tags,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// ListMine godoc
// @Summary      List my products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        include_archived query bool false "Include archived products"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response{data=[]appstore.ProductDTO,meta=dto.Meta}
// @Router       /products [get]
func (h *ProductHandler) ListMine(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	var query MyProductsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter := query.ToFilter()

	products, total, err := h.productService.ListMyProducts(c.Request.Context(), sellerID, query.IncludeArchived, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter)
}

// Get godoc
// @Summary      Get product
// @Description  Owners also see archived products
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	userID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update godoc
// @Summary      Update product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body UpdateProductRequest true "Changes"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /products/{id} [patch]
func (h *ProductHandler) Update(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), sellerID, id, appstore.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Images:      req.Images,
		Tags:        req.Tags,
		Version:     req.Version,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdjustStock godoc
// @Summary      Adjust stock
// @Description  Applies a signed delta; stock never goes negative
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body AdjustStockRequest true "Delta"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      422 {object} ErrorResponse
// @Router       /products/{id}/stock [post]
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req AdjustStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.AdjustStock(c.Request.Context(), sellerID, id, req.Delta)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Archive godoc
// @Summary      Archive product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      403 {object} ErrorResponse
// @Router       /products/{id} [delete]
func (h *ProductHandler) Archive(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.ArchiveProduct(c.Request.Context(), sellerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// CreateImageUpload godoc
// @Summary      Start product image upload
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body UploadRequest true "Upload details"
// @Success      201 {object} dto.Response{data=upload.Ticket}
// @Router       /products/{id}/images/upload [post]
func (h *ProductHandler) CreateImageUpload(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req UploadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ticket, err := h.productService.CreateProductImageUpload(c.Request.Context(), sellerID, id, req.ContentType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// AttachImage godoc
// @Summary      Attach uploaded image
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Product ID"
// @Param        request body ConfirmUploadRequest true "Object key"
// @Success      200 {object} dto.Response{data=appstore.ProductDTO}
// @Failure      404 {object} ErrorResponse
// @Router       /products/{id}/images [post]
func (h *ProductHandler) AttachImage(c *gin.Context) {
	sellerID, ok := h.CurrentUser(c)
	if !ok {
		return
	}
	id, ok := h.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req ConfirmUploadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	product, err := h.productService.AttachProductImage(c.Request.Context(), sellerID, id, req.Key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
