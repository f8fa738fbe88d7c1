package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zkreview-backend/internal/domains/product/model"
	"zkreview-backend/internal/domains/product/service"
	"zkreview-backend/internal/shared/response"
)

// =====================================================
// PRODUCT HANDLER
// =====================================================

type ProductHandler struct {
	productService service.ServiceInterface
}

func NewProductHandler(productService service.ServiceInterface) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func respondProductError(c *gin.Context, err error) {
	var prodErr *model.ProductError
	if !errors.As(err, &prodErr) {
		response.InternalServerError(c, "Internal error")
		return
	}

	switch {
	case errors.Is(prodErr.Err, model.ErrProductNotFound):
		response.ErrorResponse(c, http.StatusNotFound, prodErr.Code, prodErr.Message)
	case errors.Is(prodErr.Err, model.ErrProductExists):
		response.ErrorResponse(c, http.StatusConflict, prodErr.Code, prodErr.Message)
	case prodErr.Code == model.ErrCodeInvalidProduct:
		response.ErrorResponse(c, http.StatusBadRequest, prodErr.Code, prodErr.Error())
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, prodErr.Code, prodErr.Message)
	}
}

// CreateProduct registers a product explicitly (admin only)
// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	// Step 1: Bind request body
	var req model.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// Step 2: Call service
	resp, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondProductError(c, err)
		return
	}

	// Step 3: Return success
	response.Success(c, http.StatusCreated, resp)
}

// GetProduct returns one product with derived average rating
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, "Invalid product ID")
		return
	}

	resp, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ListProducts pages through the catalog
// GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	var req model.ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	resp, total, err := h.productService.ListProducts(c.Request.Context(), req.Page, req.Limit)
	if err != nil {
		respondProductError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, resp, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
		Total: total,
	})
}
