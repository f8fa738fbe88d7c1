package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zkreview-backend/internal/domains/review/model"
	"zkreview-backend/internal/domains/review/service"
	"zkreview-backend/internal/shared/response"
)

// =====================================================
// REVIEW HANDLER
// =====================================================

type ReviewHandler struct {
	reviewService service.ServiceInterface
}

func NewReviewHandler(reviewService service.ServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// =====================================================
// ERROR MAPPING
// =====================================================

// statusForReason maps rejection reasons to HTTP statuses. Duplicate is a
// conflict, invalid proof is unprocessable, an unavailable verifier is a
// 503 the client may retry.
func statusForReason(reason string) int {
	switch reason {
	case model.ReasonInvalidInput:
		return http.StatusBadRequest
	case model.ReasonDuplicate:
		return http.StatusConflict
	case model.ReasonInvalidProof:
		return http.StatusUnprocessableEntity
	case model.ReasonVerifierUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondReviewError(c *gin.Context, err error) {
	var revErr *model.ReviewError
	if !errors.As(err, &revErr) {
		response.InternalServerError(c, "Internal error")
		return
	}

	switch {
	case errors.Is(revErr.Err, model.ErrReviewNotFound),
		errors.Is(revErr.Err, model.ErrReviewerNotFound):
		response.ErrorResponse(c, http.StatusNotFound, revErr.Code, revErr.Message)
	case revErr.Reason != "":
		response.ErrorWithReason(c, statusForReason(revErr.Reason), revErr.Code, revErr.Reason, revErr.Message)
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, revErr.Code, revErr.Message)
	}
}

// =====================================================
// SUBMISSION ENDPOINT
// =====================================================

// SubmitReview submits a proof-backed review
// POST /api/v1/reviews
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	// Step 1: Bind request body
	var req model.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithReason(c, http.StatusBadRequest,
			model.ErrCodeInvalidInput, model.ReasonInvalidInput, err.Error())
		return
	}

	// Step 2: Call service (validation included)
	resp, err := h.reviewService.SubmitReview(c.Request.Context(), req)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	// Step 3: Return success
	response.Success(c, http.StatusCreated, resp)
}

// =====================================================
// READ ENDPOINTS
// =====================================================

// GetReview gets review by sequential id
// GET /api/v1/reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(c, "Invalid review ID")
		return
	}

	resp, err := h.reviewService.GetReview(c.Request.Context(), id)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ListRecent lists newest reviews across all products
// GET /api/v1/reviews/recent?limit=n
func (h *ReviewHandler) ListRecent(c *gin.Context) {
	var req model.ListRecentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	resp, err := h.reviewService.ListRecent(c.Request.Context(), req.Limit)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// ListByProduct pages through one product's reviews
// GET /api/v1/products/:id/reviews
func (h *ReviewHandler) ListByProduct(c *gin.Context) {
	productID := c.Param("id")
	if productID == "" {
		response.BadRequest(c, "Invalid product ID")
		return
	}

	var req model.ListByProductRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	resp, err := h.reviewService.ListByProduct(c.Request.Context(), productID, req.Page, req.Limit)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, resp, &response.Meta{
		Page:  req.Page,
		Limit: req.Limit,
	})
}

// GetReviewer returns the reputation readout for one identity
// GET /api/v1/reviewers/:identity
func (h *ReviewHandler) GetReviewer(c *gin.Context) {
	identity := c.Param("identity")
	if identity == "" {
		response.BadRequest(c, "Invalid reviewer identity")
		return
	}

	resp, err := h.reviewService.GetReviewer(c.Request.Context(), identity)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}
