package handler

import (
	"context"
	"net/http"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/middleware"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/service"
	"anoa.com/skillexchange/pkg/response"
	"anoa.com/skillexchange/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SwapHandler struct {
	service service.SwapService
}

func NewSwapHandler(service service.SwapService) *SwapHandler {
	return &SwapHandler{service: service}
}

func (h *SwapHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	swap, created, err := h.service.Create(c.Request.Context(), userID, input, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	// Repeating an identical pending request returns the existing one.
	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"data": swap})
}

func (h *SwapHandler) List(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter dto.SwapFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	swaps, meta, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": swaps, "meta": meta})
}

func (h *SwapHandler) Get(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid swap id"})
		return
	}

	swap, err := h.service.Get(c.Request.Context(), userID, swapID, middleware.IsStaff(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": swap})
}

func (h *SwapHandler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *SwapHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *SwapHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

func (h *SwapHandler) transition(c *gin.Context, fn func(ctx context.Context, userID, swapID uuid.UUID, meta service.RequestMeta) (*model.SwapRequest, error)) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid swap id"})
		return
	}

	swap, err := fn(c.Request.Context(), userID, swapID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": swap})
}

func (h *SwapHandler) Complete(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid swap id"})
		return
	}

	var input dto.CompleteSwapRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	swap, err := h.service.Complete(c.Request.Context(), userID, swapID, input, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": swap})
}

func (h *SwapHandler) CreateReview(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	swapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid swap id"})
		return
	}

	var input dto.CreateSwapReviewRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), userID, swapID, input, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": review})
}
