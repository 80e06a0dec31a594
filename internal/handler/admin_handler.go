package handler

import (
	"net/http"

	"anoa.com/skillexchange/internal/dto"
	"anoa.com/skillexchange/internal/model"
	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/internal/service"
	"anoa.com/skillexchange/pkg/response"
	"anoa.com/skillexchange/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler serves the staff dashboard: platform analytics, the activity
// feed and category management. All routes are staff-guarded.
type AdminHandler struct {
	analytics    service.AnalyticsService
	skills       service.SkillService
	activityRepo repository.ActivityRepository
}

func NewAdminHandler(analytics service.AnalyticsService, skills service.SkillService, activityRepo repository.ActivityRepository) *AdminHandler {
	return &AdminHandler{
		analytics:    analytics,
		skills:       skills,
		activityRepo: activityRepo,
	}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.analytics.Dashboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dashboard})
}

func (h *AdminHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

func (h *AdminHandler) Activities(c *gin.Context) {
	var filter dto.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}
	filter.Normalize(50, 200)

	activities, total, err := h.activityRepo.Find(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": activities,
		"meta": dto.NewPaginationMeta(total, filter.Page, filter.Limit),
	})
}

type createCategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"max=50"`
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var input createCategoryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	category := &model.Category{
		Name:        input.Name,
		Description: input.Description,
		Icon:        input.Icon,
	}
	if err := h.skills.CreateCategory(c.Request.Context(), category); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": category})
}

func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	if err := h.skills.DeleteCategory(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}
