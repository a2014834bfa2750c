package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/swimlab-mx/club-api/internal/service"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
	"github.com/swimlab-mx/club-api/pkg/response"
)

// CatalogHandler exposes level, plan and rate endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListLevels godoc
// @Summary List levels in display order
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /levels [get]
func (h *CatalogHandler) ListLevels(c *gin.Context) {
	levels, err := h.catalog.ListLevels(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// CreateLevel godoc
// @Summary Create a level
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.LevelRequest true "Level payload"
// @Success 201 {object} response.Envelope
// @Router /levels [post]
func (h *CatalogHandler) CreateLevel(c *gin.Context) {
	var req service.LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.catalog.CreateLevel(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// UpdateLevel godoc
// @Summary Rename or reorder a level
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Level ID"
// @Param payload body service.LevelRequest true "Level payload"
// @Success 200 {object} response.Envelope
// @Router /levels/{id} [put]
func (h *CatalogHandler) UpdateLevel(c *gin.Context) {
	var req service.LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	level, err := h.catalog.UpdateLevel(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, level, nil)
}

// DeleteLevel godoc
// @Summary Delete an unreferenced level
// @Tags Catalog
// @Produce json
// @Param id path string true "Level ID"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /levels/{id} [delete]
func (h *CatalogHandler) DeleteLevel(c *gin.Context) {
	if err := h.catalog.DeleteLevel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPlans godoc
// @Summary List membership plans
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *CatalogHandler) ListPlans(c *gin.Context) {
	plans, err := h.catalog.ListPlans(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, nil)
}

// CreatePlan godoc
// @Summary Create a membership plan
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.PlanRequest true "Plan payload"
// @Success 201 {object} response.Envelope
// @Router /plans [post]
func (h *CatalogHandler) CreatePlan(c *gin.Context) {
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.catalog.CreatePlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

// UpdatePlan godoc
// @Summary Update a membership plan
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body service.PlanRequest true "Plan payload"
// @Success 200 {object} response.Envelope
// @Router /plans/{id} [put]
func (h *CatalogHandler) UpdatePlan(c *gin.Context) {
	var req service.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plan, err := h.catalog.UpdatePlan(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ListRates godoc
// @Summary List the rate table
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rates [get]
func (h *CatalogHandler) ListRates(c *gin.Context) {
	rates, err := h.catalog.ListRates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rates, nil)
}

// CreateRate godoc
// @Summary Price a (plan, level) pair
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.RateRequest true "Rate payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /rates [post]
func (h *CatalogHandler) CreateRate(c *gin.Context) {
	var req service.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rate, err := h.catalog.CreateRate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rate)
}

// UpdateRate godoc
// @Summary Update rate amounts
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Rate ID"
// @Param payload body service.RateRequest true "Rate payload"
// @Success 200 {object} response.Envelope
// @Router /rates/{id} [put]
func (h *CatalogHandler) UpdateRate(c *gin.Context) {
	var req service.RateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rate, err := h.catalog.UpdateRate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rate, nil)
}
