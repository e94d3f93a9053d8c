package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glowpoint/studio-api/internal/service"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
	"github.com/glowpoint/studio-api/pkg/response"
)

// CatalogHandler exposes class type, instructor and location endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListClassTypes godoc
// @Summary List class types
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /class-types [get]
func (h *CatalogHandler) ListClassTypes(c *gin.Context) {
	types, err := h.catalog.ListClassTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// GetClassType godoc
// @Summary Get one class type
// @Tags Catalog
// @Produce json
// @Param id path string true "Class type ID"
// @Success 200 {object} response.Envelope
// @Router /class-types/{id} [get]
func (h *CatalogHandler) GetClassType(c *gin.Context) {
	ct, err := h.catalog.GetClassType(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ct, nil)
}

// CreateClassType godoc
// @Summary Create a class type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateClassTypeRequest true "Class type payload"
// @Success 201 {object} response.Envelope
// @Router /class-types [post]
func (h *CatalogHandler) CreateClassType(c *gin.Context) {
	var req service.CreateClassTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	ct, err := h.catalog.CreateClassType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ct)
}

// ListInstructors godoc
// @Summary List instructors
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instructors [get]
func (h *CatalogHandler) ListInstructors(c *gin.Context) {
	instructors, err := h.catalog.ListInstructors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instructors, nil)
}

// CreateInstructor godoc
// @Summary Create an instructor
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateInstructorRequest true "Instructor payload"
// @Success 201 {object} response.Envelope
// @Router /instructors [post]
func (h *CatalogHandler) CreateInstructor(c *gin.Context) {
	var req service.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instructor, err := h.catalog.CreateInstructor(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instructor)
}

// ListLocations godoc
// @Summary List locations
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *CatalogHandler) ListLocations(c *gin.Context) {
	locations, err := h.catalog.ListLocations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, nil)
}

// CreateLocation godoc
// @Summary Create a location
// @Tags Catalog
// @Accept json
// @Produce json
// @Param payload body service.CreateLocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Router /locations [post]
func (h *CatalogHandler) CreateLocation(c *gin.Context) {
	var req service.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	location, err := h.catalog.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, location)
}
