package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glowpoint/studio-api/internal/service"
	appErrors "github.com/glowpoint/studio-api/pkg/errors"
	"github.com/glowpoint/studio-api/pkg/response"
)

// ContentHandler exposes the media library.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler constructs ContentHandler.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// ListCategories godoc
// @Summary List content categories
// @Tags Content
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /content/categories [get]
func (h *ContentHandler) ListCategories(c *gin.Context) {
	categories, err := h.content.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// ListItems godoc
// @Summary List library items visible to the caller
// @Tags Content
// @Produce json
// @Param categoryId query string false "Filter by category"
// @Param limit query int false "Max items"
// @Success 200 {object} response.Envelope
// @Router /content/items [get]
func (h *ContentHandler) ListItems(c *gin.Context) {
	limit := 24
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "24")); err == nil {
		limit = v
	}
	authenticated := claimsFromContext(c) != nil

	items, err := h.content.ListItems(c.Request.Context(), authenticated, c.Query("categoryId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateItem godoc
// @Summary Add a library item
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body service.CreateMediaItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Router /content/items [post]
func (h *ContentHandler) CreateItem(c *gin.Context) {
	var req service.CreateMediaItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.content.CreateItem(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// CreateCategory godoc
// @Summary Add a content category
// @Tags Content
// @Accept json
// @Produce json
// @Param payload body service.CreateContentCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /content/categories [post]
func (h *ContentHandler) CreateCategory(c *gin.Context) {
	var req service.CreateContentCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	category, err := h.content.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}
