package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/course-service/internal/services"
	"github.com/openlms/course-service/internal/utils"
)

type OrganizationHandler struct {
	BaseHandler
	orgService services.OrganizationService
}

func NewOrganizationHandler(orgService services.OrganizationService, logger utils.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler: NewBaseHandler(logger),
		orgService:  orgService,
	}
}

// CreateOrganization creates a new organization
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body services.OrganizationCreateRequest true "Organization data"
// @Success 201 {object} models.Organization
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations [post]
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.OrganizationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	org, err := h.orgService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

// GetOrganization retrieves an organization by ID
// @Summary Get organization
// @Tags organizations
// @Produce json
// @Param id path uint true "Organization ID"
// @Success 200 {object} models.Organization
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [get]
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	org, err := h.orgService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// GetOrganizationBySlug retrieves an organization by slug
// @Summary Get organization by slug
// @Tags organizations
// @Produce json
// @Param slug path string true "Organization slug"
// @Success 200 {object} models.Organization
// @Failure 404 {object} ErrorResponse
// @Router /organizations/slug/{slug} [get]
func (h *OrganizationHandler) GetOrganizationBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug parameter"})
		return
	}

	org, err := h.orgService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// ListMyOrganizations lists the caller's organizations
// @Summary List my organizations
// @Tags organizations
// @Produce json
// @Param created query bool false "Only organizations the caller created"
// @Success 200 {array} models.Organization
// @Failure 401 {object} ErrorResponse
// @Router /organizations/mine [get]
func (h *OrganizationHandler) ListMyOrganizations(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	createdOnly := c.Query("created") == "true"

	orgs, err := h.orgService.ListMine(c.Request.Context(), userID, createdOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

// ListOrganizations lists organizations
// @Summary List organizations
// @Tags organizations
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.OrganizationListResponse
// @Router /organizations [get]
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.orgService.List(c.Request.Context(), h.parseListFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, orgs)
}

// UpdateOrganization updates an organization
// @Summary Update organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path uint true "Organization ID"
// @Param organization body services.OrganizationUpdateRequest true "Fields to update"
// @Success 200 {object} models.Organization
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations/{id} [put]
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.OrganizationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	org, err := h.orgService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// DeleteOrganization removes an organization and its memberships
// @Summary Delete organization
// @Tags organizations
// @Param id path uint true "Organization ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id} [delete]
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Organization deleted"})
}

// AddMember adds a user to an organization
// @Summary Add member
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path uint true "Organization ID"
// @Param member body services.AddMemberRequest true "Member data"
// @Success 201 {object} models.OrganizationMember
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /organizations/{id}/members [post]
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	member, err := h.orgService.AddMember(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, member)
}

// ListMembers lists the members of an organization
// @Summary List members
// @Tags organizations
// @Produce json
// @Param id path uint true "Organization ID"
// @Success 200 {array} models.OrganizationMember
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id}/members [get]
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	members, err := h.orgService.ListMembers(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, members)
}

// UpdateMemberRole changes a member's role
// @Summary Update member role
// @Tags organizations
// @Accept json
// @Param id path uint true "Organization ID"
// @Param user_id path uint true "User ID"
// @Param role body services.UpdateMemberRoleRequest true "New role"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id}/members/{user_id} [put]
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	memberID := h.parseIDParam(c, "user_id")
	if memberID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.orgService.UpdateMemberRole(c.Request.Context(), id, memberID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Member role updated"})
}

// RemoveMember removes a user from an organization
// @Summary Remove member
// @Tags organizations
// @Param id path uint true "Organization ID"
// @Param user_id path uint true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /organizations/{id}/members/{user_id} [delete]
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	memberID := h.parseIDParam(c, "user_id")
	if memberID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.orgService.RemoveMember(c.Request.Context(), id, memberID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Member removed"})
}
