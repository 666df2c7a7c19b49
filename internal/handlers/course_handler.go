package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openlms/course-service/internal/services"
	"github.com/openlms/course-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
	reportService services.ReportService
}

func NewCourseHandler(courseService services.CourseService, reportService services.ReportService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
		reportService: reportService,
	}
}

// CreateCourse creates a new course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CourseCreateRequest true "Course data"
// @Success 201 {object} models.Course
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.CourseCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse retrieves a course by ID
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	course, err := h.courseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetCourseBySlug retrieves a published course by slug
// @Summary Get course by slug
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse
// @Router /courses/slug/{slug} [get]
func (h *CourseHandler) GetCourseBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid slug parameter"})
		return
	}

	course, err := h.courseService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// ListCourses lists courses with optional filters
// @Summary List courses
// @Tags courses
// @Produce json
// @Param organization_id query uint false "Filter by organization"
// @Param instructor_id query uint false "Filter by instructor"
// @Param published query bool false "Published courses only"
// @Param language query string false "Filter by language"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	filters := services.CourseListFilters{
		ListFilters: h.parseListFilters(c),
		Language:    c.Query("language"),
	}

	if raw := c.Query("organization_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			orgID := uint(id)
			filters.OrganizationID = &orgID
		}
	}
	if raw := c.Query("instructor_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			instructorID := uint(id)
			filters.InstructorID = &instructorID
		}
	}
	if raw := c.Query("published"); raw != "" {
		filters.PublishedOnly = raw == "true"
	}

	courses, err := h.courseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// UpdateCourse updates a course
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param course body services.CourseUpdateRequest true "Fields to update"
// @Success 200 {object} models.Course
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.CourseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes a course and its dependent rows
// @Summary Delete course
// @Tags courses
// @Param id path uint true "Course ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted"})
}

// PublishCourse makes a course publicly visible
// @Summary Publish course
// @Tags courses
// @Param id path uint true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/publish [post]
func (h *CourseHandler) PublishCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	course, err := h.courseService.Publish(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// GetCourseStats returns aggregate counts for a course
// @Summary Get course stats
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseStatsResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/stats [get]
func (h *CourseHandler) GetCourseStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	stats, err := h.courseService.GetStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// UnpublishCourse hides a course from the public catalog
// @Summary Unpublish course
// @Tags courses
// @Param id path uint true "Course ID"
// @Success 200 {object} models.Course
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/unpublish [post]
func (h *CourseHandler) UnpublishCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	course, err := h.courseService.Unpublish(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// AddInstructor adds an instructor to the course staff
// @Summary Add instructor
// @Tags courses
// @Accept json
// @Produce json
// @Param id path uint true "Course ID"
// @Param instructor body services.AddInstructorRequest true "Instructor data"
// @Success 201 {object} models.CourseInstructor
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /courses/{id}/instructors [post]
func (h *CourseHandler) AddInstructor(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.AddInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	instructor, err := h.courseService.AddInstructor(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, instructor)
}

// ListInstructors lists the course staff
// @Summary List instructors
// @Tags courses
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {array} models.CourseInstructor
// @Router /courses/{id}/instructors [get]
func (h *CourseHandler) ListInstructors(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	instructors, err := h.courseService.ListInstructors(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instructors)
}

// UpdateInstructorRole changes an instructor's role on the course
// @Summary Update instructor role
// @Tags courses
// @Accept json
// @Param id path uint true "Course ID"
// @Param user_id path uint true "User ID"
// @Param role body services.UpdateInstructorRoleRequest true "New role"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/instructors/{user_id} [put]
func (h *CourseHandler) UpdateInstructorRole(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	instructorID := h.parseIDParam(c, "user_id")
	if instructorID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.UpdateInstructorRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.courseService.UpdateInstructorRole(c.Request.Context(), id, instructorID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Instructor role updated"})
}

// RemoveInstructor removes an instructor from the course staff
// @Summary Remove instructor
// @Tags courses
// @Param id path uint true "Course ID"
// @Param user_id path uint true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/instructors/{user_id} [delete]
func (h *CourseHandler) RemoveInstructor(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	instructorID := h.parseIDParam(c, "user_id")
	if instructorID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.courseService.RemoveInstructor(c.Request.Context(), id, instructorID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Instructor removed"})
}

// ExportEnrollments streams the course enrollment report as an xlsx attachment
// @Summary Export enrollment report
// @Tags courses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Course ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /courses/{id}/enrollments/export [get]
func (h *CourseHandler) ExportEnrollments(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Exporting enrollment report", "course_id", id)

	data, filename, err := h.reportService.CourseEnrollmentsWorkbook(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
