package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlms/course-service/internal/services"
	"github.com/openlms/course-service/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

// Enroll enrolls the authenticated user in a course
// @Summary Enroll in course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param enrollment body services.EnrollmentCreateRequest true "Enrollment data"
// @Success 201 {object} models.Enrollment
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.EnrollmentCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// GetEnrollment retrieves an enrollment by ID
// @Summary Get enrollment
// @Tags enrollments
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListMyEnrollments lists the authenticated user's enrollments
// @Summary List my enrollments
// @Tags enrollments
// @Produce json
// @Param completed query bool false "Filter by completion"
// @Success 200 {object} services.EnrollmentListResponse
// @Router /enrollments [get]
func (h *EnrollmentHandler) ListMyEnrollments(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters := services.EnrollmentListFilters{
		ListFilters: h.parseListFilters(c),
	}
	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true"
		filters.Completed = &completed
	}

	enrollments, err := h.enrollmentService.ListByUser(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ListCourseEnrollments lists a course's enrollments for its staff
// @Summary List course enrollments
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Param completed query bool false "Filter by completion"
// @Success 200 {object} services.EnrollmentListResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enrollments [get]
func (h *EnrollmentHandler) ListCourseEnrollments(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	filters := services.EnrollmentListFilters{
		ListFilters: h.parseListFilters(c),
	}
	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true"
		filters.Completed = &completed
	}

	enrollments, err := h.enrollmentService.ListByCourse(c.Request.Context(), courseID, userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// GetMyCourseEnrollment returns the caller's enrollment in a course with its progress rows
// @Summary Get my enrollment in a course
// @Tags enrollments
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.EnrollmentWithProgressResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/enrollment [get]
func (h *EnrollmentHandler) GetMyCourseEnrollment(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.GetWithProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// UpdateEnrollment updates an enrollment's payment status
// @Summary Update enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Param id path uint true "Enrollment ID"
// @Param enrollment body services.EnrollmentUpdateRequest true "Fields to update"
// @Success 200 {object} models.Enrollment
// @Failure 403 {object} ErrorResponse
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) UpdateEnrollment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.EnrollmentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	enrollment, err := h.enrollmentService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// Unenroll removes an enrollment and its progress
// @Summary Unenroll
// @Tags enrollments
// @Param id path uint true "Enrollment ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	if err := h.enrollmentService.Unenroll(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Enrollment removed"})
}

// UpdateProgress records the authenticated user's progress on a lesson
// @Summary Update lesson progress
// @Tags progress
// @Accept json
// @Produce json
// @Param progress body services.ProgressUpdateRequest true "Progress data"
// @Success 200 {object} models.LessonProgress
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /progress [put]
func (h *EnrollmentHandler) UpdateProgress(c *gin.Context) {
	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	var req services.ProgressUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	progress, err := h.enrollmentService.UpdateProgress(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetLessonProgress returns the caller's progress on a single lesson
// @Summary Get lesson progress
// @Tags progress
// @Produce json
// @Param id path uint true "Lesson ID"
// @Success 200 {object} models.LessonProgress
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /lessons/{id}/progress [get]
func (h *EnrollmentHandler) GetLessonProgress(c *gin.Context) {
	lessonID := h.parseIDParam(c, "id")
	if lessonID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	progress, err := h.enrollmentService.GetLessonProgress(c.Request.Context(), userID, lessonID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetCourseProgress returns the caller's per-lesson progress for a course
// @Summary Get course progress
// @Tags progress
// @Produce json
// @Param id path uint true "Course ID"
// @Success 200 {object} services.CourseProgressResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetCourseProgress(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}

	userID, ok := h.getUserID(c)
	if !ok {
		return
	}

	progress, err := h.enrollmentService.GetCourseProgress(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}
