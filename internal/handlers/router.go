package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlms/course-service/internal/models"
	"github.com/openlms/course-service/internal/repositories"
	"github.com/openlms/course-service/internal/services"
	"github.com/openlms/course-service/internal/utils"
)

type HandlerManager struct {
	userHandler       *UserHandler
	orgHandler        *OrganizationHandler
	courseHandler     *CourseHandler
	lessonHandler     *LessonHandler
	enrollmentHandler *EnrollmentHandler
	authMiddleware    *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	jwtSecret string,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return &HandlerManager{
		userHandler:       NewUserHandler(serviceManager.User(), logger),
		orgHandler:        NewOrganizationHandler(serviceManager.Organization(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), serviceManager.Report(), logger),
		lessonHandler:     NewLessonHandler(serviceManager.Lesson(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		authMiddleware:    NewJWTAuthMiddleware(jwtSecret, userRepo),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")

	// Public routes, no token required
	auth := v1.Group("/auth")
	{
		auth.POST("/register", hm.userHandler.Register)
		auth.POST("/login", hm.userHandler.Login)
	}

	// Published catalog browsing is public
	v1.GET("/courses/slug/:slug", hm.courseHandler.GetCourseBySlug)
	v1.GET("/organizations/slug/:slug", hm.orgHandler.GetOrganizationBySlug)

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		users := authed.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.userHandler.DeleteUser)
			users.GET("/:id/profile", hm.userHandler.GetProfile)
			users.PUT("/:id/profile", hm.userHandler.UpdateProfile)
		}

		organizations := authed.Group("/organizations")
		{
			organizations.POST("", hm.orgHandler.CreateOrganization)
			organizations.GET("", hm.orgHandler.ListOrganizations)
			organizations.GET("/mine", hm.orgHandler.ListMyOrganizations)
			organizations.GET("/:id", hm.orgHandler.GetOrganization)
			organizations.PUT("/:id", hm.orgHandler.UpdateOrganization)
			organizations.DELETE("/:id", hm.orgHandler.DeleteOrganization)

			organizations.POST("/:id/members", hm.orgHandler.AddMember)
			organizations.GET("/:id/members", hm.orgHandler.ListMembers)
			organizations.PUT("/:id/members/:user_id", hm.orgHandler.UpdateMemberRole)
			organizations.DELETE("/:id/members/:user_id", hm.orgHandler.RemoveMember)
		}

		courses := authed.Group("/courses")
		{
			courses.POST("", hm.courseHandler.CreateCourse)
			courses.GET("", hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.PUT("/:id", hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", hm.courseHandler.DeleteCourse)
			courses.GET("/:id/stats", hm.courseHandler.GetCourseStats)
			courses.POST("/:id/publish", hm.courseHandler.PublishCourse)
			courses.POST("/:id/unpublish", hm.courseHandler.UnpublishCourse)

			courses.POST("/:id/instructors", hm.courseHandler.AddInstructor)
			courses.GET("/:id/instructors", hm.courseHandler.ListInstructors)
			courses.PUT("/:id/instructors/:user_id", hm.courseHandler.UpdateInstructorRole)
			courses.DELETE("/:id/instructors/:user_id", hm.courseHandler.RemoveInstructor)

			courses.POST("/:id/lessons", hm.lessonHandler.CreateLesson)
			courses.GET("/:id/lessons", hm.lessonHandler.ListLessons)

			courses.GET("/:id/progress", hm.enrollmentHandler.GetCourseProgress)
			courses.GET("/:id/enrollment", hm.enrollmentHandler.GetMyCourseEnrollment)
			courses.GET("/:id/enrollments", hm.enrollmentHandler.ListCourseEnrollments)
			courses.GET("/:id/enrollments/export", hm.courseHandler.ExportEnrollments)
		}

		lessons := authed.Group("/lessons")
		{
			lessons.GET("/:id", hm.lessonHandler.GetLesson)
			lessons.GET("/:id/progress", hm.enrollmentHandler.GetLessonProgress)
			lessons.PUT("/:id", hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", hm.lessonHandler.DeleteLesson)
		}

		enrollments := authed.Group("/enrollments")
		{
			enrollments.POST("", hm.enrollmentHandler.Enroll)
			enrollments.GET("", hm.enrollmentHandler.ListMyEnrollments)
			enrollments.GET("/:id", hm.enrollmentHandler.GetEnrollment)
			enrollments.PUT("/:id", hm.enrollmentHandler.UpdateEnrollment)
			enrollments.DELETE("/:id", hm.enrollmentHandler.Unenroll)
		}

		authed.PUT("/progress", hm.enrollmentHandler.UpdateProgress)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "course-service",
		})
	})
}
