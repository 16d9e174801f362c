package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-vaccination-api/internal/middleware"
	"github.com/noah-isme/school-vaccination-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth         *AuthHandler
	Students     *StudentHandler
	Vaccinations *VaccinationHandler
	Imports      *ImportHandler
	Drives       *DriveHandler
	Dashboard    *DashboardHandler
	Reports      *ReportHandler
}

// RegisterRoutes mounts the API on group. Everything except login requires an admin bearer token.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, tokens middleware.TokenValidator) {
	auth := group.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.GET("/verify", middleware.JWT(tokens), h.Auth.Verify)

	secured := group.Group("")
	secured.Use(middleware.JWT(tokens), middleware.RequireRoles(models.RoleAdmin))

	students := secured.Group("/students")
	students.GET("", h.Students.List)
	students.POST("", h.Students.Create)
	students.POST("/bulk-import", h.Imports.BulkImport)
	students.GET("/:id", h.Students.Get)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)
	students.POST("/:id/vaccinate", h.Vaccinations.Vaccinate)
	students.GET("/:id/eligibility", h.Vaccinations.Eligibility)

	drives := secured.Group("/drives")
	drives.GET("", h.Drives.List)
	drives.POST("", h.Drives.Create)
	drives.GET("/:id", h.Drives.Get)
	drives.PUT("/:id", h.Drives.Update)
	drives.DELETE("/:id", h.Drives.Delete)

	secured.GET("/dashboard/stats", h.Dashboard.Stats)
	secured.GET("/reports/vaccinations", h.Reports.Vaccinations)
}
