package routes

import (
	"citysnap-be/controllers"

	"github.com/gin-gonic/gin"
)

// CategoryRoutes exposes the taxonomy; writes are for admins.
func CategoryRoutes(r *gin.Engine, cc *controllers.CategoryController, g Guards) {
	category := r.Group("/api/categories")
	{
		category.GET("", cc.GetTree)
		category.GET("/leaves", cc.GetLeaves)
		category.GET("/:id", cc.GetCategory)
		category.POST("", g.Auth, g.AdminOnly, cc.CreateCategory)
		category.PUT("/:id", g.Auth, g.AdminOnly, cc.UpdateCategory)
		category.DELETE("/:id", g.Auth, g.AdminOnly, cc.DeleteCategory)
	}
}
